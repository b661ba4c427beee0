package openai

import (
	"encoding/json"
	"fmt"

	"mercator-hq/conduit/pkg/providers"
	"mercator-hq/conduit/pkg/stream"
)

// OpenAI API request types

// OpenAIRequest represents an OpenAI chat completion request.
type OpenAIRequest struct {
	Model       string          `json:"model"`
	Messages    []OpenAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
	Stream      bool            `json:"stream"`
}

// OpenAIMessage represents a message in OpenAI format.
type OpenAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OpenAI streaming response types

// OpenAIStreamResponse represents a streaming chunk from OpenAI.
type OpenAIStreamResponse struct {
	ID      string               `json:"id"`
	Object  string               `json:"object"`
	Choices []OpenAIStreamChoice `json:"choices"`
	Error   *OpenAIError         `json:"error,omitempty"`
}

// OpenAIStreamChoice represents a choice in a streaming response.
type OpenAIStreamChoice struct {
	Index        int               `json:"index"`
	Delta        OpenAIStreamDelta `json:"delta"`
	FinishReason *string           `json:"finish_reason"`
}

// OpenAIStreamDelta represents the delta in a streaming chunk.
type OpenAIStreamDelta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

// OpenAIError is the error object OpenAI-compatible servers send in-stream.
type OpenAIError struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
}

// roleSystem is OpenAI's role for the system prompt.
const roleSystem = "system"

// transformRequest transforms a unified request to OpenAI format.
// A non-empty system prompt becomes the leading system message.
func transformRequest(req *providers.ChatRequest, config providers.BackendConfig) *OpenAIRequest {
	openaiReq := &OpenAIRequest{
		Model:       config.Model,
		Messages:    make([]OpenAIMessage, 0, len(req.Messages)+1),
		MaxTokens:   config.MaxTokens,
		Temperature: config.Temperature,
		Stream:      true,
	}

	if req.System != "" {
		openaiReq.Messages = append(openaiReq.Messages, OpenAIMessage{
			Role:    roleSystem,
			Content: req.System,
		})
	}

	for _, msg := range req.Messages {
		openaiReq.Messages = append(openaiReq.Messages, OpenAIMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	return openaiReq
}

// transformStreamChunk decodes one SSE data payload.
// The stream ends on the literal [DONE] payload; finish_reason alone does
// not end it.
func transformStreamChunk(payload []byte) (providers.Signal, error) {
	if string(payload) == stream.DoneMarker {
		return providers.Signal{Done: true}, nil
	}

	var chunk OpenAIStreamResponse
	if err := json.Unmarshal(payload, &chunk); err != nil {
		return providers.Signal{}, fmt.Errorf("failed to parse stream chunk: %w", err)
	}

	if chunk.Error != nil {
		msg := chunk.Error.Message
		if msg == "" {
			msg = providers.UnknownErrorMessage
		}
		return providers.Signal{Error: msg}, nil
	}

	if len(chunk.Choices) == 0 {
		return providers.Signal{}, nil
	}
	return providers.Signal{Text: chunk.Choices[0].Delta.Content}, nil
}

// Envelope interprets OpenAI chat completion SSE payloads.
var Envelope providers.Interpreter = providers.InterpreterFunc(transformStreamChunk)
