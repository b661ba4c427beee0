package anthropic

import (
	"encoding/json"
	"fmt"

	"mercator-hq/conduit/pkg/providers"
)

// Anthropic API request types

// AnthropicRequest represents an Anthropic messages request.
type AnthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []AnthropicMessage `json:"messages"`
	System      string             `json:"system"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature *float64           `json:"temperature,omitempty"`
	Stream      bool               `json:"stream"`
}

// AnthropicMessage represents a message in Anthropic format.
type AnthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Anthropic streaming response types

// AnthropicStreamEvent represents an event in Anthropic's SSE stream.
// Only the fields needed to extract text, completion and errors are decoded.
type AnthropicStreamEvent struct {
	Type string `json:"type"`

	// For content_block_delta event
	Delta *ContentBlockDelta `json:"delta,omitempty"`

	// For error event
	Error *AnthropicError `json:"error,omitempty"`
}

// ContentBlockDelta represents incremental content in Anthropic format.
type ContentBlockDelta struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// AnthropicError is the error object carried by an error event.
type AnthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Stream event types
const (
	eventContentBlockDelta = "content_block_delta"
	eventMessageStop       = "message_stop"
	eventError             = "error"

	deltaText = "text_delta"
)

// transformRequest transforms a unified request to Anthropic format.
// The system prompt maps directly onto Anthropic's top-level system field.
func transformRequest(req *providers.ChatRequest, config providers.BackendConfig) *AnthropicRequest {
	anthropicReq := &AnthropicRequest{
		Model:       config.Model,
		Messages:    make([]AnthropicMessage, 0, len(req.Messages)),
		System:      req.System,
		MaxTokens:   config.MaxTokens,
		Temperature: config.Temperature,
		Stream:      true,
	}

	// max_tokens is required by Anthropic
	if anthropicReq.MaxTokens == 0 {
		anthropicReq.MaxTokens = DefaultMaxTokens
	}

	for _, msg := range req.Messages {
		anthropicReq.Messages = append(anthropicReq.Messages, AnthropicMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	return anthropicReq
}

// interpretEvent decodes one SSE data payload.
// Events other than text deltas, message_stop and error are ignored.
func interpretEvent(payload []byte) (providers.Signal, error) {
	var event AnthropicStreamEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return providers.Signal{}, fmt.Errorf("failed to parse stream event: %w", err)
	}

	switch event.Type {
	case eventContentBlockDelta:
		if event.Delta != nil && event.Delta.Type == deltaText {
			return providers.Signal{Text: event.Delta.Text}, nil
		}
	case eventMessageStop:
		return providers.Signal{Done: true}, nil
	case eventError:
		msg := providers.UnknownErrorMessage
		if event.Error != nil && event.Error.Message != "" {
			msg = event.Error.Message
		}
		return providers.Signal{Error: msg}, nil
	}

	return providers.Signal{}, nil
}

// Envelope interprets Anthropic Messages SSE payloads.
var Envelope providers.Interpreter = providers.InterpreterFunc(interpretEvent)
