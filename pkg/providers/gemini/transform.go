package gemini

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"mercator-hq/conduit/pkg/providers"
)

// Gemini API request types

// GeminiRequest represents a generateContent request.
type GeminiRequest struct {
	Contents         []GeminiContent   `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

// GeminiContent is one conversation turn in Gemini format.
type GeminiContent struct {
	Role  string       `json:"role"`
	Parts []GeminiPart `json:"parts"`
}

// GeminiPart is a single piece of a turn. Only text parts are produced.
type GeminiPart struct {
	Text string `json:"text"`
}

// GenerationConfig carries sampling limits.
type GenerationConfig struct {
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
	Temperature     *float64 `json:"temperature,omitempty"`
}

// Gemini response types

// GeminiResponse is one element of the streamed response array.
type GeminiResponse struct {
	Candidates []GeminiCandidate `json:"candidates"`
	Error      *GeminiError      `json:"error,omitempty"`
}

// GeminiCandidate is one generated candidate.
type GeminiCandidate struct {
	Content      GeminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

// GeminiError is the error object Gemini embeds in a response element.
type GeminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

const (
	roleUser  = "user"
	roleModel = "model"

	// systemAck is the synthetic model turn that follows the system prompt.
	systemAck = "I understand."
)

// BuildRequest translates a unified request into Gemini's schema.
//
// Gemini has no system role here, so a non-empty system prompt becomes a
// leading user turn answered by a synthetic model acknowledgement. The
// assistant role maps to model; text is wrapped into a single part.
func BuildRequest(req *providers.ChatRequest, config providers.BackendConfig) *GeminiRequest {
	geminiReq := &GeminiRequest{
		Contents: make([]GeminiContent, 0, len(req.Messages)+2),
	}

	if req.System != "" {
		geminiReq.Contents = append(geminiReq.Contents,
			textContent(roleUser, req.System),
			textContent(roleModel, systemAck),
		)
	}

	for _, msg := range req.Messages {
		role := roleUser
		if msg.Role == providers.RoleAssistant {
			role = roleModel
		}
		geminiReq.Contents = append(geminiReq.Contents, textContent(role, msg.Content))
	}

	if config.MaxTokens > 0 || config.Temperature != nil {
		geminiReq.GenerationConfig = &GenerationConfig{
			MaxOutputTokens: config.MaxTokens,
			Temperature:     config.Temperature,
		}
	}

	return geminiReq
}

func textContent(role, text string) GeminiContent {
	return GeminiContent{Role: role, Parts: []GeminiPart{{Text: text}}}
}

// extractText decodes one response object and pulls out
// candidates[0].content.parts[0].text. Objects without that path, including
// in-stream error elements, produce an empty signal and the stream goes on.
func extractText(obj []byte) (providers.Signal, error) {
	var resp GeminiResponse
	if err := json.Unmarshal(obj, &resp); err != nil {
		return providers.Signal{}, fmt.Errorf("failed to parse response object: %w", err)
	}

	if resp.Error != nil {
		slog.Debug("skipping gemini error element",
			"code", resp.Error.Code,
			"message", resp.Error.Message,
		)
		return providers.Signal{}, nil
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return providers.Signal{}, nil
	}
	return providers.Signal{Text: resp.Candidates[0].Content.Parts[0].Text}, nil
}

// TextPath extracts text from Gemini response objects.
var TextPath providers.Interpreter = providers.InterpreterFunc(extractText)
