package proxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"mercator-hq/conduit/pkg/providers"
	"mercator-hq/conduit/pkg/proxy/types"
	"mercator-hq/conduit/pkg/stream"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "validation",
			err:        &RequestError{Message: "messages must be an array", Code: types.CodeInvalidValue, Param: "messages"},
			wantStatus: http.StatusBadRequest,
			wantCode:   types.CodeInvalidValue,
			wantMsg:    "messages must be an array",
		},
		{
			name:       "unknown backend",
			err:        &UnknownBackendError{Backend: "llama"},
			wantStatus: http.StatusNotFound,
			wantCode:   types.CodeUnknownBackend,
			wantMsg:    `unknown backend "llama"`,
		},
		{
			name:       "missing credential",
			err:        &providers.ConfigError{Provider: "claude", Field: "credential", Message: "API key not configured"},
			wantStatus: http.StatusInternalServerError,
			wantCode:   types.CodeBackendNotConfigured,
			wantMsg:    `backend "claude" is not configured`,
		},
		{
			name:       "upstream not found",
			err:        &providers.ProviderError{Provider: "claude", Display: "Claude", StatusCode: 404, Message: "model not found"},
			wantStatus: http.StatusNotFound,
			wantCode:   types.CodeProviderError,
			wantMsg:    "Claude API error: model not found",
		},
		{
			name:       "upstream rate limit",
			err:        &providers.ProviderError{Provider: "gemini", Display: "Gemini", StatusCode: 429, Message: "Resource exhausted"},
			wantStatus: http.StatusTooManyRequests,
			wantCode:   types.CodeProviderError,
			wantMsg:    "Gemini API error: Resource exhausted",
		},
		{
			name:       "upstream without display name",
			err:        &providers.ProviderError{Provider: "openai", StatusCode: 401, Message: "bad key"},
			wantStatus: http.StatusUnauthorized,
			wantCode:   types.CodeProviderError,
			wantMsg:    "openai API error: bad key",
		},
		{
			name:       "wrapped upstream error",
			err:        fmt.Errorf("dispatch: %w", &providers.ProviderError{Provider: "claude", Display: "Claude", StatusCode: 503, Message: "Overloaded"}),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   types.CodeProviderError,
			wantMsg:    "Claude API error: Overloaded",
		},
		{
			name:       "upstream redirect not followed",
			err:        &providers.ProviderError{Provider: "openai", Display: "OpenAI", StatusCode: http.StatusMultipleChoices, Message: "Unknown API error"},
			wantStatus: http.StatusMultipleChoices,
			wantCode:   types.CodeProviderError,
			wantMsg:    "OpenAI API error: Unknown API error",
		},
		{
			name:       "connection failure",
			err:        &providers.ProviderError{Provider: "claude", Display: "Claude", Message: "upstream request failed", Cause: errors.New("dial tcp: connection refused")},
			wantStatus: http.StatusInternalServerError,
			wantCode:   types.CodeProviderUnreachable,
		},
		{
			name:       "timeout",
			err:        &providers.TimeoutError{Provider: "gemini", Timeout: time.Second},
			wantStatus: http.StatusInternalServerError,
			wantCode:   types.CodeProviderTimeout,
		},
		{
			name:       "unknown error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   types.CodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := HandleError(tt.err)

			if resp.HTTPStatusCode() != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.HTTPStatusCode(), tt.wantStatus)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
			}
			if tt.wantMsg != "" && resp.Error != tt.wantMsg {
				t.Errorf("message = %q, want %q", resp.Error, tt.wantMsg)
			}
			if strings.Contains(resp.Error, "connection refused") {
				t.Errorf("message leaks transport detail: %q", resp.Error)
			}
		})
	}
}

func TestHandleError_NeverLeaksCredential(t *testing.T) {
	const secret = "sk-ant-super-secret"
	err := &providers.ConfigError{Provider: "claude", Field: "credential", Message: "invalid key " + secret}

	if resp := HandleError(err); strings.Contains(resp.Error, secret) {
		t.Errorf("credential leaked: %q", resp.Error)
	}
}

func TestStreamErrorEvent(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"stream error", &providers.StreamError{Provider: "claude", Message: "upstream stream interrupted", Cause: errors.New("unexpected EOF")}, http.StatusBadGateway},
		{"frame too large", &providers.StreamError{Provider: "claude", Cause: fmt.Errorf("%w: 2MB", stream.ErrFrameTooLarge)}, http.StatusBadGateway},
		{"deadline", &providers.StreamError{Provider: "gemini", Cause: context.DeadlineExceeded}, http.StatusGatewayTimeout},
		{"timeout error", &providers.TimeoutError{Provider: "gemini"}, http.StatusGatewayTimeout},
		{"unknown", errors.New("boom"), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := StreamErrorEvent(tt.err)
			if ev.Kind != stream.KindError {
				t.Fatalf("kind = %s, want error", ev.Kind)
			}
			if ev.Status != tt.wantStatus {
				t.Errorf("status = %d, want %d", ev.Status, tt.wantStatus)
			}
			if ev.Message == "" {
				t.Error("empty message")
			}
		})
	}
}
