package providers_test

import (
	"errors"
	"strings"
	"testing"

	"mercator-hq/conduit/pkg/providers"
)

func TestExtractErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"nested error message", `{"error":{"message":"model not found","type":"not_found"}}`, "model not found"},
		{"string error", `{"error":"bad key"}`, "bad key"},
		{"top-level message", `{"message":"overloaded"}`, "overloaded"},
		{"nested wins over top-level", `{"error":{"message":"inner"},"message":"outer"}`, "inner"},
		{"gemini array", `[{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}]`, "API key not valid"},
		{"raw text", "  upstream exploded \n", "upstream exploded"},
		{"empty body", "", providers.UnknownErrorMessage},
		{"whitespace body", " \n\t", providers.UnknownErrorMessage},
		{"object without message", `{"status":"bad"}`, providers.UnknownErrorMessage},
		{"empty array", `[]`, providers.UnknownErrorMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := providers.ExtractErrorMessage([]byte(tt.body))
			if got != tt.want {
				t.Errorf("ExtractErrorMessage(%q) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")

	t.Run("ProviderError", func(t *testing.T) {
		err := error(&providers.ProviderError{Provider: "claude", Message: "failed", Cause: cause})
		if !errors.Is(err, cause) {
			t.Error("ProviderError does not unwrap to its cause")
		}
		if !strings.Contains(err.Error(), "claude") {
			t.Errorf("error %q does not name the provider", err)
		}
	})

	t.Run("StreamError", func(t *testing.T) {
		err := error(&providers.StreamError{Provider: "gemini", Message: "interrupted", Cause: cause})
		if !errors.Is(err, cause) {
			t.Error("StreamError does not unwrap to its cause")
		}
	})

	t.Run("ProviderError with status", func(t *testing.T) {
		err := &providers.ProviderError{Provider: "claude", StatusCode: 404, Message: "model not found"}
		if !strings.Contains(err.Error(), "404") {
			t.Errorf("error %q does not include the status", err)
		}
	})
}

func TestConfigErrorOmitsCredential(t *testing.T) {
	err := &providers.ConfigError{Provider: "claude", Field: "credential", Message: "API key not configured"}
	if strings.Contains(err.Error(), "sk-") {
		t.Errorf("config error leaks credential: %q", err)
	}
}
