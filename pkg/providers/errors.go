package providers

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// UnknownErrorMessage is reported when an upstream error body carries no
// usable message.
const UnknownErrorMessage = "Unknown API error"

// ProviderError represents a failed upstream request.
// A StatusCode of 0 means the upstream could not be reached at all.
type ProviderError struct {
	// Provider is the name of the backend that failed
	Provider string

	// Display is the backend's user-facing label (e.g., "Claude")
	Display string

	// StatusCode is the upstream HTTP status code (0 if not applicable)
	StatusCode int

	// Message is the error message extracted from the upstream response
	Message string

	// Cause is the underlying error (if any)
	Cause error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %q error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %q error: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// TimeoutError represents a request that exceeded its deadline.
type TimeoutError struct {
	// Provider is the name of the backend where the timeout occurred
	Provider string

	// Timeout is the configured timeout duration
	Timeout time.Duration

	// Cause is the underlying error (if any)
	Cause error
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("provider %q request timeout after %s", e.Provider, e.Timeout)
}

// Unwrap returns the underlying error for error chain support.
func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

// StreamError represents an upstream failure after streaming began,
// such as a reset connection or an oversized frame.
type StreamError struct {
	// Provider is the name of the backend where the error occurred
	Provider string

	// Message is the error message
	Message string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("provider %q stream error: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("provider %q stream error: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *StreamError) Unwrap() error {
	return e.Cause
}

// ConfigError represents a backend configuration error.
// Its message never includes credential values.
type ConfigError struct {
	// Provider is the name of the backend with invalid configuration
	Provider string

	// Field is the configuration field that is invalid
	Field string

	// Message describes the configuration error
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("provider %q configuration error for field %q: %s",
		e.Provider, e.Field, e.Message)
}

// ExtractErrorMessage pulls a human-readable message out of an upstream
// error body. It understands {"error":{"message":...}}, {"error":"..."},
// {"message":...} and a JSON array wrapping any of those (Gemini). Bodies
// that are not JSON are returned trimmed; an empty body yields
// UnknownErrorMessage.
func ExtractErrorMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return UnknownErrorMessage
	}

	if msg := messageFromJSON([]byte(trimmed)); msg != "" {
		return msg
	}

	var list []json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &list); err == nil {
		if len(list) > 0 {
			if msg := messageFromJSON(list[0]); msg != "" {
				return msg
			}
		}
		return UnknownErrorMessage
	}

	if trimmed[0] == '{' {
		// Valid-looking JSON object without any message field.
		var obj map[string]json.RawMessage
		if json.Unmarshal([]byte(trimmed), &obj) == nil {
			return UnknownErrorMessage
		}
	}
	return trimmed
}

func messageFromJSON(data []byte) string {
	var envelope struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return ""
	}

	if len(envelope.Error) > 0 {
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(envelope.Error, &nested); err == nil && nested.Message != "" {
			return nested.Message
		}
		var flat string
		if err := json.Unmarshal(envelope.Error, &flat); err == nil && flat != "" {
			return flat
		}
	}
	return envelope.Message
}
