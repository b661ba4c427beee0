package types

import (
	"bytes"
	"encoding/json"
	"fmt"

	"mercator-hq/conduit/pkg/providers"
)

// ChatRequest is the inbound request body:
//
//	{"system": "optional prompt", "messages": [{"role": "user", "content": "Hi"}]}
//
// Fields are kept raw so that absent, null and mistyped values can be told
// apart during validation.
type ChatRequest struct {
	// System is the optional system prompt (a JSON string when present).
	System json.RawMessage `json:"system"`

	// Messages is the ordered conversation (a non-empty JSON array).
	Messages json.RawMessage `json:"messages"`
}

// Message is one inbound conversation turn before validation.
type Message struct {
	// Role is "user" or "assistant".
	Role json.RawMessage `json:"role"`

	// Content is the text of the turn.
	Content json.RawMessage `json:"content"`
}

// Validate checks the request structure and converts it into the unified
// provider request. It never looks at message text beyond its type.
func (r *ChatRequest) Validate() (*providers.ChatRequest, error) {
	req := &providers.ChatRequest{}

	if isSet(r.System) {
		if err := json.Unmarshal(r.System, &req.System); err != nil {
			return nil, &ValidationError{
				Field:   "system",
				Message: "system must be a string",
			}
		}
	}

	if !isSet(r.Messages) {
		return nil, &ValidationError{
			Field:   "messages",
			Message: "messages array is required",
			Missing: true,
		}
	}

	var raw []json.RawMessage
	if r.Messages[0] != '[' || json.Unmarshal(r.Messages, &raw) != nil {
		return nil, &ValidationError{
			Field:   "messages",
			Message: "messages must be an array",
		}
	}

	if len(raw) == 0 {
		return nil, &ValidationError{
			Field:   "messages",
			Message: "messages must contain at least one message",
		}
	}

	req.Messages = make([]providers.Message, 0, len(raw))
	for i, item := range raw {
		msg, err := validateMessage(i, item)
		if err != nil {
			return nil, err
		}
		req.Messages = append(req.Messages, msg)
	}

	return req, nil
}

func validateMessage(i int, item json.RawMessage) (providers.Message, error) {
	field := fmt.Sprintf("messages[%d]", i)

	var msg Message
	if len(item) == 0 || item[0] != '{' || json.Unmarshal(item, &msg) != nil {
		return providers.Message{}, &ValidationError{
			Field:   field,
			Message: field + " must be an object",
		}
	}

	if !isSet(msg.Role) {
		return providers.Message{}, &ValidationError{
			Field:   field + ".role",
			Message: field + ".role is required",
			Missing: true,
		}
	}

	var role string
	if err := json.Unmarshal(msg.Role, &role); err != nil {
		return providers.Message{}, &ValidationError{
			Field:   field + ".role",
			Message: field + ".role must be a string",
		}
	}
	if role != providers.RoleUser && role != providers.RoleAssistant {
		return providers.Message{}, &ValidationError{
			Field:   field + ".role",
			Message: fmt.Sprintf("%s.role must be %q or %q", field, providers.RoleUser, providers.RoleAssistant),
		}
	}

	if !isSet(msg.Content) {
		return providers.Message{}, &ValidationError{
			Field:   field + ".content",
			Message: field + ".content is required",
			Missing: true,
		}
	}

	var content string
	if err := json.Unmarshal(msg.Content, &content); err != nil {
		return providers.Message{}, &ValidationError{
			Field:   field + ".content",
			Message: field + ".content must be a string",
		}
	}

	return providers.Message{Role: role, Content: content}, nil
}

var jsonNull = []byte("null")

// isSet reports whether a raw field was present with a non-null value.
func isSet(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(raw, jsonNull)
}

// ValidationError represents a request validation error.
type ValidationError struct {
	Field   string
	Message string

	// Missing is true when the field was absent rather than malformed.
	Missing bool
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}
