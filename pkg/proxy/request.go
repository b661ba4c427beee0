package proxy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"mercator-hq/conduit/pkg/providers"
	"mercator-hq/conduit/pkg/proxy/types"
)

const (
	// MaxRequestBodySize is the maximum allowed request body size (10MB).
	MaxRequestBodySize = 10 * 1024 * 1024

	// RequestIDHeader is the HTTP header for request ID propagation.
	RequestIDHeader = "X-Request-ID"
)

// ParseChatRequest reads and validates an inbound chat request.
//
// The body must be a JSON object with a non-empty "messages" array whose
// elements each carry a string "role" (user or assistant) and a string
// "content", plus an optional string "system". Any violation yields a
// *RequestError and nothing is forwarded upstream.
//
// The request body is limited to MaxRequestBodySize to prevent memory exhaustion.
//
// Example usage:
//
//	req, err := ParseChatRequest(r)
//	if err != nil {
//	    errResp := HandleError(err)
//	    WriteErrorResponse(w, errResp)
//	    return
//	}
func ParseChatRequest(r *http.Request) (*providers.ChatRequest, error) {
	// Read one byte past the limit to detect oversized bodies
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}

	if len(body) > MaxRequestBodySize {
		return nil, &RequestError{
			Message: fmt.Sprintf("request body exceeds maximum size of %d bytes", MaxRequestBodySize),
			Code:    types.CodeRequestTooLarge,
			Param:   "body",
		}
	}

	if !json.Valid(body) {
		return nil, &RequestError{
			Message: "request body must be valid JSON",
			Code:    types.CodeInvalidJSON,
			Param:   "body",
		}
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &RequestError{
			Message: "request body must be a JSON object",
			Code:    types.CodeInvalidValue,
			Param:   "body",
		}
	}

	var wire types.ChatRequest
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return nil, &RequestError{
			Message: fmt.Sprintf("invalid request body: %v", err),
			Code:    types.CodeInvalidJSON,
			Param:   "body",
		}
	}

	req, err := wire.Validate()
	if err != nil {
		var valErr *types.ValidationError
		if errors.As(err, &valErr) {
			code := types.CodeInvalidValue
			if valErr.Missing {
				code = types.CodeMissingField
			}
			return nil, &RequestError{
				Message: valErr.Message,
				Code:    code,
				Param:   valErr.Field,
			}
		}
		return nil, err
	}

	return req, nil
}

// ExtractRequestID extracts the request ID from the X-Request-ID header.
// If the header is not present, it returns an empty string.
func ExtractRequestID(r *http.Request) string {
	return r.Header.Get(RequestIDHeader)
}

// RequestError represents a request parsing or validation error.
type RequestError struct {
	Message string
	Code    string
	Param   string
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	return e.Message
}

// ToErrorResponse converts a RequestError to a 400 error response.
func (e *RequestError) ToErrorResponse() *types.ErrorResponse {
	return types.NewInvalidRequestError(e.Message, e.Code)
}
