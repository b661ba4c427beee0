package types

import "net/http"

// ErrorResponse is the JSON body returned for every failure that happens
// before a stream is committed:
//
//	{"error": "<message>"}
//
// Status and Code are not serialized; they select the HTTP status and label
// the outcome in logs and metrics.
type ErrorResponse struct {
	// Error is a human-readable error message.
	Error string `json:"error"`

	// Status is the HTTP status code to respond with.
	Status int `json:"-"`

	// Code is a machine-readable error code.
	Code string `json:"-"`
}

// Error code constants for common error scenarios.
const (
	// CodeMissingField indicates a required field is missing.
	CodeMissingField = "missing_field"

	// CodeInvalidValue indicates a field has an invalid value.
	CodeInvalidValue = "invalid_value"

	// CodeInvalidJSON indicates the request body is not valid JSON.
	CodeInvalidJSON = "invalid_json"

	// CodeRequestTooLarge indicates the request payload is too large.
	CodeRequestTooLarge = "request_too_large"

	// CodeMethodNotAllowed indicates an unsupported HTTP method.
	CodeMethodNotAllowed = "method_not_allowed"

	// CodeUnknownBackend indicates the requested backend does not exist.
	CodeUnknownBackend = "unknown_backend"

	// CodeBackendNotConfigured indicates the backend lacks required configuration.
	CodeBackendNotConfigured = "backend_not_configured"

	// CodeProviderError indicates the backend rejected the request.
	CodeProviderError = "provider_error"

	// CodeProviderUnreachable indicates the backend could not be reached.
	CodeProviderUnreachable = "provider_unreachable"

	// CodeProviderTimeout indicates the backend did not answer in time.
	CodeProviderTimeout = "provider_timeout"

	// CodeStreamInterrupted indicates the stream failed after it started.
	CodeStreamInterrupted = "stream_interrupted"

	// CodeInternalError indicates an internal server error.
	CodeInternalError = "internal_error"
)

// NewErrorResponse creates a new error response with the given details.
func NewErrorResponse(status int, message, code string) *ErrorResponse {
	return &ErrorResponse{
		Error:  message,
		Status: status,
		Code:   code,
	}
}

// NewInvalidRequestError creates an error response for invalid requests (400).
func NewInvalidRequestError(message, code string) *ErrorResponse {
	return NewErrorResponse(http.StatusBadRequest, message, code)
}

// NewServerError creates an error response for internal server errors (500).
func NewServerError(message string) *ErrorResponse {
	return NewErrorResponse(http.StatusInternalServerError, message, CodeInternalError)
}

// HTTPStatusCode returns the HTTP status for the response, defaulting to 500.
func (e *ErrorResponse) HTTPStatusCode() int {
	if e.Status < 300 || e.Status > 999 {
		return http.StatusInternalServerError
	}
	return e.Status
}
