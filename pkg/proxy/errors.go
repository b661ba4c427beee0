package proxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"mercator-hq/conduit/pkg/providers"
	"mercator-hq/conduit/pkg/proxy/types"
	"mercator-hq/conduit/pkg/stream"
)

// UnknownBackendError is returned when a request names a backend that is
// not configured.
type UnknownBackendError struct {
	Backend string
}

// Error implements the error interface.
func (e *UnknownBackendError) Error() string {
	return fmt.Sprintf("unknown backend %q", e.Backend)
}

// HandleError converts a failure that happened before streaming into an
// error response. Only the mapped status and a safe message leave the
// process; credentials and transport details are never included.
//
//   - *RequestError -> 400 with the validation message
//   - *UnknownBackendError -> 404
//   - *providers.ConfigError -> 500, generic message
//   - *providers.ProviderError with a status -> that status, "<Backend> API error: <message>"
//   - *providers.ProviderError without a status, *providers.TimeoutError -> 500
//   - anything else -> 500
//
// Example usage:
//
//	if err != nil {
//	    errResp := HandleError(err)
//	    WriteErrorResponse(w, errResp)
//	    return
//	}
func HandleError(err error) *types.ErrorResponse {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.ToErrorResponse()
	}

	var unknownErr *UnknownBackendError
	if errors.As(err, &unknownErr) {
		return types.NewErrorResponse(http.StatusNotFound, unknownErr.Error(), types.CodeUnknownBackend)
	}

	var configErr *providers.ConfigError
	if errors.As(err, &configErr) {
		return types.NewErrorResponse(
			http.StatusInternalServerError,
			fmt.Sprintf("backend %q is not configured", configErr.Provider),
			types.CodeBackendNotConfigured,
		)
	}

	var providerErr *providers.ProviderError
	if errors.As(err, &providerErr) {
		return handleProviderError(providerErr)
	}

	var timeoutErr *providers.TimeoutError
	if errors.As(err, &timeoutErr) {
		return types.NewErrorResponse(
			http.StatusInternalServerError,
			fmt.Sprintf("backend %q did not respond in time", timeoutErr.Provider),
			types.CodeProviderTimeout,
		)
	}

	// Default to internal server error for unknown errors
	return types.NewServerError("An internal error occurred. Please try again later.")
}

// handleProviderError maps an upstream failure. Any non-2xx upstream status
// is kept so the client sees what the backend said; a failure without a
// status becomes 500.
func handleProviderError(err *providers.ProviderError) *types.ErrorResponse {
	label := err.Display
	if label == "" {
		label = err.Provider
	}

	if err.StatusCode < 300 || err.StatusCode > 999 {
		return types.NewErrorResponse(
			http.StatusInternalServerError,
			fmt.Sprintf("%s API error: upstream request failed", label),
			types.CodeProviderUnreachable,
		)
	}

	return types.NewErrorResponse(
		err.StatusCode,
		fmt.Sprintf("%s API error: %s", label, err.Message),
		types.CodeProviderError,
	)
}

// StreamErrorEvent converts a failure that happened after the stream was
// committed into the terminal Error event sent in-stream. Deadline errors
// map to 504, everything else to 502.
func StreamErrorEvent(err error) stream.Event {
	if errors.Is(err, context.DeadlineExceeded) {
		return stream.Error("upstream stream timed out", http.StatusGatewayTimeout)
	}

	var timeoutErr *providers.TimeoutError
	if errors.As(err, &timeoutErr) {
		return stream.Error("upstream stream timed out", http.StatusGatewayTimeout)
	}

	if errors.Is(err, stream.ErrFrameTooLarge) {
		return stream.Error("upstream sent an oversized frame", http.StatusBadGateway)
	}

	return stream.Error("upstream stream interrupted", http.StatusBadGateway)
}
