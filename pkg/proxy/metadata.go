package proxy

import (
	"net"
	"net/http"
	"time"

	"mercator-hq/conduit/pkg/providers"
)

// RequestMetadata contains metadata extracted from an inbound request.
// It is used for logging, tracing and the request audit trail, and never
// holds message content.
type RequestMetadata struct {
	// RequestID is a unique identifier for the request.
	RequestID string

	// Backend is the backend named by the request path.
	Backend string

	// MessageCount is the number of conversation turns.
	MessageCount int

	// HasSystem reports whether a system prompt was supplied.
	HasSystem bool

	// Method is the HTTP method.
	Method string

	// Path is the HTTP request path.
	Path string

	// UserAgent is the client's user agent string.
	UserAgent string

	// RemoteAddr is the client's IP address.
	RemoteAddr string

	// Timestamp is when the request was received.
	Timestamp time.Time
}

// ExtractRequestMetadata extracts metadata from an HTTP request.
// req may be nil when validation failed.
func ExtractRequestMetadata(r *http.Request, requestID, backend string, req *providers.ChatRequest) *RequestMetadata {
	md := &RequestMetadata{
		RequestID:  requestID,
		Backend:    backend,
		Method:     r.Method,
		Path:       r.URL.Path,
		UserAgent:  r.UserAgent(),
		RemoteAddr: clientIP(r),
		Timestamp:  time.Now(),
	}

	if req != nil {
		md.MessageCount = len(req.Messages)
		md.HasSystem = req.System != ""
	}

	return md
}

// clientIP strips the port from the remote address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
