package providers

import "time"

// Message is a single conversation turn. It has no identity beyond its
// position in ChatRequest.Messages.
type Message struct {
	// Role identifies the speaker (user or assistant)
	Role string `json:"role"`

	// Content is the turn's text
	Content string `json:"content"`
}

// ChatRequest is the unified, provider-agnostic request. Each backend
// reshapes it into its own schema.
type ChatRequest struct {
	// System is the optional system prompt ("" when absent)
	System string `json:"system,omitempty"`

	// Messages is the conversation in order; never empty once validated
	Messages []Message `json:"messages"`
}

// StreamFormat names the native streaming wire format of a backend.
type StreamFormat string

const (
	// FormatSSE is a Server-Sent Events stream whose data payloads are single
	// JSON envelopes (Anthropic, OpenAI, Gemini with alt=sse).
	FormatSSE StreamFormat = "sse-passthrough"

	// FormatBracketedJSON is a streamed JSON array of response objects, which
	// may be pretty-printed across many lines (Gemini default).
	FormatBracketedJSON StreamFormat = "bracketed-json-stream"
)

// Valid reports whether f is a known stream format.
func (f StreamFormat) Valid() bool {
	return f == FormatSSE || f == FormatBracketedJSON
}

// BackendConfig is the immutable configuration of one backend. It is built
// once from configuration and environment and shared read-only by every
// request routed to that backend.
type BackendConfig struct {
	// Name is the backend identifier used for routing (e.g., "claude", "gemini")
	Name string

	// DisplayName labels user-facing error messages (e.g., "Claude")
	DisplayName string

	// Type selects the protocol implementation (anthropic, openai, gemini)
	Type string

	// Endpoint is the API base URL
	Endpoint string

	// Credential is the opaque API key injected into upstream requests
	Credential string

	// Model is the upstream model identifier
	Model string

	// StreamFormat is the backend's native stream format
	StreamFormat StreamFormat

	// MaxTokens caps the generated output length
	MaxTokens int

	// Temperature controls sampling randomness (nil leaves the backend default)
	Temperature *float64

	// Timeout bounds the wait for upstream response headers. It does not
	// bound the duration of the stream itself.
	Timeout time.Duration

	// MaxIdleConns is the maximum number of idle connections in the pool
	MaxIdleConns int

	// MaxIdleConnsPerHost is the maximum idle connections per host
	MaxIdleConnsPerHost int

	// IdleConnTimeout is how long an idle connection remains in the pool
	IdleConnTimeout time.Duration

	// MaxFrameSize bounds a single upstream frame in bytes (0 uses the default)
	MaxFrameSize int

	// MaxMalformedFrames ends the stream with an error after this many
	// consecutive unparseable frames. Zero disables the limit.
	MaxMalformedFrames int
}

// Label returns the display name, falling back to the backend name.
func (c BackendConfig) Label() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.Name
}

// ProviderHealth tracks the outcome of recent upstream requests.
type ProviderHealth struct {
	// IsHealthy is false after three consecutive failed requests
	IsHealthy bool

	// LastError is the most recent failure (nil if the last request succeeded)
	LastError error

	// ConsecutiveFailures counts sequential failed requests
	ConsecutiveFailures int

	// LastSuccessfulRequest is the time of the last request that began streaming
	LastSuccessfulRequest time.Time

	// TotalRequests is the total number of upstream requests issued
	TotalRequests int64

	// FailedRequests is the number of upstream requests that failed
	FailedRequests int64
}

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Backend types
const (
	TypeAnthropic = "anthropic"
	TypeOpenAI    = "openai"
	TypeGemini    = "gemini"
)

// InferType derives the backend type from a backend name when none is
// configured: "claude" and "anthropic" map to anthropic, "gemini" and
// "google" to gemini, anything else to openai.
func InferType(name string) string {
	switch name {
	case "claude", "anthropic":
		return TypeAnthropic
	case "gemini", "google":
		return TypeGemini
	default:
		return TypeOpenAI
	}
}
