package types

// BackendsResponse is the body of the backend report.
type BackendsResponse struct {
	// Backends maps backend names to their statistics.
	Backends map[string]BackendHealth `json:"backends"`

	// Timestamp is the Unix time of the response.
	Timestamp int64 `json:"timestamp"`
}

// BackendHealth describes one backend. Credentials are never included;
// only whether one is present.
type BackendHealth struct {
	// Type is the backend protocol (anthropic, openai, gemini).
	Type string `json:"type"`

	// Model is the upstream model identifier.
	Model string `json:"model,omitempty"`

	// Configured is false when the backend has no credential.
	Configured bool `json:"configured"`

	// Healthy is false after repeated upstream failures.
	Healthy bool `json:"healthy"`

	// ConsecutiveFailures counts upstream failures since the last success.
	ConsecutiveFailures int `json:"consecutive_failures"`

	// TotalRequests is the number of upstream requests issued.
	TotalRequests int64 `json:"total_requests"`

	// FailedRequests is the number of upstream requests that failed.
	FailedRequests int64 `json:"failed_requests"`

	// LastSuccess is the Unix time of the last successful upstream request.
	LastSuccess int64 `json:"last_success,omitempty"`

	// LastError is the most recent upstream failure, if any.
	LastError string `json:"last_error,omitempty"`
}
