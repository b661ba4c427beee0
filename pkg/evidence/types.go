package evidence

import (
	"context"
	"time"
)

// Request outcomes. They label metrics and spans as well as records.
const (
	OutcomeSuccess         = "success"
	OutcomeInvalidRequest  = "invalid_request"
	OutcomeUnknownBackend  = "unknown_backend"
	OutcomeConfigError     = "config_error"
	OutcomeUpstreamError   = "upstream_error"
	OutcomeStreamError     = "stream_error"
	OutcomeClientCancelled = "client_cancelled"
)

// Record is the audit trail of one proxied chat request. It carries
// request metadata only: message content and credentials are never part
// of a record.
type Record struct {
	// Identity
	ID        string `json:"id"`         // UUID v4
	RequestID string `json:"request_id"` // From X-Request-ID or generated

	// Timestamps
	RequestTime  time.Time `json:"request_time"`  // When the request arrived
	RecordedTime time.Time `json:"recorded_time"` // When the record was written

	// Request metadata
	Method     string `json:"method"`
	Path       string `json:"path"`
	RemoteAddr string `json:"remote_addr"`
	UserAgent  string `json:"user_agent,omitempty"`

	// Request shape
	Backend      string `json:"backend"`
	BackendType  string `json:"backend_type,omitempty"`
	Model        string `json:"model,omitempty"`
	MessageCount int    `json:"message_count"`
	HasSystem    bool   `json:"has_system"`

	// Response metadata
	UpstreamStatus int    `json:"upstream_status"` // 0 if the upstream was never reached
	ResponseStatus int    `json:"response_status"` // Status sent to the client
	Outcome        string `json:"outcome"`

	// Stream totals
	Deltas          int   `json:"deltas"`
	Bytes           int64 `json:"bytes"`
	MalformedFrames int   `json:"malformed_frames"`

	// Latency
	UpstreamLatency time.Duration `json:"upstream_latency"` // Until upstream response headers
	FirstDelta      time.Duration `json:"first_delta"`      // Until the first text delta
	Duration        time.Duration `json:"duration"`         // Until the terminal event

	// Error info
	Error string `json:"error,omitempty"` // Redacted error message
}

// Failed reports whether the request ended in an error.
func (r *Record) Failed() bool {
	return r.Outcome != OutcomeSuccess
}

// Query defines filter parameters for querying audit records.
type Query struct {
	// Time range
	StartTime *time.Time `json:"start_time,omitempty"` // Inclusive start time
	EndTime   *time.Time `json:"end_time,omitempty"`   // Inclusive end time

	// Filters
	RequestID string `json:"request_id,omitempty"`
	Backend   string `json:"backend,omitempty"`
	Outcome   string `json:"outcome,omitempty"`

	// Status is "success" or "error"
	Status string `json:"status,omitempty"`

	// Pagination (Limit 0 returns every match)
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	// Sorting
	SortBy    string `json:"sort_by,omitempty"`    // "request_time", "duration", "upstream_latency"
	SortOrder string `json:"sort_order,omitempty"` // "asc", "desc"
}

// Storage defines the interface for audit storage backends.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Store persists a record.
	Store(ctx context.Context, record *Record) error

	// Query retrieves records matching the query filters.
	// Returns an empty slice if no records match.
	Query(ctx context.Context, query *Query) ([]*Record, error)

	// Count returns the number of records matching the query filters.
	// Pagination fields are ignored.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes records matching the query filters and returns the
	// number deleted. Pagination fields are ignored.
	Delete(ctx context.Context, query *Query) (int64, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the storage backend.
	Close() error
}
