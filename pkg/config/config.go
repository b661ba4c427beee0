package config

import (
	"sort"
	"time"

	"mercator-hq/conduit/pkg/providers"
)

// Config is the root configuration structure for Conduit.
// It contains the proxy server settings, the backend table, stream limits,
// request audit storage and telemetry.
type Config struct {
	// Proxy contains HTTP server configuration including listen address,
	// timeouts and CORS.
	Proxy ProxyConfig `yaml:"proxy"`

	// Backends contains one entry per upstream backend.
	// Keys are backend names and appear in routes (e.g., /v1/chat/claude).
	Backends map[string]BackendConfig `yaml:"backends"`

	// Stream contains limits applied while relaying upstream streams.
	Stream StreamConfig `yaml:"stream"`

	// Evidence contains configuration for the per-request audit trail.
	Evidence EvidenceConfig `yaml:"evidence"`

	// Telemetry contains configuration for logging, metrics and tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Secrets configures where backend credentials are looked up.
	Secrets SecretsConfig `yaml:"secrets"`
}

// SecretsConfig configures credential lookup. A backend's api_key_env is
// read from the environment first, then from a file of the same name in
// Dir. Values of api_key may reference secrets as ${secret:name}.
type SecretsConfig struct {
	// Dir is a directory of secret files, one per credential
	// (e.g., a Kubernetes secret volume). Empty disables file lookup.
	Dir string `yaml:"dir"`
}

// ProxyConfig contains configuration for the HTTP server.
type ProxyConfig struct {
	// ListenAddress is the address and port for the proxy to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8080", "0.0.0.0:8080").
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration of a response. Streams can run
	// for minutes, so zero (no limit) is the default.
	// Default: 0
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for in-flight streams
	// during graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits the size of request headers.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// LegacyRoutes registers /api/{backend}-proxy aliases for every backend.
	// Default: true
	LegacyRoutes *bool `yaml:"legacy_routes"`

	// CORS contains Cross-Origin Resource Sharing configuration.
	CORS CORSConfig `yaml:"cors"`
}

// LegacyRoutesEnabled reports whether /api/{backend}-proxy aliases are served.
func (p ProxyConfig) LegacyRoutesEnabled() bool {
	return p.LegacyRoutes == nil || *p.LegacyRoutes
}

// CORSConfig contains CORS (Cross-Origin Resource Sharing) configuration.
type CORSConfig struct {
	// AllowedOrigins is the value of Access-Control-Allow-Origin.
	// Default: ["*"]
	AllowedOrigins []string `yaml:"allowed_origins"`

	// AllowedMethods is the value of Access-Control-Allow-Methods.
	// Default: ["POST", "OPTIONS"]
	AllowedMethods []string `yaml:"allowed_methods"`

	// AllowedHeaders is the value of Access-Control-Allow-Headers.
	// Default: ["Content-Type"]
	AllowedHeaders []string `yaml:"allowed_headers"`

	// MaxAge is the preflight cache duration in seconds (0 omits the header).
	// Default: 0
	MaxAge int `yaml:"max_age"`
}

// BackendConfig contains configuration for a single upstream backend.
type BackendConfig struct {
	// DisplayName labels user-facing error messages (e.g., "Claude").
	// Default: derived from the backend type
	DisplayName string `yaml:"display_name"`

	// Type selects the protocol: "anthropic", "openai", "generic" or "gemini".
	// Default: inferred from the backend name
	Type string `yaml:"type"`

	// Endpoint is the base URL of the backend API.
	// Default: the public API of the backend type
	Endpoint string `yaml:"endpoint"`

	// APIKey is the credential injected into upstream requests.
	// Prefer APIKeyEnv over storing keys in files.
	APIKey string `yaml:"api_key"`

	// APIKeyEnv names the environment variable holding the credential.
	// Default: ANTHROPIC_API_KEY, GEMINI_API_KEY or OPENAI_API_KEY by type
	APIKeyEnv string `yaml:"api_key_env"`

	// Model is the upstream model identifier.
	// Default: the backend type's default model
	Model string `yaml:"model"`

	// StreamFormat is "sse-passthrough" or "bracketed-json-stream".
	// Default: by type (Gemini uses bracketed-json-stream)
	StreamFormat string `yaml:"stream_format"`

	// MaxTokens caps the generated output length.
	// Default: by type (4096 for Anthropic, 8192 for Gemini)
	MaxTokens int `yaml:"max_tokens"`

	// Temperature controls sampling randomness.
	// Default: unset (0.7 for Gemini)
	Temperature *float64 `yaml:"temperature"`

	// Timeout bounds the wait for upstream response headers.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`

	// MaxIdleConns is the maximum number of pooled idle connections.
	// Default: 100
	MaxIdleConns int `yaml:"max_idle_conns"`

	// MaxIdleConnsPerHost is the maximum idle connections per host.
	// Default: 10
	MaxIdleConnsPerHost int `yaml:"max_idle_conns_per_host"`

	// IdleConnTimeout is how long an idle connection stays pooled.
	// Default: 90s
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`
}

// StreamConfig contains limits applied to upstream streams.
type StreamConfig struct {
	// MaxFrameSize is the largest upstream frame accepted, in bytes.
	// Default: 1048576 (1MB)
	MaxFrameSize int `yaml:"max_frame_size"`

	// MaxMalformedFrames ends a stream after this many consecutive
	// unparseable frames. 0 tolerates any number.
	// Default: 0
	MaxMalformedFrames int `yaml:"max_malformed_frames"`
}

// EvidenceConfig contains configuration for the request audit trail.
// Records carry request metadata only, never message content.
type EvidenceConfig struct {
	// Enabled controls whether audit records are written.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Backend selects the storage backend: "memory" or "sqlite".
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite-specific configuration.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Recorder contains async recorder configuration.
	Recorder RecorderConfig `yaml:"recorder"`

	// Retention contains retention policy configuration.
	Retention RetentionConfig `yaml:"retention"`
}

// SQLiteConfig contains SQLite-specific configuration.
type SQLiteConfig struct {
	// Path is the file path for the SQLite database.
	// Default: "data/evidence.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open database connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// WALMode enables Write-Ahead Logging mode.
	// Default: true
	WALMode *bool `yaml:"wal_mode"`

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RecorderConfig contains evidence recorder configuration.
type RecorderConfig struct {
	// AsyncBuffer is the size of the async write channel buffer.
	// Default: 1000
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout is the timeout for writing a record to storage.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// RetentionConfig contains retention policy configuration.
type RetentionConfig struct {
	// Days is the number of days to retain records. A negative value keeps
	// them forever.
	// Default: 30
	Days int `yaml:"days"`

	// PruneSchedule is a cron expression for scheduling pruning.
	// Default: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string `yaml:"prune_schedule"`

	// MaxRecords is the maximum number of records to keep. 0 means unlimited.
	// Default: 0
	MaxRecords int64 `yaml:"max_records"`
}

// WALEnabled reports whether the database runs in WAL mode.
func (s SQLiteConfig) WALEnabled() bool {
	return s.WALMode == nil || *s.WALMode
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactSecrets masks credential-looking values in log attributes.
	// Default: true
	RedactSecrets *bool `yaml:"redact_secrets"`
}

// RedactionEnabled reports whether log redaction is on.
func (l LoggingConfig) RedactionEnabled() bool {
	return l.RedactSecrets == nil || *l.RedactSecrets
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "conduit"
	Namespace string `yaml:"namespace"`

	// LatencyBuckets defines histogram buckets for upstream latency and
	// time to first delta (seconds).
	// Default: [0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30]
	LatencyBuckets []float64 `yaml:"latency_buckets"`
}

// IsEnabled reports whether metrics are collected and exposed.
func (m MetricsConfig) IsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "conduit"
	ServiceName string `yaml:"service_name"`

	// Insecure disables TLS for the collector connection.
	// Default: true
	Insecure *bool `yaml:"insecure"`

	// Timeout is the timeout for span exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// IsInsecure reports whether the collector connection skips TLS.
func (t TracingConfig) IsInsecure() bool {
	return t.Insecure == nil || *t.Insecure
}

// BackendNames returns the configured backend names in sorted order.
func (c *Config) BackendNames() []string {
	names := make([]string, 0, len(c.Backends))
	for name := range c.Backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ProviderConfigs converts the backend table into provider configurations,
// sorted by name. Stream limits are copied into every backend.
func (c *Config) ProviderConfigs() []providers.BackendConfig {
	configs := make([]providers.BackendConfig, 0, len(c.Backends))
	for _, name := range c.BackendNames() {
		b := c.Backends[name]
		configs = append(configs, providers.BackendConfig{
			Name:                name,
			DisplayName:         b.DisplayName,
			Type:                b.Type,
			Endpoint:            b.Endpoint,
			Credential:          b.APIKey,
			Model:               b.Model,
			StreamFormat:        providers.StreamFormat(b.StreamFormat),
			MaxTokens:           b.MaxTokens,
			Temperature:         b.Temperature,
			Timeout:             b.Timeout,
			MaxIdleConns:        b.MaxIdleConns,
			MaxIdleConnsPerHost: b.MaxIdleConnsPerHost,
			IdleConnTimeout:     b.IdleConnTimeout,
			MaxFrameSize:        c.Stream.MaxFrameSize,
			MaxMalformedFrames:  c.Stream.MaxMalformedFrames,
		})
	}
	return configs
}
