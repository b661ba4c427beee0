package config

import (
	"time"

	"mercator-hq/conduit/pkg/providers"
)

// Default values for configuration fields.
const (
	// Proxy defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB

	// Backend defaults
	DefaultBackendTimeout      = 60 * time.Second
	DefaultMaxIdleConns        = 100
	DefaultMaxIdleConnsPerHost = 10
	DefaultIdleConnTimeout     = 90 * time.Second

	// Stream defaults
	DefaultMaxFrameSize = 1 << 20

	// Evidence defaults
	DefaultEvidenceBackend              = "sqlite"
	DefaultEvidenceSQLitePath           = "data/evidence.db"
	DefaultEvidenceSQLiteMaxOpenConns   = 10
	DefaultEvidenceSQLiteBusyTimeout    = 5 * time.Second
	DefaultEvidenceRecorderAsyncBuffer  = 1000
	DefaultEvidenceRecorderWriteTimeout = 5 * time.Second
	DefaultEvidenceRetentionDays        = 30
	DefaultEvidenceRetentionSchedule    = "0 3 * * *"

	// Telemetry defaults
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "json"
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "conduit"
	DefaultTracingSampler     = "ratio"
	DefaultTracingSampleRatio = 0.1
	DefaultTracingServiceName = "conduit"
	DefaultTracingTimeout     = 10 * time.Second
)

// DefaultLatencyBuckets suit streaming LLM latencies (50ms - 30s).
var DefaultLatencyBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// credentialEnv maps a backend type to the environment variable that holds
// its key when the backend does not name one.
var credentialEnv = map[string]string{
	providers.TypeAnthropic: "ANTHROPIC_API_KEY",
	providers.TypeGemini:    "GEMINI_API_KEY",
	providers.TypeOpenAI:    "OPENAI_API_KEY",
	"generic":               "OPENAI_API_KEY",
}

// displayNames label backends in user-facing error messages.
var displayNames = map[string]string{
	providers.TypeAnthropic: "Claude",
	providers.TypeGemini:    "Gemini",
	providers.TypeOpenAI:    "OpenAI",
	"generic":               "OpenAI",
}

// DefaultBackends returns the backend table used when no backends are
// configured: claude (Anthropic), gemini (Google) and openai.
func DefaultBackends() map[string]BackendConfig {
	return map[string]BackendConfig{
		"claude": {Type: providers.TypeAnthropic},
		"gemini": {Type: providers.TypeGemini},
		"openai": {Type: providers.TypeOpenAI},
	}
}

// Default returns a configuration with every default applied and the
// default backend table.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills in zero-valued fields with their defaults.
// It never overwrites values that were set explicitly.
func ApplyDefaults(cfg *Config) {
	applyProxyDefaults(&cfg.Proxy)

	if len(cfg.Backends) == 0 {
		cfg.Backends = DefaultBackends()
	}
	for name, backend := range cfg.Backends {
		applyBackendDefaults(name, &backend)
		cfg.Backends[name] = backend
	}

	if cfg.Stream.MaxFrameSize == 0 {
		cfg.Stream.MaxFrameSize = DefaultMaxFrameSize
	}

	applyEvidenceDefaults(&cfg.Evidence)
	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyProxyDefaults(p *ProxyConfig) {
	if p.ListenAddress == "" {
		p.ListenAddress = DefaultListenAddress
	}
	if p.ReadTimeout == 0 {
		p.ReadTimeout = DefaultReadTimeout
	}
	if p.IdleTimeout == 0 {
		p.IdleTimeout = DefaultIdleTimeout
	}
	if p.ShutdownTimeout == 0 {
		p.ShutdownTimeout = DefaultShutdownTimeout
	}
	if p.MaxHeaderBytes == 0 {
		p.MaxHeaderBytes = DefaultMaxHeaderBytes
	}

	if len(p.CORS.AllowedOrigins) == 0 {
		p.CORS.AllowedOrigins = []string{"*"}
	}
	if len(p.CORS.AllowedMethods) == 0 {
		p.CORS.AllowedMethods = []string{"POST", "OPTIONS"}
	}
	if len(p.CORS.AllowedHeaders) == 0 {
		p.CORS.AllowedHeaders = []string{"Content-Type"}
	}
}

func applyBackendDefaults(name string, b *BackendConfig) {
	if b.Type == "" {
		b.Type = providers.InferType(name)
	}
	if b.DisplayName == "" {
		b.DisplayName = displayNames[b.Type]
	}
	if b.APIKeyEnv == "" {
		b.APIKeyEnv = credentialEnv[b.Type]
	}
	if b.Timeout == 0 {
		b.Timeout = DefaultBackendTimeout
	}
	if b.MaxIdleConns == 0 {
		b.MaxIdleConns = DefaultMaxIdleConns
	}
	if b.MaxIdleConnsPerHost == 0 {
		b.MaxIdleConnsPerHost = DefaultMaxIdleConnsPerHost
	}
	if b.IdleConnTimeout == 0 {
		b.IdleConnTimeout = DefaultIdleConnTimeout
	}
}

func applyEvidenceDefaults(e *EvidenceConfig) {
	if e.Backend == "" {
		e.Backend = DefaultEvidenceBackend
	}
	if e.SQLite.Path == "" {
		e.SQLite.Path = DefaultEvidenceSQLitePath
	}
	if e.SQLite.MaxOpenConns == 0 {
		e.SQLite.MaxOpenConns = DefaultEvidenceSQLiteMaxOpenConns
	}
	if e.SQLite.BusyTimeout == 0 {
		e.SQLite.BusyTimeout = DefaultEvidenceSQLiteBusyTimeout
	}
	if e.Recorder.AsyncBuffer == 0 {
		e.Recorder.AsyncBuffer = DefaultEvidenceRecorderAsyncBuffer
	}
	if e.Recorder.WriteTimeout == 0 {
		e.Recorder.WriteTimeout = DefaultEvidenceRecorderWriteTimeout
	}
	if e.Retention.Days == 0 {
		e.Retention.Days = DefaultEvidenceRetentionDays
	}
	if e.Retention.PruneSchedule == "" {
		e.Retention.PruneSchedule = DefaultEvidenceRetentionSchedule
	}
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.Logging.Level == "" {
		t.Logging.Level = DefaultLogLevel
	}
	if t.Logging.Format == "" {
		t.Logging.Format = DefaultLogFormat
	}

	if t.Metrics.Path == "" {
		t.Metrics.Path = DefaultMetricsPath
	}
	if t.Metrics.Namespace == "" {
		t.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(t.Metrics.LatencyBuckets) == 0 {
		t.Metrics.LatencyBuckets = append([]float64(nil), DefaultLatencyBuckets...)
	}

	if t.Tracing.Sampler == "" {
		t.Tracing.Sampler = DefaultTracingSampler
	}
	if t.Tracing.SampleRatio == 0 {
		t.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if t.Tracing.ServiceName == "" {
		t.Tracing.ServiceName = DefaultTracingServiceName
	}
	if t.Tracing.Timeout == 0 {
		t.Tracing.Timeout = DefaultTracingTimeout
	}
}
