package metrics

import (
	"time"

	"mercator-hq/conduit/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector is the main orchestrator for all Prometheus metrics in Conduit.
// It owns the registry and exposes one method per observation the proxy
// makes. All methods are safe on a nil *Collector, which records nothing.
type Collector struct {
	enabled  bool
	registry *prometheus.Registry

	// Request metrics
	requestMetrics *RequestMetrics

	// Stream metrics
	streamMetrics *StreamMetrics

	// Upstream (backend) metrics
	providerMetrics *ProviderMetrics
}

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a fresh registry is created.
//
// Example:
//
//	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
func NewCollector(cfg config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = config.DefaultLatencyBuckets
	}

	return &Collector{
		enabled:         cfg.IsEnabled(),
		registry:        registry,
		requestMetrics:  NewRequestMetrics(cfg, registry),
		streamMetrics:   NewStreamMetrics(cfg, registry),
		providerMetrics: NewProviderMetrics(cfg, registry),
	}
}

func (c *Collector) active() bool {
	return c != nil && c.enabled
}

// RecordRequest records a finished proxy request.
//
// Parameters:
//   - backend: backend name from the route ("unknown" if it did not resolve)
//   - outcome: "success", "invalid_request", "config_error", "upstream_error",
//     "stream_error" or "client_cancelled"
//   - duration: total time from request arrival to the terminal event
func (c *Collector) RecordRequest(backend, outcome string, duration time.Duration) {
	if !c.active() {
		return
	}
	c.requestMetrics.RecordRequest(backend, outcome, duration)
}

// RecordUpstreamLatency records the time until the upstream answered with
// response headers.
func (c *Collector) RecordUpstreamLatency(backend string, latency time.Duration) {
	if !c.active() {
		return
	}
	c.providerMetrics.RecordLatency(backend, latency)
}

// RecordUpstreamError records a failed upstream request.
//
// Common error types:
//   - "rejected": upstream answered with a non-2xx status
//   - "unreachable": connection failure
//   - "timeout": no response headers in time
//   - "config": backend missing its credential
func (c *Collector) RecordUpstreamError(backend, errorType string) {
	if !c.active() {
		return
	}
	c.providerMetrics.RecordError(backend, errorType)
}

// UpdateBackendHealth sets the backend health gauge.
func (c *Collector) UpdateBackendHealth(backend string, healthy bool) {
	if !c.active() {
		return
	}
	c.providerMetrics.UpdateHealth(backend, healthy)
}

// StreamStarted increments the active stream gauge.
func (c *Collector) StreamStarted(backend string) {
	if !c.active() {
		return
	}
	c.streamMetrics.Started(backend)
}

// StreamFinished decrements the active stream gauge.
func (c *Collector) StreamFinished(backend string) {
	if !c.active() {
		return
	}
	c.streamMetrics.Finished(backend)
}

// RecordStreamEvent counts one emitted event ("text_delta", "done", "error").
func (c *Collector) RecordStreamEvent(backend, kind string) {
	if !c.active() {
		return
	}
	c.streamMetrics.RecordEvent(backend, kind)
}

// RecordFirstDelta records the time from request arrival to the first text
// delta written to the client.
func (c *Collector) RecordFirstDelta(backend string, latency time.Duration) {
	if !c.active() {
		return
	}
	c.streamMetrics.RecordFirstDelta(backend, latency)
}

// RecordMalformedFrames adds frames that were skipped as unparseable.
func (c *Collector) RecordMalformedFrames(backend string, n int) {
	if !c.active() || n <= 0 {
		return
	}
	c.streamMetrics.RecordMalformed(backend, n)
}

// RecordStreamBytes adds bytes written to the client.
func (c *Collector) RecordStreamBytes(backend string, n int64) {
	if !c.active() || n <= 0 {
		return
	}
	c.streamMetrics.RecordBytes(backend, n)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
