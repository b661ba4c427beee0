package metrics

import (
	"time"

	"mercator-hq/conduit/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// ProviderMetrics tracks upstream backend health and performance.
//
// Metrics:
//   - conduit_backend_health: Backend health status (1=healthy, 0=unhealthy)
//   - conduit_upstream_latency_seconds: Time until upstream response headers
//   - conduit_upstream_errors_total: Upstream error count by type
type ProviderMetrics struct {
	// Backend health status (gauge: 1=healthy, 0=unhealthy)
	health *prometheus.GaugeVec

	// Upstream header latency histogram
	latency *prometheus.HistogramVec

	// Upstream error counter
	errors *prometheus.CounterVec
}

// NewProviderMetrics creates and registers backend metrics with the provided registry.
func NewProviderMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *ProviderMetrics {
	pm := &ProviderMetrics{
		health: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "backend_health",
				Help:      "Backend health status (1=healthy, 0=unhealthy)",
			},
			[]string{"backend"},
		),

		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "upstream_latency_seconds",
				Help:      "Time until the upstream returned response headers in seconds",
				Buckets:   cfg.LatencyBuckets,
			},
			[]string{"backend"},
		),

		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "upstream_errors_total",
				Help:      "Total number of upstream errors by type",
			},
			[]string{"backend", "error_type"},
		),
	}

	registry.MustRegister(
		pm.health,
		pm.latency,
		pm.errors,
	)

	return pm
}

// UpdateHealth updates the health status of a backend.
// The health metric is a gauge where 1=healthy, 0=unhealthy.
func (pm *ProviderMetrics) UpdateHealth(backend string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	pm.health.WithLabelValues(backend).Set(value)
}

// RecordLatency records the upstream header latency.
func (pm *ProviderMetrics) RecordLatency(backend string, latency time.Duration) {
	pm.latency.WithLabelValues(backend).Observe(latency.Seconds())
}

// RecordError records an error from a backend.
func (pm *ProviderMetrics) RecordError(backend, errorType string) {
	pm.errors.WithLabelValues(backend, errorType).Inc()
}
