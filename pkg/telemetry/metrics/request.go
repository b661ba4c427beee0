package metrics

import (
	"time"

	"mercator-hq/conduit/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics tracks proxied requests.
//
// Metrics:
//   - conduit_requests_total: Total request count by backend and outcome
//   - conduit_request_duration_seconds: Request duration histogram
type RequestMetrics struct {
	// Total request count
	requestsTotal *prometheus.CounterVec

	// Request duration histogram
	requestDuration *prometheus.HistogramVec
}

// NewRequestMetrics creates and registers request metrics with the provided registry.
func NewRequestMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *RequestMetrics {
	rm := &RequestMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "requests_total",
				Help:      "Total number of proxied chat requests",
			},
			[]string{"backend", "outcome"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "request_duration_seconds",
				Help:      "Duration of proxied chat requests in seconds, including streaming",
				Buckets:   cfg.LatencyBuckets,
			},
			[]string{"backend", "outcome"},
		),
	}

	registry.MustRegister(
		rm.requestsTotal,
		rm.requestDuration,
	)

	return rm
}

// RecordRequest records metrics for a completed request.
func (rm *RequestMetrics) RecordRequest(backend, outcome string, duration time.Duration) {
	rm.requestsTotal.WithLabelValues(backend, outcome).Inc()
	rm.requestDuration.WithLabelValues(backend, outcome).Observe(duration.Seconds())
}
