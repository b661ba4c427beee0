package metrics

import (
	"time"

	"mercator-hq/conduit/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// StreamMetrics tracks relayed streams.
//
// Metrics:
//   - conduit_active_streams: Streams currently being relayed
//   - conduit_stream_events_total: Emitted events by kind
//   - conduit_time_to_first_delta_seconds: Latency until the first text delta
//   - conduit_malformed_frames_total: Upstream frames skipped as unparseable
//   - conduit_stream_bytes_total: Bytes written to clients
type StreamMetrics struct {
	active     *prometheus.GaugeVec
	events     *prometheus.CounterVec
	firstDelta *prometheus.HistogramVec
	malformed  *prometheus.CounterVec
	bytes      *prometheus.CounterVec
}

// NewStreamMetrics creates and registers stream metrics with the provided registry.
func NewStreamMetrics(cfg config.MetricsConfig, registry *prometheus.Registry) *StreamMetrics {
	sm := &StreamMetrics{
		active: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "active_streams",
				Help:      "Number of streams currently being relayed",
			},
			[]string{"backend"},
		),

		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "stream_events_total",
				Help:      "Total number of stream events emitted to clients by kind",
			},
			[]string{"backend", "kind"},
		),

		firstDelta: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "time_to_first_delta_seconds",
				Help:      "Time from request arrival to the first text delta in seconds",
				Buckets:   cfg.LatencyBuckets,
			},
			[]string{"backend"},
		),

		malformed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "malformed_frames_total",
				Help:      "Total number of upstream frames skipped as unparseable",
			},
			[]string{"backend"},
		),

		bytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "stream_bytes_total",
				Help:      "Total bytes of event stream written to clients",
			},
			[]string{"backend"},
		),
	}

	registry.MustRegister(
		sm.active,
		sm.events,
		sm.firstDelta,
		sm.malformed,
		sm.bytes,
	)

	return sm
}

// Started increments the active stream gauge.
func (sm *StreamMetrics) Started(backend string) {
	sm.active.WithLabelValues(backend).Inc()
}

// Finished decrements the active stream gauge.
func (sm *StreamMetrics) Finished(backend string) {
	sm.active.WithLabelValues(backend).Dec()
}

// RecordEvent counts one emitted event.
func (sm *StreamMetrics) RecordEvent(backend, kind string) {
	sm.events.WithLabelValues(backend, kind).Inc()
}

// RecordFirstDelta observes time to first delta.
func (sm *StreamMetrics) RecordFirstDelta(backend string, latency time.Duration) {
	sm.firstDelta.WithLabelValues(backend).Observe(latency.Seconds())
}

// RecordMalformed adds skipped frames.
func (sm *StreamMetrics) RecordMalformed(backend string, n int) {
	sm.malformed.WithLabelValues(backend).Add(float64(n))
}

// RecordBytes adds bytes written.
func (sm *StreamMetrics) RecordBytes(backend string, n int64) {
	sm.bytes.WithLabelValues(backend).Add(float64(n))
}
