// Package metrics provides Prometheus metrics collection for Conduit.
//
// # Overview
//
// The metrics package exposes counters and histograms for proxied chat
// requests, relayed streams and upstream backends. Every metric carries a
// backend label; backend names come from configuration, so label
// cardinality is bounded by the backend table. Requests for a backend
// that is not configured are recorded under "unknown".
//
// # Metrics Categories
//
//   - Request Metrics: request count and duration by backend and outcome
//   - Stream Metrics: active streams, emitted events by kind, time to first
//     delta, malformed frames and bytes written
//   - Backend Metrics: backend health, upstream header latency and errors
//
// # Usage
//
//	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)
//
//	collector.StreamStarted("claude")
//	defer collector.StreamFinished("claude")
//	collector.RecordStreamEvent("claude", "text_delta")
//	collector.RecordRequest("claude", "success", time.Since(start))
//
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// A nil *Collector is valid and records nothing, as does a collector built
// from a configuration with metrics disabled.
package metrics
