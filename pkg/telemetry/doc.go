// Package telemetry groups Conduit's observability packages.
//
//   - logging: slog construction with request-scoped fields and secret redaction
//   - metrics: Prometheus collectors for requests, streams and backends
//   - tracing: OpenTelemetry spans exported over OTLP gRPC
//   - health: liveness, readiness and version endpoints
//
// The run command builds each of these from the telemetry section of the
// configuration and hands them to the proxy handlers.
package telemetry
