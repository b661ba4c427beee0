// Package tracing provides OpenTelemetry distributed tracing for Conduit.
//
// # Overview
//
// Each proxied chat request produces one span named "conduit.proxy" carrying
// the request ID, backend, stream totals and outcome. Spans are exported to
// an OTLP gRPC collector. Incoming W3C traceparent headers are honored, and
// the trace context is injected into upstream requests so the provider call
// can be correlated with the proxy span.
//
// # Sampling Strategies
//
//   - always: sample all traces (development)
//   - never: sample no traces
//   - ratio: sample a fraction of traces by trace ID (production)
//
// Every strategy is parent-based: a caller's sampling decision wins.
//
// # Usage
//
//	tracer, err := tracing.New(cfg.Telemetry.Tracing, version)
//	if err != nil {
//		return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "conduit.proxy")
//	defer span.End()
//	tracing.SetRequestAttributes(span, requestID, backend, backendType, format)
//
// When tracing is disabled New returns a tracer whose spans are noops.
package tracing
