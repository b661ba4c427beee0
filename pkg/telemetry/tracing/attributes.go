package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for proxy spans. Custom keys use the "conduit.*" namespace.
const (
	AttrRequestID    = "conduit.request_id"
	AttrBackend      = "conduit.backend"
	AttrBackendType  = "conduit.backend.type"
	AttrStreamFormat = "conduit.stream.format"
	AttrOutcome      = "conduit.outcome"

	AttrDeltas          = "conduit.stream.deltas"
	AttrMalformedFrames = "conduit.stream.malformed_frames"
	AttrBytes           = "conduit.stream.bytes"

	AttrUpstreamStatus = "conduit.upstream.status_code"
	AttrErrorType      = "conduit.error.type"
)

// Span event names.
const (
	EventUpstreamHeaders = "upstream_headers"
	EventFirstDelta      = "first_delta"
)

// SetRequestAttributes sets the attributes known when a request arrives.
//
// Example:
//
//	SetRequestAttributes(span, requestID, "claude", "anthropic", "sse-passthrough")
func SetRequestAttributes(span trace.Span, requestID, backend, backendType, streamFormat string) {
	span.SetAttributes(
		attribute.String(AttrRequestID, requestID),
		attribute.String(AttrBackend, backend),
	)
	if backendType != "" {
		span.SetAttributes(attribute.String(AttrBackendType, backendType))
	}
	if streamFormat != "" {
		span.SetAttributes(attribute.String(AttrStreamFormat, streamFormat))
	}
}

// SetStreamAttributes records stream totals once the stream has ended.
func SetStreamAttributes(span trace.Span, deltas, malformed int, bytes int64) {
	span.SetAttributes(
		attribute.Int(AttrDeltas, deltas),
		attribute.Int(AttrMalformedFrames, malformed),
		attribute.Int64(AttrBytes, bytes),
	)
}

// SetUpstreamStatus records the HTTP status returned by the upstream.
func SetUpstreamStatus(span trace.Span, status int) {
	if status > 0 {
		span.SetAttributes(attribute.Int(AttrUpstreamStatus, status))
	}
}

// SetOutcome records the request outcome and marks the span failed when
// err is non-nil.
func SetOutcome(span trace.Span, outcome string, err error) {
	span.SetAttributes(attribute.String(AttrOutcome, outcome))
	if err != nil {
		span.SetAttributes(attribute.String(AttrErrorType, outcome))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}
