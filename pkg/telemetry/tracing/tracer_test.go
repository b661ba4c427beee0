package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mercator-hq/conduit/pkg/config"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newRecordingTracer(t *testing.T, sampler string) (*Tracer, *tracetest.SpanRecorder) {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	tracer, err := newTracer(config.TracingConfig{
		Enabled:     true,
		Sampler:     sampler,
		ServiceName: "conduit-test",
	}, "test", sdktrace.WithSpanProcessor(recorder))
	if err != nil {
		t.Fatalf("newTracer() error = %v", err)
	}
	t.Cleanup(func() { _ = tracer.Shutdown(context.Background()) })
	return tracer, recorder
}

func attrMap(attrs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(attrs))
	for _, kv := range attrs {
		m[string(kv.Key)] = kv.Value
	}
	return m
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  config.TracingConfig
		wantErr bool
	}{
		{
			name:   "disabled tracing",
			config: config.TracingConfig{Enabled: false},
		},
		{
			name: "enabled with always sampler",
			config: config.TracingConfig{
				Enabled:     true,
				Sampler:     "always",
				Endpoint:    "localhost:4317",
				ServiceName: "test-service",
				Timeout:     time.Second,
			},
		},
		{
			name: "enabled with ratio sampler",
			config: config.TracingConfig{
				Enabled:     true,
				Sampler:     "ratio",
				SampleRatio: 0.5,
				Endpoint:    "localhost:4317",
			},
		},
		{
			name: "invalid sampler",
			config: config.TracingConfig{
				Enabled:  true,
				Sampler:  "invalid",
				Endpoint: "localhost:4317",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracer, err := New(tt.config, "test")
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}

			if tracer.Enabled() != tt.config.Enabled {
				t.Errorf("Enabled() = %v, want %v", tracer.Enabled(), tt.config.Enabled)
			}

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := tracer.Shutdown(ctx); err != nil {
				t.Errorf("Shutdown() error = %v", err)
			}
		})
	}
}

func TestTracer_DisabledProducesNoopSpans(t *testing.T) {
	tracer, err := New(config.TracingConfig{}, "test")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, span := tracer.Start(context.Background(), "conduit.proxy")
	defer span.End()

	if span.SpanContext().IsValid() {
		t.Error("disabled tracer produced a valid span context")
	}
	if TraceID(ctx) != "" {
		t.Errorf("TraceID() = %q, want empty", TraceID(ctx))
	}
}

func TestTracer_NilSafe(t *testing.T) {
	var tracer *Tracer

	_, span := tracer.Start(context.Background(), "conduit.proxy")
	span.End()

	if tracer.Enabled() {
		t.Error("nil tracer reports enabled")
	}
	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestTracer_RecordsProxySpan(t *testing.T) {
	tracer, recorder := newRecordingTracer(t, SamplerAlways)

	ctx, span := tracer.Start(context.Background(), "conduit.proxy")
	SetRequestAttributes(span, "req-1", "claude", "anthropic", "passthrough-sse")
	SetUpstreamStatus(span, 200)
	SetStreamAttributes(span, 3, 1, 120)
	SetOutcome(span, "success", nil)

	if TraceID(ctx) == "" {
		t.Error("TraceID() is empty for a sampled span")
	}
	span.End()

	ended := recorder.Ended()
	if len(ended) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(ended))
	}
	got := ended[0]
	if got.Name() != "conduit.proxy" {
		t.Errorf("span name = %q", got.Name())
	}
	if got.Status().Code != codes.Ok {
		t.Errorf("status = %v, want Ok", got.Status().Code)
	}

	attrs := attrMap(got.Attributes())
	checks := map[string]string{
		AttrRequestID:    "req-1",
		AttrBackend:      "claude",
		AttrBackendType:  "anthropic",
		AttrStreamFormat: "passthrough-sse",
		AttrOutcome:      "success",
	}
	for key, want := range checks {
		if v, ok := attrs[key]; !ok || v.AsString() != want {
			t.Errorf("attribute %s = %v, want %q", key, v.Emit(), want)
		}
	}
	if v := attrs[AttrDeltas]; v.AsInt64() != 3 {
		t.Errorf("deltas = %d, want 3", v.AsInt64())
	}
	if v := attrs[AttrUpstreamStatus]; v.AsInt64() != 200 {
		t.Errorf("upstream status = %d, want 200", v.AsInt64())
	}

	if res := got.Resource(); res == nil {
		t.Error("span has no resource")
	}
}

func TestSetOutcome_Error(t *testing.T) {
	tracer, recorder := newRecordingTracer(t, SamplerAlways)

	_, span := tracer.Start(context.Background(), "conduit.proxy")
	SetOutcome(span, "upstream_error", errors.New("status 503"))
	span.End()

	got := recorder.Ended()[0]
	if got.Status().Code != codes.Error {
		t.Errorf("status = %v, want Error", got.Status().Code)
	}
	if got.Status().Description != "status 503" {
		t.Errorf("status description = %q", got.Status().Description)
	}
	if len(got.Events()) == 0 {
		t.Error("expected the error to be recorded as an event")
	}
	if v := attrMap(got.Attributes())[AttrErrorType]; v.AsString() != "upstream_error" {
		t.Errorf("error type = %q", v.AsString())
	}
}

func TestTracer_NeverSamplerDropsSpans(t *testing.T) {
	tracer, recorder := newRecordingTracer(t, SamplerNever)

	_, span := tracer.Start(context.Background(), "conduit.proxy")
	span.End()

	if n := len(recorder.Ended()); n != 0 {
		t.Errorf("ended spans = %d, want 0", n)
	}
}

func TestHTTPMiddleware_JoinsCallerTrace(t *testing.T) {
	// New installs the W3C propagator.
	if _, err := New(config.TracingConfig{}, "test"); err != nil {
		t.Fatalf("New() error = %v", err)
	}
	tracer, recorder := newRecordingTracer(t, SamplerNever)

	const traceID = "4bf92f3577b34da6a3ce929d0e0e4736"

	handler := HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "conduit.proxy")
		span.End()
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/chat/claude", nil)
	req.Header.Set("traceparent", "00-"+traceID+"-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Trace-ID"); got != traceID {
		t.Errorf("X-Trace-ID = %q, want %q", got, traceID)
	}

	// The caller sampled the trace, so the parent-based sampler records the
	// span even though root spans are never sampled.
	ended := recorder.Ended()
	if len(ended) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(ended))
	}
	if got := ended[0].SpanContext().TraceID().String(); got != traceID {
		t.Errorf("span trace ID = %q, want %q", got, traceID)
	}
}

func TestInject(t *testing.T) {
	if _, err := New(config.TracingConfig{}, "test"); err != nil {
		t.Fatalf("New() error = %v", err)
	}
	tracer, _ := newRecordingTracer(t, SamplerAlways)

	ctx, span := tracer.Start(context.Background(), "conduit.proxy")
	defer span.End()

	headers := http.Header{}
	Inject(ctx, headers)

	if headers.Get("traceparent") == "" {
		t.Error("traceparent header not injected")
	}

	extracted := Extract(context.Background(), headers)
	if got := trace.SpanContextFromContext(extracted).TraceID(); got != span.SpanContext().TraceID() {
		t.Errorf("extracted trace ID = %s, want %s", got, span.SpanContext().TraceID())
	}
}
