package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"mercator-hq/conduit/pkg/evidence"
	"mercator-hq/conduit/pkg/providers"
	"mercator-hq/conduit/pkg/proxy"
	"mercator-hq/conduit/pkg/proxy/middleware"
	"mercator-hq/conduit/pkg/proxy/types"
	"mercator-hq/conduit/pkg/stream"
	"mercator-hq/conduit/pkg/telemetry/logging"
	"mercator-hq/conduit/pkg/telemetry/metrics"
	"mercator-hq/conduit/pkg/telemetry/tracing"
)

// legacySuffix ends every legacy route segment (/api/claude-proxy).
const legacySuffix = "-proxy"

// ChatHandler proxies one chat request to the backend named in the path and
// relays the answer to the client as SSE units.
//
// A request moves through validation, dispatch and streaming. Failures
// during validation or dispatch produce a plain JSON error response. Once
// the upstream has answered 2xx the stream is committed: status 200 and the
// SSE headers are sent, and any later failure becomes one terminal error
// unit. The upstream is requested at most once.
type ChatHandler struct {
	providers ProviderManager
	metrics   *metrics.Collector
	tracer    *tracing.Tracer
	recorder  EvidenceRecorder
}

// Option configures a ChatHandler.
type Option func(*ChatHandler)

// WithMetrics records request and stream metrics in c.
func WithMetrics(c *metrics.Collector) Option {
	return func(h *ChatHandler) { h.metrics = c }
}

// WithTracer starts one span per request with t.
func WithTracer(t *tracing.Tracer) Option {
	return func(h *ChatHandler) { h.tracer = t }
}

// WithRecorder stores an audit record for every request.
func WithRecorder(r EvidenceRecorder) Option {
	return func(h *ChatHandler) { h.recorder = r }
}

// NewChatHandler creates a chat handler resolving backends through pm.
func NewChatHandler(pm ProviderManager, opts ...Option) *ChatHandler {
	h := &ChatHandler{providers: pm}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// BackendFromRequest returns the backend named by the route: the {backend}
// segment of /v1/chat/{backend}, or the name in a legacy
// /api/{backend}-proxy path. It returns "" when neither matches.
func BackendFromRequest(r *http.Request) string {
	if backend := r.PathValue("backend"); backend != "" {
		return backend
	}
	if name, ok := strings.CutSuffix(r.PathValue("alias"), legacySuffix); ok {
		return name
	}
	return ""
}

// exchange accumulates what happened to one request for metrics, tracing,
// logs and the audit record.
type exchange struct {
	meta     *proxy.RequestMetadata
	label    string
	provider providers.Provider

	outcome         string
	err             error
	status          int
	upstreamStatus  int
	upstreamLatency time.Duration
	firstDelta      time.Duration
	deltas          int
	bytes           int64
	malformed       int
}

// ServeHTTP implements http.Handler.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := middleware.GetStartTime(r.Context())
	if start.IsZero() {
		start = time.Now()
	}
	backend := BackendFromRequest(r)

	ctx := logging.WithBackend(r.Context(), backend)
	ctx, span := h.tracer.Start(ctx, "conduit.proxy", trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()
	r = r.WithContext(ctx)

	ex := &exchange{
		meta:  proxy.ExtractRequestMetadata(r, middleware.GetRequestID(ctx), backend, nil),
		label: unknownBackendLabel,
	}
	defer h.finish(ctx, span, ex, start)

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST, OPTIONS")
		ex.outcome = evidence.OutcomeInvalidRequest
		h.writeError(ctx, w, ex, types.NewErrorResponse(
			http.StatusMethodNotAllowed,
			fmt.Sprintf("method %s not allowed, use POST", r.Method),
			types.CodeMethodNotAllowed,
		))
		return
	}

	// The body is validated before an unknown backend is reported.
	provider, known := h.providers.GetProvider(backend)
	if known {
		ex.provider = provider
		ex.label = backend
		cfg := provider.GetConfig()
		tracing.SetRequestAttributes(span, ex.meta.RequestID, backend, provider.GetType(), string(cfg.StreamFormat))
	}

	req, err := proxy.ParseChatRequest(r)
	if err != nil {
		slog.InfoContext(ctx, "rejected chat request", "error", err)
		ex.outcome = evidence.OutcomeInvalidRequest
		ex.err = err
		h.writeError(ctx, w, ex, proxy.HandleError(err))
		return
	}
	ex.meta.MessageCount = len(req.Messages)
	ex.meta.HasSystem = req.System != ""

	if !known {
		ex.outcome = evidence.OutcomeUnknownBackend
		ex.err = &proxy.UnknownBackendError{Backend: backend}
		h.writeError(ctx, w, ex, proxy.HandleError(ex.err))
		return
	}

	slog.DebugContext(ctx, "dispatching chat request",
		"messages", ex.meta.MessageCount,
		"has_system", ex.meta.HasSystem,
	)

	dispatched := time.Now()
	adapter, err := provider.StreamChat(ctx, req)
	ex.upstreamLatency = time.Since(dispatched)
	if err != nil {
		h.dispatchFailed(ctx, w, ex, err)
		return
	}
	defer adapter.Close()

	ex.upstreamStatus = http.StatusOK
	h.metrics.RecordUpstreamLatency(ex.label, ex.upstreamLatency)
	span.AddEvent(tracing.EventUpstreamHeaders)

	h.relay(ctx, w, adapter, ex, dispatched)
}

// dispatchFailed reports an upstream request that never produced a stream.
func (h *ChatHandler) dispatchFailed(ctx context.Context, w http.ResponseWriter, ex *exchange, err error) {
	ex.err = err
	ex.outcome = evidence.OutcomeUpstreamError

	var (
		configErr   *providers.ConfigError
		providerErr *providers.ProviderError
		timeoutErr  *providers.TimeoutError
	)
	switch {
	case errors.As(err, &configErr):
		ex.outcome = evidence.OutcomeConfigError
		h.metrics.RecordUpstreamError(ex.label, "config")
	case errors.As(err, &providerErr) && providerErr.StatusCode > 0:
		ex.upstreamStatus = providerErr.StatusCode
		h.metrics.RecordUpstreamError(ex.label, "rejected")
	case errors.As(err, &timeoutErr):
		h.metrics.RecordUpstreamError(ex.label, "timeout")
	case errors.Is(ctx.Err(), context.Canceled):
		ex.outcome = evidence.OutcomeClientCancelled
	default:
		h.metrics.RecordUpstreamError(ex.label, "unreachable")
	}
	h.metrics.UpdateBackendHealth(ex.label, ex.provider.IsHealthy())

	if ex.outcome == evidence.OutcomeClientCancelled {
		slog.InfoContext(ctx, "client went away before the upstream answered")
		return
	}

	slog.WarnContext(ctx, "upstream request failed",
		"upstream_status", ex.upstreamStatus,
		"error", err,
	)
	tracing.SetUpstreamStatus(trace.SpanFromContext(ctx), ex.upstreamStatus)
	h.writeError(ctx, w, ex, proxy.HandleError(err))
}

// relay commits the stream and pumps events from the adapter to the client
// until a terminal event has been written or the client goes away.
func (h *ChatHandler) relay(ctx context.Context, w http.ResponseWriter, adapter providers.Adapter, ex *exchange, dispatched time.Time) {
	span := trace.SpanFromContext(ctx)

	proxy.SetSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	ex.status = http.StatusOK
	tracing.SetUpstreamStatus(span, ex.upstreamStatus)

	enc := stream.NewEncoder(w)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	h.metrics.StreamStarted(ex.label)
	h.metrics.UpdateBackendHealth(ex.label, true)
	defer h.metrics.StreamFinished(ex.label)

	defer func() {
		stats := adapter.Stats()
		ex.malformed = stats.Malformed
		ex.deltas = enc.Deltas()
		ex.bytes = enc.BytesWritten()
		h.metrics.RecordMalformedFrames(ex.label, stats.Malformed)
		h.metrics.RecordStreamBytes(ex.label, ex.bytes)
	}()

	for !enc.Closed() {
		ev, err := adapter.Next(ctx)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			// Exhausted without a terminal event; finish normally.
			ev = stream.Done()
		case errors.Is(ctx.Err(), context.Canceled):
			ex.outcome = evidence.OutcomeClientCancelled
			ex.err = err
			slog.InfoContext(ctx, "client disconnected during stream", "deltas", enc.Deltas())
			return
		default:
			ex.err = err
			ev = proxy.StreamErrorEvent(err)
			slog.WarnContext(ctx, "upstream stream failed", "deltas", enc.Deltas(), "error", err)
		}

		if ev.Kind == stream.KindTextDelta && enc.Deltas() == 0 {
			ex.firstDelta = time.Since(dispatched)
			h.metrics.RecordFirstDelta(ex.label, ex.firstDelta)
			span.AddEvent(tracing.EventFirstDelta)
		}

		if err := enc.Encode(ev); err != nil {
			ex.outcome = evidence.OutcomeClientCancelled
			ex.err = err
			slog.InfoContext(ctx, "failed to write stream unit", "error", err)
			return
		}
		h.metrics.RecordStreamEvent(ex.label, ev.Kind.String())

		if ev.Kind == stream.KindError {
			ex.outcome = evidence.OutcomeStreamError
			if ex.err == nil {
				ex.err = errors.New(ev.Message)
			}
		}
	}

	if ex.outcome == "" {
		ex.outcome = evidence.OutcomeSuccess
	}
}

// writeError sends a JSON error response before any stream was committed.
func (h *ChatHandler) writeError(ctx context.Context, w http.ResponseWriter, ex *exchange, errResp *types.ErrorResponse) {
	ex.status = errResp.HTTPStatusCode()
	if ex.err == nil {
		ex.err = errors.New(errResp.Error)
	}
	if err := proxy.WriteErrorResponse(w, errResp); err != nil {
		slog.ErrorContext(ctx, "failed to write error response", "error", err)
	}
}

// finish emits the request's metrics, span attributes, log line and audit
// record.
func (h *ChatHandler) finish(ctx context.Context, span trace.Span, ex *exchange, start time.Time) {
	duration := time.Since(start)
	if ex.outcome == "" {
		ex.outcome = evidence.OutcomeSuccess
	}

	h.metrics.RecordRequest(ex.label, ex.outcome, duration)
	tracing.SetStreamAttributes(span, ex.deltas, ex.malformed, ex.bytes)
	tracing.SetOutcome(span, ex.outcome, ex.err)

	level := slog.LevelInfo
	switch ex.outcome {
	case evidence.OutcomeSuccess, evidence.OutcomeClientCancelled:
	case evidence.OutcomeInvalidRequest, evidence.OutcomeUnknownBackend:
		level = slog.LevelWarn
	default:
		level = slog.LevelError
	}
	slog.Log(ctx, level, "chat request finished",
		"outcome", ex.outcome,
		"status", ex.status,
		"deltas", ex.deltas,
		"bytes", ex.bytes,
		"malformed_frames", ex.malformed,
		"upstream_latency_ms", ex.upstreamLatency.Milliseconds(),
		"first_delta_ms", ex.firstDelta.Milliseconds(),
		"total_latency_ms", duration.Milliseconds(),
	)

	if h.recorder == nil {
		return
	}
	if err := h.recorder.Record(ex.record(duration)); err != nil {
		slog.WarnContext(ctx, "failed to record request evidence", "error", err)
	}
}

// record builds the audit record. It carries metadata only, never message
// content.
func (ex *exchange) record(duration time.Duration) *evidence.Record {
	rec := &evidence.Record{
		RequestID:       ex.meta.RequestID,
		RequestTime:     ex.meta.Timestamp,
		Method:          ex.meta.Method,
		Path:            ex.meta.Path,
		RemoteAddr:      ex.meta.RemoteAddr,
		UserAgent:       ex.meta.UserAgent,
		Backend:         ex.meta.Backend,
		MessageCount:    ex.meta.MessageCount,
		HasSystem:       ex.meta.HasSystem,
		UpstreamStatus:  ex.upstreamStatus,
		ResponseStatus:  ex.status,
		Outcome:         ex.outcome,
		Deltas:          ex.deltas,
		Bytes:           ex.bytes,
		MalformedFrames: ex.malformed,
		UpstreamLatency: ex.upstreamLatency,
		FirstDelta:      ex.firstDelta,
		Duration:        duration,
	}
	if ex.provider != nil {
		rec.BackendType = ex.provider.GetType()
		rec.Model = ex.provider.GetConfig().Model
	}
	if ex.err != nil && ex.outcome != evidence.OutcomeSuccess {
		rec.Error = ex.err.Error()
	}
	return rec
}
