package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	mock "mercator-hq/conduit/internal/providers"
	"mercator-hq/conduit/pkg/config"
	"mercator-hq/conduit/pkg/providerfactory"
	"mercator-hq/conduit/pkg/stream"
	"mercator-hq/conduit/pkg/telemetry/health"
	"mercator-hq/conduit/pkg/telemetry/metrics"
)

func testServer(t *testing.T, mutate func(*config.Config)) (*Server, *mock.MockProvider) {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}

	p := mock.NewMockProvider("claude")
	p.Events = []stream.Event{stream.TextDelta("hi"), stream.Done()}

	manager := providerfactory.NewManager()
	manager.Register(p)

	checker := health.New(time.Second)
	checker.Register("backends", health.BackendsCheck(func() []health.BackendSummary {
		return []health.BackendSummary{{Name: "claude", Configured: true, Healthy: true}}
	}))

	return NewServer(cfg.Proxy, Options{
		Providers:   manager,
		Metrics:     metrics.NewCollector(cfg.Telemetry.Metrics, prometheus.NewRegistry()),
		MetricsPath: cfg.Telemetry.Metrics.Path,
		Health:      checker,
		Build:       BuildInfo{Version: "1.2.3"},
	}), p
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestServer_Routes(t *testing.T) {
	srv, _ := testServer(t, nil)
	h := srv.Handler()

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		status   int
		contains string
	}{
		{"chat", http.MethodPost, "/v1/chat/claude", `{"messages":[{"role":"user","content":"x"}]}`, 200, `data: {"text":"hi"}`},
		{"legacy chat", http.MethodPost, "/api/claude-proxy", `{"messages":[{"role":"user","content":"x"}]}`, 200, "data: [DONE]"},
		{"unknown backend", http.MethodPost, "/v1/chat/nope", `{}`, 404, `"error"`},
		{"liveness", http.MethodGet, "/health", "", 200, `"ok"`},
		{"readiness", http.MethodGet, "/ready", "", 200, `"ready"`},
		{"backends report", http.MethodGet, "/health/backends", "", 200, `"claude"`},
		{"version", http.MethodGet, "/version", "", 200, `"1.2.3"`},
		{"metrics", http.MethodGet, "/metrics", "", 200, "conduit_"},
		{"preflight", http.MethodOptions, "/v1/chat/claude", "", 200, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(h, tt.method, tt.path, tt.body)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d; body %s", w.Code, tt.status, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), tt.contains) {
				t.Errorf("body %q does not contain %q", w.Body.String(), tt.contains)
			}
			if w.Header().Get("X-Request-ID") == "" {
				t.Error("X-Request-ID not set")
			}
			if w.Header().Get("Access-Control-Allow-Origin") != "*" {
				t.Error("CORS header missing")
			}
		})
	}
}

func TestServer_LegacyRoutesDisabled(t *testing.T) {
	off := false
	srv, p := testServer(t, func(c *config.Config) { c.Proxy.LegacyRoutes = &off })

	w := do(srv.Handler(), http.MethodPost, "/api/claude-proxy", `{"messages":[{"role":"user","content":"x"}]}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	if p.Calls() != 0 {
		t.Error("legacy route reached the backend")
	}
}

func TestServer_ServeAndShutdown(t *testing.T) {
	srv, _ := testServer(t, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/health"
	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get(url)
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server never answered: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "ok") {
		t.Errorf("GET /health = %d %s", resp.StatusCode, body)
	}
	if !srv.IsRunning() {
		t.Error("IsRunning() = false while serving")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
	if srv.IsRunning() {
		t.Error("IsRunning() = true after shutdown")
	}
}

func TestServer_RunFailsOnBadAddress(t *testing.T) {
	srv := NewServer(config.ProxyConfig{ListenAddress: "256.0.0.1:99999"}, Options{Providers: providerfactory.NewManager()})
	err := srv.Run(context.Background())
	if err == nil {
		t.Fatal("Run() error = nil for an invalid address")
	}
	var opErr *net.OpError
	if !errors.As(err, &opErr) && !strings.Contains(err.Error(), "listen") {
		t.Errorf("unexpected error %v", err)
	}
}
