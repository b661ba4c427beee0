package main

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	mock "mercator-hq/conduit/internal/providers"
	"mercator-hq/conduit/pkg/config"
	"mercator-hq/conduit/pkg/providers"
)

func TestServeEndToEnd(t *testing.T) {
	upstream := mock.NewMockServer()
	defer upstream.Close()
	upstream.SetResponse("/v1/messages", mock.MockResponse{
		Chunks: mock.SSE(
			mock.AnthropicTextDelta("Hello"),
			mock.AnthropicTextDelta(" there"),
			mock.AnthropicMessageStop,
		),
	})

	cfg := &config.Config{
		Backends: map[string]config.BackendConfig{
			"claude": {
				Type:     providers.TypeAnthropic,
				Endpoint: upstream.URL(),
				APIKey:   "test-key",
			},
		},
	}
	cfg.Evidence.Enabled = true
	cfg.Evidence.Backend = "memory"
	config.ApplyDefaults(cfg)
	if err := config.Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	base := "http://" + ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, cfg, ln) }()

	waitReady(t, base+"/ready")

	resp, err := http.Post(base+"/v1/chat/claude", "application/json",
		strings.NewReader(`{"messages":[{"role":"user","content":"Hi"}],"system":"Be brief."}`))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}

	var units []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			units = append(units, line)
		}
	}
	resp.Body.Close()

	want := []string{`data: {"text":"Hello"}`, `data: {"text":" there"}`, `data: [DONE]`}
	if strings.Join(units, "|") != strings.Join(want, "|") {
		t.Errorf("stream = %q, want %q", units, want)
	}

	last, ok := upstream.LastRequest()
	if !ok {
		t.Fatal("upstream saw no request")
	}
	if got := last.Header.Get("x-api-key"); got != "test-key" {
		t.Errorf("upstream credential header = %q", got)
	}

	metricsResp, err := http.Get(base + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	body, _ := io.ReadAll(metricsResp.Body)
	metricsResp.Body.Close()
	if !strings.Contains(string(body), `conduit_requests_total{backend="claude",outcome="success"} 1`) {
		t.Errorf("metrics missing request counter:\n%s", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve() error = %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}

func TestServeRejectsBadBackend(t *testing.T) {
	cfg := &config.Config{
		Backends: map[string]config.BackendConfig{
			"claude": {Type: "cohere"},
		},
	}
	config.ApplyDefaults(cfg)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer ln.Close()

	if err := serve(context.Background(), cfg, ln); err == nil {
		t.Fatal("expected error for an unsupported backend type")
	}
}

func TestRunDryRun(t *testing.T) {
	defer func() { runFlags.dryRun = false }()

	out, err := execute(t, "run", "--config=", "--dry-run", "--log-level", "error")
	if err != nil {
		t.Fatalf("run --dry-run error = %v", err)
	}
	if !strings.Contains(out, "Configuration valid") {
		t.Errorf("output = %q", out)
	}
}

func TestRunRejectsBadOverride(t *testing.T) {
	defer func() {
		runFlags.dryRun = false
		runFlags.listenAddress = ""
	}()

	_, err := execute(t, "run", "--config=", "--dry-run", "--listen", "not-an-address")
	if err == nil || !strings.Contains(err.Error(), "proxy.listen_address") {
		t.Errorf("error = %v, want listen address validation error", err)
	}
}

func waitReady(t *testing.T, url string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("%s not ready", url)
}
