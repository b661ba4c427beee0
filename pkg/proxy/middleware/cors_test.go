package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"mercator-hq/conduit/pkg/config"
)

func TestCORSMiddleware(t *testing.T) {
	var called bool
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	t.Run("wildcard headers on every response", func(t *testing.T) {
		wrapped := CORSMiddleware(DefaultCORSConfig())(handler)

		req := httptest.NewRequest(http.MethodPost, "/v1/chat/claude", nil)
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, req)

		want := map[string]string{
			"Access-Control-Allow-Origin":  "*",
			"Access-Control-Allow-Methods": "POST, OPTIONS",
			"Access-Control-Allow-Headers": "Content-Type",
		}
		for header, value := range want {
			if got := w.Header().Get(header); got != value {
				t.Errorf("%s = %q, want %q", header, got, value)
			}
		}
	})

	t.Run("preflight answered with empty 200", func(t *testing.T) {
		called = false
		wrapped := CORSMiddleware(DefaultCORSConfig())(handler)

		req := httptest.NewRequest(http.MethodOptions, "/v1/chat/claude", nil)
		req.Header.Set("Origin", "https://example.com")
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
		if w.Body.Len() != 0 {
			t.Errorf("body = %q, want empty", w.Body.String())
		}
		if called {
			t.Error("preflight reached the handler")
		}
		if w.Header().Get("Access-Control-Max-Age") != "" {
			t.Error("Max-Age set although not configured")
		}
	})

	t.Run("explicit origin list", func(t *testing.T) {
		cfg := &CORSConfig{
			AllowedOrigins: []string{"https://example.com"},
			AllowedMethods: []string{"POST"},
			MaxAge:         600,
		}
		wrapped := CORSMiddleware(cfg)(handler)

		req := httptest.NewRequest(http.MethodOptions, "/x", nil)
		req.Header.Set("Origin", "https://example.com")
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://example.com" {
			t.Errorf("Allow-Origin = %q", got)
		}
		if w.Header().Get("Vary") != "Origin" {
			t.Error("Vary: Origin missing")
		}
		if w.Header().Get("Access-Control-Max-Age") != "600" {
			t.Errorf("Max-Age = %q", w.Header().Get("Access-Control-Max-Age"))
		}

		req = httptest.NewRequest(http.MethodPost, "/x", nil)
		req.Header.Set("Origin", "https://evil.example")
		w = httptest.NewRecorder()
		wrapped.ServeHTTP(w, req)
		if w.Header().Get("Access-Control-Allow-Origin") != "" {
			t.Error("disallowed origin received Allow-Origin")
		}
	})
}

func TestCORSConfigFrom(t *testing.T) {
	cfg := config.Default()
	got := CORSConfigFrom(cfg.Proxy.CORS)

	if len(got.AllowedOrigins) != 1 || got.AllowedOrigins[0] != "*" {
		t.Errorf("AllowedOrigins = %v", got.AllowedOrigins)
	}
	if len(got.ExposedHeaders) != 1 || got.ExposedHeaders[0] != RequestIDHeader {
		t.Errorf("ExposedHeaders = %v", got.ExposedHeaders)
	}
}

func BenchmarkCORSMiddleware(b *testing.B) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	wrapped := CORSMiddleware(DefaultCORSConfig())(handler)

	req := httptest.NewRequest(http.MethodPost, "/test", nil)
	req.Header.Set("Origin", "https://example.com")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, req)
	}
}
