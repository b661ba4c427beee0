package providers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// maxErrorBodySize bounds how much of a non-2xx upstream body is read.
const maxErrorBodySize = 64 * 1024

// HTTPProvider is the base implementation for HTTP-based backends.
// It provides connection pooling, a response header timeout, and
// request outcome tracking.
//
// Concrete backends (Anthropic, OpenAI, Gemini) embed this struct and
// implement StreamChat on top of OpenStream.
type HTTPProvider struct {
	// config contains the backend configuration
	config BackendConfig

	// client is the HTTP client with connection pooling
	client *http.Client

	// health tracks request outcomes
	health ProviderHealth

	// healthMu protects concurrent access to health status
	healthMu sync.RWMutex
}

// NewHTTPProvider creates a new base HTTP provider with connection pooling.
//
// The client has no overall timeout: a response body may stream for far
// longer than any sensible request timeout. config.Timeout bounds only the
// wait for response headers.
func NewHTTPProvider(config BackendConfig) *HTTPProvider {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          config.MaxIdleConns,
		MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
		IdleConnTimeout:       config.IdleConnTimeout,
		ResponseHeaderTimeout: config.Timeout,
		// Compression would buffer deltas inside the gzip reader.
		DisableCompression: true,
		ForceAttemptHTTP2:  true,
	}

	return &HTTPProvider{
		config: config,
		client: &http.Client{Transport: transport},
		health: ProviderHealth{
			IsHealthy: true, // Start optimistic
		},
	}
}

// GetName returns the backend's configured name.
func (p *HTTPProvider) GetName() string {
	return p.config.Name
}

// GetType returns the backend's type.
func (p *HTTPProvider) GetType() string {
	return p.config.Type
}

// GetConfig returns the backend's configuration.
func (p *HTTPProvider) GetConfig() BackendConfig {
	return p.config
}

// IsHealthy returns the current health status.
func (p *HTTPProvider) IsHealthy() bool {
	p.healthMu.RLock()
	defer p.healthMu.RUnlock()
	return p.health.IsHealthy
}

// GetHealth returns detailed health information.
func (p *HTTPProvider) GetHealth() ProviderHealth {
	p.healthMu.RLock()
	defer p.healthMu.RUnlock()
	return p.health
}

// RequireCredential returns a ConfigError when the backend has no
// credential. It is checked per request so a missing key fails only the
// requests that need it.
func (p *HTTPProvider) RequireCredential() error {
	if p.config.Credential == "" {
		return &ConfigError{
			Provider: p.config.Name,
			Field:    "credential",
			Message:  "API key not configured",
		}
	}
	return nil
}

// recordOutcome updates request statistics and health.
func (p *HTTPProvider) recordOutcome(err error) {
	p.healthMu.Lock()
	defer p.healthMu.Unlock()

	p.health.TotalRequests++
	if err == nil {
		p.health.IsHealthy = true
		p.health.ConsecutiveFailures = 0
		p.health.LastError = nil
		p.health.LastSuccessfulRequest = time.Now()
		return
	}

	p.health.FailedRequests++
	p.health.ConsecutiveFailures++
	p.health.LastError = err

	// Mark unhealthy after 3 consecutive failures
	if p.health.ConsecutiveFailures >= 3 && p.health.IsHealthy {
		p.health.IsHealthy = false
		slog.Warn("provider marked unhealthy",
			"provider", p.config.Name,
			"consecutive_failures", p.health.ConsecutiveFailures,
			"error", err,
		)
	}
}

// OpenStream issues a single POST and returns the response once its status
// is known to be 2xx. The caller owns the response body.
//
// Streaming requests are never retried: the upstream may already have
// begun generating. Non-2xx responses become a ProviderError carrying the
// upstream status and the message extracted from its body; transport
// failures become a ProviderError with StatusCode 0, or a TimeoutError when
// a deadline was exceeded.
func (p *HTTPProvider) OpenStream(ctx context.Context, url string, body []byte, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	slog.DebugContext(ctx, "sending request to provider",
		"provider", p.config.Name,
		"url", redactURL(url),
	)

	resp, err := p.client.Do(req)
	if err != nil {
		var outErr error
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			outErr = &TimeoutError{
				Provider: p.config.Name,
				Timeout:  p.config.Timeout,
				Cause:    err,
			}
		} else {
			outErr = &ProviderError{
				Provider: p.config.Name,
				Display:  p.config.Label(),
				Message:  "upstream request failed",
				Cause:    err,
			}
		}
		// Client disconnects say nothing about upstream health.
		if ctx.Err() == nil || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			p.recordOutcome(outErr)
		}
		return nil, outErr
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		p.recordOutcome(nil)
		return resp, nil
	}

	errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	resp.Body.Close()

	perr := &ProviderError{
		Provider:   p.config.Name,
		Display:    p.config.Label(),
		StatusCode: resp.StatusCode,
		Message:    ExtractErrorMessage(errorBody),
	}
	p.recordOutcome(perr)

	slog.WarnContext(ctx, "provider returned error status",
		"provider", p.config.Name,
		"status", resp.StatusCode,
	)
	return nil, perr
}

// Close releases idle connections.
func (p *HTTPProvider) Close() error {
	p.client.CloseIdleConnections()
	slog.Info("provider closed", "provider", p.config.Name)
	return nil
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

// redactURL strips the query string, which some backends use for keys.
func redactURL(u string) string {
	base, _, _ := strings.Cut(u, "?")
	return base
}
