package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"mercator-hq/conduit/pkg/providers"
)

// Provider is the Gemini backend.
type Provider struct {
	*providers.HTTPProvider
}

const (
	// DefaultEndpoint is the Generative Language API base URL
	DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultModel is used when no model is configured
	DefaultModel = "gemini-2.0-flash-exp"

	// DefaultMaxOutputTokens is used when no token limit is configured
	DefaultMaxOutputTokens = 8192

	// DefaultTemperature is used when no temperature is configured
	DefaultTemperature = 0.7
)

// NewProvider creates a new Gemini provider instance.
// A missing credential is not an error here; StreamChat reports it per request.
func NewProvider(config providers.BackendConfig) (*Provider, error) {
	if config.Name == "" {
		return nil, &providers.ConfigError{
			Provider: "gemini",
			Field:    "name",
			Message:  "backend name is required",
		}
	}

	if config.StreamFormat == "" {
		config.StreamFormat = providers.FormatBracketedJSON
	}
	if !config.StreamFormat.Valid() {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "stream_format",
			Message:  fmt.Sprintf("unknown stream format %q", config.StreamFormat),
		}
	}

	// Set defaults if not provided
	if config.Endpoint == "" {
		config.Endpoint = DefaultEndpoint
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = DefaultMaxOutputTokens
	}
	if config.Temperature == nil {
		t := DefaultTemperature
		config.Temperature = &t
	}
	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 100
	}
	if config.MaxIdleConnsPerHost == 0 {
		config.MaxIdleConnsPerHost = 10
	}

	p := &Provider{
		HTTPProvider: providers.NewHTTPProvider(config),
	}

	slog.Info("gemini provider created",
		"name", config.Name,
		"endpoint", config.Endpoint,
		"model", config.Model,
		"stream_format", config.StreamFormat,
	)

	return p, nil
}

// StreamChat sends a streamGenerateContent request. The response is read by
// a translating adapter for the bracketed JSON format, or by a passthrough
// adapter when the backend is configured for SSE (alt=sse).
func (p *Provider) StreamChat(ctx context.Context, req *providers.ChatRequest) (providers.Adapter, error) {
	if err := p.RequireCredential(); err != nil {
		return nil, err
	}

	config := p.GetConfig()
	body, err := json.Marshal(BuildRequest(req, config))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	headers := map[string]string{
		"x-goog-api-key": config.Credential,
	}

	resp, err := p.OpenStream(ctx, streamURL(config), body, headers)
	if err != nil {
		return nil, err
	}

	return newAdapter(resp.Body, config), nil
}

func newAdapter(body io.ReadCloser, config providers.BackendConfig) providers.Adapter {
	opts := providers.AdapterOptionsFor(config)
	if config.StreamFormat == providers.FormatSSE {
		return providers.NewPassthroughAdapter(body, TextPath, opts)
	}
	return providers.NewTranslatingAdapter(body, TextPath, opts)
}

func streamURL(config providers.BackendConfig) string {
	u := fmt.Sprintf("%s/models/%s:streamGenerateContent",
		strings.TrimSuffix(config.Endpoint, "/"), url.PathEscape(config.Model))
	if config.StreamFormat == providers.FormatSSE {
		u += "?alt=sse"
	}
	return u
}

var _ providers.Provider = (*Provider)(nil)
