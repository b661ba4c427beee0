package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"mercator-hq/conduit/pkg/providers"
)

// Provider is the OpenAI backend. It also serves any server that speaks the
// OpenAI chat completions protocol.
type Provider struct {
	*providers.HTTPProvider
}

const (
	// DefaultEndpoint is the OpenAI API base URL
	DefaultEndpoint = "https://api.openai.com/v1"

	// DefaultModel is used when no model is configured
	DefaultModel = "gpt-4o-mini"
)

// NewProvider creates a new OpenAI provider instance.
// A missing credential is not an error here; StreamChat reports it per request.
func NewProvider(config providers.BackendConfig) (*Provider, error) {
	if config.Name == "" {
		return nil, &providers.ConfigError{
			Provider: "openai",
			Field:    "name",
			Message:  "backend name is required",
		}
	}

	if config.StreamFormat == "" {
		config.StreamFormat = providers.FormatSSE
	}
	if config.StreamFormat != providers.FormatSSE {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "stream_format",
			Message:  fmt.Sprintf("openai only supports %q", providers.FormatSSE),
		}
	}

	// Set defaults if not provided
	if config.Endpoint == "" {
		config.Endpoint = DefaultEndpoint
	}
	if config.Model == "" {
		config.Model = DefaultModel
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

	slog.Info("openai provider created",
		"name", config.Name,
		"endpoint", config.Endpoint,
		"model", config.Model,
	)

	return p, nil
}

// StreamChat sends a streaming chat completion request and returns a
// passthrough adapter over the SSE response.
func (p *Provider) StreamChat(ctx context.Context, req *providers.ChatRequest) (providers.Adapter, error) {
	if err := p.RequireCredential(); err != nil {
		return nil, err
	}

	config := p.GetConfig()
	body, err := json.Marshal(transformRequest(req, config))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	headers := map[string]string{
		"Authorization": "Bearer " + config.Credential,
		"Accept":        "text/event-stream",
	}

	resp, err := p.OpenStream(ctx, completionsURL(config.Endpoint), body, headers)
	if err != nil {
		return nil, err
	}

	return providers.NewPassthroughAdapter(resp.Body, Envelope, providers.AdapterOptionsFor(config)), nil
}

func completionsURL(endpoint string) string {
	return strings.TrimSuffix(endpoint, "/") + "/chat/completions"
}

var _ providers.Provider = (*Provider)(nil)
