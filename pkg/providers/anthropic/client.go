package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"mercator-hq/conduit/pkg/providers"
)

// Provider is the Anthropic backend.
// It implements the providers.Provider interface for Anthropic's Messages API.
type Provider struct {
	*providers.HTTPProvider
}

const (
	// DefaultAnthropicVersion is the API version to use
	DefaultAnthropicVersion = "2023-06-01"

	// DefaultEndpoint is the Anthropic API base URL
	DefaultEndpoint = "https://api.anthropic.com"

	// DefaultModel is used when no model is configured
	DefaultModel = "claude-opus-4-20250514"

	// DefaultMaxTokens is used when no max_tokens is configured
	DefaultMaxTokens = 4096
)

// NewProvider creates a new Anthropic provider instance.
// A missing credential is not an error here; StreamChat reports it per request.
func NewProvider(config providers.BackendConfig) (*Provider, error) {
	if config.Name == "" {
		return nil, &providers.ConfigError{
			Provider: "anthropic",
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
			Message:  fmt.Sprintf("anthropic only supports %q", providers.FormatSSE),
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
		config.MaxTokens = DefaultMaxTokens
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

	slog.Info("anthropic provider created",
		"name", config.Name,
		"endpoint", config.Endpoint,
		"model", config.Model,
	)

	return p, nil
}

// StreamChat sends a streaming messages request and returns a passthrough
// adapter over the SSE response.
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
		"x-api-key":         config.Credential,
		"anthropic-version": DefaultAnthropicVersion,
		"Accept":            "text/event-stream",
	}

	resp, err := p.OpenStream(ctx, messagesURL(config.Endpoint), body, headers)
	if err != nil {
		return nil, err
	}

	return providers.NewPassthroughAdapter(resp.Body, Envelope, providers.AdapterOptionsFor(config)), nil
}

func messagesURL(endpoint string) string {
	return strings.TrimSuffix(endpoint, "/") + "/v1/messages"
}

var _ providers.Provider = (*Provider)(nil)
