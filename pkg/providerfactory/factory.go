package providerfactory

import (
	"fmt"
	"log/slog"

	"mercator-hq/conduit/pkg/providers"
	"mercator-hq/conduit/pkg/providers/anthropic"
	"mercator-hq/conduit/pkg/providers/gemini"
	"mercator-hq/conduit/pkg/providers/openai"
)

// NewProvider creates a backend instance based on the configuration.
//
// Supported backend types:
//   - "anthropic": Anthropic Messages API (SSE)
//   - "openai": OpenAI chat completions (SSE)
//   - "generic": any OpenAI-compatible server (alias for "openai")
//   - "gemini": Google Gemini (bracketed JSON stream or SSE)
//
// When config.Type is empty it is inferred from the backend name:
//   - "claude", "anthropic" -> anthropic
//   - "gemini", "google" -> gemini
//   - everything else -> openai
//
// Example:
//
//	provider, err := NewProvider(providers.BackendConfig{
//	    Name:       "claude",
//	    Type:       "anthropic",
//	    Credential: os.Getenv("ANTHROPIC_API_KEY"),
//	})
//	if err != nil {
//	    return err
//	}
//	defer provider.Close()
func NewProvider(config providers.BackendConfig) (providers.Provider, error) {
	providerType := config.Type
	if providerType == "" {
		providerType = providers.InferType(config.Name)
		config.Type = providerType
	}

	slog.Debug("creating provider",
		"name", config.Name,
		"type", providerType,
		"endpoint", config.Endpoint,
	)

	var provider providers.Provider
	var err error

	switch providerType {
	case providers.TypeAnthropic:
		provider, err = anthropic.NewProvider(config)

	case providers.TypeOpenAI, "generic":
		config.Type = providers.TypeOpenAI
		provider, err = openai.NewProvider(config)

	case providers.TypeGemini:
		provider, err = gemini.NewProvider(config)

	default:
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "type",
			Message:  fmt.Sprintf("unsupported provider type: %q (supported: anthropic, openai, generic, gemini)", providerType),
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create provider %q: %w", config.Name, err)
	}

	return provider, nil
}
