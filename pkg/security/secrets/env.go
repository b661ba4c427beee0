package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// EnvProvider loads secrets from environment variables.
//
// Secret names are converted to uppercase environment variable names
// with hyphens replaced by underscores. An optional prefix can be
// configured to namespace secrets.
//
// Example:
//   - Secret name: "claude-api-key"
//   - Env var name: "CONDUIT_SECRET_CLAUDE_API_KEY" (with prefix "CONDUIT_SECRET_")
//   - Secret name "ANTHROPIC_API_KEY" with no prefix reads ANTHROPIC_API_KEY
type EnvProvider struct {
	Prefix string // Optional prefix for environment variables
}

// NewEnvProvider creates a new environment variable secret provider.
func NewEnvProvider(prefix string) *EnvProvider {
	return &EnvProvider{
		Prefix: prefix,
	}
}

// GetSecret retrieves a secret from an environment variable. Surrounding
// whitespace is trimmed; a variable that is unset or blank is not found.
func (p *EnvProvider) GetSecret(ctx context.Context, name string) (string, error) {
	envVar := p.secretNameToEnvVar(name)

	value := strings.TrimSpace(os.Getenv(envVar))
	if value == "" {
		return "", fmt.Errorf("%w in environment: %s", ErrNotFound, envVar)
	}

	return value, nil
}

// Provider returns the provider name.
func (p *EnvProvider) Provider() string {
	return "env"
}

// secretNameToEnvVar converts a secret name to an environment variable name.
//
// Example: "claude-api-key" -> "CONDUIT_SECRET_CLAUDE_API_KEY"
func (p *EnvProvider) secretNameToEnvVar(name string) string {
	envVar := strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	return p.Prefix + envVar
}
