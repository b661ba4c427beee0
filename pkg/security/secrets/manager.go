package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// secretRefRegex matches ${secret:name} references in configuration values.
var secretRefRegex = regexp.MustCompile(`\$\{secret:([^}]+)\}`)

// Manager tries providers in order until one returns a value.
type Manager struct {
	providers []SecretProvider
}

// NewManager creates a manager over providers, tried in the given order.
func NewManager(providers ...SecretProvider) *Manager {
	return &Manager{providers: providers}
}

// GetSecret returns the first value found. A provider error other than
// ErrNotFound stops the search and is returned.
func (m *Manager) GetSecret(ctx context.Context, name string) (string, error) {
	for _, provider := range m.providers {
		value, err := provider.GetSecret(ctx, name)
		if err == nil {
			slog.Debug("secret resolved",
				"provider", provider.Provider(),
				"name", redactSecretName(name),
			)
			return value, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", fmt.Errorf("%s provider: %w", provider.Provider(), err)
		}
	}
	return "", fmt.Errorf("%w: %q", ErrNotFound, name)
}

// HasReference reports whether value contains a ${secret:name} reference.
func HasReference(value string) bool {
	return secretRefRegex.MatchString(value)
}

// ResolveReferences replaces ${secret:name} references with their values.
//
// If a secret cannot be retrieved, the reference is removed from the
// output and the error lists every failure; errors.Is(err, ErrNotFound)
// holds when all failures were missing secrets.
func (m *Manager) ResolveReferences(ctx context.Context, input string) (string, error) {
	var errs []error

	output := secretRefRegex.ReplaceAllStringFunc(input, func(match string) string {
		name := strings.TrimSpace(secretRefRegex.FindStringSubmatch(match)[1])
		value, err := m.GetSecret(ctx, name)
		if err != nil {
			errs = append(errs, err)
			return ""
		}
		return value
	})

	if len(errs) > 0 {
		return output, fmt.Errorf("failed to resolve secret references: %w", errors.Join(errs...))
	}
	return output, nil
}

// redactSecretName returns a redacted version of the secret name for logging.
func redactSecretName(name string) string {
	if len(name) <= 4 {
		return "***"
	}
	return name[:2] + "..." + name[len(name)-2:]
}
