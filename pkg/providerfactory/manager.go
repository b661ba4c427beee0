package providerfactory

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"mercator-hq/conduit/pkg/providers"
)

// Manager holds the configured backends, keyed by backend name.
//
// Manager is thread-safe. A request that obtained a provider keeps using it
// even if a reload replaces it in the meantime.
type Manager struct {
	providers map[string]providers.Provider
	mu        sync.RWMutex
}

// NewManager creates a new, empty provider manager.
func NewManager() *Manager {
	return &Manager{
		providers: make(map[string]providers.Provider),
	}
}

// AddProvider creates and registers a backend.
// If a backend with the same name already exists, it is replaced and the old one is closed.
func (m *Manager) AddProvider(config providers.BackendConfig) error {
	provider, err := NewProvider(config)
	if err != nil {
		return fmt.Errorf("failed to add provider %q: %w", config.Name, err)
	}
	m.Register(provider)
	return nil
}

// Register adds an already constructed provider under its name.
func (m *Manager) Register(provider providers.Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := provider.GetName()
	if existing, ok := m.providers[name]; ok {
		slog.Warn("replacing existing provider", "name", name)
		existing.Close()
	}

	m.providers[name] = provider

	slog.Info("provider added to manager",
		"name", name,
		"type", provider.GetType(),
		"total_providers", len(m.providers),
	)
}

// GetProvider returns a backend by name.
func (m *Manager) GetProvider(name string) (providers.Provider, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	provider, ok := m.providers[name]
	return provider, ok
}

// GetProviderNames returns the sorted names of all backends.
func (m *Manager) GetProviderNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// ProviderCount returns the total number of backends.
func (m *Manager) ProviderCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.providers)
}

// LoadFromConfig creates every configured backend and replaces the current
// set in one step. If any backend fails to build, the current set is left
// untouched and the errors are returned together.
func (m *Manager) LoadFromConfig(configs []providers.BackendConfig) error {
	next := make(map[string]providers.Provider, len(configs))
	var errs []error

	for _, config := range configs {
		provider, err := NewProvider(config)
		if err != nil {
			errs = append(errs, err)
			slog.Error("failed to load provider",
				"name", config.Name,
				"error", err,
			)
			continue
		}
		next[config.Name] = provider
	}

	if len(errs) > 0 {
		for _, p := range next {
			p.Close()
		}
		return fmt.Errorf("failed to load %d provider(s): %w", len(errs), errors.Join(errs...))
	}

	m.mu.Lock()
	previous := m.providers
	m.providers = next
	m.mu.Unlock()

	// Closing only drops idle connections; streams in flight are unaffected.
	for _, p := range previous {
		p.Close()
	}

	slog.Info("providers loaded", "count", len(next))
	return nil
}

// Close closes all backends.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for name, provider := range m.providers {
		if err := provider.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close provider %q: %w", name, err))
		}
	}

	m.providers = make(map[string]providers.Provider)

	if len(errs) > 0 {
		return fmt.Errorf("errors closing providers: %w", errors.Join(errs...))
	}

	slog.Info("provider manager closed")
	return nil
}

// GetHealthSummary returns a summary of backend health.
func (m *Manager) GetHealthSummary() HealthSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := HealthSummary{
		Total:   len(m.providers),
		Details: make(map[string]providers.ProviderHealth),
	}

	for name, provider := range m.providers {
		health := provider.GetHealth()
		summary.Details[name] = health

		if health.IsHealthy {
			summary.Healthy++
		}
	}

	summary.Unhealthy = summary.Total - summary.Healthy

	return summary
}

// HealthSummary provides an overview of backend health.
type HealthSummary struct {
	// Total is the total number of backends
	Total int

	// Healthy is the number of healthy backends
	Healthy int

	// Unhealthy is the number of unhealthy backends
	Unhealthy int

	// Details contains per-backend health information
	Details map[string]providers.ProviderHealth
}
