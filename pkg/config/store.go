package config

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Store holds the active configuration snapshot. Readers get an immutable
// *Config without locking; Reload swaps in a new snapshot only after it
// loads and validates, so a bad edit never replaces a good configuration.
type Store struct {
	path    string
	current atomic.Pointer[Config]

	mu        sync.Mutex
	listeners []func(*Config) error
}

// NewStore creates a store serving cfg. path is the file Reload reads
// ("" reloads the built-in defaults plus environment).
func NewStore(path string, cfg *Config) *Store {
	s := &Store{path: path}
	s.current.Store(cfg)
	return s
}

// Path returns the configuration file backing the store.
func (s *Store) Path() string {
	return s.path
}

// Get returns the active configuration. The result must not be modified.
func (s *Store) Get() *Config {
	return s.current.Load()
}

// OnReload registers fn to be called with every new snapshot. A listener
// error is logged and does not undo the swap for other listeners.
func (s *Store) OnReload(fn func(*Config) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Reload re-reads the configuration. On failure the active snapshot is
// kept and the error is returned.
func (s *Store) Reload() error {
	cfg, err := LoadConfigWithEnvOverrides(s.path)
	if err != nil {
		return fmt.Errorf("failed to reload configuration: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.current.Store(cfg)
	for _, fn := range s.listeners {
		if err := fn(cfg); err != nil {
			slog.Error("configuration listener failed", "error", err)
		}
	}

	slog.Info("configuration reloaded",
		"path", s.path,
		"backends", cfg.BackendNames(),
	)
	return nil
}
