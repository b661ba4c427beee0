package providers

import (
	"context"
	"io"
	"sync"

	"mercator-hq/conduit/pkg/providers"
	"mercator-hq/conduit/pkg/stream"
)

// MockProvider is a scripted implementation of the Provider interface.
// StreamChat either fails with Err or returns an adapter that replays
// Events and then fails with StreamErr (if set).
type MockProvider struct {
	Config    providers.BackendConfig
	Err       error
	Events    []stream.Event
	StreamErr error

	mu       sync.Mutex
	calls    int
	requests []*providers.ChatRequest
	adapters []*MockAdapter
}

// NewMockProvider creates a new mock provider with the given name.
func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		Config: providers.BackendConfig{
			Name:        name,
			DisplayName: name,
			Type:        "mock",
		},
	}
}

// StreamChat returns the scripted adapter or error.
func (m *MockProvider) StreamChat(ctx context.Context, req *providers.ChatRequest) (providers.Adapter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	m.requests = append(m.requests, req)
	if m.Err != nil {
		return nil, m.Err
	}

	a := &MockAdapter{events: append([]stream.Event(nil), m.Events...), err: m.StreamErr}
	m.adapters = append(m.adapters, a)
	return a, nil
}

// Calls returns the number of StreamChat calls.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Adapters returns the adapters handed out so far.
func (m *MockProvider) Adapters() []*MockAdapter {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*MockAdapter(nil), m.adapters...)
}

// GetName returns the provider name.
func (m *MockProvider) GetName() string {
	return m.Config.Name
}

// GetType returns the provider type.
func (m *MockProvider) GetType() string {
	return m.Config.Type
}

// GetConfig returns the provider configuration.
func (m *MockProvider) GetConfig() providers.BackendConfig {
	return m.Config
}

// IsHealthy always reports true.
func (m *MockProvider) IsHealthy() bool {
	return true
}

// GetHealth returns a healthy status.
func (m *MockProvider) GetHealth() providers.ProviderHealth {
	return providers.ProviderHealth{IsHealthy: true}
}

// Close closes the provider.
func (m *MockProvider) Close() error {
	return nil
}

// MockAdapter replays a fixed event sequence.
type MockAdapter struct {
	events []stream.Event
	err    error
	closed bool
	pos    int
}

// Next returns the next scripted event. When the script is exhausted it
// returns the scripted error, or io.EOF.
func (a *MockAdapter) Next(ctx context.Context) (stream.Event, error) {
	if err := ctx.Err(); err != nil {
		return stream.Event{}, err
	}
	if a.pos < len(a.events) {
		ev := a.events[a.pos]
		a.pos++
		return ev, nil
	}
	if a.err != nil {
		err := a.err
		a.err = nil
		return stream.Event{}, err
	}
	return stream.Event{}, io.EOF
}

// Stats reports the number of events replayed.
func (a *MockAdapter) Stats() providers.AdapterStats {
	return providers.AdapterStats{Frames: a.pos}
}

// Close marks the adapter closed.
func (a *MockAdapter) Close() error {
	a.closed = true
	return nil
}

// Closed reports whether Close was called.
func (a *MockAdapter) Closed() bool {
	return a.closed
}
