package providers

import (
	"context"

	"mercator-hq/conduit/pkg/stream"
)

// Provider is the interface every backend implements. A provider turns a
// unified ChatRequest into one upstream streaming request and hands back an
// Adapter that yields canonical events from the response.
//
// Example usage:
//
//	adapter, err := provider.StreamChat(ctx, &ChatRequest{
//	    Messages: []Message{{Role: RoleUser, Content: "Hello!"}},
//	})
//	if err != nil {
//	    return err // nothing streamed yet
//	}
//	defer adapter.Close()
//
//	for {
//	    ev, err := adapter.Next(ctx)
//	    ...
//	}
type Provider interface {
	// StreamChat issues the upstream request exactly once. It fails without
	// streaming anything when the backend is not configured, unreachable,
	// or answers with a non-2xx status.
	StreamChat(ctx context.Context, req *ChatRequest) (Adapter, error)

	// GetName returns the backend identifier (e.g., "claude").
	GetName() string

	// GetType returns the backend type (e.g., "anthropic").
	GetType() string

	// GetConfig returns the backend configuration.
	GetConfig() BackendConfig

	// IsHealthy reports whether recent upstream requests succeeded.
	IsHealthy() bool

	// GetHealth returns request outcome statistics.
	GetHealth() ProviderHealth

	// Close releases idle upstream connections.
	Close() error
}

// Adapter consumes one upstream response and produces canonical events.
//
// The last event Next returns is always terminal (Done or Error), and only
// one terminal event is ever returned; after it Next returns io.EOF. Any
// other error means the upstream failed mid-stream: the adapter is finished
// and the caller decides how to report the failure.
type Adapter interface {
	Next(ctx context.Context) (stream.Event, error)

	// Stats reports frame counters for the stream so far.
	Stats() AdapterStats

	// Close releases the upstream connection. It is safe to call more than
	// once and after the stream has finished.
	Close() error
}

// AdapterStats counts the frames an adapter has consumed.
type AdapterStats struct {
	// Frames is the number of frames read from the upstream
	Frames int

	// Malformed is the number of frames that failed to parse
	Malformed int
}
