package providers

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"mercator-hq/conduit/pkg/providers"
	"mercator-hq/conduit/pkg/stream"
)

// TestConfig returns a test backend configuration pointing at baseURL.
func TestConfig(name, providerType, baseURL string) providers.BackendConfig {
	return providers.BackendConfig{
		Name:                name,
		Type:                providerType,
		Endpoint:            baseURL,
		Credential:          "test-key",
		Model:               "test-model",
		Timeout:             5 * time.Second,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     30 * time.Second,
	}
}

// TestRequest creates a chat request from alternating user/assistant turns.
func TestRequest(system string, contents ...string) *providers.ChatRequest {
	req := &providers.ChatRequest{System: system}
	for i, c := range contents {
		role := providers.RoleUser
		if i%2 == 1 {
			role = providers.RoleAssistant
		}
		req.Messages = append(req.Messages, providers.Message{Role: role, Content: c})
	}
	return req
}

// CollectEvents drains an adapter. It returns every event up to and
// including the terminal one, plus the first non-EOF error.
func CollectEvents(t *testing.T, adapter providers.Adapter) ([]stream.Event, error) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var events []stream.Event
	for {
		ev, err := adapter.Next(ctx)
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, ev)
		if len(events) > 10000 {
			t.Fatal("adapter produced too many events")
		}
	}
}

// Texts returns the text of every TextDelta event in order.
func Texts(events []stream.Event) []string {
	var out []string
	for _, ev := range events {
		if ev.Kind == stream.KindTextDelta {
			out = append(out, ev.Text)
		}
	}
	return out
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertSingleTerminal fails the test unless the last event, and only the
// last event, is terminal with the given kind.
func AssertSingleTerminal(t *testing.T, events []stream.Event, kind stream.Kind) {
	t.Helper()
	if len(events) == 0 {
		t.Fatal("expected events, got none")
	}
	for i, ev := range events[:len(events)-1] {
		if ev.Terminal() {
			t.Fatalf("event %d is terminal (%s) but not last", i, ev.Kind)
		}
	}
	if last := events[len(events)-1]; last.Kind != kind {
		t.Fatalf("expected last event %s, got %s (%+v)", kind, last.Kind, last)
	}
}
