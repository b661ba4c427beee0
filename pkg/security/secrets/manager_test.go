package secrets

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type staticProvider struct {
	name   string
	values map[string]string
	err    error
}

func (p *staticProvider) GetSecret(ctx context.Context, name string) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	if v, ok := p.values[name]; ok {
		return v, nil
	}
	return "", ErrNotFound
}

func (p *staticProvider) Provider() string { return p.name }

func TestManager_GetSecret_FromEnv(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "from-env")

	dir := t.TempDir()
	writeSecret(t, dir, "ANTHROPIC_API_KEY", "from-file", 0o600)
	files, err := NewFileProvider(dir)
	if err != nil {
		t.Fatal(err)
	}

	manager := NewManager(NewEnvProvider(""), files)

	value, err := manager.GetSecret(context.Background(), "ANTHROPIC_API_KEY")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "from-env" {
		t.Errorf("expected the environment to win, got %q", value)
	}
}

func TestManager_GetSecret_FallsBackToFile(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	dir := t.TempDir()
	writeSecret(t, dir, "GEMINI_API_KEY", "from-file", 0o400)
	files, err := NewFileProvider(dir)
	if err != nil {
		t.Fatal(err)
	}

	manager := NewManager(NewEnvProvider(""), files)

	value, err := manager.GetSecret(context.Background(), "GEMINI_API_KEY")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != "from-file" {
		t.Errorf("expected value from file, got %q", value)
	}
}

func TestManager_GetSecret_NotFound(t *testing.T) {
	manager := NewManager(&staticProvider{name: "a"}, &staticProvider{name: "b"})

	_, err := manager.GetSecret(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestManager_GetSecret_StopsOnProviderFailure(t *testing.T) {
	broken := &staticProvider{name: "file", err: errors.New("insecure permissions")}
	fallback := &staticProvider{name: "other", values: map[string]string{"key": "value"}}

	_, err := NewManager(broken, fallback).GetSecret(context.Background(), "key")
	if err == nil {
		t.Fatal("expected provider failure to be returned")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("provider failure must not look like a missing secret")
	}
	if !strings.Contains(err.Error(), "file provider") {
		t.Errorf("error should name the provider: %v", err)
	}
}

func TestManager_ResolveReferences(t *testing.T) {
	manager := NewManager(&staticProvider{name: "static", values: map[string]string{
		"claude-api-key": "sk-ant-123",
		"org":            "acme",
	}})

	tests := []struct {
		input string
		want  string
	}{
		{input: "${secret:claude-api-key}", want: "sk-ant-123"},
		{input: "Bearer ${secret:claude-api-key}", want: "Bearer sk-ant-123"},
		{input: "${secret:org}/${secret: claude-api-key }", want: "acme/sk-ant-123"},
		{input: "literal-key", want: "literal-key"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := manager.ResolveReferences(context.Background(), tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveReferences(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestManager_ResolveReferences_NotFound(t *testing.T) {
	manager := NewManager(&staticProvider{name: "static"})

	got, err := manager.ResolveReferences(context.Background(), "${secret:missing}")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if got != "" {
		t.Errorf("unresolved reference should be dropped, got %q", got)
	}
}

func TestHasReference(t *testing.T) {
	if !HasReference("${secret:x}") {
		t.Error("expected reference")
	}
	if HasReference("sk-${x}") {
		t.Error("unexpected reference")
	}
}

func TestManager_RedactSecretName(t *testing.T) {
	tests := map[string]string{
		"abc":               "***",
		"ANTHROPIC_API_KEY": "AN...EY",
	}
	for in, want := range tests {
		if got := redactSecretName(in); got != want {
			t.Errorf("redactSecretName(%q) = %q, want %q", in, got, want)
		}
	}
}
