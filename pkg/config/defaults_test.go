package config

import (
	"testing"

	"mercator-hq/conduit/pkg/providers"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Proxy.ListenAddress != DefaultListenAddress {
		t.Errorf("expected listen address %q, got %q", DefaultListenAddress, cfg.Proxy.ListenAddress)
	}
	if cfg.Proxy.WriteTimeout != 0 {
		t.Errorf("expected no write timeout for streaming, got %v", cfg.Proxy.WriteTimeout)
	}
	if !cfg.Proxy.LegacyRoutesEnabled() {
		t.Error("expected legacy routes to be enabled by default")
	}
	if cfg.Stream.MaxFrameSize != DefaultMaxFrameSize {
		t.Errorf("expected max frame size %d, got %d", DefaultMaxFrameSize, cfg.Stream.MaxFrameSize)
	}
	if cfg.Stream.MaxMalformedFrames != 0 {
		t.Errorf("expected unlimited malformed frames, got %d", cfg.Stream.MaxMalformedFrames)
	}
	if !cfg.Telemetry.Metrics.IsEnabled() {
		t.Error("expected metrics to be enabled by default")
	}
	if cfg.Evidence.Enabled {
		t.Error("expected evidence to be disabled by default")
	}

	if err := Validate(cfg); err != nil {
		t.Errorf("default configuration should be valid: %v", err)
	}
}

func TestDefaultBackends(t *testing.T) {
	cfg := Default()

	tests := []struct {
		name        string
		wantType    string
		wantDisplay string
		wantEnv     string
	}{
		{"claude", providers.TypeAnthropic, "Claude", "ANTHROPIC_API_KEY"},
		{"gemini", providers.TypeGemini, "Gemini", "GEMINI_API_KEY"},
		{"openai", providers.TypeOpenAI, "OpenAI", "OPENAI_API_KEY"},
	}

	if len(cfg.Backends) != len(tests) {
		t.Fatalf("expected %d backends, got %v", len(tests), cfg.BackendNames())
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, ok := cfg.Backends[tt.name]
			if !ok {
				t.Fatalf("backend %q missing", tt.name)
			}
			if b.Type != tt.wantType {
				t.Errorf("type = %q, want %q", b.Type, tt.wantType)
			}
			if b.DisplayName != tt.wantDisplay {
				t.Errorf("display name = %q, want %q", b.DisplayName, tt.wantDisplay)
			}
			if b.APIKeyEnv != tt.wantEnv {
				t.Errorf("api key env = %q, want %q", b.APIKeyEnv, tt.wantEnv)
			}
			if b.Timeout != DefaultBackendTimeout {
				t.Errorf("timeout = %v, want %v", b.Timeout, DefaultBackendTimeout)
			}
		})
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	disabled := false
	cfg := &Config{
		Proxy: ProxyConfig{
			ListenAddress: "0.0.0.0:9090",
			LegacyRoutes:  &disabled,
		},
		Backends: map[string]BackendConfig{
			"local": {Type: "generic", DisplayName: "Local", Endpoint: "http://localhost:11434/v1"},
		},
		Telemetry: TelemetryConfig{
			Metrics: MetricsConfig{Enabled: &disabled},
		},
	}

	ApplyDefaults(cfg)

	if cfg.Proxy.ListenAddress != "0.0.0.0:9090" {
		t.Errorf("listen address overwritten: %q", cfg.Proxy.ListenAddress)
	}
	if cfg.Proxy.LegacyRoutesEnabled() {
		t.Error("legacy routes should stay disabled")
	}
	if cfg.Telemetry.Metrics.IsEnabled() {
		t.Error("metrics should stay disabled")
	}
	if len(cfg.Backends) != 1 {
		t.Fatalf("explicit backends must replace the defaults, got %v", cfg.BackendNames())
	}
	local := cfg.Backends["local"]
	if local.DisplayName != "Local" {
		t.Errorf("display name overwritten: %q", local.DisplayName)
	}
	if local.APIKeyEnv != "OPENAI_API_KEY" {
		t.Errorf("api key env = %q, want OPENAI_API_KEY", local.APIKeyEnv)
	}
}

func TestApplyDefaults_InfersType(t *testing.T) {
	cfg := &Config{Backends: map[string]BackendConfig{
		"claude":  {},
		"google":  {},
		"mistral": {},
	}}

	ApplyDefaults(cfg)

	want := map[string]string{
		"claude":  providers.TypeAnthropic,
		"google":  providers.TypeGemini,
		"mistral": providers.TypeOpenAI,
	}
	for name, wantType := range want {
		if got := cfg.Backends[name].Type; got != wantType {
			t.Errorf("%s: type = %q, want %q", name, got, wantType)
		}
	}
}
