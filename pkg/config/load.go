package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"mercator-hq/conduit/pkg/security/secrets"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "CONDUIT_"

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// The configuration is not modified by environment variables; use LoadConfigWithEnvOverrides
// for that functionality.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML configuration and applies defaults. Unknown keys are
// rejected so that typos do not silently fall back to defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	// An empty document decodes to io.EOF and means "all defaults".
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	ApplyDefaults(&cfg)
	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration and applies environment
// variable overrides. An empty path loads the built-in defaults, which
// define the claude, gemini and openai backends.
//
// The loading sequence is:
//  1. Load YAML from file (or start from defaults)
//  2. Apply default values
//  3. Apply environment variable overrides (CONDUIT_SECTION_FIELD)
//  4. Resolve backend credentials from the environment or secrets.dir
//  5. Validate final configuration
//
// A backend without a credential is not an error: requests to it fail
// with a configuration error while the other backends keep working.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = Default()
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		cfg, err = Parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	if err := resolveCredentials(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables use the format CONDUIT_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Proxy overrides
	if val := getEnv("PROXY_LISTEN_ADDRESS"); val != "" {
		cfg.Proxy.ListenAddress = val
	}
	setDuration(&cfg.Proxy.ReadTimeout, "PROXY_READ_TIMEOUT")
	setDuration(&cfg.Proxy.WriteTimeout, "PROXY_WRITE_TIMEOUT")
	setDuration(&cfg.Proxy.IdleTimeout, "PROXY_IDLE_TIMEOUT")
	setDuration(&cfg.Proxy.ShutdownTimeout, "PROXY_SHUTDOWN_TIMEOUT")
	setInt(&cfg.Proxy.MaxHeaderBytes, "PROXY_MAX_HEADER_BYTES")
	setBoolPtr(&cfg.Proxy.LegacyRoutes, "PROXY_LEGACY_ROUTES")

	// Backend overrides
	for name, backend := range cfg.Backends {
		applyBackendEnvOverrides(name, &backend)
		cfg.Backends[name] = backend
	}

	// Stream overrides
	setInt(&cfg.Stream.MaxFrameSize, "STREAM_MAX_FRAME_SIZE")
	setInt(&cfg.Stream.MaxMalformedFrames, "STREAM_MAX_MALFORMED_FRAMES")

	// Evidence overrides
	if val := getEnv("EVIDENCE_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Evidence.Enabled = b
		}
	}
	if val := getEnv("EVIDENCE_BACKEND"); val != "" {
		cfg.Evidence.Backend = val
	}
	if val := getEnv("EVIDENCE_SQLITE_PATH"); val != "" {
		cfg.Evidence.SQLite.Path = val
	}
	setInt(&cfg.Evidence.Retention.Days, "EVIDENCE_RETENTION_DAYS")
	if val := getEnv("EVIDENCE_RETENTION_PRUNE_SCHEDULE"); val != "" {
		cfg.Evidence.Retention.PruneSchedule = val
	}

	// Telemetry overrides
	if val := getEnv("TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := getEnv("TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	setBoolPtr(&cfg.Telemetry.Metrics.Enabled, "TELEMETRY_METRICS_ENABLED")
	if val := getEnv("TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
	if val := getEnv("TELEMETRY_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		}
	}
	if val := getEnv("TELEMETRY_TRACING_ENDPOINT"); val != "" {
		cfg.Telemetry.Tracing.Endpoint = val
	}
	if val := getEnv("TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}

	// Secrets overrides
	if val := getEnv("SECRETS_DIR"); val != "" {
		cfg.Secrets.Dir = val
	}
}

// applyBackendEnvOverrides applies overrides for one backend.
// Backend environment variables follow the format CONDUIT_BACKENDS_<NAME>_<FIELD>
// where NAME is the uppercase backend name with dashes replaced by underscores.
func applyBackendEnvOverrides(name string, b *BackendConfig) {
	prefix := "BACKENDS_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_")) + "_"

	if val := getEnv(prefix + "ENDPOINT"); val != "" {
		b.Endpoint = val
	}
	if val := getEnv(prefix + "API_KEY"); val != "" {
		b.APIKey = val
	}
	if val := getEnv(prefix + "MODEL"); val != "" {
		b.Model = val
	}
	if val := getEnv(prefix + "STREAM_FORMAT"); val != "" {
		b.StreamFormat = val
	}
	setInt(&b.MaxTokens, prefix+"MAX_TOKENS")
	setDuration(&b.Timeout, prefix+"TIMEOUT")
}

// resolveCredentials expands ${secret:name} references in API keys and
// fills empty keys from each backend's credential variable
// (ANTHROPIC_API_KEY, GEMINI_API_KEY, OPENAI_API_KEY by default), looked
// up in the environment and then in the secrets directory.
//
// A secret that is simply absent leaves the key empty; an unreadable or
// unsafe secret file is an error.
func resolveCredentials(cfg *Config) error {
	providerList := []secrets.SecretProvider{secrets.NewEnvProvider("")}
	if cfg.Secrets.Dir != "" {
		files, err := secrets.NewFileProvider(cfg.Secrets.Dir)
		if err != nil {
			return fmt.Errorf("secrets.dir: %w", err)
		}
		providerList = append(providerList, files)
	}
	manager := secrets.NewManager(providerList...)
	ctx := context.Background()

	for _, name := range cfg.BackendNames() {
		backend := cfg.Backends[name]
		var err error

		switch {
		case secrets.HasReference(backend.APIKey):
			backend.APIKey, err = manager.ResolveReferences(ctx, backend.APIKey)
		case backend.APIKey == "" && backend.APIKeyEnv != "":
			backend.APIKey, err = manager.GetSecret(ctx, backend.APIKeyEnv)
		default:
			continue
		}

		if err != nil {
			if !errors.Is(err, secrets.ErrNotFound) {
				return fmt.Errorf("backends.%s: failed to resolve credential: %w", name, err)
			}
			backend.APIKey = ""
		}
		backend.APIKey = strings.TrimSpace(backend.APIKey)
		cfg.Backends[name] = backend
	}
	return nil
}

func getEnv(key string) string {
	return os.Getenv(EnvPrefix + key)
}

func setDuration(dst *time.Duration, key string) {
	if val := getEnv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

func setInt(dst *int, key string) {
	if val := getEnv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func setBoolPtr(dst **bool, key string) {
	if val := getEnv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = &b
		}
	}
}
