package config

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"

	"github.com/robfig/cron/v3"

	"mercator-hq/conduit/pkg/providers"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "proxy.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// backendNamePattern keeps backend names usable as a single path segment.
var backendNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// reservedPaths are served by the proxy itself.
var reservedPaths = map[string]bool{
	"/health":          true,
	"/ready":           true,
	"/health/backends": true,
	"/version":         true,
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
//
// Missing credentials are deliberately not validation errors.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateProxy(&cfg.Proxy)...)
	errs = append(errs, validateBackends(cfg.Backends)...)
	errs = append(errs, validateStream(&cfg.Stream)...)
	errs = append(errs, validateEvidence(&cfg.Evidence)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateProxy(p *ProxyConfig) []FieldError {
	var errs []FieldError

	if p.ListenAddress == "" {
		errs = append(errs, FieldError{Field: "proxy.listen_address", Message: "listen address is required"})
	} else if _, port, err := net.SplitHostPort(p.ListenAddress); err != nil || port == "" {
		errs = append(errs, FieldError{
			Field:   "proxy.listen_address",
			Message: fmt.Sprintf("invalid listen address %q: must be host:port", p.ListenAddress),
		})
	}

	if p.ReadTimeout < 0 {
		errs = append(errs, FieldError{Field: "proxy.read_timeout", Message: "must not be negative"})
	}
	if p.WriteTimeout < 0 {
		errs = append(errs, FieldError{Field: "proxy.write_timeout", Message: "must not be negative"})
	}
	if p.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{Field: "proxy.shutdown_timeout", Message: "must not be negative"})
	}
	if p.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{Field: "proxy.max_header_bytes", Message: "must not be negative"})
	}
	if p.CORS.MaxAge < 0 {
		errs = append(errs, FieldError{Field: "proxy.cors.max_age", Message: "must not be negative"})
	}

	return errs
}

func validateBackends(backends map[string]BackendConfig) []FieldError {
	var errs []FieldError

	if len(backends) == 0 {
		errs = append(errs, FieldError{Field: "backends", Message: "at least one backend must be configured"})
	}

	for name, b := range backends {
		field := "backends." + name

		if !backendNamePattern.MatchString(name) {
			errs = append(errs, FieldError{
				Field:   field,
				Message: "backend name must be lowercase letters, digits, '-' or '_'",
			})
		}

		switch b.Type {
		case providers.TypeAnthropic, providers.TypeOpenAI, providers.TypeGemini, "generic":
		default:
			errs = append(errs, FieldError{
				Field:   field + ".type",
				Message: fmt.Sprintf("unsupported type %q (supported: anthropic, openai, generic, gemini)", b.Type),
			})
		}

		if b.StreamFormat != "" {
			format := providers.StreamFormat(b.StreamFormat)
			if !format.Valid() {
				errs = append(errs, FieldError{
					Field:   field + ".stream_format",
					Message: fmt.Sprintf("unknown stream format %q", b.StreamFormat),
				})
			} else if format == providers.FormatBracketedJSON && b.Type != providers.TypeGemini {
				errs = append(errs, FieldError{
					Field:   field + ".stream_format",
					Message: "bracketed-json-stream is only supported by gemini backends",
				})
			}
		}

		if b.Endpoint != "" {
			u, err := url.Parse(b.Endpoint)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				errs = append(errs, FieldError{
					Field:   field + ".endpoint",
					Message: fmt.Sprintf("invalid endpoint %q: must be an http(s) URL", b.Endpoint),
				})
			}
		}

		if b.MaxTokens < 0 {
			errs = append(errs, FieldError{Field: field + ".max_tokens", Message: "must not be negative"})
		}
		if b.Temperature != nil && (*b.Temperature < 0 || *b.Temperature > 2) {
			errs = append(errs, FieldError{Field: field + ".temperature", Message: "must be between 0 and 2"})
		}
		if b.Timeout < 0 {
			errs = append(errs, FieldError{Field: field + ".timeout", Message: "must not be negative"})
		}
	}

	return errs
}

func validateStream(s *StreamConfig) []FieldError {
	var errs []FieldError

	if s.MaxFrameSize < 1024 {
		errs = append(errs, FieldError{Field: "stream.max_frame_size", Message: "must be at least 1024 bytes"})
	}
	if s.MaxMalformedFrames < 0 {
		errs = append(errs, FieldError{Field: "stream.max_malformed_frames", Message: "must not be negative"})
	}

	return errs
}

func validateEvidence(e *EvidenceConfig) []FieldError {
	var errs []FieldError

	if !e.Enabled {
		return nil
	}

	switch e.Backend {
	case "memory":
	case "sqlite":
		if e.SQLite.Path == "" {
			errs = append(errs, FieldError{Field: "evidence.sqlite.path", Message: "path is required for the sqlite backend"})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "evidence.backend",
			Message: fmt.Sprintf("unsupported backend %q (supported: memory, sqlite)", e.Backend),
		})
	}

	if e.Recorder.AsyncBuffer < 1 {
		errs = append(errs, FieldError{Field: "evidence.recorder.async_buffer", Message: "must be at least 1"})
	}

	if e.Retention.PruneSchedule != "" {
		if _, err := cron.ParseStandard(e.Retention.PruneSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "evidence.retention.prune_schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}
	if e.Retention.MaxRecords < 0 {
		errs = append(errs, FieldError{Field: "evidence.retention.max_records", Message: "must not be negative"})
	}

	return errs
}

func validateTelemetry(t *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(t.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid level %q (options: debug, info, warn, error)", t.Logging.Level),
		})
	}

	switch t.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid format %q (options: json, text)", t.Logging.Format),
		})
	}

	if t.Metrics.IsEnabled() {
		if !strings.HasPrefix(t.Metrics.Path, "/") {
			errs = append(errs, FieldError{Field: "telemetry.metrics.path", Message: "path must start with '/'"})
		} else if reservedPaths[t.Metrics.Path] || strings.HasPrefix(t.Metrics.Path, "/v1/chat/") || strings.HasPrefix(t.Metrics.Path, "/api/") {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.path",
				Message: fmt.Sprintf("path %q collides with a built-in route", t.Metrics.Path),
			})
		}
	}

	if t.Tracing.Enabled {
		switch t.Tracing.Sampler {
		case "always", "never", "ratio":
		default:
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sampler",
				Message: fmt.Sprintf("invalid sampler %q (options: always, never, ratio)", t.Tracing.Sampler),
			})
		}
		if t.Tracing.SampleRatio < 0 || t.Tracing.SampleRatio > 1 {
			errs = append(errs, FieldError{Field: "telemetry.tracing.sample_ratio", Message: "must be between 0 and 1"})
		}
		if t.Tracing.Endpoint == "" {
			errs = append(errs, FieldError{Field: "telemetry.tracing.endpoint", Message: "endpoint is required when tracing is enabled"})
		}
	}

	return errs
}
