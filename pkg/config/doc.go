// Package config provides configuration management for Conduit.
//
// This package handles loading, validating, and reloading configuration from
// YAML files with environment variable overrides.
//
// # Configuration Loading
//
//	cfg, err := config.LoadConfigWithEnvOverrides("conduit.yaml")
//
// An empty path skips the file and starts from the built-in defaults, which
// define three backends: claude (Anthropic), gemini (Google) and openai.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention CONDUIT_SECTION_FIELD:
//
//   - CONDUIT_PROXY_LISTEN_ADDRESS overrides proxy.listen_address
//   - CONDUIT_BACKENDS_CLAUDE_MODEL overrides backends.claude.model
//   - CONDUIT_STREAM_MAX_MALFORMED_FRAMES overrides stream.max_malformed_frames
//
// Backend credentials are read from the variable named by api_key_env,
// which defaults to ANTHROPIC_API_KEY, GEMINI_API_KEY or OPENAI_API_KEY by
// backend type. A backend with no credential still loads; requests to it
// fail with a configuration error.
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Hot Reload
//
// Store holds the active snapshot behind an atomic pointer. Watcher observes
// the file with fsnotify and calls Store.Reload after a quiet period; a file
// that fails to load or validate leaves the previous snapshot in place.
package config
