/*
Package secrets resolves backend credentials.

Providers are tried in order by a Manager. Conduit uses the environment
first and, when secrets.dir is configured, a directory of secret files:

	manager := secrets.NewManager(
		secrets.NewEnvProvider(""),
		fileProvider, // secrets.NewFileProvider("/run/secrets")
	)
	key, err := manager.GetSecret(ctx, "ANTHROPIC_API_KEY")

A missing secret is reported as ErrNotFound so that callers can treat an
absent credential as "not configured" while still failing on a secret
file with unsafe permissions.

# Secret References

Configuration values may embed ${secret:name} references:

	backends:
	  claude:
	    api_key: ${secret:claude-api-key}

	resolved, err := manager.ResolveReferences(ctx, cfg.APIKey)

# Environment Variable Provider

Secret names are upper-cased and hyphens become underscores, after an
optional prefix:

	secrets.NewEnvProvider("CONDUIT_SECRET_").GetSecret(ctx, "claude-api-key")
	// reads CONDUIT_SECRET_CLAUDE_API_KEY

# File-Based Provider

Each secret is a file named after the secret inside the directory. Values
are trimmed. Files must not be group or world accessible, names cannot
leave the directory, and symlinks are followed so that Kubernetes
projected volumes work.
*/
package secrets
