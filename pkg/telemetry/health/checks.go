package health

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var errCheckTimeout = errors.New("health check timeout")

// BackendSummary is the per-backend state a backends check inspects.
type BackendSummary struct {
	Name       string
	Configured bool
	Healthy    bool
}

// BackendsCheck reports unhealthy when no backend can serve requests: every
// backend is either missing its credential or failed its last request.
func BackendsCheck(list func() []BackendSummary) CheckFunc {
	return func(ctx context.Context) error {
		backends := list()
		if len(backends) == 0 {
			return errors.New("no backends configured")
		}

		var unavailable []string
		for _, b := range backends {
			switch {
			case !b.Configured:
				unavailable = append(unavailable, b.Name+" (no credential)")
			case !b.Healthy:
				unavailable = append(unavailable, b.Name+" (failing)")
			default:
				return nil
			}
		}
		return fmt.Errorf("no usable backends: %s", strings.Join(unavailable, ", "))
	}
}

// PingCheck adapts a storage-style Ping method into a check.
func PingCheck(ping func(ctx context.Context) error) CheckFunc {
	return func(ctx context.Context) error {
		if err := ping(ctx); err != nil {
			return fmt.Errorf("ping failed: %w", err)
		}
		return nil
	}
}
