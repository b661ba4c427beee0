package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"mercator-hq/conduit/pkg/cli"
	"mercator-hq/conduit/pkg/config"
	"mercator-hq/conduit/pkg/evidence"
	"mercator-hq/conduit/pkg/evidence/recorder"
	"mercator-hq/conduit/pkg/evidence/retention"
	"mercator-hq/conduit/pkg/evidence/storage"
	"mercator-hq/conduit/pkg/providerfactory"
	"mercator-hq/conduit/pkg/server"
	"mercator-hq/conduit/pkg/telemetry/health"
	"mercator-hq/conduit/pkg/telemetry/logging"
	"mercator-hq/conduit/pkg/telemetry/metrics"
	"mercator-hq/conduit/pkg/telemetry/tracing"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
	noWatch       bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Conduit proxy server",
	Long: `Start the Conduit proxy server with the specified configuration.

The server listens on the configured address and relays chat requests to
the configured backends as server-sent event streams.

When a configuration file is given it is watched, and backend changes are
applied without a restart. A configuration that fails to validate is
ignored and the running one is kept.

Examples:
  # Start with the built-in backends
  conduit run

  # Start with a config file
  conduit run --config /etc/conduit/conduit.yaml

  # Override listen address
  conduit run --listen 0.0.0.0:8080

  # Validate config without starting server
  conduit run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
	runCmd.Flags().BoolVar(&runFlags.noWatch, "no-watch", false, "do not reload the config file on change")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if runFlags.listenAddress != "" {
		cfg.Proxy.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	if err := config.Validate(cfg); err != nil {
		return cli.NewConfigError(cfgFile, err.Error())
	}

	logger, err := logging.New(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
		Redact:    cfg.Telemetry.Logging.RedactionEnabled(),
		Writer:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return cli.NewConfigError(cfgFile, err.Error())
	}
	slog.SetDefault(logger)

	if runFlags.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration valid")
		return nil
	}

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	if err := serve(ctx, cfg, nil); err != nil {
		return cli.NewCommandError("run", err)
	}
	return nil
}

// serve wires every component and blocks until ctx is cancelled or one
// of the long-running parts fails. A nil ln listens on the configured
// address.
func serve(ctx context.Context, cfg *config.Config, ln net.Listener) error {
	logger := slog.Default()

	manager := providerfactory.NewManager()
	defer manager.Close()
	if err := manager.LoadFromConfig(cfg.ProviderConfigs()); err != nil {
		return fmt.Errorf("failed to load backends: %w", err)
	}
	for _, name := range manager.GetProviderNames() {
		p, _ := manager.GetProvider(name)
		if p.GetConfig().Credential == "" {
			logger.Warn("backend has no credential; requests to it will fail",
				"backend", name,
				"credential_env", cfg.Backends[name].APIKeyEnv,
			)
		}
	}

	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.IsEnabled() {
		collector = metrics.NewCollector(cfg.Telemetry.Metrics, prometheus.NewRegistry())
	}

	tracer, err := tracing.New(cfg.Telemetry.Tracing, Version)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Telemetry.Tracing.Timeout)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracer shutdown failed", "error", err)
		}
	}()

	checker := health.New(0)
	checker.Register("backends", health.BackendsCheck(backendSummaries(manager)))

	opts := server.Options{
		Providers:   manager,
		Metrics:     collector,
		MetricsPath: cfg.Telemetry.Metrics.Path,
		Tracer:      tracer,
		Health:      checker,
		Build: server.BuildInfo{
			Version:   Version,
			Commit:    GitCommit,
			BuildTime: BuildDate,
		},
	}

	var scheduler *retention.Scheduler
	if cfg.Evidence.Enabled {
		store, err := openStorage(cfg.Evidence)
		if err != nil {
			return err
		}
		defer store.Close()

		rec := recorder.New(store, recorder.Config{
			AsyncBuffer:  cfg.Evidence.Recorder.AsyncBuffer,
			WriteTimeout: cfg.Evidence.Recorder.WriteTimeout,
		}, logger)
		// Closed before the storage so that buffered records are flushed.
		defer rec.Close()
		opts.Recorder = rec

		checker.Register("evidence", health.PingCheck(store.Ping))

		pruner := retention.NewPruner(store, retention.Config{
			RetentionDays: cfg.Evidence.Retention.Days,
			PruneSchedule: cfg.Evidence.Retention.PruneSchedule,
			MaxRecords:    cfg.Evidence.Retention.MaxRecords,
		}, logger)
		scheduler = retention.NewScheduler(pruner)
	}

	srv := server.NewServer(cfg.Proxy, opts)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if ln != nil {
			return srv.Serve(gctx, ln)
		}
		return srv.Run(gctx)
	})

	if cfgFile != "" && !runFlags.noWatch {
		store := config.NewStore(cfgFile, cfg)
		store.OnReload(func(next *config.Config) error {
			return manager.LoadFromConfig(next.ProviderConfigs())
		})
		watcher := config.NewWatcher(store, 0)
		g.Go(func() error {
			if err := watcher.Run(gctx); err != nil {
				// The proxy keeps serving the configuration it started with.
				logger.Warn("configuration watcher stopped", "error", err)
			}
			return nil
		})
	}

	if scheduler != nil {
		g.Go(func() error {
			return scheduler.Run(gctx)
		})
	}

	logger.Info("conduit started",
		"version", Version,
		"address", cfg.Proxy.ListenAddress,
		"backends", manager.GetProviderNames(),
		"evidence", cfg.Evidence.Enabled,
		"metrics", cfg.Telemetry.Metrics.IsEnabled(),
		"tracing", tracer.Enabled(),
	)

	start := time.Now()
	err = g.Wait()
	logger.Info("conduit stopped", "uptime", time.Since(start).Round(time.Second))
	return err
}

// backendSummaries lists the manager's current backends for the readiness
// check. The list is rebuilt on every call so that reloads are observed.
func backendSummaries(manager *providerfactory.Manager) func() []health.BackendSummary {
	return func() []health.BackendSummary {
		names := manager.GetProviderNames()
		summaries := make([]health.BackendSummary, 0, len(names))
		for _, name := range names {
			p, ok := manager.GetProvider(name)
			if !ok {
				continue
			}
			summaries = append(summaries, health.BackendSummary{
				Name:       name,
				Configured: p.GetConfig().Credential != "",
				Healthy:    p.IsHealthy(),
			})
		}
		return summaries
	}
}

// openStorage opens the configured evidence backend.
func openStorage(cfg config.EvidenceConfig) (evidence.Storage, error) {
	switch cfg.Backend {
	case "sqlite":
		store, err := storage.NewSQLiteStorage(storage.SQLiteConfig{
			Path:         cfg.SQLite.Path,
			MaxOpenConns: cfg.SQLite.MaxOpenConns,
			WALMode:      cfg.SQLite.WALEnabled(),
			BusyTimeout:  cfg.SQLite.BusyTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite storage: %w", err)
		}
		return store, nil
	case "memory":
		return storage.NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unsupported evidence backend: %s", cfg.Backend)
	}
}
