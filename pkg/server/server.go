package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"mercator-hq/conduit/pkg/config"
	"mercator-hq/conduit/pkg/proxy/handlers"
	"mercator-hq/conduit/pkg/proxy/middleware"
	"mercator-hq/conduit/pkg/telemetry/health"
	"mercator-hq/conduit/pkg/telemetry/metrics"
	"mercator-hq/conduit/pkg/telemetry/tracing"
)

// BuildInfo identifies the running binary on /version.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// Options carries the components the server routes to. Nil telemetry
// components are disabled.
type Options struct {
	// Providers resolves backends for the chat routes.
	Providers handlers.ProviderManager

	// Metrics is served on the configured metrics path when enabled.
	Metrics *metrics.Collector

	// MetricsPath is the route of the metrics endpoint.
	MetricsPath string

	// Tracer starts one span per chat request.
	Tracer *tracing.Tracer

	// Recorder receives an audit record per chat request.
	Recorder handlers.EvidenceRecorder

	// Health backs /health and /ready. A checker without checks is always ready.
	Health *health.Checker

	// Build is reported on /version.
	Build BuildInfo
}

// Server is the HTTP front of the proxy.
type Server struct {
	config     config.ProxyConfig
	opts       Options
	httpServer *http.Server
	mu         sync.RWMutex
	isRunning  bool
}

// NewServer creates a server for the given proxy configuration.
func NewServer(cfg config.ProxyConfig, opts Options) *Server {
	if opts.Health == nil {
		opts.Health = health.New(0)
	}
	return &Server{config: cfg, opts: opts}
}

// Run listens on the configured address and serves until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled. In-flight streams get up to
// the configured shutdown timeout to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		ln.Close()
		return errors.New("server is already running")
	}
	s.isRunning = true
	s.httpServer = &http.Server{
		Handler:        s.Handler(),
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
	}
	srv := s.httpServer
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting proxy server", "address", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err, ok := <-errChan:
		s.setRunning(false)
		if ok {
			return err
		}
		return nil
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	srv, running := s.httpServer, s.isRunning
	s.mu.RUnlock()
	if !running || srv == nil {
		return nil
	}

	slog.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	var shutdownErr error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("error during server shutdown", "error", err)
		shutdownErr = fmt.Errorf("server shutdown error: %w", err)
	}

	s.setRunning(false)
	slog.Info("proxy server stopped")
	return shutdownErr
}

func (s *Server) setRunning(running bool) {
	s.mu.Lock()
	s.isRunning = running
	s.mu.Unlock()
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	chat := handlers.NewChatHandler(s.opts.Providers,
		handlers.WithMetrics(s.opts.Metrics),
		handlers.WithTracer(s.opts.Tracer),
		handlers.WithRecorder(s.opts.Recorder),
	)

	mux.Handle("/v1/chat/{backend}", chat)
	if s.config.LegacyRoutesEnabled() {
		mux.Handle("/api/{alias}", chat)
	}

	mux.Handle("/health", s.opts.Health.LivenessHandler())
	mux.Handle("/ready", s.opts.Health.ReadinessHandler())
	mux.Handle("/health/backends", handlers.NewBackendsHandler(s.opts.Providers))
	mux.Handle("/version", health.VersionHandler(s.opts.Build.Version, s.opts.Build.Commit, s.opts.Build.BuildTime))

	if s.opts.Metrics != nil && s.opts.MetricsPath != "" {
		mux.Handle(s.opts.MetricsPath, s.opts.Metrics.Handler())
	}

	var handler http.Handler = mux
	handler = middleware.CORSMiddleware(middleware.CORSConfigFrom(s.config.CORS))(handler)
	handler = tracing.HTTPMiddleware(handler)
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.RecoveryMiddleware(handler)

	return handler
}
