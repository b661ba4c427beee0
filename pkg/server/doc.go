// Package server wires the proxy's handlers and middleware into an HTTP
// server and manages its lifecycle.
//
// # Routes
//
//   - POST /v1/chat/{backend}: stream a chat response from the named backend
//   - POST /api/{backend}-proxy: legacy alias of the above (proxy.legacy_routes)
//   - GET /health: liveness probe
//   - GET /ready: readiness probe (a backend is usable, audit storage answers)
//   - GET /health/backends: per-backend request statistics
//   - GET /version: build information
//   - GET <telemetry.metrics.path>: Prometheus metrics
//
// OPTIONS on any route is answered by the CORS middleware.
//
// # Middleware chain
//
// Outermost first: Recovery, Logging, RequestID, trace context extraction,
// CORS.
//
// # Lifecycle
//
// Run blocks until its context is cancelled and then drains in-flight
// streams for up to proxy.shutdown_timeout:
//
//	srv := server.NewServer(cfg.Proxy, server.Options{Providers: manager})
//	g.Go(func() error { return srv.Run(ctx) })
//
// proxy.write_timeout defaults to zero because a response lasts as long as
// the upstream keeps streaming.
package server
