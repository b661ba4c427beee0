// Package health provides liveness, readiness and version endpoints.
//
// /health answers 200 whenever the process is serving. /ready runs the
// registered checks concurrently, each bounded by a timeout, and answers
// 503 when any fails. The proxy registers a backends check (at least one
// backend has a credential and its last request did not fail) and, when
// request evidence is enabled, a storage ping.
//
//	checker := health.New(2 * time.Second)
//	checker.Register("backends", health.BackendsCheck(summaries))
//	mux.HandleFunc("GET /health", checker.LivenessHandler())
//	mux.HandleFunc("GET /ready", checker.ReadinessHandler())
package health
