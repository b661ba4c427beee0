// Package handlers provides the HTTP handlers of the proxy.
//
// ChatHandler serves POST /v1/chat/{backend} and the legacy
// /api/{backend}-proxy aliases. Each request is validated, dispatched once
// to the named backend and relayed as Server-Sent Events:
//
//	data: {"text":"Hel"}
//
//	data: {"text":"lo"}
//
//	data: [DONE]
//
// Failures before the upstream answered 2xx produce a JSON body such as
// {"error":"Claude API error: model not found"} with the mapped status.
// Failures after that point end the stream with a single error unit:
//
//	data: {"error":"upstream stream interrupted","status":502}
//
// Every request is logged, counted in metrics, traced as one span and
// written to the audit trail when a recorder is configured.
//
// BackendsHandler reports per-backend request statistics.
package handlers
