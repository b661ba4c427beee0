// Package types defines the request and response bodies of the proxy.
//
// Request types:
//   - ChatRequest: inbound {"system", "messages"} body, validated into a
//     providers.ChatRequest
//   - Message: one inbound turn before validation
//
// Response types:
//   - ErrorResponse: {"error": "..."} body for failures before streaming
//   - BackendsResponse, BackendHealth: per-backend request statistics
//
// Streamed responses are not represented here; see package stream.
package types
