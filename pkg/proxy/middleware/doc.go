// Package middleware provides HTTP middleware for cross-cutting concerns.
//
// The server chains them as:
//
//	handler = Recovery(Logging(RequestID(Tracing(CORS(mux)))))
//
// RequestIDMiddleware reuses a well-formed client X-Request-ID or generates
// a UUID v4, stores it in the context for handlers and the logger, and
// echoes it in the response. LoggingMiddleware writes one structured line
// per completed request; its writer wrapper forwards Flush so event streams
// reach the client unit by unit. CORSMiddleware adds CORS headers to every
// response and answers OPTIONS preflights itself. RecoveryMiddleware turns
// handler panics into a 500 JSON error and logs the stack.
package middleware
