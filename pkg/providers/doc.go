// Package providers implements the backend abstraction of the proxy.
//
// # Overview
//
// Every backend accepts the same ChatRequest (a system prompt plus an
// ordered conversation) and produces the same canonical event stream
// (stream.Event). What differs per backend is the request schema and the
// native streaming wire format; both are hidden behind two interfaces:
//
//   - Provider turns a ChatRequest into one upstream HTTP request
//   - Adapter turns the upstream response body into canonical events
//
// # Architecture
//
//  1. HTTPProvider - pooled HTTP client, single-shot OpenStream, outcome tracking
//  2. Backends - anthropic, openai and gemini subpackages build requests and
//     provide an Interpreter for their payloads
//  3. Adapters - PassthroughAdapter for SSE streams, TranslatingAdapter for
//     bracketed JSON array streams
//
// Both adapters pull frames from a stream.Reassembler, so transport chunk
// boundaries never reach an Interpreter.
//
// # Termination
//
// An Adapter always ends with exactly one terminal event. An explicit end
// marker yields Done, an in-stream backend error yields Error (502), and an
// upstream that simply closes the connection yields a synthesized Done.
// A read failure is returned as a *StreamError and the adapter is finished.
//
// # Malformed Frames
//
// Frames that fail to parse are skipped and counted. With
// MaxMalformedFrames set, that many consecutive malformed frames end the
// stream with an Error event instead.
//
// # Error Types
//
//   - ProviderError - the upstream rejected the request (StatusCode > 0) or
//     could not be reached (StatusCode 0)
//   - TimeoutError - no response headers within the configured timeout
//   - StreamError - the stream failed after it started
//   - ConfigError - the backend is not usable as configured
//
// # Thread Safety
//
// Providers are safe for concurrent use. Adapters belong to one request
// and are not.
package providers
