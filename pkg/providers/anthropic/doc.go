// Package anthropic implements the Anthropic backend.
//
// Requests go to the Messages API with stream enabled. The unified system
// prompt maps onto the top-level system field and messages are forwarded
// as plain text turns. max_tokens is required by Anthropic and defaults to
// 4096.
//
// The response is SSE, so it is consumed by a providers.PassthroughAdapter
// with this package's Envelope:
//
//   - content_block_delta with a text_delta yields text
//   - message_stop ends the stream
//   - error ends the stream with the upstream message
//   - every other event (message_start, ping, ...) is ignored
//
// Authentication uses the x-api-key header together with the
// anthropic-version header (2023-06-01).
package anthropic
