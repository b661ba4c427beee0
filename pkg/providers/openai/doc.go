// Package openai implements the OpenAI chat completions backend.
//
// The same backend serves any OpenAI-compatible server by pointing the
// endpoint elsewhere. The system prompt becomes a leading "system" message
// and the request always sets stream to true.
//
// Responses are SSE consumed by a providers.PassthroughAdapter: the text of
// choices[0].delta.content becomes a delta, the literal [DONE] payload ends
// the stream and an in-stream error object ends it with that message.
package openai
