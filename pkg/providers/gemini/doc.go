// Package gemini implements the Google Gemini backend.
//
// By default Gemini streams a JSON array of GenerateContentResponse objects
// rather than SSE, often pretty-printed across many lines:
//
//	[{
//	  "candidates": [{"content": {"parts": [{"text": "Hel"}], "role": "model"}}]
//	}
//	,
//	{
//	  "candidates": [{"content": {"parts": [{"text": "lo"}], "role": "model"}}]
//	}
//	]
//
// Such a stream is consumed by a providers.TranslatingAdapter with this
// package's TextPath, which extracts candidates[0].content.parts[0].text.
// With stream_format set to sse-passthrough the request adds alt=sse and a
// providers.PassthroughAdapter reads the same objects from data lines.
//
// On the request side BuildRequest turns the system prompt into a leading
// user turn followed by a synthetic "I understand." model turn and renames
// the assistant role to model.
package gemini
