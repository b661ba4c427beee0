// Package proxy holds the request-side building blocks of the streaming
// proxy: inbound request validation, error mapping and response helpers.
//
// # Request validation
//
// ParseChatRequest accepts a JSON object of the form
//
//	{"system": "optional prompt", "messages": [{"role": "user", "content": "Hi"}]}
//
// and rejects anything else with a *RequestError before a backend is
// contacted. A null "system" is treated as absent.
//
// # Error mapping
//
// HandleError maps a failure that happened before streaming to a status and
// a {"error": "..."} body:
//
//	*RequestError                              400
//	*UnknownBackendError                       404
//	*providers.ConfigError                     500
//	*providers.ProviderError with a status     the upstream status
//	other upstream and internal failures       500
//
// StreamErrorEvent maps a failure after the stream was committed to the
// terminal error unit (502, or 504 for deadlines).
//
// Subpackages:
//
//   - handlers: the chat endpoint and backend report
//   - middleware: request ID, logging, CORS and panic recovery
//   - types: wire types and error codes
package proxy
