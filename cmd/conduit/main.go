// Conduit is a streaming chat proxy for hosted LLM backends.
//
// It accepts a small JSON chat request on /v1/chat/{backend}, calls the
// configured upstream (Anthropic, Gemini or an OpenAI-compatible API) and
// relays the reply as a uniform server-sent event stream of text deltas.
//
// Usage:
//
//	# Start the proxy with the built-in backends (claude, gemini, openai)
//	conduit run
//
//	# Start with a configuration file
//	conduit run --config /etc/conduit/conduit.yaml
//
//	# Check a configuration file
//	conduit validate --config conduit.yaml
//
//	# Export the request audit trail
//	conduit evidence query --since 24h --format csv
//
//	# Show version information
//	conduit version
package main

func main() {
	Execute()
}
