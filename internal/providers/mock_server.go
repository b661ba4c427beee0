package providers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockServer is a scripted upstream for testing backends and the proxy.
// It records every request it receives and answers from a per-path script.
type MockServer struct {
	server       *httptest.Server
	responses    map[string]MockResponse
	requests     []RecordedRequest
	requestCount int
	mu           sync.Mutex
}

// MockResponse defines a scripted response.
type MockResponse struct {
	// StatusCode is the response status (default 200)
	StatusCode int

	// Body is written as-is for string/[]byte and JSON-encoded otherwise
	Body interface{}

	// Headers are set before the status is written
	Headers map[string]string

	// Delay is applied before anything is written
	Delay time.Duration

	// Chunks are written verbatim, each followed by a flush. Use them to
	// split frames at arbitrary byte positions.
	Chunks []string

	// ChunkDelay is slept between chunks
	ChunkDelay time.Duration

	// Abort drops the connection after the last chunk instead of ending
	// the response cleanly.
	Abort bool
}

// RecordedRequest is a request captured by the MockServer.
type RecordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// NewMockServer creates a new mock server.
func NewMockServer() *MockServer {
	ms := &MockServer{
		responses: make(map[string]MockResponse),
	}

	ms.server = httptest.NewServer(http.HandlerFunc(ms.handler))

	return ms
}

// URL returns the mock server's base URL.
func (ms *MockServer) URL() string {
	return ms.server.URL
}

// Close closes the mock server.
func (ms *MockServer) Close() {
	ms.server.Close()
}

// SetResponse sets a mock response for a specific path.
func (ms *MockServer) SetResponse(path string, response MockResponse) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.responses[path] = response
}

// GetRequestCount returns the number of requests received.
func (ms *MockServer) GetRequestCount() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	return ms.requestCount
}

// LastRequest returns the most recent request, or false if none arrived.
func (ms *MockServer) LastRequest() (RecordedRequest, bool) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if len(ms.requests) == 0 {
		return RecordedRequest{}, false
	}
	return ms.requests[len(ms.requests)-1], true
}

// handler handles incoming HTTP requests.
func (ms *MockServer) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	ms.mu.Lock()
	ms.requestCount++
	ms.requests = append(ms.requests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Header: r.Header.Clone(),
		Body:   body,
	})
	response, ok := ms.responses[r.URL.Path]
	ms.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	if response.Delay > 0 {
		select {
		case <-time.After(response.Delay):
		case <-r.Context().Done():
			return
		}
	}

	for key, value := range response.Headers {
		w.Header().Set(key, value)
	}

	status := response.StatusCode
	if status == 0 {
		status = http.StatusOK
	}

	if len(response.Chunks) > 0 {
		ms.handleStream(w, status, response)
		return
	}

	w.WriteHeader(status)

	if response.Body != nil {
		switch v := response.Body.(type) {
		case string:
			_, _ = w.Write([]byte(v))
		case []byte:
			_, _ = w.Write(v)
		default:
			_ = json.NewEncoder(w).Encode(response.Body)
		}
	}
}

// handleStream writes the scripted chunks, flushing after each one.
func (ms *MockServer) handleStream(w http.ResponseWriter, status int, response MockResponse) {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "text/event-stream")
	}
	w.WriteHeader(status)

	flusher, _ := w.(http.Flusher)
	for i, chunk := range response.Chunks {
		if i > 0 && response.ChunkDelay > 0 {
			time.Sleep(response.ChunkDelay)
		}
		_, _ = io.WriteString(w, chunk)
		if flusher != nil {
			flusher.Flush()
		}
	}

	if response.Abort {
		// Closes the connection without terminating the chunked body.
		panic(http.ErrAbortHandler)
	}
}

// SSE formats payloads as SSE data units, one chunk per unit.
func SSE(payloads ...string) []string {
	chunks := make([]string, len(payloads))
	for i, p := range payloads {
		chunks[i] = "data: " + p + "\n\n"
	}
	return chunks
}

// AnthropicTextDelta returns a content_block_delta payload carrying text.
func AnthropicTextDelta(text string) string {
	event := map[string]interface{}{
		"type":  "content_block_delta",
		"index": 0,
		"delta": map[string]interface{}{
			"type": "text_delta",
			"text": text,
		},
	}
	b, _ := json.Marshal(event)
	return string(b)
}

// AnthropicMessageStop is the payload that ends an Anthropic stream.
const AnthropicMessageStop = `{"type":"message_stop"}`

// OpenAIStreamChunk returns a chat.completion.chunk payload carrying text.
func OpenAIStreamChunk(delta string) string {
	chunk := map[string]interface{}{
		"id":      "chatcmpl-123",
		"object":  "chat.completion.chunk",
		"created": 1700000000,
		"model":   "gpt-4o-mini",
		"choices": []map[string]interface{}{
			{
				"index": 0,
				"delta": map[string]interface{}{
					"content": delta,
				},
				"finish_reason": nil,
			},
		},
	}
	b, _ := json.Marshal(chunk)
	return string(b)
}

// GeminiObject returns one compact Gemini response object carrying text.
func GeminiObject(text string) string {
	obj := map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content": map[string]interface{}{
					"role":  "model",
					"parts": []map[string]interface{}{{"text": text}},
				},
			},
		},
	}
	b, _ := json.Marshal(obj)
	return string(b)
}
