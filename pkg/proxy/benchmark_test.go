package proxy

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"mercator-hq/conduit/pkg/providers"
)

func BenchmarkParseChatRequest(b *testing.B) {
	body := []byte(`{"system":"You are a helpful assistant","messages":[{"role":"user","content":"Hello, world!"},{"role":"assistant","content":"Hi!"},{"role":"user","content":"How are you?"}]}`)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodPost, "/v1/chat/claude", bytes.NewReader(body))

		if _, err := ParseChatRequest(req); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkHandleError(b *testing.B) {
	errs := []error{
		&RequestError{Message: "bad", Code: "invalid_value"},
		&providers.ProviderError{Provider: "claude", Display: "Claude", StatusCode: 404, Message: "model not found"},
		&providers.ConfigError{Provider: "gemini", Field: "credential"},
		errors.New("boom"),
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = HandleError(errs[i%len(errs)])
	}
}
