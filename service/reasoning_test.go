package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiClient_Generate(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/openai/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gemini-2.5-pro",
			"choices":[{"index":0,"message":{"role":"assistant","content":"{\"insights\":[]}"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	client := NewGeminiClient("test-key", srv.URL+"/v1beta/openai/", "gemini-2.5-pro")
	text, err := client.Generate(context.Background(), "system text", "prompt text")
	require.NoError(t, err)
	assert.Equal(t, `{"insights":[]}`, text)

	assert.Equal(t, "gemini-2.5-pro", captured["model"])
	format, _ := captured["response_format"].(map[string]any)
	assert.Equal(t, "json_object", format["type"])
	messages, _ := captured["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "prompt text", messages[1].(map[string]any)["content"])
}

func TestGeminiClient_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Resource has been exhausted (e.g. check quota).","type":"rate_limit","code":429}}`))
	}))
	defer srv.Close()

	_, err := NewGeminiClient("k", srv.URL, "m").Generate(context.Background(), "s", "p")
	var upErr *UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusTooManyRequests, upErr.Status)
	assert.Contains(t, upErr.Message, "exhausted")
	assert.True(t, IsTransient(err))
}

func TestGeminiClient_UnparsableErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`upstream connect error`))
	}))
	defer srv.Close()

	_, err := NewGeminiClient("k", srv.URL, "m").Generate(context.Background(), "s", "p")
	var upErr *UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusServiceUnavailable, upErr.Status)
	assert.True(t, IsTransient(err))
}

func TestGeminiClient_MissingKey(t *testing.T) {
	_, err := NewGeminiClient("", "", "m").Generate(context.Background(), "s", "p")
	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "GEMINI_API_KEY", cfgErr.Setting)
}
