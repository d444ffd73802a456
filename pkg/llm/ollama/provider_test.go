package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ai-docsearch-be/pkg/llm"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaProvider_Chat(t *testing.T) {
	var got api.ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llama3","message":{"role":"assistant","content":"no"},"done":true}`))
	}))
	defer srv.Close()

	p, err := NewOllamaProvider(srv.URL, "llama3")
	require.NoError(t, err)

	out, err := p.Chat(context.Background(), []llm.Message{{Role: "model", Content: "earlier"}, llm.UserMessage("q")}, llm.WithTemperature(0))
	require.NoError(t, err)
	assert.Equal(t, "no", out)

	assert.Equal(t, "llama3", got.Model)
	require.NotNil(t, got.Stream)
	assert.False(t, *got.Stream)
	assert.Equal(t, "assistant", got.Messages[0].Role)
	assert.EqualValues(t, 0, got.Options["temperature"])
}

func TestOllamaProvider_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"model not loaded"}`))
	}))
	defer srv.Close()

	p, err := NewOllamaProvider(srv.URL, "llama3")
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), "q")
	assert.Error(t, err)
}
