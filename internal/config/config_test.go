package config

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ai-docsearch-be/pkg/llm"
	"ai-docsearch-be/pkg/llm/ollama"
	"ai-docsearch-be/pkg/rag"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PIPELINE_CONFIG_FILE", "")
	for _, k := range []string{"RAG_TOP_K", "RAG_MAX_ITERATIONS", "RAG_TEMPERATURE", "RAG_MODEL_NAME", "LLM_PROVIDER", "LLM_MODEL", "VECTOR_STORE", "CHECKPOINT_STORE", "QDRANT_CHUNKS_COLLECTION"} {
		unsetEnv(t, k)
	}

	cfg := Load()

	assert.Equal(t, rag.DefaultConfig(), cfg.Pipeline)
	assert.Equal(t, "qdrant", cfg.VectorStore.Backend)
	assert.Equal(t, "langchain1_chunks", cfg.VectorStore.ChunksCollection)
	assert.Equal(t, "memory", cfg.Checkpoint.Backend)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvAndYAMLOverlay(t *testing.T) {
	t.Setenv("RAG_TOP_K", "5")
	t.Setenv("RAG_TEMPERATURE", "0.4")
	t.Setenv("RAG_STAGE_TIMEOUT", "15s")

	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipeline:\n  maxIterations: 4\n  enableQueryRefinement: true\n"), 0o600))
	t.Setenv("PIPELINE_CONFIG_FILE", path)

	cfg := Load()

	assert.Equal(t, 5, cfg.Pipeline.TopK)
	assert.Equal(t, 0.4, cfg.Pipeline.Temperature)
	assert.Equal(t, 15*time.Second, cfg.Pipeline.StageTimeout)
	assert.Equal(t, 4, cfg.Pipeline.MaxIterations)
	assert.True(t, cfg.Pipeline.EnableQueryRefinement)
}

func TestLoad_BadNumbersFallBack(t *testing.T) {
	t.Setenv("RAG_TOP_K", "many")
	t.Setenv("RAG_ENABLE_QUERY_REFINEMENT", "sometimes")

	cfg := Load()
	assert.Equal(t, 3, cfg.Pipeline.TopK)
	assert.False(t, cfg.Pipeline.EnableQueryRefinement)
}

func TestLoad_ModelFollowsLLMModel(t *testing.T) {
	t.Setenv("PIPELINE_CONFIG_FILE", "")
	unsetEnv(t, "RAG_MODEL_NAME")
	t.Setenv("LLM_PROVIDER", "ollama")
	t.Setenv("LLM_MODEL", "llama3")

	cfg := Load()
	assert.Equal(t, "llama3", cfg.Pipeline.ModelName)
	assert.Equal(t, "llama3", cfg.Ai.LLMModel)
	require.NoError(t, cfg.Validate())

	var sent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		sent = body.Model
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llama3","message":{"role":"assistant","content":"ok"},"done":true}`))
	}))
	defer srv.Close()

	p, err := ollama.NewOllamaProvider(srv.URL, cfg.Ai.LLMModel)
	require.NoError(t, err)
	_, err = p.Chat(context.Background(), []llm.Message{llm.UserMessage("q")}, cfg.Pipeline.LLMOptions()...)
	require.NoError(t, err)
	assert.Equal(t, "llama3", sent)
}

func TestLoad_ExplicitModelWins(t *testing.T) {
	t.Setenv("PIPELINE_CONFIG_FILE", "")
	t.Setenv("LLM_MODEL", "llama3")
	t.Setenv("RAG_MODEL_NAME", "gpt-4o")

	cfg := Load()
	assert.Equal(t, "gpt-4o", cfg.Pipeline.ModelName)
	assert.Equal(t, "llama3", cfg.Ai.LLMModel)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero topK", func(c *Config) { c.Pipeline.TopK = 0 }},
		{"postgres without dsn", func(c *Config) { c.VectorStore.Backend = "postgres" }},
		{"unknown vector store", func(c *Config) { c.VectorStore.Backend = "chroma" }},
		{"unknown checkpoint store", func(c *Config) { c.Checkpoint.Backend = "disk" }},
		{"ollama without model", func(c *Config) { c.Ai.LLMProvider = "ollama" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Pipeline:    rag.DefaultConfig(),
				VectorStore: VectorStoreConfig{Backend: "qdrant"},
				Checkpoint:  CheckpointConfig{Backend: "memory"},
			}
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), rag.ErrConfiguration)
		})
	}
}

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	prev, ok := os.LookupEnv(key)
	require.NoError(t, os.Unsetenv(key))
	t.Cleanup(func() {
		if ok {
			_ = os.Setenv(key, prev)
		}
	})
}
