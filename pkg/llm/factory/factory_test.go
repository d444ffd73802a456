package factory

import (
	"testing"

	"ai-docsearch-be/pkg/llm/ollama"
	"ai-docsearch-be/pkg/llm/openai"
	"ai-docsearch-be/pkg/rag"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMProvider(t *testing.T) {
	p, err := NewLLMProvider(Config{Provider: "openai", APIKey: "sk"})
	require.NoError(t, err)
	assert.IsType(t, &openai.Provider{}, p)

	p, err = NewLLMProvider(Config{Provider: "ollama", Model: "llama3"})
	require.NoError(t, err)
	assert.IsType(t, &ollama.OllamaProvider{}, p)
}

func TestNewLLMProvider_ConfigurationErrors(t *testing.T) {
	_, err := NewLLMProvider(Config{Provider: "openai"})
	assert.ErrorIs(t, err, rag.ErrConfiguration)

	_, err = NewLLMProvider(Config{Provider: "gemini"})
	assert.ErrorIs(t, err, rag.ErrConfiguration)
}
