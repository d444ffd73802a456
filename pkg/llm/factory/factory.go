package factory

import (
	"fmt"

	"ai-docsearch-be/pkg/llm"
	"ai-docsearch-be/pkg/llm/ollama"
	"ai-docsearch-be/pkg/llm/openai"
	"ai-docsearch-be/pkg/rag"
)

type Config struct {
	Provider string // "openai" | "ollama"
	Model    string
	BaseURL  string
	APIKey   string
}

func NewLLMProvider(cfg Config) (llm.LLMProvider, error) {
	switch cfg.Provider {
	case "ollama":
		p, err := ollama.NewOllamaProvider(cfg.BaseURL, cfg.Model)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", rag.ErrConfiguration, err)
		}
		return p, nil
	case "openai", "":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY is required for the openai provider", rag.ErrConfiguration)
		}
		return openai.NewProvider(cfg.APIKey, cfg.BaseURL, cfg.Model), nil
	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider: %s", rag.ErrConfiguration, cfg.Provider)
	}
}
