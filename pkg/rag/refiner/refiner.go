package refiner

import (
	"context"
	"fmt"
	"strings"

	"ai-docsearch-be/internal/pkg/logger"
	"ai-docsearch-be/pkg/llm"
	"ai-docsearch-be/pkg/rag"
	"ai-docsearch-be/pkg/rag/prompt"
	"ai-docsearch-be/pkg/rag/state"
)

const module = "Refiner"

// Refiner rewrites an ambiguous question into a search query.
type Refiner struct {
	llmProvider llm.LLMProvider
	logger      logger.ILogger
}

func New(llmProvider llm.LLMProvider, log logger.ILogger) *Refiner {
	return &Refiner{llmProvider: llmProvider, logger: log}
}

func (r *Refiner) Refine(ctx context.Context, st state.State, cfg rag.Config) (state.Update, error) {
	out, err := r.llmProvider.Generate(ctx, prompt.Refine(st.Question), cfg.LLMOptions()...)
	if err != nil {
		return state.Update{}, fmt.Errorf("%w: %w", rag.ErrRefinement, err)
	}

	refined := strings.TrimSpace(out)
	r.logger.Info(module, "Query refined", map[string]interface{}{
		"question":      st.Question,
		"refined_query": refined,
	})

	return state.Update{RefinedQuery: state.Set(refined)}, nil
}
