package response

import (
	"context"
	"fmt"

	"ai-docsearch-be/internal/pkg/logger"
	"ai-docsearch-be/pkg/llm"
	"ai-docsearch-be/pkg/rag"
	"ai-docsearch-be/pkg/rag/prompt"
	"ai-docsearch-be/pkg/rag/state"
)

const module = "Generator"

// Generator answers the question from the retrieved documents only.
type Generator struct {
	llmProvider llm.LLMProvider
	logger      logger.ILogger
}

func NewGenerator(llmProvider llm.LLMProvider, log logger.ILogger) *Generator {
	return &Generator{llmProvider: llmProvider, logger: log}
}

// Generate produces the answer, grows the history by the question/answer pair
// and re-requests retrieval when the answer is insufficient and the cap allows it.
func (g *Generator) Generate(ctx context.Context, st state.State, cfg rag.Config) (state.Update, error) {
	contextBlock := prompt.Context(st.Documents)

	messages := make([]llm.Message, 0, len(st.ConversationHistory)+2)
	messages = append(messages, llm.SystemMessage(prompt.System(contextBlock)))
	messages = append(messages, st.ConversationHistory...)
	messages = append(messages, llm.UserMessage(st.Question))

	answer, err := g.llmProvider.Chat(ctx, messages, cfg.LLMOptions()...)
	if err != nil {
		return state.Update{}, fmt.Errorf("%w: %w", rag.ErrGeneration, err)
	}

	history := make([]llm.Message, 0, len(st.ConversationHistory)+2)
	history = append(history, st.ConversationHistory...)
	history = append(history, llm.UserMessage(st.Question), llm.AssistantMessage(answer))

	insufficient := IsInsufficient(answer)
	needsRetrieval := insufficient && st.TurnRetrievals() < cfg.MaxIterations

	g.logger.Info(module, "Answer generated", map[string]interface{}{
		"documents":       len(st.Documents),
		"context_chars":   len(contextBlock),
		"answer_chars":    len(answer),
		"insufficient":    insufficient,
		"needs_retrieval": needsRetrieval,
	})

	return state.Update{
		Answer:              state.Set(answer),
		ConversationHistory: state.Set(history),
		NeedsRetrieval:      state.Set(needsRetrieval),
		Iterations:          1,
	}, nil
}
