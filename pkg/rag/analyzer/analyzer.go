package analyzer

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"ai-docsearch-be/internal/pkg/logger"
	"ai-docsearch-be/pkg/llm"
	"ai-docsearch-be/pkg/rag"
	"ai-docsearch-be/pkg/rag/prompt"
	"ai-docsearch-be/pkg/rag/state"
)

const module = "Analyzer"

const (
	minTokens        = 3
	genericMaxLength = 30
)

var (
	affirmative          = regexp.MustCompile(`(?i)\byes\b`)
	genericInterrogative = regexp.MustCompile(`(?i)^\s*(what|how|why|summarize|explain)\b`)
)

// Analyzer decides whether the current question must be rewritten before retrieval.
type Analyzer struct {
	llmProvider llm.LLMProvider
	logger      logger.ILogger
}

func New(llmProvider llm.LLMProvider, log logger.ILogger) *Analyzer {
	return &Analyzer{llmProvider: llmProvider, logger: log}
}

// IsVague reports questions with fewer than three whitespace-separated tokens.
func IsVague(q string) bool {
	return len(strings.Fields(q)) < minTokens
}

// IsTooGeneric reports short questions that open with a generic interrogative.
func IsTooGeneric(q string) bool {
	return genericInterrogative.MatchString(q) && utf8.RuneCountInString(q) < genericMaxLength
}

// Analyze returns the refinement/retrieval flags for st. Only the first
// generation-free pass of a question may request refinement.
func (a *Analyzer) Analyze(ctx context.Context, st state.State, cfg rag.Config) (state.Update, error) {
	retrieve := state.Update{
		NeedsRefinement: state.Set(false),
		NeedsRetrieval:  state.Set(true),
	}
	refine := state.Update{
		NeedsRefinement: state.Set(true),
		NeedsRetrieval:  state.Set(false),
	}

	if !cfg.EnableQueryRefinement || st.TurnIterations() >= 1 {
		return retrieve, nil
	}

	vague := IsVague(st.Question)
	generic := IsTooGeneric(st.Question)

	llmVerdict, err := a.askModel(ctx, st.Question, cfg)
	if err != nil {
		if !cfg.AnalysisFallback || ctx.Err() != nil {
			return state.Update{}, fmt.Errorf("%w: %w", rag.ErrAnalysis, err)
		}
		a.logger.Warn(module, "Model check failed, falling back to heuristics", map[string]interface{}{
			"error": err.Error(),
		})
	}

	details := map[string]interface{}{
		"question":  st.Question,
		"llm":       llmVerdict,
		"vague":     vague,
		"generic":   generic,
		"llm_error": err != nil,
	}

	if llmVerdict || vague || generic {
		a.logger.Info(module, "Query needs refinement", details)
		return refine, nil
	}

	a.logger.Debug(module, "Query is specific enough", details)
	return retrieve, nil
}

func (a *Analyzer) askModel(ctx context.Context, q string, cfg rag.Config) (bool, error) {
	answer, err := a.llmProvider.Generate(ctx, prompt.Analysis(q), cfg.LLMOptions()...)
	if err != nil {
		return false, err
	}
	return affirmative.MatchString(answer), nil
}
