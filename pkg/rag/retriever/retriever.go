package retriever

import (
	"context"
	"errors"
	"fmt"

	"ai-docsearch-be/internal/pkg/logger"
	"ai-docsearch-be/pkg/rag"
	"ai-docsearch-be/pkg/rag/prompt"
	"ai-docsearch-be/pkg/rag/state"
	"ai-docsearch-be/pkg/store"
)

const module = "Retriever"

// Retriever runs similarity search and swaps the hits for their full source documents.
type Retriever struct {
	index  store.SemanticIndex
	docs   store.DocumentStore
	logger logger.ILogger
}

func New(index store.SemanticIndex, docs store.DocumentStore, log logger.ILogger) *Retriever {
	return &Retriever{index: index, docs: docs, logger: log}
}

// Retrieve always clears NeedsRetrieval and counts one retrieval pass.
func (r *Retriever) Retrieve(ctx context.Context, st state.State, cfg rag.Config) (state.Update, error) {
	query := st.SearchText()

	passages, err := r.index.SimilaritySearch(ctx, query, cfg.TopK)
	if err != nil {
		return state.Update{}, fmt.Errorf("%w: %w", rag.ErrSearch, err)
	}

	r.logger.Info(module, "Similarity search done", map[string]interface{}{
		"query": query,
		"top_k": cfg.TopK,
		"hits":  len(passages),
	})

	if len(passages) == 0 {
		return result(nil, nil), nil
	}

	sources := UniqueSources(passages)

	var (
		documents []string
		found     []string
	)
	for _, source := range sources {
		doc, err := r.docs.FetchBySource(ctx, source)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return state.Update{}, fmt.Errorf("fetch source %s: %w", source, ctxErr)
			}
			r.logLookupFailure(source, err)
			continue
		}
		if doc == nil {
			r.logLookupFailure(source, store.ErrDocumentNotFound)
			continue
		}

		name := doc.Metadata.Source()
		if name == "" {
			name = source
		}
		documents = append(documents, prompt.Document(len(documents)+1, name, doc.Content))
		found = append(found, source)
	}

	if len(documents) == 0 && cfg.ChunkFallback {
		r.logger.Warn(module, "No full documents fetched, using passages as context", map[string]interface{}{
			"sources": sources,
		})
		documents, found = passageDocuments(passages), sources
	}

	r.logger.Info(module, "Documents retrieved", map[string]interface{}{
		"requested_sources": len(sources),
		"documents":         len(documents),
	})

	return result(documents, found), nil
}

func (r *Retriever) logLookupFailure(source string, err error) {
	r.logger.Warn(module, "Skipping source", map[string]interface{}{
		"source":    source,
		"error":     fmt.Errorf("%w: %w", rag.ErrRetrievalLookup, err).Error(),
		"not_found": errors.Is(err, store.ErrDocumentNotFound),
	})
}

func result(documents, sources []string) state.Update {
	if documents == nil {
		documents = []string{}
	}
	if sources == nil {
		sources = []string{}
	}
	return state.Update{
		Documents:      state.Set(documents),
		Sources:        state.Set(sources),
		NeedsRetrieval: state.Set(false),
		RetrievalCount: 1,
	}
}

// UniqueSources returns the non-empty sources of passages, deduplicated in first-seen order.
func UniqueSources(passages []store.Passage) []string {
	seen := make(map[string]bool)
	var sources []string
	for _, p := range passages {
		source := p.Metadata.Source()
		if source == "" || seen[source] {
			continue
		}
		seen[source] = true
		sources = append(sources, source)
	}
	return sources
}

func passageDocuments(passages []store.Passage) []string {
	out := make([]string, len(passages))
	for i, p := range passages {
		out[i] = prompt.Document(i+1, p.Metadata.Source(), p.Content)
	}
	return out
}
