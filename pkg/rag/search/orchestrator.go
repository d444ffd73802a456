package search

import (
	"context"
	"fmt"

	"ai-docsearch-be/internal/pkg/logger"
	"ai-docsearch-be/pkg/embedding"
	"ai-docsearch-be/pkg/store"
)

const module = "Search"

// Orchestrator is a SemanticIndex that embeds the query and hands the vector
// to a backend searcher.
type Orchestrator struct {
	embeddingProvider embedding.EmbeddingProvider
	searcher          store.VectorSearcher
	logger            logger.ILogger
}

var _ store.SemanticIndex = (*Orchestrator)(nil)

func NewOrchestrator(embeddingProvider embedding.EmbeddingProvider, searcher store.VectorSearcher, log logger.ILogger) *Orchestrator {
	return &Orchestrator{
		embeddingProvider: embeddingProvider,
		searcher:          searcher,
		logger:            log,
	}
}

// SimilaritySearch returns up to k passages ordered by descending relevance.
func (o *Orchestrator) SimilaritySearch(ctx context.Context, query string, k int) ([]store.Passage, error) {
	vector, err := o.embeddingProvider.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	passages, err := o.searcher.SearchByVector(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	for i, p := range passages {
		o.logger.Debug(module, "Candidate", map[string]interface{}{
			"rank":   i + 1,
			"score":  p.Score,
			"source": p.Metadata.Source(),
		})
	}

	return passages, nil
}
