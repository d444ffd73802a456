package qdrant

import (
	"context"
	"fmt"

	"ai-docsearch-be/pkg/store"

	pb "github.com/qdrant/go-client/qdrant"
)

// ChunkIndex searches the chunk collection by vector.
type ChunkIndex struct {
	points     pb.PointsClient
	apiKey     string
	collection string
}

var _ store.VectorSearcher = (*ChunkIndex)(nil)

func (c *ChunkIndex) SearchByVector(ctx context.Context, vector []float32, k int) ([]store.Passage, error) {
	resp, err := c.points.Search(withAPIKey(ctx, c.apiKey), &pb.SearchPoints{
		CollectionName: c.collection,
		Vector:         vector,
		Limit:          uint64(k),
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search in Qdrant collection %s: %w", c.collection, err)
	}

	passages := make([]store.Passage, 0, len(resp.GetResult()))
	for _, point := range resp.GetResult() {
		content, meta := splitPayload(point.GetPayload())
		passages = append(passages, store.Passage{
			Content:  content,
			Metadata: meta,
			Score:    point.GetScore(),
		})
	}
	return passages, nil
}
