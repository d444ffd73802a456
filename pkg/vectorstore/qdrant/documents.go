package qdrant

import (
	"context"
	"fmt"

	"ai-docsearch-be/pkg/store"

	pb "github.com/qdrant/go-client/qdrant"
)

// DocumentStore reads full documents by their metadata.source value.
type DocumentStore struct {
	points     pb.PointsClient
	apiKey     string
	collection string
}

var _ store.DocumentStore = (*DocumentStore)(nil)

func (d *DocumentStore) FetchBySource(ctx context.Context, source string) (*store.Document, error) {
	limit := uint32(1)
	resp, err := d.points.Scroll(withAPIKey(ctx, d.apiKey), &pb.ScrollPoints{
		CollectionName: d.collection,
		Filter: &pb.Filter{
			Must: []*pb.Condition{sourceCondition(source)},
		},
		Limit: &limit,
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("scroll %s for source %s: %w", d.collection, source, err)
	}

	if len(resp.GetResult()) == 0 {
		return nil, fmt.Errorf("%s: %w", source, store.ErrDocumentNotFound)
	}

	content, meta := splitPayload(resp.GetResult()[0].GetPayload())
	return &store.Document{Content: content, Metadata: meta}, nil
}

func sourceCondition(source string) *pb.Condition {
	return &pb.Condition{
		ConditionOneOf: &pb.Condition_Field{
			Field: &pb.FieldCondition{
				Key: sourceFilter,
				Match: &pb.Match{
					MatchValue: &pb.Match_Keyword{Keyword: source},
				},
			},
		},
	}
}
