package store

import (
	"context"
	"errors"
	"fmt"
)

// ErrDocumentNotFound is returned by a DocumentStore when no full document
// exists for the requested source.
var ErrDocumentNotFound = errors.New("document not found")

// Metadata is the free-form payload stored next to a passage or document.
type Metadata map[string]interface{}

// Source returns the "source" key as a string, or "" when absent.
func (m Metadata) Source() string {
	v, ok := m["source"]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Passage is one chunk returned by similarity search.
type Passage struct {
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
	Score    float32  `json:"score"`
}

// Document is the complete text behind a source identifier.
type Document struct {
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
}

// SemanticIndex ranks passages by relevance to a free-text query.
type SemanticIndex interface {
	SimilaritySearch(ctx context.Context, query string, k int) ([]Passage, error)
}

// VectorSearcher is the raw nearest-neighbour lookup behind a SemanticIndex.
type VectorSearcher interface {
	SearchByVector(ctx context.Context, vector []float32, k int) ([]Passage, error)
}

// DocumentStore fetches full documents one source at a time.
type DocumentStore interface {
	FetchBySource(ctx context.Context, source string) (*Document, error)
}
