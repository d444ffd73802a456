package contract

import (
	"context"

	"ai-docsearch-be/pkg/store"
)

// DocumentRepository is the Postgres/pgvector corpus. It serves both the
// chunk index and the full-document lookup.
type DocumentRepository interface {
	store.VectorSearcher
	store.DocumentStore

	CreateChunks(ctx context.Context, chunks []store.Passage, vectors [][]float32) error
	UpsertDocument(ctx context.Context, doc *store.Document) error
	DeleteChunksBySource(ctx context.Context, source string) error
}
