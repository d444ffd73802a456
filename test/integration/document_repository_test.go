package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"ai-docsearch-be/internal/model"
	"ai-docsearch-be/internal/repository/implementation"
	"ai-docsearch-be/pkg/database"
	"ai-docsearch-be/pkg/store"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentRepository(t *testing.T) {
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	require.NoError(t, err)
	require.NoError(t, database.Ping(db))
	require.NoError(t, database.EnableVector(db))
	require.NoError(t, db.AutoMigrate(&model.Document{}, &model.DocumentChunk{}))

	ctx := context.Background()
	repo := implementation.NewDocumentRepository(db)
	source := "it/" + uuid.NewString() + ".md"

	t.Cleanup(func() {
		_ = repo.DeleteChunksBySource(ctx, source)
		db.Where("source = ?", source).Delete(&model.Document{})
	})

	t.Run("Upsert and fetch full document", func(t *testing.T) {
		doc := &store.Document{Content: "first", Metadata: store.Metadata{"source": source}}
		require.NoError(t, repo.UpsertDocument(ctx, doc))

		doc.Content = "second"
		require.NoError(t, repo.UpsertDocument(ctx, doc))

		got, err := repo.FetchBySource(ctx, source)
		require.NoError(t, err)
		assert.Equal(t, "second", got.Content)
		assert.Equal(t, source, got.Metadata.Source())
	})

	t.Run("Missing source", func(t *testing.T) {
		_, err := repo.FetchBySource(ctx, "it/missing-"+uuid.NewString())
		assert.ErrorIs(t, err, store.ErrDocumentNotFound)
	})

	t.Run("Search ranks by cosine similarity", func(t *testing.T) {
		chunks := []store.Passage{
			{Content: "near", Metadata: store.Metadata{"source": source}},
			{Content: "far", Metadata: store.Metadata{"source": source}},
		}
		vectors := [][]float32{{1, 0, 0}, {0, 1, 0}}
		require.NoError(t, repo.CreateChunks(ctx, chunks, vectors))

		hits, err := repo.SearchByVector(ctx, []float32{1, 0, 0}, 50)
		require.NoError(t, err)

		var mine []store.Passage
		for _, h := range hits {
			if h.Metadata.Source() == source {
				mine = append(mine, h)
			}
		}
		require.Len(t, mine, 2)
		assert.Equal(t, "near", mine[0].Content)
		assert.InDelta(t, 1.0, mine[0].Score, 1e-4)
	})

	t.Run("Mismatched vectors", func(t *testing.T) {
		err := repo.CreateChunks(ctx, []store.Passage{{Content: "x"}}, nil)
		assert.Error(t, err)
	})
}
