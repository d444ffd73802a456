package main

import (
	"context"
	"flag"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"ai-docsearch-be/internal/bootstrap"
	"ai-docsearch-be/internal/config"
	"ai-docsearch-be/internal/model"
	"ai-docsearch-be/internal/repository/implementation"
	"ai-docsearch-be/pkg/database"
	"ai-docsearch-be/pkg/store"
	"ai-docsearch-be/pkg/utils"
)

var (
	dir       = flag.String("dir", "./docs", "Directory of .md and .txt files to load")
	chunkSize = flag.Int("chunk-size", 1000, "Chunk size in characters")
	overlap   = flag.Int("overlap", 200, "Overlap between chunks in characters")
)

// Loads a local folder into the Postgres corpus for development.
func main() {
	flag.Parse()
	cfg := config.Load()

	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}
	if err := database.EnableVector(db); err != nil {
		log.Fatal("Error: Failed to create vector extension:", err)
	}
	if err := db.AutoMigrate(&model.Document{}, &model.DocumentChunk{}); err != nil {
		log.Fatal("Error: AutoMigrate failed:", err)
	}

	embedder, err := bootstrap.NewEmbeddingProvider(cfg)
	if err != nil {
		log.Fatal("Error: ", err)
	}
	repo := implementation.NewDocumentRepository(db)
	ctx := context.Background()

	loaded := 0
	err = filepath.WalkDir(*dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".md" && ext != ".txt" {
			return nil
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		source, _ := filepath.Rel(*dir, path)
		source = filepath.ToSlash(source)
		meta := store.Metadata{"source": source, "title": strings.TrimSuffix(filepath.Base(path), ext)}

		if err := repo.UpsertDocument(ctx, &store.Document{Content: string(raw), Metadata: meta}); err != nil {
			return err
		}

		if err := repo.DeleteChunksBySource(ctx, source); err != nil {
			return err
		}

		pieces := utils.SplitText(string(raw), *chunkSize, *overlap)
		chunks := make([]store.Passage, len(pieces))
		vectors := make([][]float32, len(pieces))
		for i, piece := range pieces {
			vec, err := embedder.Embed(ctx, piece)
			if err != nil {
				return err
			}
			chunks[i] = store.Passage{Content: piece, Metadata: meta}
			vectors[i] = vec
		}
		if err := repo.CreateChunks(ctx, chunks, vectors); err != nil {
			return err
		}

		loaded++
		log.Printf("Loaded %s (%d chunks)", source, len(chunks))
		return nil
	})
	if err != nil {
		log.Fatal("Error: ", err)
	}

	log.Printf("Seed completed: %d documents", loaded)
}
