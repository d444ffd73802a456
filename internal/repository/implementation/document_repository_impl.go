package implementation

import (
	"context"
	"errors"
	"fmt"

	"ai-docsearch-be/internal/mapper"
	"ai-docsearch-be/internal/model"
	"ai-docsearch-be/internal/repository/contract"
	"ai-docsearch-be/internal/repository/specification"
	"ai-docsearch-be/pkg/store"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DocumentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentMapper
}

func NewDocumentRepository(db *gorm.DB) contract.DocumentRepository {
	return &DocumentRepositoryImpl{
		db:     db,
		mapper: mapper.NewDocumentMapper(),
	}
}

func (r *DocumentRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

// SearchByVector ranks chunks by cosine similarity, 1 - (a <=> b).
func (r *DocumentRepositoryImpl) SearchByVector(ctx context.Context, vector []float32, k int) ([]store.Passage, error) {
	if k <= 0 {
		return []store.Passage{}, nil
	}

	type result struct {
		model.DocumentChunk
		Similarity float64
	}
	var results []result

	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.DocumentChunk{}),
		specification.NearestTo{Vector: vector, K: k},
	)
	if err := query.Scan(&results).Error; err != nil {
		return nil, err
	}

	passages := make([]store.Passage, len(results))
	for i := range results {
		passages[i] = r.mapper.ToPassage(&results[i].DocumentChunk, results[i].Similarity)
	}
	return passages, nil
}

func (r *DocumentRepositoryImpl) FetchBySource(ctx context.Context, source string) (*store.Document, error) {
	var m model.Document
	query := r.applySpecifications(r.db.WithContext(ctx), specification.BySource{Source: source})
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrDocumentNotFound
		}
		return nil, err
	}
	return r.mapper.ToDocument(&m), nil
}

func (r *DocumentRepositoryImpl) CreateChunks(ctx context.Context, chunks []store.Passage, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("got %d chunks but %d vectors", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	models := make([]*model.DocumentChunk, len(chunks))
	for i, c := range chunks {
		models[i] = r.mapper.ToChunkModel(c.Content, i, c.Metadata, vectors[i])
	}
	return r.db.WithContext(ctx).CreateInBatches(models, 100).Error
}

func (r *DocumentRepositoryImpl) UpsertDocument(ctx context.Context, doc *store.Document) error {
	m := r.mapper.ToDocumentModel(doc)
	if m == nil || m.Source == "" {
		return errors.New("document metadata has no source")
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source"}},
			DoUpdates: clause.AssignmentColumns([]string{"content", "metadata", "updated_at"}),
		}).
		Create(m).Error
}

func (r *DocumentRepositoryImpl) DeleteChunksBySource(ctx context.Context, source string) error {
	query := r.applySpecifications(r.db.WithContext(ctx), specification.BySource{Source: source})
	return query.Delete(&model.DocumentChunk{}).Error
}
