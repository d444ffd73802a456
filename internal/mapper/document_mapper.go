package mapper

import (
	"encoding/json"

	"ai-docsearch-be/internal/model"
	"ai-docsearch-be/pkg/store"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type DocumentMapper struct{}

func NewDocumentMapper() *DocumentMapper {
	return &DocumentMapper{}
}

// ToPassage converts a chunk row and its similarity into a search hit.
// The source column wins over any "source" key in the stored metadata.
func (m *DocumentMapper) ToPassage(c *model.DocumentChunk, similarity float64) store.Passage {
	return store.Passage{
		Content:  c.Content,
		Metadata: m.metadata(c.Metadata, c.Source),
		Score:    float32(similarity),
	}
}

func (m *DocumentMapper) ToDocument(d *model.Document) *store.Document {
	if d == nil {
		return nil
	}
	return &store.Document{
		Content:  d.Content,
		Metadata: m.metadata(d.Metadata, d.Source),
	}
}

func (m *DocumentMapper) ToChunkModel(content string, index int, meta store.Metadata, vector []float32) *model.DocumentChunk {
	return &model.DocumentChunk{
		Content:        content,
		Source:         meta.Source(),
		ChunkIndex:     index,
		Metadata:       m.encode(meta),
		EmbeddingValue: pgvector.NewVector(vector),
	}
}

func (m *DocumentMapper) ToDocumentModel(doc *store.Document) *model.Document {
	if doc == nil {
		return nil
	}
	return &model.Document{
		Source:   doc.Metadata.Source(),
		Content:  doc.Content,
		Metadata: m.encode(doc.Metadata),
	}
}

func (m *DocumentMapper) metadata(raw datatypes.JSON, source string) store.Metadata {
	meta := store.Metadata{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &meta)
	}
	if source != "" {
		meta["source"] = source
	}
	return meta
}

func (m *DocumentMapper) encode(meta store.Metadata) datatypes.JSON {
	if meta == nil {
		return datatypes.JSON("{}")
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(b)
}
