package specification

import (
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// BySource filters rows that belong to one source document.
type BySource struct {
	Source string
}

func (s BySource) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("source = ?", s.Source)
}

// NearestTo selects the K chunks closest to Vector by cosine distance and
// exposes 1 - distance as "similarity".
type NearestTo struct {
	Vector []float32
	K      int
}

func (s NearestTo) Apply(db *gorm.DB) *gorm.DB {
	return db.
		Select("document_chunks.*, 1 - (embedding_value <=> ?) as similarity", pgvector.NewVector(s.Vector)).
		Order("similarity DESC").
		Limit(s.K)
}
