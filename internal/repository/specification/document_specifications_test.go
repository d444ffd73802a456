package specification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type chunk struct {
	Source string
}

func (chunk) TableName() string { return "document_chunks" }

// dryRun builds SQL without a live connection.
func dryRun(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=localhost", PreferSimpleProtocol: true}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}
	return db
}

func TestBySource(t *testing.T) {
	db := dryRun(t)
	var rows []chunk
	stmt := BySource{Source: "a.md"}.Apply(db.Model(&chunk{})).Find(&rows).Statement

	assert.Contains(t, stmt.SQL.String(), "source = $1")
	assert.Equal(t, []interface{}{"a.md"}, stmt.Vars)
}

func TestNearestTo(t *testing.T) {
	db := dryRun(t)
	var rows []chunk
	stmt := NearestTo{Vector: []float32{1, 0}, K: 3}.Apply(db.Model(&chunk{})).Find(&rows).Statement

	sql := stmt.SQL.String()
	assert.Contains(t, sql, "1 - (embedding_value <=> $1) as similarity")
	assert.Contains(t, sql, "ORDER BY similarity DESC")
	assert.Contains(t, sql, "LIMIT $2")
}
