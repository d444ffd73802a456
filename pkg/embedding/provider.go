package embedding

import (
	"context"
	"math"
)

// EmbeddingProvider turns text into a dense vector. Store clients call it;
// the pipeline stages never do.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// normalizeVector scales vec to unit length so cosine distance in the
// vector stores matches dot-product ranking.
func normalizeVector(vec []float32) []float32 {
	var magnitude float64
	for _, v := range vec {
		magnitude += float64(v) * float64(v)
	}
	magnitude = math.Sqrt(magnitude)

	if magnitude == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / magnitude)
	}
	return normalized
}
