package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitText(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		size      int
		overlap   int
		wantCount int
	}{
		{"short text", "hello", 10, 2, 1},
		{"exact multiple no overlap", strings.Repeat("a", 20), 10, 0, 2},
		{"with overlap", strings.Repeat("a", 20), 10, 5, 3},
		{"overlap not smaller than size", strings.Repeat("a", 20), 10, 10, 2},
		{"zero size keeps text whole", "abc", 0, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := SplitText(tt.text, tt.size, tt.overlap)
			assert.Len(t, chunks, tt.wantCount)
		})
	}
}

func TestSplitText_CountsRunes(t *testing.T) {
	text := strings.Repeat("é", 12)
	chunks := SplitText(text, 5, 1)

	assert.Equal(t, []string{"ééééé", "ééééé", "éééé"}, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 5)
	}
}
