package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetadata_Source(t *testing.T) {
	tests := []struct {
		name string
		meta Metadata
		want string
	}{
		{"string", Metadata{"source": "valencia.md"}, "valencia.md"},
		{"missing", Metadata{"page": 2}, ""},
		{"nil value", Metadata{"source": nil}, ""},
		{"nil map", nil, ""},
		{"number", Metadata{"source": 42}, "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.meta.Source())
		})
	}
}
