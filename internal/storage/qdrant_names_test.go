package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsBuildOf(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"naive_splitter-1734567890123456789", true},
		{"naive_splitter-1", true},
		{"naive_splitter", false},
		{"naive_splitter-", false},
		{"naive_splitter-v2", false},
		{"naive_splitter-12-34", false},
		{"other-1734567890", false},
		{"naive_splitter_copy-17", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isBuildOf("naive_splitter", tt.name), tt.name)
	}
}
