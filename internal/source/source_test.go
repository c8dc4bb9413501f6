package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bull/wattsaver/internal/markdown"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestFileLoader_SkipsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Energy Saving Tips.txt", "Switch off appliances at the wall.")
	writeFile(t, dir, "lighting.md", "# Lighting\n\nLED bulbs use up to 80% less energy.")

	loader := NewFileLoader(dir, []string{"Energy Saving Tips.txt", "missing.txt", "lighting.md"}, nil)
	docs, failed := loader.Load(context.Background())

	require.Len(t, docs, 2)
	assert.Equal(t, "Energy Saving Tips.txt", docs[0].SourceID)
	assert.Equal(t, "Switch off appliances at the wall.", docs[0].Text)
	assert.Empty(t, docs[0].Title)
	assert.Equal(t, "lighting.md", docs[1].SourceID)
	assert.Equal(t, "Lighting", docs[1].Title)

	require.Len(t, failed, 1)
	assert.Equal(t, "missing.txt", failed[0].SourceID)
	assert.True(t, errors.Is(failed[0], ErrIngestion))
	assert.True(t, errors.Is(failed[0], os.ErrNotExist))
}

func TestFileLoader_DefaultFiles(t *testing.T) {
	loader := NewFileLoader(t.TempDir(), nil, nil)
	docs, failed := loader.Load(context.Background())

	assert.Empty(t, docs)
	assert.Len(t, failed, len(DefaultFiles))
}

func TestFileLoader_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "text")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	docs, failed := NewFileLoader(dir, []string{"a.txt"}, nil).Load(ctx)
	assert.Empty(t, docs)
	require.Len(t, failed, 1)
	assert.ErrorIs(t, failed[0], context.Canceled)
}

func TestNewDocument_PlainTextTitle(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"heading line", "Energy Saving Tips\n\nSwitch off appliances at the wall.", "Energy Saving Tips"},
		{"crlf", "Energy Saving Tips\r\n\r\nSwitch off appliances.", "Energy Saving Tips"},
		{"leading blank lines", "\n\nEnergy Saving Tips\n\nBody.", "Energy Saving Tips"},
		{"single line", "Switch off appliances at the wall.", ""},
		{"no blank line after", "Switch off appliances.\nClose the fridge door.", ""},
		{"too long", strings.Repeat("tip ", 30) + "\n\nBody.", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := NewDocument(markdown.NewRenderer(), "tips.txt", []byte(tt.text))
			assert.Equal(t, tt.want, doc.Title)
			assert.Equal(t, tt.text, doc.Text)
		})
	}
}

func TestFileLoader_ShippedCorpusHasTitles(t *testing.T) {
	docs, failed := NewFileLoader(filepath.Join("..", "..", "data"), nil, nil).Load(context.Background())
	require.Empty(t, failed)
	require.Len(t, docs, len(DefaultFiles))

	for _, doc := range docs {
		assert.Equal(t, strings.TrimSuffix(doc.SourceID, ".txt"), doc.Title)
	}
}
