// Package source loads the advisor corpus into memory.
package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/bull/wattsaver/internal/markdown"
)

// DefaultFiles are the advisor documents shipped in the corpus directory.
var DefaultFiles = []string{
	"Energy Efficient Interior Design Tips.txt",
	"Tips on Buying Energy-Efficient Appliances.txt",
	"Energy Saving Tips.txt",
}

// ErrIngestion is matched by every *IngestionError.
var ErrIngestion = errors.New("document ingestion failed")

// Document is one source text, immutable after loading.
type Document struct {
	SourceID string // File name relative to the corpus root
	Title    string // First markdown heading, if any
	Text     string
}

// IngestionError records a document that could not be loaded.
type IngestionError struct {
	SourceID string
	Err      error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("load %s: %v", e.SourceID, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }

func (e *IngestionError) Is(target error) bool { return target == ErrIngestion }

// Loader produces the corpus. Documents that fail to load are returned
// as IngestionErrors alongside the documents that succeeded.
type Loader interface {
	Load(ctx context.Context) ([]Document, []*IngestionError)
}

// FileLoader reads a fixed list of files from a directory.
type FileLoader struct {
	dir      string
	files    []string
	renderer *markdown.Renderer
	logger   *slog.Logger
}

// NewFileLoader creates a loader for the named files under dir.
// If files is empty, DefaultFiles is used.
func NewFileLoader(dir string, files []string, logger *slog.Logger) *FileLoader {
	if len(files) == 0 {
		files = DefaultFiles
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FileLoader{
		dir:      dir,
		files:    files,
		renderer: markdown.NewRenderer(),
		logger:   logger,
	}
}

// Load reads every file fully into memory, skipping the ones that fail.
func (l *FileLoader) Load(ctx context.Context) ([]Document, []*IngestionError) {
	var docs []Document
	var failed []*IngestionError

	for _, name := range l.files {
		if err := ctx.Err(); err != nil {
			failed = append(failed, &IngestionError{SourceID: name, Err: err})
			continue
		}

		data, err := os.ReadFile(filepath.Join(l.dir, name))
		if err != nil {
			l.logger.Warn("Failed to load document", "source", name, "error", err)
			failed = append(failed, &IngestionError{SourceID: name, Err: err})
			continue
		}

		docs = append(docs, NewDocument(l.renderer, name, data))
		l.logger.Debug("Loaded document", "source", name, "bytes", len(data))
	}

	return docs, failed
}

// maxTitleRunes bounds the first line of a plain-text document that may
// serve as its title.
const maxTitleRunes = 100

// NewDocument builds a Document. Markdown sources take their first
// heading as title; plain-text sources take their first line when a
// blank line follows it.
func NewDocument(r *markdown.Renderer, sourceID string, data []byte) Document {
	doc := Document{SourceID: sourceID, Text: string(data)}
	if isMarkdown(sourceID) {
		doc.Title = r.Title(data)
	} else {
		doc.Title = plainTitle(doc.Text)
	}
	return doc
}

func plainTitle(text string) string {
	text = strings.TrimLeft(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	first, rest, ok := strings.Cut(text, "\n")
	if !ok {
		return ""
	}
	next, _, _ := strings.Cut(rest, "\n")
	if strings.TrimSpace(next) != "" {
		return ""
	}
	title := strings.TrimSpace(first)
	if utf8.RuneCountInString(title) > maxTitleRunes {
		return ""
	}
	return title
}

func isMarkdown(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".md" || ext == ".markdown"
}
