// Package markdown extracts document outlines and renders answers to HTML.
package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"
)

// Renderer wraps a goldmark instance configured for advisor documents.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer creates a renderer with auto heading IDs so TOC inspection works.
func NewRenderer() *Renderer {
	md := goldmark.New(
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)
	return &Renderer{md: md}
}

// Outline returns the H1/H2 header paths of a document in order.
// Example: "# Lighting > ## LED Bulbs"
func (r *Renderer) Outline(source []byte) ([]string, error) {
	doc := r.md.Parser().Parse(text.NewReader(source))

	tree, err := toc.Inspect(doc, source,
		toc.MinDepth(1),
		toc.MaxDepth(2),
		toc.Compact(true),
	)
	if err != nil {
		return nil, fmt.Errorf("inspect TOC: %w", err)
	}

	var paths []string
	collectPaths(tree.Items, nil, &paths)
	return paths, nil
}

// Title returns the first heading of a document, or "" when it has none.
func (r *Renderer) Title(source []byte) string {
	paths, err := r.Outline(source)
	if err != nil || len(paths) == 0 {
		return ""
	}
	first := paths[0]
	if i := strings.Index(first, " > "); i >= 0 {
		first = first[:i]
	}
	return strings.TrimSpace(strings.TrimLeft(first, "#"))
}

// ToHTML renders markdown (typically a model answer) to HTML.
func (r *Renderer) ToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

func collectPaths(items toc.Items, ancestors []string, paths *[]string) {
	for _, item := range items {
		current := append(append([]string(nil), ancestors...), string(item.Title))
		*paths = append(*paths, formatHeaderPath(current))
		if len(item.Items) > 0 {
			collectPaths(item.Items, current, paths)
		}
	}
}

// formatHeaderPath builds a header hierarchy string.
// Example: ["Lighting", "LED Bulbs"] -> "# Lighting > ## LED Bulbs"
func formatHeaderPath(path []string) string {
	if len(path) == 0 {
		return ""
	}

	parts := make([]string, 0, len(path))
	for i, segment := range path {
		prefix := strings.Repeat("#", i+1)
		parts = append(parts, fmt.Sprintf("%s %s", prefix, segment))
	}

	return strings.Join(parts, " > ")
}
