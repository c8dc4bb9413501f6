// Package chunker splits documents into overlapping, token-bounded chunks.
package chunker

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bull/wattsaver/internal/source"
	"github.com/bull/wattsaver/internal/tokenizer"
)

const (
	// DefaultChunkSize keeps the smaller advisor documents in a single chunk.
	DefaultChunkSize = 600

	// DefaultChunkOverlap is the minimum number of tokens shared by consecutive chunks.
	DefaultChunkOverlap = 10
)

// ErrInvalidSize is returned by New when size and overlap are inconsistent.
var ErrInvalidSize = errors.New("invalid chunk size")

// Chunk is a contiguous span of one document.
type Chunk struct {
	SourceID   string
	Index      int    // Position within the document (0, 1, 2...)
	Text       string // text[Start:End] of the source document
	Start      int    // Byte offset of the first byte in the document
	End        int    // Byte offset one past the last byte
	Overlap    int    // Leading bytes shared with the previous chunk
	TokenCount int
	Oversized  bool // A single unsplittable unit exceeded the size budget
}

// Unique returns the part of the chunk that the previous chunk does not cover.
func (c Chunk) Unique() string {
	return c.Text[c.Overlap:]
}

// Reconstruct joins the non-overlapping regions of one document's chunks.
func Reconstruct(chunks []Chunk) string {
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString(c.Unique())
	}
	return b.String()
}

type breakKind int

const (
	breakHard breakKind = iota
	breakWord
	breakSentence
	breakParagraph
)

// unit is the smallest span the chunker places a boundary after.
type unit struct {
	start, end int
	kind       breakKind
}

// Chunker splits text at paragraph, sentence, then word boundaries,
// hard-splitting inside a word only when nothing else fits.
type Chunker struct {
	tok     tokenizer.Tokenizer
	size    int
	overlap int
	unitMax int
}

// New creates a chunker producing chunks of at most size tokens where
// consecutive chunks share at least overlap tokens.
func New(tok tokenizer.Tokenizer, size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size %d must be positive", ErrInvalidSize, size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: overlap %d must be in [0, %d)", ErrInvalidSize, overlap, size)
	}
	// Units no larger than half the non-overlap budget guarantee that
	// the overlap plus the next unit always fits in a chunk.
	unitMax := max(1, (size-overlap)/2)
	return &Chunker{tok: tok, size: size, overlap: overlap, unitMax: unitMax}, nil
}

// Tokenizer returns the tokenizer chunk sizes are measured with.
func (c *Chunker) Tokenizer() tokenizer.Tokenizer { return c.tok }

// SplitDocuments chunks each document in order.
func (c *Chunker) SplitDocuments(docs []source.Document) []Chunk {
	var out []Chunk
	for _, doc := range docs {
		out = append(out, c.Split(doc.SourceID, doc.Text)...)
	}
	return out
}

// Split chunks a single document. Blank documents produce no chunks.
func (c *Chunker) Split(sourceID, text string) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	units := c.units(text)
	var chunks []Chunk
	prevEnd := 0
	last := len(units) - 1

	for s := 0; s <= last; {
		j := c.fit(text, units, s)
		if j < s {
			chunks = append(chunks, c.emit(sourceID, text, len(chunks), units[s].start, units[s].end, prevEnd, true))
			prevEnd = units[s].end
			s++
			continue
		}
		if j == last {
			chunks = append(chunks, c.emit(sourceID, text, len(chunks), units[s].start, units[j].end, prevEnd, false))
			break
		}

		e, next := c.cut(text, units, s, j)
		chunks = append(chunks, c.emit(sourceID, text, len(chunks), units[s].start, units[e].end, prevEnd, false))
		prevEnd = units[e].end
		s = next
	}

	return chunks
}

func (c *Chunker) emit(sourceID, text string, index, start, end, prevEnd int, oversized bool) Chunk {
	overlap := 0
	if prevEnd > start {
		overlap = prevEnd - start
	}
	body := text[start:end]
	return Chunk{
		SourceID:   sourceID,
		Index:      index,
		Text:       body,
		Start:      start,
		End:        end,
		Overlap:    overlap,
		TokenCount: c.tok.Count(body),
		Oversized:  oversized,
	}
}

func (c *Chunker) span(text string, units []unit, from, to int) string {
	return text[units[from].start:units[to].end]
}

// fit returns the last unit index k >= s such that units s..k fit in the
// size budget, or s-1 when unit s alone is too large.
func (c *Chunker) fit(text string, units []unit, s int) int {
	if c.tok.Count(c.span(text, units, s, s)) > c.size {
		return s - 1
	}
	lo, hi := s, len(units)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if c.tok.Count(c.span(text, units, s, mid)) <= c.size {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

// cut picks the chunk end within units s..j, strongest break first and
// latest among equals, and returns it with the start of the next chunk.
func (c *Chunker) cut(text string, units []unit, s, j int) (end, next int) {
	for kind := breakParagraph; kind >= breakHard; kind-- {
		for e := j; e >= s; e-- {
			if units[e].kind != kind {
				continue
			}
			if next, ok := c.nextStart(text, units, s, e); ok {
				return e, next
			}
		}
	}
	return j, s + 1
}

// nextStart backs up from e until the shared region holds at least the
// configured overlap, rejecting ends that would stall the next chunk.
func (c *Chunker) nextStart(text string, units []unit, s, e int) (int, bool) {
	if c.overlap == 0 {
		return e + 1, true
	}
	for k := e; k > s; k-- {
		if c.tok.Count(c.span(text, units, k, e)) < c.overlap {
			continue
		}
		if c.tok.Count(c.span(text, units, k, e+1)) > c.size {
			return 0, false
		}
		return k, true
	}
	return 0, false
}

// units splits text after each whitespace run. Every unit is a word
// with its trailing whitespace, hard-split when it exceeds unitMax.
func (c *Chunker) units(text string) []unit {
	var out []unit
	start := 0
	prevSpace := false
	for i, r := range text {
		space := unicode.IsSpace(r)
		if !space && prevSpace && i > start {
			out = c.appendUnit(out, text, start, i)
			start = i
		}
		prevSpace = space
	}
	if start < len(text) {
		out = c.appendUnit(out, text, start, len(text))
	}
	return out
}

func (c *Chunker) appendUnit(out []unit, text string, start, end int) []unit {
	kind := classify(text[start:end])
	if c.tok.Count(text[start:end]) <= c.unitMax {
		return append(out, unit{start: start, end: end, kind: kind})
	}

	// Pack runes greedily into pieces that fit unitMax.
	pieceStart := start
	for i := start; i < end; {
		_, w := utf8.DecodeRuneInString(text[i:])
		next := i + w
		if i > pieceStart && c.tok.Count(text[pieceStart:next]) > c.unitMax {
			out = append(out, unit{start: pieceStart, end: i, kind: breakHard})
			pieceStart = i
		}
		i = next
	}
	return append(out, unit{start: pieceStart, end: end, kind: kind})
}

// classify rates the boundary after a word and its trailing whitespace.
func classify(s string) breakKind {
	word := strings.TrimRightFunc(s, unicode.IsSpace)
	ws := s[len(word):]

	switch {
	case strings.Count(ws, "\n") >= 2:
		return breakParagraph
	case strings.Contains(ws, "\n"):
		return breakSentence
	case ws != "" && endsSentence(word):
		return breakSentence
	default:
		return breakWord
	}
}

func endsSentence(word string) bool {
	word = strings.TrimRight(word, `"')]`)
	if word == "" {
		return false
	}
	switch word[len(word)-1] {
	case '.', '!', '?':
		return true
	}
	return false
}
