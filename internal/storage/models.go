// Package storage holds chunk vectors in named collections and answers
// cosine similarity queries over them.
package storage

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// DefaultCollection is the advisor corpus collection.
const DefaultCollection = "naive_splitter"

// Entry is one indexed chunk with its vector.
type Entry struct {
	ID         string    // UUID, stable for a given collection, source and index
	SourceID   string    // Document the chunk came from
	ChunkIndex int       // Position in document (0, 1, 2...)
	Content    string    // Chunk text
	Vector     []float32 // Embedding of Content
}

// ScoredEntry is a query match. Vector is not populated.
type ScoredEntry struct {
	Entry
	Score float64 // Cosine similarity in [-1, 1]
}

// EntryID derives a deterministic UUID so rebuilding an unchanged corpus
// produces identical point IDs.
func EntryID(collection, sourceID string, chunkIndex int) string {
	name := collection + "\x00" + sourceID + "\x00" + strconv.Itoa(chunkIndex)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

// IndexMode selects what Index does with an existing collection.
type IndexMode int

const (
	// IndexReplace discards the collection's previous entries.
	IndexReplace IndexMode = iota
	// IndexAppend adds to the collection's existing entries.
	IndexAppend
)

type queryKind int

const (
	queryTopK queryKind = iota + 1
	queryThreshold
)

// QueryMode is either TopK or Threshold.
type QueryMode struct {
	kind     queryKind
	k        int
	minScore float64
}

// TopK returns the k most similar entries.
func TopK(k int) QueryMode {
	return QueryMode{kind: queryTopK, k: k}
}

// Threshold returns every entry with similarity >= minScore.
func Threshold(minScore float64) QueryMode {
	return QueryMode{kind: queryThreshold, minScore: minScore}
}

func (m QueryMode) validate() error {
	switch m.kind {
	case queryTopK:
		if m.k <= 0 {
			return fmt.Errorf("%w: top_k %d must be positive", ErrInvalidQuery, m.k)
		}
		return nil
	case queryThreshold:
		return nil
	default:
		return fmt.Errorf("%w: mode not set", ErrInvalidQuery)
	}
}

func (m QueryMode) String() string {
	switch m.kind {
	case queryTopK:
		return fmt.Sprintf("top_k(%d)", m.k)
	case queryThreshold:
		return fmt.Sprintf("threshold(%.2f)", m.minScore)
	default:
		return "unset"
	}
}
