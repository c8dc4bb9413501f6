package storage

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// Store indexes entries into named collections and queries them.
// Queries are deterministic for a fixed collection state and vector.
type Store interface {
	Index(ctx context.Context, collection string, entries []Entry, mode IndexMode) error
	Query(ctx context.Context, collection string, vector []float32, mode QueryMode) ([]ScoredEntry, error)
	Count(ctx context.Context, collection string) (int, error)
	Health(ctx context.Context) error
	Close() error
}

// checkDimensions verifies every entry carries a vector of length dim.
func checkDimensions(entries []Entry, dim int) error {
	for i, e := range entries {
		if len(e.Vector) != dim {
			return fmt.Errorf("%w: entry %d has %d dimensions, expected %d",
				ErrDimensionMismatch, i, len(e.Vector), dim)
		}
	}
	return nil
}

// cosine returns the cosine similarity of a and b, or 0 when either is zero.
func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// sortScored orders by descending score; ties fall back to source and
// chunk position so equal scores never reorder between runs.
func sortScored(results []ScoredEntry) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.SourceID != b.SourceID {
			return a.SourceID < b.SourceID
		}
		if a.ChunkIndex != b.ChunkIndex {
			return a.ChunkIndex < b.ChunkIndex
		}
		return a.ID < b.ID
	})
}

// applyMode trims sorted results to the query mode.
func applyMode(sorted []ScoredEntry, mode QueryMode) []ScoredEntry {
	switch mode.kind {
	case queryTopK:
		if len(sorted) > mode.k {
			sorted = sorted[:mode.k]
		}
		return sorted
	case queryThreshold:
		n := 0
		for n < len(sorted) && sorted[n].Score >= mode.minScore {
			n++
		}
		return sorted[:n]
	}
	return nil
}
