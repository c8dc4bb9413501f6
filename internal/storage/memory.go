package storage

import (
	"context"
	"fmt"
	"sync"
)

// snapshot is an immutable collection state. A re-index publishes a new
// snapshot, so queries see either the old or the new state, never a mix.
type snapshot struct {
	dimension int
	entries   []Entry
}

// MemoryStore is an exact, in-process vector store using brute-force cosine similarity.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*snapshot
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*snapshot)}
}

// Index publishes a new snapshot of the collection.
func (s *MemoryStore) Index(ctx context.Context, collection string, entries []Entry, mode IndexMode) error {
	if collection == "" {
		return fmt.Errorf("collection name is required")
	}

	dim := 0
	if len(entries) > 0 {
		dim = len(entries[0].Vector)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var base []Entry
	if current, ok := s.collections[collection]; ok && mode == IndexAppend {
		base = current.entries
		if dim == 0 {
			dim = current.dimension
		}
		if current.dimension != 0 && dim != current.dimension {
			return fmt.Errorf("%w: collection %q has %d dimensions, got %d",
				ErrDimensionMismatch, collection, current.dimension, dim)
		}
	}
	if err := checkDimensions(entries, dim); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	next := &snapshot{
		dimension: dim,
		entries:   make([]Entry, 0, len(base)+len(entries)),
	}
	next.entries = append(next.entries, base...)
	for _, e := range entries {
		e.Vector = append([]float32(nil), e.Vector...)
		next.entries = append(next.entries, e)
	}

	s.collections[collection] = next
	return nil
}

// Query scores every entry of the collection against vector.
func (s *MemoryStore) Query(ctx context.Context, collection string, vector []float32, mode QueryMode) ([]ScoredEntry, error) {
	if err := mode.validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	snap, ok := s.collections[collection]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}

	if len(snap.entries) == 0 {
		return []ScoredEntry{}, nil
	}
	if len(vector) != snap.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(vector), snap.dimension)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]ScoredEntry, len(snap.entries))
	for i, e := range snap.entries {
		e.Vector = nil
		results[i] = ScoredEntry{Entry: e, Score: cosine(vector, snap.entries[i].Vector)}
	}
	sortScored(results)
	return applyMode(results, mode), nil
}

// Count returns the number of entries in a collection.
func (s *MemoryStore) Count(ctx context.Context, collection string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.collections[collection]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}
	return len(snap.entries), nil
}

// Health always succeeds for the in-process store.
func (s *MemoryStore) Health(ctx context.Context) error { return nil }

// Close releases nothing; it exists to satisfy Store.
func (s *MemoryStore) Close() error { return nil }
