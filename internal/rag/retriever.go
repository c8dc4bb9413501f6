package rag

import (
	"context"
	"fmt"

	"github.com/bull/wattsaver/internal/embedding"
	"github.com/bull/wattsaver/internal/storage"
)

// Retriever finds the context for a question.
type Retriever interface {
	Retrieve(ctx context.Context, question string) ([]storage.ScoredEntry, error)
}

// VectorRetriever embeds the question and queries a store collection.
type VectorRetriever struct {
	Embedder   embedding.Embedder
	Store      storage.Store
	Collection string
	Mode       storage.QueryMode
}

// Retrieve returns the matching chunks in descending similarity.
func (r *VectorRetriever) Retrieve(ctx context.Context, question string) ([]storage.ScoredEntry, error) {
	vectors, err := r.Embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("failed to embed question: got %d vectors", len(vectors))
	}

	results, err := r.Store.Query(ctx, r.Collection, vectors[0], r.Mode)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", r.Collection, err)
	}
	return results, nil
}

// StaticRetriever returns the same results for every question.
// A zero value retrieves nothing, for composers that carry their own
// reference data.
type StaticRetriever struct {
	Results []storage.ScoredEntry
}

// Retrieve returns the fixed results.
func (r StaticRetriever) Retrieve(ctx context.Context, _ string) ([]storage.ScoredEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.Results, nil
}
