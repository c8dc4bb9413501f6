// Package indexer builds a vector store collection from the corpus.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bull/wattsaver/internal/chunker"
	"github.com/bull/wattsaver/internal/embedding"
	"github.com/bull/wattsaver/internal/source"
	"github.com/bull/wattsaver/internal/storage"
)

// IndexResult contains statistics about an indexing operation.
type IndexResult struct {
	Collection      string
	TotalDocs       int
	SuccessfulDocs  int
	TotalChunks     int
	OversizedChunks int
	Documents       []DocStats
	FailedDocs      []FailedDoc
	Duration        time.Duration
	CompletedAt     time.Time
}

// DocStats describes one indexed document.
type DocStats struct {
	SourceID string
	Title    string
	Tokens   int
	Chunks   int
}

// FailedDoc represents a document that failed to load.
type FailedDoc struct {
	SourceID string
	Reason   string
}

// Pipeline orchestrates loading, chunking, embedding and storage.
type Pipeline struct {
	loader     source.Loader
	chunker    *chunker.Chunker
	embedder   embedding.Embedder
	store      storage.Store
	collection string
	logger     *slog.Logger
}

// NewPipeline creates a new indexing pipeline with the given components.
func NewPipeline(
	loader source.Loader,
	chunker *chunker.Chunker,
	embedder embedding.Embedder,
	store storage.Store,
	collection string,
	logger *slog.Logger,
) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if collection == "" {
		collection = storage.DefaultCollection
	}
	return &Pipeline{
		loader:     loader,
		chunker:    chunker,
		embedder:   embedder,
		store:      store,
		collection: collection,
		logger:     logger,
	}
}

// IndexAll loads every document and replaces the collection with their
// chunks. Documents that fail to load are skipped and reported; any
// embedding or storage failure fails the whole build and leaves the
// previous collection in place.
func (p *Pipeline) IndexAll(ctx context.Context) (*IndexResult, error) {
	start := time.Now()
	result := &IndexResult{Collection: p.collection}

	// 1. Load documents
	docs, failures := p.loader.Load(ctx)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	for _, f := range failures {
		result.FailedDocs = append(result.FailedDocs, FailedDoc{
			SourceID: f.SourceID,
			Reason:   f.Err.Error(),
		})
	}
	result.TotalDocs = len(docs) + len(failures)
	result.SuccessfulDocs = len(docs)
	p.logger.Info("Loaded documents", "loaded", len(docs), "failed", len(failures))

	// 2. Chunk each document
	tok := p.chunker.Tokenizer()
	var chunks []chunker.Chunk
	for _, doc := range docs {
		docChunks := p.chunker.Split(doc.SourceID, doc.Text)
		stats := DocStats{
			SourceID: doc.SourceID,
			Title:    doc.Title,
			Tokens:   tok.Count(doc.Text),
			Chunks:   len(docChunks),
		}
		result.Documents = append(result.Documents, stats)
		for _, c := range docChunks {
			if c.Oversized {
				result.OversizedChunks++
				p.logger.Warn("Chunk exceeds size budget", "source", c.SourceID, "index", c.Index, "tokens", c.TokenCount)
			}
		}
		chunks = append(chunks, docChunks...)
		p.logger.Debug("Chunked document", "source", doc.SourceID, "tokens", stats.Tokens, "chunks", stats.Chunks)
	}
	result.TotalChunks = len(chunks)

	// 3. Embed all chunks
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	var vectors [][]float32
	if len(texts) > 0 {
		var err error
		vectors, err = p.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embeddings: %w", err)
		}
	}

	// 4. Replace the collection in one step
	entries := make([]storage.Entry, len(chunks))
	for i, c := range chunks {
		entries[i] = storage.Entry{
			ID:         storage.EntryID(p.collection, c.SourceID, c.Index),
			SourceID:   c.SourceID,
			ChunkIndex: c.Index,
			Content:    c.Text,
			Vector:     vectors[i],
		}
	}
	if err := p.store.Index(ctx, p.collection, entries, storage.IndexReplace); err != nil {
		return nil, fmt.Errorf("store chunks: %w", err)
	}

	result.Duration = time.Since(start)
	result.CompletedAt = time.Now().UTC()
	p.logger.Info("Indexing complete",
		"collection", p.collection,
		"successful", result.SuccessfulDocs,
		"failed", len(result.FailedDocs),
		"chunks", result.TotalChunks,
		"duration", result.Duration,
	)

	return result, nil
}
