package embedding

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
)

const (
	// DefaultModel is the OpenAI model used for generating embeddings.
	DefaultModel = "text-embedding-3-small"

	// DefaultDimension is the vector dimension for text-embedding-3-small.
	DefaultDimension = 1536

	// DefaultBatchSize balances requests-per-minute vs tokens-per-minute rate limits.
	// OpenAI supports up to 2048 texts per batch, but smaller batches reduce TPM pressure.
	DefaultBatchSize = 500
)

// ErrEmbeddingService is matched by every *ServiceError.
var ErrEmbeddingService = errors.New("embedding service error")

// ServiceError reports a failed batch. Texts [BatchStart, BatchEnd) of the
// call were being embedded; no vectors are returned for any of the call.
type ServiceError struct {
	BatchStart int
	BatchEnd   int
	Err        error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("embedding batch %d-%d: %v", e.BatchStart, e.BatchEnd, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

func (e *ServiceError) Is(target error) bool { return target == ErrEmbeddingService }

// Embedder maps texts to fixed-dimension vectors, one per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// OpenAIEmbedder generates embeddings with an OpenAI embedding model.
type OpenAIEmbedder struct {
	client    *Client
	model     string
	dimension int
	batchSize int
}

// NewEmbedder creates an embedder. Zero values select DefaultModel,
// DefaultDimension and DefaultBatchSize.
func NewEmbedder(client *Client, model string, dimension, batchSize int) *OpenAIEmbedder {
	if model == "" {
		model = DefaultModel
	}
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &OpenAIEmbedder{
		client:    client,
		model:     model,
		dimension: dimension,
		batchSize: batchSize,
	}
}

// Dimension returns the declared vector length.
func (e *OpenAIEmbedder) Dimension() int { return e.dimension }

// Embed generates embeddings for the given texts.
// Returns [][]float32 to match storage.Entry.Vector type. Either every
// batch succeeds or the call fails with a *ServiceError.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	allEmbeddings := make([][]float32, 0, len(texts))

	for i := 0; i < len(texts); i += e.batchSize {
		end := min(i+e.batchSize, len(texts))

		embeddings, err := e.embedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, &ServiceError{BatchStart: i, BatchEnd: end, Err: err}
		}
		allEmbeddings = append(allEmbeddings, embeddings...)
	}

	return allEmbeddings, nil
}

// embedBatch sends one request and validates count, order and dimension.
func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := e.client.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("got %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	data := resp.Data
	sort.SliceStable(data, func(a, b int) bool { return data[a].Index < data[b].Index })

	embeddings := make([][]float32, len(data))
	for i, d := range data {
		if int(d.Index) != i {
			return nil, fmt.Errorf("missing embedding for input %d", i)
		}
		if len(d.Embedding) != e.dimension {
			return nil, fmt.Errorf("input %d: got %d dimensions, expected %d", i, len(d.Embedding), e.dimension)
		}
		embeddings[i] = toFloat32(d.Embedding)
	}
	return embeddings, nil
}

// retryingEmbedder retries whole calls on rate limit errors.
type retryingEmbedder struct {
	next            Embedder
	initialInterval time.Duration
	maxElapsed      time.Duration
}

// WithRetry wraps an embedder with exponential backoff on rate limit
// errors (HTTP 429). Other errors fail immediately.
func WithRetry(next Embedder) Embedder {
	return &retryingEmbedder{
		next:            next,
		initialInterval: 500 * time.Millisecond,
		maxElapsed:      30 * time.Second,
	}
}

func (r *retryingEmbedder) Dimension() int { return r.next.Dimension() }

func (r *retryingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var embeddings [][]float32

	operation := func() error {
		var err error
		embeddings, err = r.next.Embed(ctx, texts)
		if err != nil {
			if isRateLimitError(err) {
				return err // Will retry with backoff
			}
			return backoff.Permanent(err)
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialInterval
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = r.maxElapsed

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}
	return embeddings, nil
}

// isRateLimitError checks if the error is a rate limit error (HTTP 429).
func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

// toFloat32 converts []float64 to []float32.
// OpenAI API returns float64, but storage uses float32 for memory efficiency.
func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
