package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDimension = 3

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

// fakeVector derives a vector from the text so order mistakes are visible.
func fakeVector(text string) []float64 {
	return []float64{float64(len(text)), 1, 0}
}

// newFakeAPI serves /embeddings, returning data items in reverse order.
func newFakeAPI(t *testing.T, handler func(w http.ResponseWriter, req embeddingRequest) bool) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/embeddings", r.URL.Path)

		var req embeddingRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if handler != nil && handler(w, req) {
			return
		}

		data := make([]map[string]any, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": fakeVector(req.Input[i]),
			})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func newTestEmbedder(t *testing.T, serverURL string, batchSize int) *OpenAIEmbedder {
	t.Helper()
	client, err := NewClient("test-key", serverURL+"/")
	require.NoError(t, err)
	return NewEmbedder(client, "", testDimension, batchSize)
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient("", "")
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestEmbed_OrderAndDimension(t *testing.T) {
	server, calls := newFakeAPI(t, nil)
	embedder := newTestEmbedder(t, server.URL, 2)

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	vectors, err := embedder.Embed(context.Background(), texts)
	require.NoError(t, err)

	require.Len(t, vectors, len(texts))
	for i, v := range vectors {
		assert.Len(t, v, testDimension)
		assert.Equal(t, float32(len(texts[i])), v[0], "vector %d out of order", i)
	}
	assert.Equal(t, int32(3), calls.Load(), "5 texts in batches of 2")
	assert.Equal(t, testDimension, embedder.Dimension())
}

func TestEmbed_FailedBatchFailsWholeCall(t *testing.T) {
	server, _ := newFakeAPI(t, func(w http.ResponseWriter, req embeddingRequest) bool {
		if req.Input[0] == "ccc" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return true
		}
		return false
	})
	embedder := newTestEmbedder(t, server.URL, 2)

	vectors, err := embedder.Embed(context.Background(), []string{"a", "bb", "ccc", "dddd"})
	require.Error(t, err)
	assert.Nil(t, vectors)
	assert.True(t, errors.Is(err, ErrEmbeddingService))

	var svcErr *ServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, 2, svcErr.BatchStart)
	assert.Equal(t, 4, svcErr.BatchEnd)
}

func TestEmbed_WrongDimensionIsAnError(t *testing.T) {
	server, _ := newFakeAPI(t, nil)
	client, err := NewClient("test-key", server.URL+"/")
	require.NoError(t, err)
	embedder := NewEmbedder(client, "", 1536, 0)

	_, err = embedder.Embed(context.Background(), []string{"a"})
	assert.ErrorIs(t, err, ErrEmbeddingService)
}

func TestEmbed_NoRetryByDefault(t *testing.T) {
	server, calls := newFakeAPI(t, func(w http.ResponseWriter, req embeddingRequest) bool {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
		return true
	})
	embedder := newTestEmbedder(t, server.URL, 0)

	_, err := embedder.Embed(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWithRetry_RetriesRateLimits(t *testing.T) {
	var failures atomic.Int32
	server, calls := newFakeAPI(t, func(w http.ResponseWriter, req embeddingRequest) bool {
		if failures.Add(1) <= 2 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
			return true
		}
		return false
	})
	retrying := WithRetry(newTestEmbedder(t, server.URL, 0)).(*retryingEmbedder)
	retrying.initialInterval = time.Millisecond
	retrying.maxElapsed = 5 * time.Second

	vectors, err := retrying.Embed(context.Background(), []string{"a", "bb"})
	require.NoError(t, err)
	assert.Len(t, vectors, 2)
	assert.Equal(t, int32(3), calls.Load())
}

func TestWithRetry_PermanentErrorsFailFast(t *testing.T) {
	server, calls := newFakeAPI(t, func(w http.ResponseWriter, req embeddingRequest) bool {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
		return true
	})

	_, err := WithRetry(newTestEmbedder(t, server.URL, 0)).Embed(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbeddingService)
	assert.Equal(t, int32(1), calls.Load())
}
