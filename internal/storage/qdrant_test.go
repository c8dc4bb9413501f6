//go:build integration

package storage

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDimension = 8

// setupTestStorage creates a test storage instance.
// Skips test if Qdrant is not running.
func setupTestStorage(t *testing.T) *QdrantStorage {
	storage, err := NewQdrantStorage(QdrantConfig{Host: "localhost", Port: 6334, Dimension: testDimension})
	if err != nil {
		t.Skipf("Qdrant not available: %v", err)
	}
	return storage
}

// newTestCollection returns a fresh collection name and removes its alias
// and every build behind it when the test ends.
func newTestCollection(t *testing.T, storage *QdrantStorage) string {
	t.Helper()
	collection := "test-" + uuid.New().String()
	t.Cleanup(func() {
		ctx := context.Background()
		_ = storage.client.DeleteAlias(ctx, collection)
		names, _ := storage.client.ListCollections(ctx)
		for _, name := range names {
			if name == collection || isBuildOf(collection, name) {
				_ = storage.client.DeleteCollection(ctx, name)
			}
		}
	})
	return collection
}

func testEntries(collection, sourceID string, n int) []Entry {
	entries := make([]Entry, n)
	for i := range entries {
		entries[i] = Entry{
			ID:         EntryID(collection, sourceID, i),
			SourceID:   sourceID,
			ChunkIndex: i,
			Content:    "chunk content",
			Vector:     unitVector(i),
		}
	}
	return entries
}

// builds lists the physical collections created for collection.
func builds(t *testing.T, storage *QdrantStorage, collection string) []string {
	t.Helper()
	names, err := storage.client.ListCollections(context.Background())
	require.NoError(t, err)
	var out []string
	for _, name := range names {
		if isBuildOf(collection, name) {
			out = append(out, name)
		}
	}
	return out
}

func unitVector(i int) []float32 {
	v := make([]float32, testDimension)
	v[i%testDimension] = 1
	return v
}

func TestQdrant_IndexAndQueryRoundTrip(t *testing.T) {
	storage := setupTestStorage(t)
	defer storage.Close()

	ctx := context.Background()
	collection := newTestCollection(t, storage)

	entries := testEntries(collection, "tips.txt", 4)
	require.NoError(t, storage.Index(ctx, collection, entries, IndexReplace))

	n, err := storage.Count(ctx, collection)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	results, err := storage.Query(ctx, collection, unitVector(2), TopK(1))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, entries[2].ID, results[0].ID)
	assert.Equal(t, 2, results[0].ChunkIndex)
	assert.InDelta(t, 1.0, results[0].Score, 1e-5)

	results, err = storage.Query(ctx, collection, unitVector(2), Threshold(0.5))
	require.NoError(t, err)
	assert.Len(t, results, 1)

	// Replace drops the previous entries
	require.NoError(t, storage.Index(ctx, collection, entries[:1], IndexReplace))
	n, err = storage.Count(ctx, collection)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestQdrant_CollectionNotFound(t *testing.T) {
	storage := setupTestStorage(t)
	defer storage.Close()

	_, err := storage.Query(context.Background(), "missing-"+uuid.New().String(), unitVector(0), TopK(1))
	assert.ErrorIs(t, err, ErrCollectionNotFound)
}

func TestQdrant_ReplaceSwapsAliasAndDropsOldBuild(t *testing.T) {
	storage := setupTestStorage(t)
	defer storage.Close()

	ctx := context.Background()
	collection := newTestCollection(t, storage)

	require.NoError(t, storage.Index(ctx, collection, testEntries(collection, "a.txt", 3), IndexReplace))
	first := builds(t, storage, collection)
	require.Len(t, first, 1)

	require.NoError(t, storage.Index(ctx, collection, testEntries(collection, "b.txt", 2), IndexReplace))
	second := builds(t, storage, collection)
	require.Len(t, second, 1)
	assert.NotEqual(t, first[0], second[0])

	physical, err := storage.resolve(ctx, collection)
	require.NoError(t, err)
	assert.Equal(t, second[0], physical)

	results, err := storage.Query(ctx, collection, unitVector(0), TopK(10))
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, "b.txt", r.SourceID)
	}
}

func TestQdrant_FailedReplaceKeepsPreviousEntries(t *testing.T) {
	storage := setupTestStorage(t)
	defer storage.Close()

	ctx := context.Background()
	collection := newTestCollection(t, storage)

	previous := testEntries(collection, "tips.txt", 150)
	require.NoError(t, storage.Index(ctx, collection, previous, IndexReplace))
	before := builds(t, storage, collection)

	// The second batch carries an ID Qdrant rejects, after the first
	// batch has already been written.
	replacement := testEntries(collection, "new.txt", 150)
	replacement[120].ID = "not-a-uuid"
	err := storage.Index(ctx, collection, replacement, IndexReplace)
	require.Error(t, err)

	n, err := storage.Count(ctx, collection)
	require.NoError(t, err)
	assert.Equal(t, 150, n)

	results, err := storage.Query(ctx, collection, unitVector(3), TopK(1))
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "tips.txt", results[0].SourceID)

	assert.Equal(t, before, builds(t, storage, collection), "the unfinished build must be removed")
}

func TestQdrant_ReplaceMigratesPlainCollection(t *testing.T) {
	storage := setupTestStorage(t)
	defer storage.Close()

	ctx := context.Background()
	collection := newTestCollection(t, storage)
	require.NoError(t, storage.createCollection(ctx, collection))

	require.NoError(t, storage.Index(ctx, collection, testEntries(collection, "tips.txt", 2), IndexReplace))

	physical, err := storage.resolve(ctx, collection)
	require.NoError(t, err)
	assert.True(t, isBuildOf(collection, physical))

	n, err := storage.Count(ctx, collection)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestQdrant_AppendAddsToCurrentBuild(t *testing.T) {
	storage := setupTestStorage(t)
	defer storage.Close()

	ctx := context.Background()
	collection := newTestCollection(t, storage)

	require.NoError(t, storage.Index(ctx, collection, testEntries(collection, "a.txt", 2), IndexAppend))
	require.NoError(t, storage.Index(ctx, collection, testEntries(collection, "b.txt", 3), IndexAppend))

	n, err := storage.Count(ctx, collection)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Len(t, builds(t, storage, collection), 1)
}
