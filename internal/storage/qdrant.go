package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// QdrantConfig holds connection settings for a Qdrant server.
type QdrantConfig struct {
	Host      string
	Port      int // gRPC port
	APIKey    string
	UseTLS    bool
	Dimension int // Vector size of every collection
}

// QdrantStorage wraps the Qdrant client with connection management and health checks.
// Searches are exact (no HNSW approximation) so rankings stay deterministic.
type QdrantStorage struct {
	client    *qdrant.Client
	dimension int
}

// NewQdrantStorage creates a new Qdrant client with health validation.
// It performs health check with retry on startup and fails fast if Qdrant is unreachable.
func NewQdrantStorage(cfg QdrantConfig) (*QdrantStorage, error) {
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("qdrant: dimension %d must be positive", cfg.Dimension)
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	storage := &QdrantStorage{
		client:    client,
		dimension: cfg.Dimension,
	}

	if err := storage.healthCheckWithRetry(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrQdrantUnreachable, err)
	}

	return storage, nil
}

func newBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second
	return b
}

// healthCheckWithRetry performs health check with exponential backoff.
// Initial interval 500ms, max interval 10s, max elapsed 30s.
func (s *QdrantStorage) healthCheckWithRetry(ctx context.Context) error {
	return backoff.Retry(func() error { return s.Health(ctx) }, backoff.WithContext(newBackoff(), ctx))
}

// Health performs a single health check against Qdrant.
func (s *QdrantStorage) Health(ctx context.Context) error {
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}

	return nil
}

// Close closes the Qdrant client connection.
func (s *QdrantStorage) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// createCollection creates a cosine collection sized to the store dimension.
func (s *QdrantStorage) createCollection(ctx context.Context, name string) error {
	err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", name, err)
	}
	return nil
}

// Index stores entries under the named collection, which Qdrant holds as
// an alias. IndexReplace fills a new physical collection and then points
// the alias at it in one request, so queries see either the previous or
// the new entries. A failed replace drops only its own collection.
// IndexAppend upserts into the collection the alias points at.
func (s *QdrantStorage) Index(ctx context.Context, collection string, entries []Entry, mode IndexMode) error {
	if err := checkDimensions(entries, s.dimension); err != nil {
		return err
	}

	current, err := s.resolve(ctx, collection)
	if err != nil {
		return err
	}

	if mode == IndexAppend && current != "" {
		return s.upsertAll(ctx, current, collection, entries)
	}
	return s.replace(ctx, collection, current, entries)
}

// replace builds <alias>-<unix nanos>, switches the alias and removes
// the collection it pointed at before.
func (s *QdrantStorage) replace(ctx context.Context, alias, current string, entries []Entry) error {
	physical := fmt.Sprintf("%s-%d", alias, time.Now().UnixNano())
	if err := s.createCollection(ctx, physical); err != nil {
		return err
	}

	if err := s.upsertAll(ctx, physical, alias, entries); err != nil {
		s.drop(ctx, physical)
		return err
	}

	if err := s.switchAlias(ctx, alias, current, physical); err != nil {
		s.drop(ctx, physical)
		return err
	}

	s.dropStale(ctx, alias, physical)
	return nil
}

// switchAlias points alias at physical. Delete and create run in a single
// UpdateAliases call, which Qdrant applies atomically.
func (s *QdrantStorage) switchAlias(ctx context.Context, alias, current, physical string) error {
	switch current {
	case "":
		if err := s.client.CreateAlias(ctx, alias, physical); err != nil {
			return fmt.Errorf("failed to create alias %s: %w", alias, err)
		}
	case alias:
		// A plain collection still holds the name; it has to go before
		// the alias can take it.
		if err := s.client.DeleteCollection(ctx, alias); err != nil {
			return fmt.Errorf("failed to delete collection %s: %w", alias, err)
		}
		if err := s.client.CreateAlias(ctx, alias, physical); err != nil {
			return fmt.Errorf("failed to create alias %s: %w", alias, err)
		}
	default:
		err := s.client.UpdateAliases(ctx, []*qdrant.AliasOperations{
			qdrant.NewAliasDelete(alias),
			qdrant.NewAliasCreate(alias, physical),
		})
		if err != nil {
			return fmt.Errorf("failed to switch alias %s to %s: %w", alias, physical, err)
		}
	}
	return nil
}

// resolve returns the physical collection behind name: the alias target,
// name itself for a plain collection, or "" when neither exists.
func (s *QdrantStorage) resolve(ctx context.Context, name string) (string, error) {
	aliases, err := s.client.ListAliases(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list aliases: %w", err)
	}
	for _, a := range aliases {
		if a.GetAliasName() == name {
			return a.GetCollectionName(), nil
		}
	}

	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return "", fmt.Errorf("failed to check collection %s: %w", name, err)
	}
	if !exists {
		return "", nil
	}
	return name, nil
}

// drop deletes a collection this store created. It runs even when ctx
// is already cancelled.
func (s *QdrantStorage) drop(ctx context.Context, physical string) {
	_ = s.client.DeleteCollection(context.WithoutCancel(ctx), physical)
}

// dropStale removes every <alias>-<digits> collection except keep: the
// one the alias used to point at, plus leftovers of interrupted builds.
func (s *QdrantStorage) dropStale(ctx context.Context, alias, keep string) {
	names, err := s.client.ListCollections(context.WithoutCancel(ctx))
	if err != nil {
		return
	}
	for _, name := range names {
		if name != keep && isBuildOf(alias, name) {
			s.drop(ctx, name)
		}
	}
}

// isBuildOf reports whether name has the form <alias>-<digits>.
func isBuildOf(alias, name string) bool {
	suffix, ok := strings.CutPrefix(name, alias+"-")
	if !ok || suffix == "" {
		return false
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// upsertAll writes entries into the physical collection in batches of 100.
// Point IDs derive from the alias so rebuilds produce the same IDs.
func (s *QdrantStorage) upsertAll(ctx context.Context, physical, alias string, entries []Entry) error {
	batchSize := 100
	for i := 0; i < len(entries); i += batchSize {
		end := min(i+batchSize, len(entries))

		points := make([]*qdrant.PointStruct, 0, end-i)
		for _, e := range entries[i:end] {
			id := e.ID
			if id == "" {
				id = EntryID(alias, e.SourceID, e.ChunkIndex)
			}
			points = append(points, &qdrant.PointStruct{
				Id:      qdrant.NewIDUUID(id),
				Vectors: qdrant.NewVectors(e.Vector...),
				Payload: qdrant.NewValueMap(map[string]any{
					"source_id":   e.SourceID,
					"chunk_index": e.ChunkIndex,
					"content":     e.Content,
				}),
			})
		}

		if err := s.upsertWithRetry(ctx, physical, points); err != nil {
			return fmt.Errorf("failed to upsert batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

// upsertWithRetry performs upsert operation with exponential backoff retry.
// Wait makes the points visible to queries before returning. Rejected
// requests (bad IDs, wrong vector size) are not retried.
func (s *QdrantStorage) upsertWithRetry(ctx context.Context, collection string, points []*qdrant.PointStruct) error {
	operation := func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: collection,
			Wait:           qdrant.PtrOf(true),
			Points:         points,
		})
		if status.Code(err) == codes.InvalidArgument {
			return backoff.Permanent(err)
		}
		return err
	}

	return backoff.Retry(operation, backoff.WithContext(newBackoff(), ctx))
}

// Query performs exact cosine search in the collection.
func (s *QdrantStorage) Query(ctx context.Context, collection string, vector []float32, mode QueryMode) ([]ScoredEntry, error) {
	if err := mode.validate(); err != nil {
		return nil, err
	}
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, expected %d",
			ErrDimensionMismatch, len(vector), s.dimension)
	}

	total, err := s.Count(ctx, collection)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return []ScoredEntry{}, nil
	}

	req := &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(false),
		Params:         &qdrant.SearchParams{Exact: qdrant.PtrOf(true)},
	}
	switch mode.kind {
	case queryTopK:
		req.Limit = qdrant.PtrOf(uint64(mode.k))
	case queryThreshold:
		req.Limit = qdrant.PtrOf(uint64(total))
		req.ScoreThreshold = qdrant.PtrOf(float32(mode.minScore))
	}

	points, err := s.client.Query(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to search collection %s: %w", collection, err)
	}

	results := make([]ScoredEntry, 0, len(points))
	for _, p := range points {
		payload := p.Payload
		results = append(results, ScoredEntry{
			Entry: Entry{
				ID:         p.Id.GetUuid(),
				SourceID:   payload["source_id"].GetStringValue(),
				ChunkIndex: int(payload["chunk_index"].GetIntegerValue()),
				Content:    payload["content"].GetStringValue(),
			},
			Score: float64(p.Score), // Qdrant returns float32, convert to float64
		})
	}

	sortScored(results)
	return applyMode(results, mode), nil
}

// Count returns the exact number of points in a collection.
func (s *QdrantStorage) Count(ctx context.Context, collection string) (int, error) {
	physical, err := s.resolve(ctx, collection)
	if err != nil {
		return 0, err
	}
	if physical == "" {
		return 0, fmt.Errorf("%w: %s", ErrCollectionNotFound, collection)
	}

	// Counting through the alias name keeps the call valid across a swap.
	n, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: collection,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count collection %s: %w", collection, err)
	}
	return int(n), nil
}
