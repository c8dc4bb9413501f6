// Package app wires the configured components into the advisor and
// product lookup services.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/bull/wattsaver/internal/catalog"
	"github.com/bull/wattsaver/internal/chunker"
	"github.com/bull/wattsaver/internal/config"
	"github.com/bull/wattsaver/internal/embedding"
	"github.com/bull/wattsaver/internal/github"
	"github.com/bull/wattsaver/internal/indexer"
	"github.com/bull/wattsaver/internal/llm"
	"github.com/bull/wattsaver/internal/prompt"
	"github.com/bull/wattsaver/internal/rag"
	"github.com/bull/wattsaver/internal/source"
	"github.com/bull/wattsaver/internal/storage"
	"github.com/bull/wattsaver/internal/tokenizer"
)

// Components are the swappable collaborators. New builds the production
// set from config; tests pass their own to Assemble.
type Components struct {
	Tokenizer tokenizer.Tokenizer
	Embedder  embedding.Embedder
	Completer llm.Completer
	Store     storage.Store
	Loader    source.Loader
	Catalog   *catalog.Catalog
}

// App is the composition root shared by the binaries.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    storage.Store
	indexer  *indexer.Pipeline
	advisor  *rag.Service
	products *rag.Service

	mu        sync.RWMutex
	lastIndex *indexer.IndexResult
}

// NewLogger builds the process logger at the configured level.
func NewLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	level, err := cfg.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// New builds the production components from config. Connecting to
// Qdrant is the only network call made here.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tok, err := tokenizer.New(cfg.Tokenizer)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokenizer: %w", err)
	}

	client, err := embedding.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}
	embedder := embedding.NewEmbedder(client, cfg.OpenAI.EmbeddingModel, cfg.OpenAI.EmbeddingDimension, cfg.OpenAI.BatchSize)

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	loader, err := newLoader(cfg, logger)
	if err != nil {
		return nil, err
	}

	store, err := newStore(cfg)
	if err != nil {
		return nil, err
	}

	app, err := Assemble(cfg, Components{
		Tokenizer: tok,
		Embedder:  embedder,
		Completer: llm.NewOpenAICompleter(client.Client()),
		Store:     store,
		Loader:    loader,
		Catalog:   cat,
	}, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	return app, nil
}

// Assemble builds the pipelines from already constructed components.
func Assemble(cfg *config.Config, c Components, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ch, err := chunker.New(c.Tokenizer, cfg.Chunker.Size, cfg.Chunker.Overlap)
	if err != nil {
		return nil, err
	}

	template, err := prompt.NewTemplateComposer(cfg.AdvisorTemplate)
	if err != nil {
		return nil, err
	}

	collection := cfg.Store.Collection
	advisor := &rag.Pipeline{
		Name: "advisor",
		Retriever: &rag.VectorRetriever{
			Embedder:   c.Embedder,
			Store:      c.Store,
			Collection: collection,
			Mode:       cfg.QueryMode(),
		},
		Composer:  template,
		Completer: c.Completer,
		Params:    cfg.Completion,
		Timeout:   cfg.Timeout(),
		Tokenizer: c.Tokenizer,
		Logger:    logger,
	}

	products := &rag.Pipeline{
		Name:      "products",
		Retriever: rag.StaticRetriever{},
		Composer:  prompt.NewCatalogComposer(c.Catalog),
		Completer: c.Completer,
		Params:    cfg.Completion,
		Timeout:   cfg.Timeout(),
		Tokenizer: c.Tokenizer,
		Logger:    logger,
	}

	return &App{
		cfg:      cfg,
		logger:   logger,
		store:    c.Store,
		indexer:  indexer.NewPipeline(c.Loader, ch, embedding.WithRetry(c.Embedder), c.Store, collection, logger),
		advisor:  rag.NewService(advisor, logger),
		products: rag.NewService(products, logger),
	}, nil
}

func newLoader(cfg *config.Config, logger *slog.Logger) (source.Loader, error) {
	if cfg.Corpus.Source != config.SourceGitHub {
		return source.NewFileLoader(cfg.Corpus.Dir, cfg.Corpus.Files, logger), nil
	}

	owner, repo, basePath, err := github.ParseRepoPath(cfg.Corpus.GitHub.Repo)
	if err != nil {
		return nil, err
	}
	client, err := github.NewClient(cfg.Corpus.GitHub.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}
	return github.NewFetcher(client, owner, repo, basePath, cfg.Corpus.GitHub.Ref, cfg.Corpus.Files, logger), nil
}

func newStore(cfg *config.Config) (storage.Store, error) {
	if cfg.Store.Type != config.StoreQdrant {
		return storage.NewMemoryStore(), nil
	}
	store, err := storage.NewQdrantStorage(storage.QdrantConfig{
		Host:      cfg.Store.Qdrant.Host,
		Port:      cfg.Store.Qdrant.Port,
		APIKey:    cfg.Store.Qdrant.APIKey,
		UseTLS:    cfg.Store.Qdrant.UseTLS,
		Dimension: cfg.OpenAI.EmbeddingDimension,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Qdrant: %w", err)
	}
	return store, nil
}

// BuildIndex rebuilds the advisor collection. It must complete before
// questions are served.
func (a *App) BuildIndex(ctx context.Context) (*indexer.IndexResult, error) {
	result, err := a.indexer.IndexAll(ctx)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	a.lastIndex = result
	a.mu.Unlock()
	return result, nil
}

// LastIndex returns the statistics of the most recent build, or nil.
func (a *App) LastIndex() *indexer.IndexResult {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastIndex
}

// IndexedChunks counts the entries currently in the advisor collection.
func (a *App) IndexedChunks(ctx context.Context) (int, error) {
	return a.store.Count(ctx, a.cfg.Store.Collection)
}

// Advisor answers energy-saving questions.
func (a *App) Advisor() *rag.Service { return a.advisor }

// Products answers Climate Voucher product questions.
func (a *App) Products() *rag.Service { return a.products }

// Store returns the vector store, for health checks.
func (a *App) Store() storage.Store { return a.store }

// Close releases the store connection.
func (a *App) Close() error {
	return a.store.Close()
}
