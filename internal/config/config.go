// Package config loads the service configuration from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bull/wattsaver/internal/catalog"
	"github.com/bull/wattsaver/internal/chunker"
	"github.com/bull/wattsaver/internal/embedding"
	"github.com/bull/wattsaver/internal/llm"
	"github.com/bull/wattsaver/internal/storage"
	"github.com/bull/wattsaver/internal/tokenizer"
)

// PathEnv names the environment variable holding the config file path.
const PathEnv = "WATTSAVER_CONFIG"

// Store backends.
const (
	StoreMemory = "memory"
	StoreQdrant = "qdrant"
)

// Corpus sources.
const (
	SourceLocal  = "local"
	SourceGitHub = "github"
)

// Retrieval modes.
const (
	ModeThreshold = "threshold"
	ModeTopK      = "top_k"
)

var (
	// ErrMissingAPIKey is returned when OPENAI_API_KEY is not set. It is
	// the same sentinel the OpenAI client constructor returns.
	ErrMissingAPIKey = embedding.ErrMissingAPIKey
	// ErrInvalidConfig is wrapped by every validation failure.
	ErrInvalidConfig = errors.New("invalid config")
)

// OpenAIConfig configures the shared OpenAI client and embedding model.
type OpenAIConfig struct {
	APIKey             string `yaml:"-"`
	BaseURL            string `yaml:"base_url"`
	EmbeddingModel     string `yaml:"embedding_model"`
	EmbeddingDimension int    `yaml:"embedding_dimension"`
	BatchSize          int    `yaml:"batch_size"`
}

// ChunkerConfig sets chunk size and overlap in tokens.
type ChunkerConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// RetrievalConfig selects how the advisor picks context.
type RetrievalConfig struct {
	Mode        string  `yaml:"mode"`
	Threshold   float64 `yaml:"threshold"`
	TopK        int     `yaml:"top_k"`
	TimeoutSecs int     `yaml:"timeout_secs"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key"`
	UseTLS bool   `yaml:"use_tls"`
}

// StoreConfig selects and configures the vector store.
type StoreConfig struct {
	Type       string       `yaml:"type"`
	Collection string       `yaml:"collection"`
	Qdrant     QdrantConfig `yaml:"qdrant"`
}

// GitHubConfig points the corpus at a repository directory.
type GitHubConfig struct {
	Repo  string `yaml:"repo"` // owner/repo[/path]
	Ref   string `yaml:"ref"`
	Token string `yaml:"-"`
}

// CorpusConfig lists the advisor documents and where they come from.
type CorpusConfig struct {
	Source string       `yaml:"source"`
	Dir    string       `yaml:"dir"`
	Files  []string     `yaml:"files"`
	GitHub GitHubConfig `yaml:"github"`
}

// ServerConfig configures the MCP and HTTP surface.
type ServerConfig struct {
	Port string `yaml:"port"`
	// HTTP serves MCP over HTTP; otherwise MCP runs on stdio and HTTP
	// only carries health and the JSON API.
	HTTP bool `yaml:"http"`
}

// Config is the root application configuration.
type Config struct {
	OpenAI          OpenAIConfig    `yaml:"openai"`
	Completion      llm.Params      `yaml:"completion"`
	Tokenizer       string          `yaml:"tokenizer"`
	Chunker         ChunkerConfig   `yaml:"chunker"`
	Retrieval       RetrievalConfig `yaml:"retrieval"`
	Store           StoreConfig     `yaml:"store"`
	Corpus          CorpusConfig    `yaml:"corpus"`
	CatalogPath     string          `yaml:"catalog_path"`
	AdvisorTemplate string          `yaml:"advisor_template"`
	Server          ServerConfig    `yaml:"server"`
	LogLevel        string          `yaml:"log_level"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		OpenAI: OpenAIConfig{
			EmbeddingModel:     embedding.DefaultModel,
			EmbeddingDimension: embedding.DefaultDimension,
			BatchSize:          embedding.DefaultBatchSize,
		},
		Completion: llm.DefaultParams(),
		Tokenizer:  tokenizer.DefaultScheme,
		Chunker: ChunkerConfig{
			Size:    chunker.DefaultChunkSize,
			Overlap: chunker.DefaultChunkOverlap,
		},
		Retrieval: RetrievalConfig{
			Mode:        ModeThreshold,
			Threshold:   0.20,
			TopK:        4,
			TimeoutSecs: 60,
		},
		Store: StoreConfig{
			Type:       StoreMemory,
			Collection: storage.DefaultCollection,
			Qdrant:     QdrantConfig{Host: "localhost", Port: 6334},
		},
		Corpus: CorpusConfig{
			Source: SourceLocal,
			Dir:    "data",
		},
		CatalogPath: catalog.DefaultPath,
		Server:      ServerConfig{Port: "8080"},
		LogLevel:    "info",
	}
}

// Load reads a config file over the defaults, applies environment
// overrides, and validates the result. A missing file yields the
// defaults. An empty path falls back to $WATTSAVER_CONFIG, then
// config.yaml.
func Load(path string) (*Config, error) {
	cfg, err := readFile(ResolvePath(path))
	if err != nil {
		return nil, err
	}
	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ResolvePath picks the config file path.
func ResolvePath(path string) string {
	if path != "" {
		return path
	}
	return getEnv(PathEnv, "config.yaml")
}

func readFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// applyEnv lets the environment override file settings.
func applyEnv(cfg *Config) {
	cfg.OpenAI.APIKey = getEnv("OPENAI_API_KEY", cfg.OpenAI.APIKey)
	cfg.OpenAI.BaseURL = getEnv("OPENAI_BASE_URL", cfg.OpenAI.BaseURL)
	cfg.Store.Type = getEnv("VECTOR_STORE", cfg.Store.Type)
	cfg.Store.Qdrant.Host = getEnv("QDRANT_HOST", cfg.Store.Qdrant.Host)
	cfg.Store.Qdrant.Port = getEnvInt("QDRANT_PORT", cfg.Store.Qdrant.Port)
	cfg.Store.Qdrant.APIKey = getEnv("QDRANT_API_KEY", cfg.Store.Qdrant.APIKey)
	cfg.Corpus.Dir = getEnv("CORPUS_DIR", cfg.Corpus.Dir)
	cfg.Corpus.GitHub.Token = getEnv("GITHUB_TOKEN", cfg.Corpus.GitHub.Token)
	cfg.CatalogPath = getEnv("CATALOG_PATH", cfg.CatalogPath)
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	if v := os.Getenv("SERVER_MODE"); v != "" {
		cfg.Server.HTTP = v == "true"
	}
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
}

// Validate checks the settings the service cannot start without.
func (c *Config) Validate() error {
	if c.OpenAI.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.Chunker.Size <= 0 || c.Chunker.Overlap < 0 || c.Chunker.Overlap >= c.Chunker.Size {
		return fmt.Errorf("%w: chunker overlap %d must be in [0, size %d)", ErrInvalidConfig, c.Chunker.Overlap, c.Chunker.Size)
	}
	switch c.Retrieval.Mode {
	case ModeThreshold:
	case ModeTopK:
		if c.Retrieval.TopK <= 0 {
			return fmt.Errorf("%w: retrieval top_k must be positive", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: retrieval mode %q", ErrInvalidConfig, c.Retrieval.Mode)
	}
	if c.Store.Collection == "" {
		return fmt.Errorf("%w: store collection is required", ErrInvalidConfig)
	}
	if c.Retrieval.TimeoutSecs <= 0 {
		return fmt.Errorf("%w: retrieval timeout_secs must be positive", ErrInvalidConfig)
	}
	switch c.Store.Type {
	case StoreMemory, StoreQdrant:
	default:
		return fmt.Errorf("%w: store type %q", ErrInvalidConfig, c.Store.Type)
	}
	switch c.Corpus.Source {
	case SourceLocal:
	case SourceGitHub:
		if c.Corpus.GitHub.Repo == "" {
			return fmt.Errorf("%w: corpus.github.repo is required for the github source", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: corpus source %q", ErrInvalidConfig, c.Corpus.Source)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// QueryMode returns the advisor retrieval mode.
func (c *Config) QueryMode() storage.QueryMode {
	if c.Retrieval.Mode == ModeTopK {
		return storage.TopK(c.Retrieval.TopK)
	}
	return storage.Threshold(c.Retrieval.Threshold)
}

// Timeout bounds one question, retrieval and completion together.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Retrieval.TimeoutSecs) * time.Second
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.LogLevel)
	}
	return level, nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}
