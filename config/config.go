package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the engine.
type Config struct {
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Cache     CacheConfig     `yaml:"cache"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ChunkingConfig bounds how documents are split.
type ChunkingConfig struct {
	MaxTokens       int  `yaml:"max_tokens"`
	OverlapTokens   int  `yaml:"overlap_tokens"`
	PrependMetadata bool `yaml:"prepend_metadata"` // embed athlete/topic/title with the text
}

// EmbeddingConfig selects the embedding backend.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`    // "openai", "ollama", "mock"
	Model     string `yaml:"model"`       // e.g., "text-embedding-3-small"
	BaseURL   string `yaml:"base_url"`    // override for OpenAI-compatible endpoints
	APIKeyEnv string `yaml:"api_key_env"` // Environment variable for API key
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK            int     `yaml:"top_k"`
	FetchMultiplier int     `yaml:"fetch_multiplier"` // over-fetch factor when post-filters apply
	MinSimilarity   float64 `yaml:"min_similarity"`   // drop results below this score (0 = disabled)
}

// IngestConfig selects which files become documents.
type IngestConfig struct {
	Includes      []string `yaml:"includes"`
	Excludes      []string `yaml:"excludes"`
	MinTextLength int      `yaml:"min_text_length"`
}

// CacheConfig holds query cache configuration.
type CacheConfig struct {
	MaxEntries int `yaml:"max_entries"`
	TTLSeconds int `yaml:"ttl_seconds"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // "info" or "quiet"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Chunking: ChunkingConfig{
			MaxTokens:       1000,
			OverlapTokens:   200,
			PrependMetadata: true,
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 1536,
			BatchSize: 100,
		},
		Retrieve: RetrieveConfig{
			TopK:            5,
			FetchMultiplier: 10,
			MinSimilarity:   0,
		},
		Ingest: IngestConfig{
			Includes:      []string{"**/*.txt", "**/*.md"},
			Excludes:      []string{"**/.athleterag/**", "**/.git/**"},
			MinTextLength: 100,
		},
		Cache: CacheConfig{
			MaxEntries: 100,
			TTLSeconds: 300,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for athleterag.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "athleterag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".athleterag", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// DataDir returns the directory holding the index artifacts and the
// metadata database.
func DataDir(dir string) string {
	return filepath.Join(dir, ".athleterag")
}

// MetaDBPath returns the path to the metadata database.
func MetaDBPath(dir string) string {
	return filepath.Join(DataDir(dir), "meta.db")
}

// EnsureDataDir ensures the data directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(DataDir(dir), 0755)
}
