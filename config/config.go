// Package config loads the pipeline's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/scopeworks/kbpipeline/chunk"
	"github.com/scopeworks/kbpipeline/ingest"
)

// EmbedderConfig configures the OpenAI-compatible embedding endpoint.
type EmbedderConfig struct {
	Host      string `yaml:"host"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	BatchSize int    `yaml:"batch_size"`
}

// ChunkingConfig configures how documents are split before embedding.
type ChunkingConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

// ClassifyConfig holds the similarity thresholds for the duplicate probe.
type ClassifyConfig struct {
	SimilarityThreshold float32 `yaml:"similarity_threshold"`
	DuplicateThreshold  float32 `yaml:"duplicate_threshold"`
}

// QdrantConfig contains connection details for the Qdrant vector index.
type QdrantConfig struct {
	URL        string `yaml:"url"`
	APIKey     string `yaml:"api_key"`
	Collection string `yaml:"collection"`
	Dimension  uint64 `yaml:"dimension"`
}

// BlobConfig selects the document store holding the knowledge-base files.
// Type is "fs" or "supabase".
type BlobConfig struct {
	Type string `yaml:"type"`

	// Dir is the root directory for the fs store.
	Dir string `yaml:"dir,omitempty"`

	// Supabase storage settings.
	URL       string `yaml:"url,omitempty"`
	APIKeyEnv string `yaml:"api_key_env,omitempty"`
	Bucket    string `yaml:"bucket,omitempty"`
}

// QueueConfig selects the vectorization work queue. Type is "memory" or
// "redis".
type QueueConfig struct {
	Type     string `yaml:"type"`
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Key      string `yaml:"key,omitempty"`
}

// Config is the root configuration for the pipeline.
type Config struct {
	// DataDir is where the document registry database lives.
	DataDir string `yaml:"data_dir"`

	Embedder EmbedderConfig `yaml:"embedder"`
	Chunking ChunkingConfig `yaml:"chunking"`
	Classify ClassifyConfig `yaml:"classify"`
	Qdrant   QdrantConfig   `yaml:"qdrant"`
	Blobs    BlobConfig     `yaml:"blobs"`
	Queue    QueueConfig    `yaml:"queue"`

	// Workers is the scan pool size. Zero picks a size from the CPU count.
	Workers int `yaml:"workers"`
}

// Load reads a config from the specified path. If the file does not exist,
// returns defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns the built-in configuration: a local filesystem document
// store, a local Ollama-compatible embedder, and an in-process queue.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// APIKey resolves the embedder API key from the configured environment
// variable. Empty when no variable is configured or set.
func (e EmbedderConfig) APIKey() string {
	if e.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(e.APIKeyEnv)
}

// BlobAPIKey resolves the blob store API key from the configured
// environment variable.
func (b BlobConfig) BlobAPIKey() string {
	if b.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(b.APIKeyEnv)
}

func applyDefaults(cfg *Config) {
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	if cfg.Embedder.Host == "" {
		cfg.Embedder.Host = "http://localhost:11434/v1"
	}
	if cfg.Embedder.Model == "" {
		cfg.Embedder.Model = "nomic-embed-text"
	}
	if cfg.Embedder.BatchSize == 0 {
		cfg.Embedder.BatchSize = 32
	}
	if cfg.Chunking.Size == 0 {
		cfg.Chunking.Size = chunk.DefaultSize
	}
	if cfg.Chunking.Overlap == 0 {
		cfg.Chunking.Overlap = chunk.DefaultOverlap
	}
	if cfg.Classify.SimilarityThreshold == 0 {
		cfg.Classify.SimilarityThreshold = ingest.DefaultSimilarityThreshold
	}
	if cfg.Classify.DuplicateThreshold == 0 {
		cfg.Classify.DuplicateThreshold = ingest.DefaultDuplicateThreshold
	}
	if cfg.Qdrant.URL == "" {
		cfg.Qdrant.URL = "http://localhost:6334"
	}
	if cfg.Qdrant.Collection == "" {
		cfg.Qdrant.Collection = "knowledge_base"
	}
	if cfg.Qdrant.Dimension == 0 {
		cfg.Qdrant.Dimension = 768
	}
	if cfg.Blobs.Type == "" {
		cfg.Blobs.Type = "fs"
	}
	if cfg.Blobs.Type == "fs" && cfg.Blobs.Dir == "" {
		cfg.Blobs.Dir = "documents"
	}
	if cfg.Queue.Type == "" {
		cfg.Queue.Type = "memory"
	}
	if cfg.Queue.Type == "redis" && cfg.Queue.Addr == "" {
		cfg.Queue.Addr = "localhost:6379"
	}
}
