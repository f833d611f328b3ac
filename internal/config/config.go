// Package config provides configuration loading for the RAG service.
//
// Configuration is loaded from a YAML file, then overridden by environment
// variables. Defaults are applied for anything left unset, and the final
// configuration is validated before use.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the complete service configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Logging     LoggingConfig     `koanf:"logging"`
	Telemetry   TelemetryConfig   `koanf:"telemetry"`
	VectorStore VectorStoreConfig `koanf:"vectorstore"`
	Embeddings  EmbeddingsConfig  `koanf:"embeddings"`
	LLM         LLMConfig         `koanf:"llm"`
	NATS        NATSConfig        `koanf:"nats"`
	RAG         RAGConfig         `koanf:"rag"`
	Quality     QualityConfig     `koanf:"quality"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds structured logging configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // json, console
	Caller bool   `koanf:"caller"`
}

// TelemetryConfig holds OpenTelemetry configuration.
type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	ServiceName string `koanf:"service_name"`
	Endpoint    string `koanf:"endpoint"` // OTLP HTTP endpoint
}

// VectorStoreConfig selects and configures the vector store backend.
type VectorStoreConfig struct {
	// Provider is the store backend: "qdrant" or "chromem".
	Provider string        `koanf:"provider"`
	Qdrant   QdrantConfig  `koanf:"qdrant"`
	Chromem  ChromemConfig `koanf:"chromem"`
}

// QdrantConfig holds Qdrant gRPC client configuration.
type QdrantConfig struct {
	Host           string `koanf:"host"`
	Port           int    `koanf:"port"` // gRPC port (6334), not HTTP (6333)
	UseTLS         bool   `koanf:"use_tls"`
	CollectionName string `koanf:"collection_name"`
	VectorSize     int    `koanf:"vector_size"`
}

// ChromemConfig holds embedded chromem-go store configuration.
type ChromemConfig struct {
	Path              string `koanf:"path"`
	Compress          bool   `koanf:"compress"`
	DefaultCollection string `koanf:"default_collection"`
	VectorSize        int    `koanf:"vector_size"`
}

// EmbeddingsConfig holds embedding generation configuration.
type EmbeddingsConfig struct {
	BaseURL string `koanf:"base_url"`
	Model   string `koanf:"model"`
	APIKey  Secret `koanf:"api_key"`

	// Models optionally routes languages to dedicated embedding models,
	// e.g. {"ru": "intfloat/multilingual-e5-base"}. Unlisted languages
	// use Model.
	Models map[string]string `koanf:"models"`
}

// LLMConfig holds configuration for the generation/judge LLM.
type LLMConfig struct {
	// Provider is "openai" (any OpenAI-compatible endpoint) or "anthropic".
	Provider string        `koanf:"provider"`
	Model    string        `koanf:"model"`
	BaseURL  string        `koanf:"base_url"`
	APIKey   Secret        `koanf:"api_key"`
	Timeout  time.Duration `koanf:"timeout"`
}

// NATSConfig holds event bus configuration.
type NATSConfig struct {
	Enabled bool   `koanf:"enabled"`
	URL     string `koanf:"url"`
}

// RAGConfig holds retrieval pipeline configuration.
type RAGConfig struct {
	TopK            int      `koanf:"top_k"`
	ChunkSize       int      `koanf:"chunk_size"`
	ChunkOverlap    int      `koanf:"chunk_overlap"`
	DefaultLanguage string   `koanf:"default_language"`
	Languages       []string `koanf:"languages"`
}

// QualityConfig holds response quality thresholds for the self-assessment loop.
//
// Thresholds and Weights are keyed by criterion name (relevance,
// factual_accuracy, completeness, logical_coherence, ethical_compliance).
// Weights need not sum to 1.0 here; they are normalized before use.
type QualityConfig struct {
	Thresholds       map[string]float64 `koanf:"thresholds"`
	Weights          map[string]float64 `koanf:"weights"`
	OverallThreshold float64            `koanf:"overall_threshold"`
	MaxIterations    int                `koanf:"max_iterations"`
	ImproveEnabled   bool               `koanf:"improve_enabled"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	switch c.VectorStore.Provider {
	case "qdrant", "chromem":
	default:
		return fmt.Errorf("unknown vectorstore provider: %q", c.VectorStore.Provider)
	}

	if c.Telemetry.Enabled && c.Telemetry.ServiceName == "" {
		return errors.New("service name required when telemetry is enabled")
	}

	if c.RAG.TopK <= 0 {
		return fmt.Errorf("rag.top_k must be positive, got %d", c.RAG.TopK)
	}
	if c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("rag.chunk_overlap (%d) must be smaller than rag.chunk_size (%d)",
			c.RAG.ChunkOverlap, c.RAG.ChunkSize)
	}

	return c.Quality.Validate()
}

// Validate checks quality thresholds and weights are in range.
func (q QualityConfig) Validate() error {
	if q.OverallThreshold < 0 || q.OverallThreshold > 1 {
		return fmt.Errorf("quality.overall_threshold must be in [0,1], got %v", q.OverallThreshold)
	}
	if q.MaxIterations < 0 {
		return fmt.Errorf("quality.max_iterations cannot be negative, got %d", q.MaxIterations)
	}
	for name, t := range q.Thresholds {
		if t < 0 || t > 1 {
			return fmt.Errorf("quality threshold %q must be in [0,1], got %v", name, t)
		}
	}
	for name, w := range q.Weights {
		if w < 0 {
			return fmt.Errorf("quality weight %q cannot be negative, got %v", name, w)
		}
	}
	return nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config, set qualitySet) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "ragd"
	}

	if cfg.VectorStore.Provider == "" {
		cfg.VectorStore.Provider = "chromem"
	}
	if cfg.VectorStore.Qdrant.Host == "" {
		cfg.VectorStore.Qdrant.Host = "localhost"
	}
	if cfg.VectorStore.Qdrant.Port == 0 {
		cfg.VectorStore.Qdrant.Port = 6334
	}
	if cfg.VectorStore.Qdrant.CollectionName == "" {
		cfg.VectorStore.Qdrant.CollectionName = "documents"
	}
	if cfg.VectorStore.Qdrant.VectorSize == 0 {
		cfg.VectorStore.Qdrant.VectorSize = 1536 // text-embedding-3-small dimensions
	}
	if cfg.VectorStore.Chromem.Path == "" {
		cfg.VectorStore.Chromem.Path = "~/.local/share/ragd/vectorstore"
	}
	if cfg.VectorStore.Chromem.DefaultCollection == "" {
		cfg.VectorStore.Chromem.DefaultCollection = "documents"
	}
	if cfg.VectorStore.Chromem.VectorSize == 0 {
		cfg.VectorStore.Chromem.VectorSize = 1536
	}

	if cfg.Embeddings.BaseURL == "" {
		cfg.Embeddings.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Embeddings.Model == "" {
		cfg.Embeddings.Model = "text-embedding-3-small"
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 60 * time.Second
	}

	if cfg.NATS.URL == "" {
		cfg.NATS.URL = "nats://localhost:4222"
	}

	if cfg.RAG.TopK == 0 {
		cfg.RAG.TopK = 5
	}
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = 1000
	}
	if cfg.RAG.ChunkOverlap == 0 {
		cfg.RAG.ChunkOverlap = 200
	}
	if cfg.RAG.DefaultLanguage == "" {
		cfg.RAG.DefaultLanguage = "en"
	}
	if len(cfg.RAG.Languages) == 0 {
		cfg.RAG.Languages = []string{"en", "ru", "de", "fr", "es"}
	}

	applyQualityDefaults(&cfg.Quality, set)
}

// qualitySet records which quality scalars the file or environment set
// explicitly. Zero is a meaningful value for these fields (max_iterations: 0
// runs evaluation without improvement), so defaults apply only when the key
// is absent.
type qualitySet struct {
	OverallThreshold bool
	MaxIterations    bool
	ImproveEnabled   bool
}

// applyQualityDefaults fills in the default thresholds and weights used by the
// self-assessment loop when the config does not override them.
func applyQualityDefaults(q *QualityConfig, set qualitySet) {
	if q.Thresholds == nil {
		q.Thresholds = map[string]float64{
			"relevance":          0.7,
			"factual_accuracy":   0.8,
			"completeness":       0.7,
			"logical_coherence":  0.7,
			"ethical_compliance": 0.9,
		}
	}
	if q.Weights == nil {
		q.Weights = map[string]float64{
			"relevance":          0.25,
			"factual_accuracy":   0.3,
			"completeness":       0.2,
			"logical_coherence":  0.15,
			"ethical_compliance": 0.1,
		}
	}
	if !set.OverallThreshold {
		q.OverallThreshold = 0.75
	}
	if !set.MaxIterations {
		q.MaxIterations = 2
	}
	if !set.ImproveEnabled {
		q.ImproveEnabled = true
	}
}
