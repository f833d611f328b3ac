package vectorstore

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/temafey/rag-vector-doc-claude/internal/config"
)

// Provider names accepted by NewStore.
const (
	ProviderQdrant  = "qdrant"
	ProviderChromem = "chromem"
)

// NewStore creates a Store based on the configured provider.
//
// The embedder is shared across providers: both qdrant and chromem
// stores delegate text embedding to it rather than embedding natively.
func NewStore(cfg *config.Config, embedder Embedder, logger *zap.Logger) (Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.VectorStore.Provider {
	case ProviderQdrant:
		qdrantCfg := QdrantConfig{
			Host:           cfg.VectorStore.Qdrant.Host,
			Port:           cfg.VectorStore.Qdrant.Port,
			CollectionName: cfg.VectorStore.Qdrant.CollectionName,
			VectorSize:     uint64(cfg.VectorStore.Qdrant.VectorSize),
			UseTLS:         cfg.VectorStore.Qdrant.UseTLS,
		}
		store, err := NewQdrantStore(qdrantCfg, embedder)
		if err != nil {
			return nil, fmt.Errorf("creating qdrant store: %w", err)
		}
		return store, nil

	case ProviderChromem:
		chromemCfg := ChromemConfig{
			Path:              cfg.VectorStore.Chromem.Path,
			Compress:          cfg.VectorStore.Chromem.Compress,
			DefaultCollection: cfg.VectorStore.Chromem.DefaultCollection,
			VectorSize:        cfg.VectorStore.Chromem.VectorSize,
		}
		store, err := NewChromemStore(chromemCfg, embedder, logger)
		if err != nil {
			return nil, fmt.Errorf("creating chromem store: %w", err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("%w: unknown vector store provider %q", ErrInvalidConfig, cfg.VectorStore.Provider)
	}
}
