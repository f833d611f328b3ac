package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temafey/rag-vector-doc-claude/internal/config"
)

func TestNewStore_Chromem(t *testing.T) {
	cfg := &config.Config{}
	cfg.VectorStore.Provider = "chromem"
	cfg.VectorStore.Chromem.Path = t.TempDir()
	cfg.VectorStore.Chromem.DefaultCollection = "documents"
	cfg.VectorStore.Chromem.VectorSize = 8

	store, err := NewStore(cfg, hashEmbedder{}, nil)
	require.NoError(t, err)
	defer store.Close()

	_, ok := store.(*ChromemStore)
	assert.True(t, ok)
}

func TestNewStore_UnknownProvider(t *testing.T) {
	cfg := &config.Config{}
	cfg.VectorStore.Provider = "pinecone"

	_, err := NewStore(cfg, hashEmbedder{}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "pinecone")
}

func TestNewStore_NilConfig(t *testing.T) {
	_, err := NewStore(nil, hashEmbedder{}, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
