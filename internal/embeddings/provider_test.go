package embeddings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectDimensionFromModel(t *testing.T) {
	tests := []struct {
		model string
		want  int
	}{
		{"text-embedding-3-small", 1536},
		{"text-embedding-3-large", 3072},
		{"text-embedding-ada-002", 1536},
		{"BAAI/bge-small-en-v1.5", 384},
		{"intfloat/multilingual-e5-base", 768},
		{"intfloat/multilingual-e5-large", 1024},
		{"custom-base-model", 768},
		{"custom-large-model", 1024},
		{"custom-small-model", 384},
		{"totally-unknown", 1536},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, detectDimensionFromModel(tt.model))
		})
	}
}

func TestNewProvider_Unknown(t *testing.T) {
	_, err := NewProvider(ProviderConfig{Provider: "bedrock", Model: "m"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewProvider_OpenAI(t *testing.T) {
	p, err := NewProvider(ProviderConfig{
		Provider: "openai",
		Model:    "text-embedding-3-small",
		APIKey:   "test-key",
	})
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, 1536, p.Dimension())
}

func TestNewProvider_OpenAI_MissingModel(t *testing.T) {
	_, err := NewProvider(ProviderConfig{Provider: "openai"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewProvider_TEI_MissingBaseURL(t *testing.T) {
	_, err := NewProvider(ProviderConfig{Provider: "tei", Model: "BAAI/bge-small-en-v1.5"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
