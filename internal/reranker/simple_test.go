package reranker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleReranker_BoostsTermOverlap(t *testing.T) {
	r := NewSimpleReranker()
	defer r.Close()

	docs := []Document{
		{ID: "off-topic", Content: "Python decorators wrap functions", Score: 0.9},
		{ID: "on-topic", Content: "Concurrency in golang uses channels and goroutines", Score: 0.5},
	}

	results, err := r.Rerank(context.Background(), "golang concurrency channels", docs, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// on-topic: 0.5*0.5 + 0.5*1.0 = 0.75 beats off-topic: 0.5*0.9 = 0.45
	assert.Equal(t, "on-topic", results[0].ID)
	assert.InDelta(t, 1.0, float64(results[0].RerankerScore), 0.001)
	assert.Equal(t, 1, results[0].OriginalRank)
	assert.Equal(t, "off-topic", results[1].ID)
	assert.InDelta(t, 0.0, float64(results[1].RerankerScore), 0.001)
}

func TestSimpleReranker_Cyrillic(t *testing.T) {
	r := NewSimpleReranker()

	docs := []Document{
		{ID: "ru", Content: "векторная база данных хранит документы", Score: 0.4},
		{ID: "en", Content: "completely unrelated english text", Score: 0.6},
	}

	results, err := r.Rerank(context.Background(), "векторная база", docs, 2)
	require.NoError(t, err)
	assert.Equal(t, "ru", results[0].ID)
}

func TestSimpleReranker_TopKLimits(t *testing.T) {
	r := NewSimpleReranker()

	docs := []Document{
		{ID: "a", Content: "alpha content", Score: 0.1},
		{ID: "b", Content: "beta content", Score: 0.2},
		{ID: "c", Content: "gamma content", Score: 0.3},
	}

	results, err := r.Rerank(context.Background(), "content", docs, 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	// topK <= 0 keeps everything.
	results, err = r.Rerank(context.Background(), "content", docs, 0)
	require.NoError(t, err)
	assert.Len(t, results, 3)

	// topK larger than the input is capped.
	results, err = r.Rerank(context.Background(), "content", docs, 10)
	require.NoError(t, err)
	assert.Len(t, results, 3)
}

func TestSimpleReranker_EmptyQueryFallsBackToScore(t *testing.T) {
	r := NewSimpleReranker()

	docs := []Document{
		{ID: "low", Content: "first", Score: 0.2},
		{ID: "high", Content: "second", Score: 0.8},
	}

	// Query collapses to no tokens after stopword and length filtering.
	results, err := r.Rerank(context.Background(), "a of in", docs, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "high", results[0].ID)
	assert.Equal(t, "low", results[1].ID)
}

func TestSimpleReranker_EmptyDocs(t *testing.T) {
	r := NewSimpleReranker()

	results, err := r.Rerank(context.Background(), "query", nil, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSimpleReranker_NilContext(t *testing.T) {
	r := NewSimpleReranker()

	//nolint:staticcheck // passing nil on purpose
	_, err := r.Rerank(nil, "query", []Document{{ID: "a"}}, 1)
	assert.ErrorIs(t, err, ErrNilContext)
}

func TestSimpleReranker_PreservesMetadata(t *testing.T) {
	r := NewSimpleReranker()

	docs := []Document{
		{ID: "a", Content: "tagged document", Score: 0.5, Metadata: map[string]interface{}{"lang": "en"}},
	}

	results, err := r.Rerank(context.Background(), "tagged", docs, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "en", results[0].Metadata["lang"])
}
