package embeddings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTEITestServer(t *testing.T, vectors [][]float32) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embed", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req teiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Truncate)

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(vectors))
	}))
}

func TestTEIProvider_EmbedDocuments(t *testing.T) {
	want := [][]float32{{0.1, 0.2}, {0.3, 0.4}}
	srv := newTEITestServer(t, want)
	defer srv.Close()

	p, err := NewTEIProvider(ProviderConfig{BaseURL: srv.URL, Model: "BAAI/bge-small-en-v1.5"})
	require.NoError(t, err)
	defer p.Close()

	got, err := p.EmbedDocuments(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestTEIProvider_EmbedQuery(t *testing.T) {
	srv := newTEITestServer(t, [][]float32{{0.5, 0.6}})
	defer srv.Close()

	p, err := NewTEIProvider(ProviderConfig{BaseURL: srv.URL, Model: "BAAI/bge-small-en-v1.5"})
	require.NoError(t, err)

	got, err := p.EmbedQuery(context.Background(), "query text")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.6}, got)
}

func TestTEIProvider_EmptyInput(t *testing.T) {
	p, err := NewTEIProvider(ProviderConfig{BaseURL: "http://localhost:1", Model: "m"})
	require.NoError(t, err)

	_, err = p.EmbedDocuments(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = p.EmbedQuery(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestTEIProvider_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p, err := NewTEIProvider(ProviderConfig{BaseURL: srv.URL, Model: "m"})
	require.NoError(t, err)

	_, err = p.EmbedDocuments(context.Background(), []string{"text"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbeddingFailed)
	assert.Contains(t, err.Error(), "503")
}

func TestTEIProvider_EmptyQueryResponse(t *testing.T) {
	srv := newTEITestServer(t, [][]float32{})
	defer srv.Close()

	p, err := NewTEIProvider(ProviderConfig{BaseURL: srv.URL, Model: "m"})
	require.NoError(t, err)

	_, err = p.EmbedQuery(context.Background(), "query")
	assert.ErrorIs(t, err, ErrEmbeddingFailed)
}
