package main

import (
	"context"
	"reflect"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/temafey/rag-vector-doc-claude/internal/config"
	"github.com/temafey/rag-vector-doc-claude/internal/embeddings"
	"github.com/temafey/rag-vector-doc-claude/internal/vectorstore"
)

type recordingStore struct {
	vectorstore.Store
	closed *[]string
}

func (s *recordingStore) Close() error {
	*s.closed = append(*s.closed, "store")
	return nil
}

type recordingPublisher struct {
	closed *[]string
}

func (p *recordingPublisher) Publish(context.Context, string, interface{}) error { return nil }

func (p *recordingPublisher) Close() error {
	*p.closed = append(*p.closed, "publisher")
	return nil
}

func TestDependencies_Close(t *testing.T) {
	embedder, err := embeddings.NewRouter(
		config.EmbeddingsConfig{Model: "text-embedding-3-small"},
		embeddings.NewMetrics(prometheus.NewRegistry()),
	)
	if err != nil {
		t.Fatalf("NewRouter() error = %v, want nil", err)
	}

	var closed []string
	deps := &dependencies{
		publisher: &recordingPublisher{closed: &closed},
		store:     &recordingStore{closed: &closed},
		embedder:  embedder,
	}
	deps.Close()

	// Store before publisher: reverse of initialization order.
	want := []string{"store", "publisher"}
	if !reflect.DeepEqual(closed, want) {
		t.Errorf("Close() order = %v, want %v", closed, want)
	}
}
