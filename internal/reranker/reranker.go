// Package reranker provides document re-ranking for improving search quality.
package reranker

import (
	"context"
	"errors"
)

// ErrNilContext is returned when a nil context is passed to Rerank.
var ErrNilContext = errors.New("context cannot be nil")

// Document is a search hit to be re-ranked.
type Document struct {
	ID       string
	Content  string
	Score    float32 // similarity score from vector search
	Metadata map[string]interface{}
}

// ScoredDocument is a document with re-ranking scores attached.
type ScoredDocument struct {
	Document
	RerankerScore float32 // score from the re-ranker (0.0-1.0)
	OriginalRank  int     // rank position in the input (0-indexed)
}

// Reranker re-orders search hits by query relevance.
type Reranker interface {
	// Rerank returns documents sorted by combined relevance, limited to
	// topK results. A topK <= 0 keeps all documents.
	Rerank(ctx context.Context, query string, docs []Document, topK int) ([]ScoredDocument, error)

	// Close releases any resources held by the reranker.
	Close() error
}
