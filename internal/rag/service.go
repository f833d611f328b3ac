// Package rag implements the retrieval-augmented generation pipeline:
// detect query language, retrieve and re-rank context, translate chunks
// to the target language, and generate a grounded answer.
package rag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/temafey/rag-vector-doc-claude/internal/events"
	"github.com/temafey/rag-vector-doc-claude/internal/language"
	"github.com/temafey/rag-vector-doc-claude/internal/logging"
	"github.com/temafey/rag-vector-doc-claude/internal/reranker"
	"github.com/temafey/rag-vector-doc-claude/internal/vectorstore"
)

var tracer = otel.Tracer("ragd.rag")

// ErrEmptyQuery indicates a query with no text.
var ErrEmptyQuery = errors.New("query cannot be empty")

// Service runs the query pipeline end to end.
type Service struct {
	store      vectorstore.Store
	detector   *language.Detector
	translator *language.Translator
	rerank     reranker.Reranker
	generator  Generator
	publisher  events.Publisher
	logger     *logging.Logger
	metrics    *Metrics

	defaultCollection string
	topK              int
	translationOn     bool
}

// Options configures optional service collaborators.
type Options struct {
	// Translator enables cross-language context. Nil disables translation.
	Translator *language.Translator
	// Reranker re-orders search hits. Nil keeps vector-store order.
	Reranker reranker.Reranker
	// Publisher emits query events. Nil disables eventing.
	Publisher events.Publisher
	// Metrics instruments the pipeline. Nil disables metrics.
	Metrics *Metrics
	// Logger defaults to a nop logger.
	Logger *logging.Logger
	// DefaultCollection defaults to "documents".
	DefaultCollection string
	// TopK is the default number of sources per answer. Defaults to 5.
	TopK int
}

// NewService creates the RAG query service.
func NewService(store vectorstore.Store, detector *language.Detector, generator Generator, opts Options) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if detector == nil {
		detector = language.NewDetector(nil)
	}

	publisher := opts.Publisher
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	collection := opts.DefaultCollection
	if collection == "" {
		collection = "documents"
	}
	topK := opts.TopK
	if topK <= 0 {
		topK = 5
	}

	return &Service{
		store:             store,
		detector:          detector,
		translator:        opts.Translator,
		rerank:            opts.Reranker,
		generator:         generator,
		publisher:         publisher,
		logger:            logger,
		metrics:           opts.Metrics,
		defaultCollection: collection,
		topK:              topK,
		translationOn:     opts.Translator != nil,
	}, nil
}

// QueryRequest describes a RAG query.
type QueryRequest struct {
	// Query is the user question.
	Query string
	// Collection overrides the default collection.
	Collection string
	// TargetLanguage forces the answer language. Defaults to the
	// detected query language.
	TargetLanguage string
	// TopK overrides the default source count.
	TopK int
	// Filters restricts retrieval to documents matching all conditions.
	Filters map[string]interface{}
}

// Source is one retrieved context chunk backing an answer.
type Source struct {
	ID       string                 `json:"id"`
	Content  string                 `json:"content"`
	Score    float32                `json:"score"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// QueryResult is a generated answer with its supporting sources.
type QueryResult struct {
	Response         string   `json:"response"`
	Sources          []Source `json:"sources"`
	QueryLanguage    string   `json:"query_language"`
	ResponseLanguage string   `json:"response_language"`
}

// Query answers a question from indexed documents.
func (s *Service) Query(ctx context.Context, req QueryRequest) (*QueryResult, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "rag.Query")
	defer span.End()

	var queryLang string
	var resultErr error
	var sourceCount, translated int
	defer func() {
		s.metrics.RecordQuery(queryLang, resultErr, time.Since(start), sourceCount, translated)
	}()

	if req.Query == "" {
		resultErr = ErrEmptyQuery
		return nil, resultErr
	}

	collection := req.Collection
	if collection == "" {
		collection = s.defaultCollection
	}
	topK := req.TopK
	if topK <= 0 {
		topK = s.topK
	}

	detectStart := time.Now()
	lang, confidence := s.detector.Detect(req.Query)
	queryLang = lang
	s.metrics.RecordStage("detect", time.Since(detectStart))

	targetLang := req.TargetLanguage
	if targetLang == "" {
		targetLang = lang
	}

	span.SetAttributes(
		attribute.String("collection", collection),
		attribute.String("query_language", lang),
		attribute.String("target_language", targetLang),
		attribute.Int("top_k", topK),
	)

	s.logger.Debug(ctx, "query language detected",
		zap.String("language", lang),
		zap.Float64("confidence", confidence),
	)

	hits, err := s.retrieve(ctx, collection, req.Query, topK, req.Filters)
	if err != nil {
		resultErr = err
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	contextChunks := make([]string, 0, len(hits))
	sources := make([]Source, 0, len(hits))
	for _, hit := range hits {
		chunk := hit.Content

		chunkLang, _ := hit.Metadata[metaLanguage].(string)
		if s.translationOn && chunkLang != "" && chunkLang != targetLang {
			translatedChunk, err := s.translator.Translate(ctx, chunk, chunkLang, targetLang)
			if err != nil {
				s.logger.Warn(ctx, "context translation failed, using original",
					zap.String("chunk_id", hit.ID),
					zap.String("from", chunkLang),
					zap.String("to", targetLang),
					zap.Error(err),
				)
			} else {
				chunk = translatedChunk
				translated++
			}
		}

		contextChunks = append(contextChunks, chunk)
		sources = append(sources, Source{
			ID:       hit.ID,
			Content:  hit.Content,
			Score:    hit.Score,
			Metadata: hit.Metadata,
		})
	}
	sourceCount = len(sources)

	genStart := time.Now()
	response, err := s.generator.Generate(ctx, req.Query, contextChunks, targetLang)
	s.metrics.RecordStage("generate", time.Since(genStart))
	if err != nil {
		resultErr = err
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.logger.Info(ctx, "query answered",
		zap.String("language", lang),
		zap.String("target_language", targetLang),
		zap.Int("sources", len(sources)),
		zap.Int("translated", translated),
		zap.Duration("duration", time.Since(start)),
	)

	if err := s.publisher.Publish(ctx, events.SubjectQueryAnswered, events.QueryAnswered{
		Query:       req.Query,
		Language:    lang,
		SourceCount: len(sources),
		Timestamp:   time.Now().UTC(),
	}); err != nil {
		s.logger.Warn(ctx, "query answered event not published", zap.Error(err))
	}

	span.SetStatus(codes.Ok, "success")
	return &QueryResult{
		Response:         response,
		Sources:          sources,
		QueryLanguage:    lang,
		ResponseLanguage: targetLang,
	}, nil
}

// Search retrieves the top matching chunks without generating an answer.
func (s *Service) Search(ctx context.Context, req QueryRequest) ([]Source, error) {
	ctx, span := tracer.Start(ctx, "rag.Search")
	defer span.End()

	if req.Query == "" {
		return nil, ErrEmptyQuery
	}

	collection := req.Collection
	if collection == "" {
		collection = s.defaultCollection
	}
	topK := req.TopK
	if topK <= 0 {
		topK = s.topK
	}

	span.SetAttributes(
		attribute.String("collection", collection),
		attribute.Int("top_k", topK),
	)

	hits, err := s.retrieve(ctx, collection, req.Query, topK, req.Filters)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	sources := make([]Source, len(hits))
	for i, hit := range hits {
		sources[i] = Source{
			ID:       hit.ID,
			Content:  hit.Content,
			Score:    hit.Score,
			Metadata: hit.Metadata,
		}
	}

	span.SetStatus(codes.Ok, "success")
	return sources, nil
}

// metaLanguage mirrors the chunk metadata key written at ingestion.
const metaLanguage = "language"

// retrieve searches the store and optionally re-ranks the hits.
func (s *Service) retrieve(ctx context.Context, collection, query string, topK int, filters map[string]interface{}) ([]reranker.ScoredDocument, error) {
	searchStart := time.Now()

	// Over-fetch so the re-ranker has candidates to discard.
	fetchK := topK
	if s.rerank != nil {
		fetchK = topK * 3
	}

	results, err := s.store.SearchInCollection(ctx, collection, query, fetchK, filters)
	s.metrics.RecordStage("search", time.Since(searchStart))
	if err != nil {
		return nil, fmt.Errorf("searching collection %s: %w", collection, err)
	}

	docs := make([]reranker.Document, len(results))
	for i, r := range results {
		docs[i] = reranker.Document{
			ID:       r.ID,
			Content:  r.Content,
			Score:    r.Score,
			Metadata: r.Metadata,
		}
	}

	if s.rerank == nil {
		scored := make([]reranker.ScoredDocument, len(docs))
		for i, d := range docs {
			scored[i] = reranker.ScoredDocument{Document: d, RerankerScore: d.Score, OriginalRank: i}
		}
		if len(scored) > topK {
			scored = scored[:topK]
		}
		return scored, nil
	}

	rerankStart := time.Now()
	scored, err := s.rerank.Rerank(ctx, query, docs, topK)
	s.metrics.RecordStage("rerank", time.Since(rerankStart))
	if err != nil {
		return nil, fmt.Errorf("reranking: %w", err)
	}
	return scored, nil
}

// SimilarRequest asks for documents similar to a reference text.
type SimilarRequest struct {
	// ReferenceText is the text to match against.
	ReferenceText string
	// Collection overrides the default collection.
	Collection string
	// Limit caps the number of returned documents. Defaults to 5.
	Limit int
	// ExcludeIDs drops specific parent documents from the results.
	ExcludeIDs []string
}

// Similar finds documents similar to a reference text without generating
// an answer. Results are deduplicated by parent document.
func (s *Service) Similar(ctx context.Context, req SimilarRequest) ([]Source, error) {
	ctx, span := tracer.Start(ctx, "rag.Similar")
	defer span.End()

	if req.ReferenceText == "" {
		return nil, ErrEmptyQuery
	}

	collection := req.Collection
	if collection == "" {
		collection = s.defaultCollection
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 5
	}

	span.SetAttributes(
		attribute.String("collection", collection),
		attribute.Int("limit", limit),
	)

	// Over-fetch to survive dedup and exclusion.
	results, err := s.store.SearchInCollection(ctx, collection, req.ReferenceText, limit*3, nil)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("searching collection %s: %w", collection, err)
	}

	excluded := make(map[string]bool, len(req.ExcludeIDs))
	for _, id := range req.ExcludeIDs {
		excluded[id] = true
	}

	seen := make(map[string]bool)
	sources := make([]Source, 0, limit)
	for _, r := range results {
		docID, _ := r.Metadata["document_id"].(string)
		if docID != "" {
			if excluded[docID] || seen[docID] {
				continue
			}
			seen[docID] = true
		}

		sources = append(sources, Source{
			ID:       r.ID,
			Content:  r.Content,
			Score:    r.Score,
			Metadata: r.Metadata,
		})
		if len(sources) >= limit {
			break
		}
	}

	span.SetStatus(codes.Ok, "success")
	return sources, nil
}
