// Package document manages document ingestion: splitting, language
// detection, embedding, and storage lifecycle.
package document

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/temafey/rag-vector-doc-claude/internal/events"
	"github.com/temafey/rag-vector-doc-claude/internal/language"
	"github.com/temafey/rag-vector-doc-claude/internal/logging"
	"github.com/temafey/rag-vector-doc-claude/internal/splitter"
	"github.com/temafey/rag-vector-doc-claude/internal/vectorstore"
)

var tracer = otel.Tracer("ragd.document")

var (
	// ErrEmptyContent indicates a document with no content.
	ErrEmptyContent = errors.New("document content cannot be empty")

	// ErrNotFound indicates the document does not exist.
	ErrNotFound = errors.New("document not found")
)

// Metadata keys attached to every stored chunk.
const (
	metaDocumentID = "document_id"
	metaChunkIndex = "chunk_index"
	metaChunkCount = "chunk_count"
	metaLanguage   = "language"
	metaIndexedAt  = "indexed_at"
)

// Service coordinates document ingestion and lifecycle.
type Service struct {
	store     vectorstore.Store
	splitter  *splitter.Splitter
	detector  *language.Detector
	publisher events.Publisher
	logger    *logging.Logger

	defaultCollection string
}

// NewService creates a document service.
func NewService(
	store vectorstore.Store,
	split *splitter.Splitter,
	detector *language.Detector,
	publisher events.Publisher,
	logger *logging.Logger,
	defaultCollection string,
) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if split == nil {
		return nil, fmt.Errorf("splitter is required")
	}
	if detector == nil {
		detector = language.NewDetector(nil)
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if defaultCollection == "" {
		defaultCollection = "documents"
	}

	return &Service{
		store:             store,
		splitter:          split,
		detector:          detector,
		publisher:         publisher,
		logger:            logger,
		defaultCollection: defaultCollection,
	}, nil
}

// AddRequest describes a document to ingest.
type AddRequest struct {
	// ID identifies the document. Generated when empty.
	ID string
	// Content is the full document text.
	Content string
	// Collection overrides the default collection.
	Collection string
	// Language is an ISO 639-1 code. Detected when empty.
	Language string
	// Metadata is carried onto every chunk.
	Metadata map[string]interface{}
}

// AddResult reports the outcome of an ingestion.
type AddResult struct {
	DocumentID         string   `json:"document_id"`
	Collection         string   `json:"collection"`
	Language           string   `json:"language"`
	LanguageConfidence float64  `json:"language_confidence,omitempty"`
	ChunkIDs           []string `json:"chunk_ids"`
	ChunkCount         int      `json:"chunk_count"`
}

// Add splits a document into chunks, detects its language when not given,
// and stores the chunks with lineage metadata.
func (s *Service) Add(ctx context.Context, req AddRequest) (*AddResult, error) {
	ctx, span := tracer.Start(ctx, "document.Add")
	defer span.End()

	if req.Content == "" {
		return nil, ErrEmptyContent
	}

	docID := req.ID
	if docID == "" {
		docID = uuid.New().String()
	}
	collection := req.Collection
	if collection == "" {
		collection = s.defaultCollection
	}

	lang := req.Language
	var confidence float64
	if lang == "" {
		lang, confidence = s.detector.Detect(req.Content)
	}

	span.SetAttributes(
		attribute.String("document_id", docID),
		attribute.String("collection", collection),
		attribute.String("language", lang),
	)

	chunks := s.splitter.Split(req.Content)
	if len(chunks) == 0 {
		return nil, ErrEmptyContent
	}

	indexedAt := time.Now().UTC().Format(time.RFC3339)
	docs := make([]vectorstore.Document, len(chunks))
	for i, chunk := range chunks {
		metadata := make(map[string]interface{}, len(req.Metadata)+5)
		for k, v := range req.Metadata {
			metadata[k] = v
		}
		metadata[metaDocumentID] = docID
		metadata[metaChunkIndex] = i
		metadata[metaChunkCount] = len(chunks)
		metadata[metaLanguage] = lang
		metadata[metaIndexedAt] = indexedAt

		docs[i] = vectorstore.Document{
			ID:         fmt.Sprintf("%s_%d", docID, i),
			Content:    chunk,
			Metadata:   metadata,
			Collection: collection,
		}
	}

	chunkIDs, err := s.store.AddDocuments(ctx, docs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("storing document %s: %w", docID, err)
	}

	s.logger.Info(ctx, "document indexed",
		zap.String("document_id", docID),
		zap.String("collection", collection),
		zap.String("language", lang),
		zap.Int("chunks", len(chunkIDs)),
	)

	if err := s.publisher.Publish(ctx, events.SubjectDocumentIndexed, events.DocumentIndexed{
		DocumentID: docID,
		Collection: collection,
		Language:   lang,
		ChunkCount: len(chunkIDs),
		Timestamp:  time.Now().UTC(),
	}); err != nil {
		s.logger.Warn(ctx, "document indexed event not published", zap.Error(err))
	}

	span.SetStatus(codes.Ok, "success")
	return &AddResult{
		DocumentID:         docID,
		Collection:         collection,
		Language:           lang,
		LanguageConfidence: confidence,
		ChunkIDs:           chunkIDs,
		ChunkCount:         len(chunkIDs),
	}, nil
}

// GetChunk returns a single stored chunk by its chunk ID.
func (s *Service) GetChunk(ctx context.Context, collection, chunkID string) (*vectorstore.Document, error) {
	ctx, span := tracer.Start(ctx, "document.GetChunk")
	defer span.End()

	if collection == "" {
		collection = s.defaultCollection
	}

	doc, err := s.store.GetDocument(ctx, collection, chunkID)
	if err != nil {
		if errors.Is(err, vectorstore.ErrDocumentNotFound) {
			return nil, ErrNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("getting chunk %s: %w", chunkID, err)
	}
	return doc, nil
}

// Delete removes every chunk of a document.
func (s *Service) Delete(ctx context.Context, collection, documentID string) error {
	ctx, span := tracer.Start(ctx, "document.Delete")
	defer span.End()

	if collection == "" {
		collection = s.defaultCollection
	}
	if documentID == "" {
		return fmt.Errorf("document id required")
	}

	span.SetAttributes(
		attribute.String("document_id", documentID),
		attribute.String("collection", collection),
	)

	err := s.store.DeleteByMetadata(ctx, collection, map[string]interface{}{
		metaDocumentID: documentID,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("deleting document %s: %w", documentID, err)
	}

	s.logger.Info(ctx, "document deleted",
		zap.String("document_id", documentID),
		zap.String("collection", collection),
	)

	if err := s.publisher.Publish(ctx, events.SubjectDocumentDeleted, events.DocumentDeleted{
		DocumentID: documentID,
		Collection: collection,
		Timestamp:  time.Now().UTC(),
	}); err != nil {
		s.logger.Warn(ctx, "document deleted event not published", zap.Error(err))
	}

	span.SetStatus(codes.Ok, "success")
	return nil
}

// Reindex replaces a document's chunks with a fresh split of new content.
// The document keeps its ID.
func (s *Service) Reindex(ctx context.Context, req AddRequest) (*AddResult, error) {
	ctx, span := tracer.Start(ctx, "document.Reindex")
	defer span.End()

	if req.ID == "" {
		return nil, fmt.Errorf("document id required for reindex")
	}
	if req.Content == "" {
		return nil, ErrEmptyContent
	}

	if err := s.Delete(ctx, req.Collection, req.ID); err != nil {
		return nil, fmt.Errorf("removing old chunks: %w", err)
	}

	result, err := s.Add(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("reindexing document %s: %w", req.ID, err)
	}
	return result, nil
}

// CreateCollection creates a named collection with the given vector size.
func (s *Service) CreateCollection(ctx context.Context, name string, vectorSize int) error {
	return s.store.CreateCollection(ctx, name, vectorSize)
}

// DeleteCollection removes a collection and everything in it.
func (s *Service) DeleteCollection(ctx context.Context, name string) error {
	return s.store.DeleteCollection(ctx, name)
}

// ListCollections returns all collection names.
func (s *Service) ListCollections(ctx context.Context) ([]string, error) {
	return s.store.ListCollections(ctx)
}

// CollectionInfo returns point count and vector size for a collection.
func (s *Service) CollectionInfo(ctx context.Context, name string) (*vectorstore.CollectionInfo, error) {
	info, err := s.store.GetCollectionInfo(ctx, name)
	if err != nil {
		if errors.Is(err, vectorstore.ErrCollectionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("collection info for %s: %w", name, err)
	}
	return info, nil
}
