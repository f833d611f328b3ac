package vectorstore

// Document represents a document chunk to be stored in the vector store.
type Document struct {
	// ID is the unique identifier for the chunk.
	ID string

	// Content is the text content of the chunk.
	Content string

	// Metadata contains additional key-value pairs for filtering.
	// Common fields: document_id, language, source, chunk_index.
	Metadata map[string]interface{}

	// Collection is the target collection name for this document.
	// If empty, the store's default collection is used.
	Collection string
}

// SearchResult represents a similarity search hit.
type SearchResult struct {
	// ID is the chunk identifier.
	ID string

	// Content is the chunk text content.
	Content string

	// Score is the similarity score (higher = more similar).
	Score float32

	// Metadata contains the chunk metadata.
	Metadata map[string]interface{}
}

// CollectionInfo contains metadata about a vector collection.
type CollectionInfo struct {
	// Name is the collection name.
	Name string `json:"name"`

	// PointCount is the number of vectors in the collection.
	PointCount int `json:"point_count"`

	// VectorSize is the dimensionality of vectors in this collection.
	VectorSize int `json:"vector_size"`
}
