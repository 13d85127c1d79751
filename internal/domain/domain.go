package domain

import "context"

// Document represents a single source file loaded for indexing.
type Document struct {
	ID      string
	Path    string
	Content string
}

// Chunk is a piece of a document stored in the vector index.
type Chunk struct {
	DocumentID string
	ChunkID    string
	Source     string
	Text       string
	Index      int
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// VectorIndex is the boundary to the managed vector database.
type VectorIndex interface {
	Query(ctx context.Context, vector []float64, topK int) ([]SearchResult, error)
	Upsert(ctx context.Context, chunks []Chunk, vectors [][]float64) error
}
