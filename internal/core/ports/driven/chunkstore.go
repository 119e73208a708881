package driven

import (
	"context"

	"github.com/brightpath-ai/tutorkit/internal/core/domain"
)

// ChunkStore persists documents and chunk records.
// Backed by SQLite for metadata storage.
//
// SaveChunks is an upsert keyed by chunk ID, which is what makes
// re-ingestion of a file update records in place. The store keeps the
// chunk embeddings alongside the text so a lost vector index can be
// rebuilt entirely from it.
type ChunkStore interface {
	// SaveDocument stores or updates a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// SaveChunks stores or updates chunks in a single transaction.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetChunk retrieves a specific chunk by ID.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// GetChunks retrieves all chunks for a document, ordered by position.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// ListDocuments returns all stored documents.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// ScanChunks streams every stored chunk to fn in insertion order.
	// Used by the vector index rebuild path. Iteration stops on the
	// first error returned by fn.
	ScanChunks(ctx context.Context, fn func(domain.Chunk) error) error

	// CountChunks returns the number of stored chunks.
	CountChunks(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}
