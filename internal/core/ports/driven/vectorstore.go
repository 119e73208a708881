package driven

import (
	"context"

	"github.com/brightpath-ai/tutorkit/internal/core/domain"
)

// VectorStore is a durable index of chunk ID to embedding, with
// filtered nearest-neighbour search. The store indexes identifiers and
// vectors only; hit hydration (text, metadata) happens against the
// ChunkStore.
//
// Implementations must honour two invariants:
//
//   - Add is an upsert keyed by chunk ID: re-adding a chunk replaces
//     the prior entry, it never duplicates it.
//   - When a source filter is supplied, Search restricts the candidate
//     set BEFORE computing similarity scores, so the cost of a filtered
//     search is proportional to the filtered subset, not the corpus.
//     An empty filtered subset yields an empty result, not an error.
type VectorStore interface {
	// Add inserts or overwrites embeddings by chunk ID.
	// Every chunk must carry a non-nil embedding; chunks without one
	// are rejected with domain.ErrMissingEmbedding.
	Add(ctx context.Context, chunks []domain.Chunk) error

	// Search returns up to k hits ordered descending by score.
	// Equal scores tie-break by insertion order. The source filter
	// matches the basename of each chunk's source path; nil means the
	// full corpus. Domain-routed backends search all partitions and
	// merge by score.
	Search(ctx context.Context, embedding []float32, k int, sourceFilter []string) ([]VectorHit, error)

	// SearchDomain behaves like Search but restricts to a single
	// domain partition. An unknown domain means no indexed content for
	// it: the result is empty, not an error. Backends without
	// partitions ignore the domain.
	SearchDomain(ctx context.Context, dom string, embedding []float32, k int, sourceFilter []string) ([]VectorHit, error)

	// Count returns the number of indexed chunks.
	Count(ctx context.Context) (int, error)

	// Persist durably flushes any buffered state. A no-op is valid for
	// backends with synchronous writes.
	Persist(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result before hydration.
type VectorHit struct {
	// ChunkID is the matched chunk.
	ChunkID string

	// Score is the cosine similarity in [-1,1]. The retriever maps it
	// onto [0,1] at the consumer boundary.
	Score float64
}
