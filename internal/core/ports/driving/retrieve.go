package driving

import (
	"context"

	"github.com/brightpath-ai/tutorkit/internal/core/domain"
)

// Retriever answers similarity queries against the indexed corpus.
type Retriever interface {
	// Retrieve embeds the query text and searches the vector store.
	// An empty result is a valid outcome (no grounded evidence), not
	// an error.
	Retrieve(ctx context.Context, query domain.Query) ([]domain.RetrievalHit, error)

	// RetrieveMulti issues one search per query, concatenates the hits,
	// deduplicates by chunk ID keeping the highest score, and caps the
	// merged list at limit (0 = no cap).
	RetrieveMulti(ctx context.Context, queries []domain.Query, limit int) ([]domain.RetrievalHit, error)
}
