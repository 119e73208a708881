package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/brightpath-ai/tutorkit/internal/core/domain"
	"github.com/brightpath-ai/tutorkit/internal/core/ports/driven"
	"github.com/brightpath-ai/tutorkit/internal/core/ports/driving"
	"github.com/brightpath-ai/tutorkit/internal/logger"
)

// Ensure RetrieveService implements the interface.
var _ driving.Retriever = (*RetrieveService)(nil)

// DefaultTopK is the result count used when a query does not override it.
const DefaultTopK = 5

// RetrieveService answers similarity queries: it embeds the query text,
// searches the vector store, and hydrates the skeleton hits from the
// chunk store.
type RetrieveService struct {
	chunkStore       driven.ChunkStore
	vectorStore      driven.VectorStore
	embeddingService driven.EmbeddingService
	topK             int
}

// RetrieveOption configures the retrieve service.
type RetrieveOption func(*RetrieveService)

// WithTopK sets the default result count for queries that do not carry
// their own.
func WithTopK(k int) RetrieveOption {
	return func(s *RetrieveService) {
		if k > 0 {
			s.topK = k
		}
	}
}

// NewRetrieveService creates a new retrieve service.
func NewRetrieveService(
	chunkStore driven.ChunkStore,
	vectorStore driven.VectorStore,
	embeddingService driven.EmbeddingService,
	opts ...RetrieveOption,
) *RetrieveService {
	s := &RetrieveService{
		chunkStore:       chunkStore,
		vectorStore:      vectorStore,
		embeddingService: embeddingService,
		topK:             DefaultTopK,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Retrieve embeds the query text and searches the vector store.
// An empty result is a valid outcome (no grounded evidence), not an
// error.
func (s *RetrieveService) Retrieve(ctx context.Context, query domain.Query) ([]domain.RetrievalHit, error) {
	logger.Section("Retrieval")
	logger.Debug("Query: %q", query.Text)

	text := strings.TrimSpace(query.Text)
	if text == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.RetrievalHit{}, nil
	}

	k := query.TopK
	if k <= 0 {
		k = s.topK
	}
	logger.Debug("TopK: %d, Domain: %q, Sources: %v", k, query.Domain, query.SourceFilter)

	embedding, err := s.embeddingService.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	var vectorHits []driven.VectorHit
	if query.Domain != "" {
		vectorHits, err = s.vectorStore.SearchDomain(ctx, query.Domain, embedding, k, query.SourceFilter)
	} else {
		vectorHits, err = s.vectorStore.Search(ctx, embedding, k, query.SourceFilter)
	}
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	logger.Debug("Raw results: %d hits", len(vectorHits))

	return s.hydrateHits(ctx, vectorHits)
}

// RetrieveMulti issues one search per query, concatenates the hits,
// deduplicates by chunk ID keeping the highest score, and caps the
// merged list at limit (0 = no cap).
func (s *RetrieveService) RetrieveMulti(ctx context.Context, queries []domain.Query, limit int) ([]domain.RetrievalHit, error) {
	logger.Section("Multi-Query Retrieval")
	logger.Debug("Queries: %d, Limit: %d", len(queries), limit)

	best := make(map[string]domain.RetrievalHit)
	for _, query := range queries {
		hits, err := s.Retrieve(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("query %q: %w", query.Text, err)
		}
		for _, hit := range hits {
			if prev, ok := best[hit.Chunk.ID]; !ok || hit.Score > prev.Score {
				best[hit.Chunk.ID] = hit
			}
		}
	}

	merged := make([]domain.RetrievalHit, 0, len(best))
	for _, hit := range best {
		merged = append(merged, hit)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		// Equal scores order by chunk ID so merges are reproducible
		return merged[i].Chunk.ID < merged[j].Chunk.ID
	})

	if limit > 0 && limit < len(merged) {
		merged = merged[:limit]
	}
	logger.Debug("Merged results: %d hits", len(merged))
	return merged, nil
}

// hydrateHits resolves skeleton vector hits into full chunks and maps
// raw cosine scores onto [0,1]. A hit whose chunk no longer exists in
// the chunk store is dropped, not fatal: the vector index may lag a
// re-ingestion.
func (s *RetrieveService) hydrateHits(ctx context.Context, vectorHits []driven.VectorHit) ([]domain.RetrievalHit, error) {
	hits := make([]domain.RetrievalHit, 0, len(vectorHits))
	for _, vh := range vectorHits {
		chunk, err := s.chunkStore.GetChunk(ctx, vh.ChunkID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				logger.Warn("Chunk %s in index but not in store, skipping", vh.ChunkID)
				continue
			}
			return nil, fmt.Errorf("hydrating chunk %s: %w", vh.ChunkID, err)
		}
		hits = append(hits, domain.RetrievalHit{
			Chunk: *chunk,
			Score: domain.NormaliseScore(vh.Score),
		})
	}
	return hits, nil
}
