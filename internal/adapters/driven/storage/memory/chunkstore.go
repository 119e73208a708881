// Package memory provides an in-memory chunk store. Nothing survives a
// restart; it suits tests and throwaway sessions where the SQLite store
// would be overkill.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/brightpath-ai/tutorkit/internal/core/domain"
	"github.com/brightpath-ai/tutorkit/internal/core/ports/driven"
)

// Ensure ChunkStore implements the interface.
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore is an in-memory implementation of driven.ChunkStore.
type ChunkStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	chunks    map[string]domain.Chunk
	order     []string
}

// NewChunkStore creates a new in-memory chunk store.
func NewChunkStore() *ChunkStore {
	return &ChunkStore{
		documents: make(map[string]domain.Document),
		chunks:    make(map[string]domain.Chunk),
	}
}

// SaveDocument stores or updates a document.
func (s *ChunkStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = *doc
	return nil
}

// SaveChunks stores or updates chunks, keyed by chunk ID.
func (s *ChunkStore) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, chunk := range chunks {
		if _, exists := s.chunks[chunk.ID]; !exists {
			s.order = append(s.order, chunk.ID)
		}
		s.chunks[chunk.ID] = chunk
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *ChunkStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// GetChunk retrieves a specific chunk by ID.
func (s *ChunkStore) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunk, ok := s.chunks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &chunk, nil
}

// GetChunks retrieves all chunks for a document, ordered by position.
func (s *ChunkStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var chunks []domain.Chunk
	for _, id := range s.order {
		if s.chunks[id].DocumentID == documentID {
			chunks = append(chunks, s.chunks[id])
		}
	}
	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].Position < chunks[j].Position
	})
	return chunks, nil
}

// ListDocuments returns all stored documents ordered by ID.
func (s *ChunkStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]domain.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// ScanChunks streams every stored chunk to fn in insertion order.
func (s *ChunkStore) ScanChunks(_ context.Context, fn func(domain.Chunk) error) error {
	s.mu.RLock()
	order := append([]string(nil), s.order...)
	s.mu.RUnlock()

	for _, id := range order {
		s.mu.RLock()
		chunk, ok := s.chunks[id]
		s.mu.RUnlock()
		if !ok {
			continue
		}
		if err := fn(chunk); err != nil {
			return err
		}
	}
	return nil
}

// CountChunks returns the number of stored chunks.
func (s *ChunkStore) CountChunks(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

// Close releases resources. A no-op for the in-memory store.
func (s *ChunkStore) Close() error {
	return nil
}
