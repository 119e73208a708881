package cli

import (
	"context"

	"github.com/brightpath-ai/tutorkit/internal/core/domain"
	"github.com/brightpath-ai/tutorkit/internal/core/ports/driven"
	"github.com/brightpath-ai/tutorkit/internal/core/ports/driving"
)

// stubIngestor records its calls and returns a canned result.
type stubIngestor struct {
	lastPaths []string
	lastOpts  driving.IngestOptions
	rebuilt   bool
	result    driving.IngestionResult
}

func (s *stubIngestor) Ingest(_ context.Context, paths []string, opts driving.IngestOptions) (*driving.IngestionResult, error) {
	s.lastPaths = paths
	s.lastOpts = opts
	result := s.result
	return &result, nil
}

func (s *stubIngestor) Rebuild(context.Context) (int, error) {
	s.rebuilt = true
	return 42, nil
}

// stubRetriever returns canned hits and records the queries it saw.
type stubRetriever struct {
	hits        []domain.RetrievalHit
	lastQuery   domain.Query
	lastQueries []domain.Query
	lastLimit   int
}

func (s *stubRetriever) Retrieve(_ context.Context, query domain.Query) ([]domain.RetrievalHit, error) {
	s.lastQuery = query
	return s.hits, nil
}

func (s *stubRetriever) RetrieveMulti(_ context.Context, queries []domain.Query, limit int) ([]domain.RetrievalHit, error) {
	s.lastQueries = queries
	s.lastLimit = limit
	return s.hits, nil
}

// stubChunkStore serves a fixed library listing.
type stubChunkStore struct {
	docs       []domain.Document
	chunkCount int
}

func (s *stubChunkStore) SaveDocument(context.Context, *domain.Document) error { return nil }
func (s *stubChunkStore) SaveChunks(context.Context, []domain.Chunk) error     { return nil }

func (s *stubChunkStore) GetDocument(context.Context, string) (*domain.Document, error) {
	return nil, domain.ErrNotFound
}

func (s *stubChunkStore) GetChunk(context.Context, string) (*domain.Chunk, error) {
	return nil, domain.ErrNotFound
}

func (s *stubChunkStore) GetChunks(context.Context, string) ([]domain.Chunk, error) {
	return nil, nil
}

func (s *stubChunkStore) ListDocuments(context.Context) ([]domain.Document, error) {
	return s.docs, nil
}

func (s *stubChunkStore) ScanChunks(context.Context, func(domain.Chunk) error) error { return nil }
func (s *stubChunkStore) CountChunks(context.Context) (int, error)                   { return s.chunkCount, nil }
func (s *stubChunkStore) Close() error                                               { return nil }

var _ driven.ChunkStore = (*stubChunkStore)(nil)

func sampleHits() []domain.RetrievalHit {
	return []domain.RetrievalHit{
		{
			Chunk: domain.Chunk{
				ID:         "hit-1",
				DocumentID: "lecture9",
				Content:    "The Krebs cycle oxidises acetyl-CoA.",
				Metadata: domain.ChunkMetadata{
					SourcePath:    "/notes/lecture9.txt",
					Title:         "Lecture 9",
					Page:          "3",
					PrimaryDomain: "biology",
				},
			},
			Score: 0.91,
		},
	}
}

// setupTestServices installs stub services and returns a cleanup that
// restores the previous ones.
func setupTestServices() func() {
	oldIngestor := ingestor
	oldRetriever := retriever
	oldChunkStore := chunkStore

	ingestor = &stubIngestor{result: driving.IngestionResult{Documents: 1, Chunks: 3}}
	retriever = &stubRetriever{hits: sampleHits()}
	chunkStore = &stubChunkStore{
		docs: []domain.Document{
			{ID: "lecture9", Title: "Lecture 9", Domain: "biology", SourcePath: "/notes/lecture9.txt"},
		},
		chunkCount: 3,
	}

	return func() {
		ingestor = oldIngestor
		retriever = oldRetriever
		chunkStore = oldChunkStore
	}
}
