package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/brightpath-ai/tutorkit/internal/core/domain"
	"github.com/brightpath-ai/tutorkit/internal/core/ports/driven"
	"github.com/brightpath-ai/tutorkit/internal/core/ports/driving"
	"github.com/brightpath-ai/tutorkit/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// Default ingestion settings.
const (
	// DefaultConcurrency is the number of files processed in parallel.
	DefaultConcurrency = 4

	// DefaultFileTimeout bounds the time spent on a single file. A file
	// that exceeds it is skipped, never the batch.
	DefaultFileTimeout = 5 * time.Minute

	// rebuildBatchSize is the number of chunks re-indexed per vector
	// store write during Rebuild.
	rebuildBatchSize = 256
)

// IngestService turns source files into indexed, retrievable chunks:
// parse -> chunk -> classify -> embed -> store.
type IngestService struct {
	parsers          driven.ParserRegistry
	pipeline         driven.PostProcessorPipeline
	chunkStore       driven.ChunkStore
	vectorStore      driven.VectorStore
	embeddingService driven.EmbeddingService

	concurrency int
	fileTimeout time.Duration
}

// IngestOption configures the ingest service.
type IngestOption func(*IngestService)

// WithConcurrency sets the number of files processed in parallel.
func WithConcurrency(n int) IngestOption {
	return func(s *IngestService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithFileTimeout bounds processing time per file.
func WithFileTimeout(d time.Duration) IngestOption {
	return func(s *IngestService) {
		if d > 0 {
			s.fileTimeout = d
		}
	}
}

// NewIngestService creates a new ingest service.
func NewIngestService(
	parsers driven.ParserRegistry,
	pipeline driven.PostProcessorPipeline,
	chunkStore driven.ChunkStore,
	vectorStore driven.VectorStore,
	embeddingService driven.EmbeddingService,
	opts ...IngestOption,
) *IngestService {
	s := &IngestService{
		parsers:          parsers,
		pipeline:         pipeline,
		chunkStore:       chunkStore,
		vectorStore:      vectorStore,
		embeddingService: embeddingService,
		concurrency:      DefaultConcurrency,
		fileTimeout:      DefaultFileTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest processes each path independently. A failing file lands in the
// result's Skipped list with its reason; it never aborts the batch.
// Identifiers are deterministic, so re-ingesting a file updates its
// records in place instead of duplicating them.
func (s *IngestService) Ingest(ctx context.Context, paths []string, opts driving.IngestOptions) (*driving.IngestionResult, error) {
	logger.Section("Ingestion")
	logger.Info("Ingesting %d file(s) with %s", len(paths), s.embeddingService.ModelName())

	var mu sync.Mutex
	result := &driving.IngestionResult{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, path := range paths {
		path := path
		g.Go(func() error {
			// The batch context only fails on cancellation; per-file
			// errors are recorded, not returned.
			if err := gctx.Err(); err != nil {
				return err
			}

			fctx, cancel := context.WithTimeout(gctx, s.fileTimeout)
			defer cancel()

			chunks, err := s.ingestFile(fctx, path, opts)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Warn("Skipping %s: %v", path, err)
				result.Skipped = append(result.Skipped, driving.SkippedFile{
					Path:   path,
					Reason: err.Error(),
				})
				return nil
			}
			result.Documents++
			result.Chunks += chunks
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := s.vectorStore.Persist(ctx); err != nil {
		return nil, fmt.Errorf("persisting vector index: %w", err)
	}

	logger.Info("Ingestion complete: %d documents, %d chunks, %d skipped",
		result.Documents, result.Chunks, len(result.Skipped))
	return result, nil
}

// ingestFile runs the full pipeline for one file and returns the number
// of chunks upserted.
func (s *IngestService) ingestFile(ctx context.Context, path string, opts driving.IngestOptions) (int, error) {
	doc, err := s.parsers.Parse(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("parsing: %w", err)
	}
	if opts.DomainLabel != "" {
		doc.Domain = opts.DomainLabel
	}
	logger.Debug("Parsed %s: document %s, %d bytes", path, doc.ID, len(doc.Content))

	chunks, err := s.pipeline.Process(ctx, doc)
	if err != nil {
		return 0, fmt.Errorf("processing: %w", err)
	}
	if len(chunks) == 0 {
		return 0, fmt.Errorf("no content to index")
	}
	logger.Debug("Produced %d chunks for %s", len(chunks), doc.ID)

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}
	embeddings, err := s.embeddingService.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return 0, fmt.Errorf("embedding: got %d vectors for %d chunks", len(embeddings), len(chunks))
	}
	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}

	// Chunk store first: it is the source of truth the vector index can
	// be rebuilt from.
	if err := s.chunkStore.SaveDocument(ctx, doc); err != nil {
		return 0, fmt.Errorf("saving document: %w", err)
	}
	if err := s.chunkStore.SaveChunks(ctx, chunks); err != nil {
		return 0, fmt.Errorf("saving chunks: %w", err)
	}
	if err := s.vectorStore.Add(ctx, chunks); err != nil {
		return 0, fmt.Errorf("indexing chunks: %w", err)
	}

	return len(chunks), nil
}

// Rebuild reconstructs the vector index from the chunk store. Chunks
// persisted without an embedding are re-embedded before indexing.
func (s *IngestService) Rebuild(ctx context.Context) (int, error) {
	logger.Section("Index Rebuild")

	total := 0
	batch := make([]domain.Chunk, 0, rebuildBatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.embedMissing(ctx, batch); err != nil {
			return err
		}
		if err := s.vectorStore.Add(ctx, batch); err != nil {
			return fmt.Errorf("indexing batch: %w", err)
		}
		total += len(batch)
		batch = batch[:0]
		return nil
	}

	err := s.chunkStore.ScanChunks(ctx, func(chunk domain.Chunk) error {
		batch = append(batch, chunk)
		if len(batch) == rebuildBatchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scanning chunks: %w", err)
	}
	if err := flush(); err != nil {
		return 0, err
	}

	if err := s.vectorStore.Persist(ctx); err != nil {
		return 0, fmt.Errorf("persisting vector index: %w", err)
	}

	logger.Info("Rebuild complete: %d chunks re-indexed", total)
	return total, nil
}

// embedMissing fills in embeddings for chunks that lack one.
func (s *IngestService) embedMissing(ctx context.Context, chunks []domain.Chunk) error {
	var texts []string
	var missing []int
	for i := range chunks {
		if chunks[i].Embedding == nil {
			texts = append(texts, chunks[i].Content)
			missing = append(missing, i)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	logger.Debug("Re-embedding %d chunks without stored vectors", len(missing))

	embeddings, err := s.embeddingService.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("re-embedding: %w", err)
	}
	for j, i := range missing {
		chunks[i].Embedding = embeddings[j]
	}
	return nil
}
