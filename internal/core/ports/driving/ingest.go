package driving

import "context"

// Ingestor turns source files into indexed, retrievable chunks.
type Ingestor interface {
	// Ingest runs parse -> chunk -> classify -> embed -> store for each
	// path. Per-file failures are recorded in the result's Skipped list
	// and never abort the batch.
	Ingest(ctx context.Context, paths []string, opts IngestOptions) (*IngestionResult, error)

	// Rebuild reconstructs the vector index from the chunk store.
	// This is the recovery path for a lost or corrupted index.
	// Returns the number of chunks re-indexed.
	Rebuild(ctx context.Context) (int, error)
}

// IngestOptions carries per-batch ingestion settings.
type IngestOptions struct {
	// DomainLabel pre-assigns a subject-matter label to every document
	// in the batch, bypassing per-chunk classification. Empty means the
	// classifier decides.
	DomainLabel string
}

// IngestionResult aggregates per-file outcomes of an ingestion batch.
type IngestionResult struct {
	// Documents is the number of files successfully indexed.
	Documents int

	// Chunks is the total number of chunks upserted.
	Chunks int

	// Skipped lists the files that failed, with the reason.
	Skipped []SkippedFile
}

// SkippedFile records a single per-file failure.
type SkippedFile struct {
	// Path is the source file that was skipped.
	Path string

	// Reason is the failure description (parse error, embedding
	// failure, timeout).
	Reason string
}
