package driven

import (
	"context"

	"github.com/brightpath-ai/tutorkit/internal/core/domain"
)

// PostProcessor processes document content to produce or annotate chunks.
// PostProcessors are chained in a pipeline (chunking, then classification).
type PostProcessor interface {
	// Name returns the processor name for logging and configuration.
	Name() string

	// Process takes a document and returns chunks.
	// If the processor creates chunks (the chunker), it receives nil
	// and returns new chunks. If it annotates chunks (the classifier),
	// it receives and returns the same slice.
	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline chains multiple PostProcessors.
type PostProcessorPipeline interface {
	// Process runs the document through all processors in order.
	// Returns the final chunks after all processing.
	Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
