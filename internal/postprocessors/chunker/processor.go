// Package chunker provides a fixed-size text chunking processor with
// deterministic chunk identifiers.
package chunker

import (
	"context"
	"unicode/utf8"

	"github.com/brightpath-ai/tutorkit/internal/core/domain"
	"github.com/brightpath-ai/tutorkit/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// Processor splits document content into fixed-size overlapping chunks.
// Chunk IDs are a pure function of (document ID, position, content
// prefix), so re-chunking the same document always reproduces the same
// IDs. That determinism is what turns re-ingestion into an upsert.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Overlap must stay below the chunk size or the window never advances
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document content into chunks.
// Input chunks are ignored; this processor creates new chunks from
// document content. An empty document yields zero chunks, a document
// shorter than one window yields exactly one. Window sizes are
// measured in bytes, with edges snapped forward so a multi-byte rune
// never splits across chunks.
func (p *Processor) Process(_ context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if doc.Content == "" {
		// Empty content produces no chunks
		return nil, nil
	}

	content := doc.Content
	contentLen := len(content)

	estimatedChunks := (contentLen / (p.chunkSize - p.overlap)) + 1
	chunks := make([]domain.Chunk, 0, estimatedChunks)

	position := 0
	start := 0

	for start < contentLen {
		end := start + p.chunkSize
		if end > contentLen {
			end = contentLen
		}
		for end < contentLen && !utf8.RuneStart(content[end]) {
			end++
		}

		chunkContent := content[start:end]

		chunk := domain.Chunk{
			ID:         domain.NewChunkID(doc.ID, position, chunkContent),
			DocumentID: doc.ID,
			Content:    chunkContent,
			Position:   position,
			Metadata: domain.ChunkMetadata{
				SourcePath: doc.SourcePath,
				Title:      doc.Title,
				Page:       doc.PageLabel(start),
			},
		}

		// A document-level domain label pre-empts the classifier
		if doc.Domain != "" {
			chunk.Metadata.PrimaryDomain = doc.Domain
			chunk.Metadata.Confidence = 1.0
		}

		chunks = append(chunks, chunk)
		position++

		start += p.chunkSize - p.overlap
		for start < contentLen && !utf8.RuneStart(content[start]) {
			start++
		}
	}

	return chunks, nil
}
