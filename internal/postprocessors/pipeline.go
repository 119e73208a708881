// Package postprocessors turns parsed documents into annotated chunks.
// The standard pipeline runs the chunker first (creates the chunks)
// and the classifier second (labels them with subject domains).
package postprocessors

import (
	"context"
	"fmt"

	"github.com/brightpath-ai/tutorkit/internal/core/domain"
	"github.com/brightpath-ai/tutorkit/internal/core/ports/driven"
)

// Pipeline runs a fixed sequence of PostProcessors over a document.
type Pipeline struct {
	processors []driven.PostProcessor
}

// Ensure Pipeline implements the interface.
var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// NewPipeline creates a pipeline that runs the processors in the order
// given. The first processor receives nil chunks and creates them;
// later processors annotate the slice they receive.
func NewPipeline(processors ...driven.PostProcessor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Process runs the document through every processor. The first
// processor error aborts the run.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}

	var chunks []domain.Chunk
	for _, processor := range p.processors {
		var err error
		chunks, err = processor.Process(ctx, doc, chunks)
		if err != nil {
			return nil, fmt.Errorf("processor %s: %w", processor.Name(), err)
		}
	}
	return chunks, nil
}
