package driven

import (
	"context"

	"github.com/brightpath-ai/tutorkit/internal/core/domain"
)

// Parser extracts text from a source file.
// Each parser handles specific file extensions (e.g., PDF, Markdown).
type Parser interface {
	// SupportedExtensions returns the lowercased file extensions this
	// parser handles, including the leading dot.
	SupportedExtensions() []string

	// Priority returns the selection priority (higher = preferred).
	// Format-specific parsers should return 50-89.
	// Fallback parsers should return 1-9.
	Priority() int

	// Parse reads the file and produces a document with Content (and
	// Pages, when the format has page structure) populated.
	// Chunking is handled by the post-processor pipeline.
	Parse(ctx context.Context, path string) (*domain.Document, error)
}

// ParserRegistry selects the appropriate parser for a file.
type ParserRegistry interface {
	// Parse selects the highest-priority parser for the file's
	// extension and runs it. Returns domain.ErrUnsupportedType when
	// no parser accepts the extension.
	Parse(ctx context.Context, path string) (*domain.Document, error)
}
