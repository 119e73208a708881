package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// Document represents a parsed study document.
// It is the canonical representation after parsing and is immutable
// once created; re-ingesting the same file produces a document with
// the same ID, which replaces the prior record.
type Document struct {
	// ID is the stable identifier derived from the source filename stem.
	// Two files with the same name produce the same ID; two files with
	// different names are always distinct documents, even when their
	// content is identical.
	ID string

	// SourcePath is the original file path the document was parsed from.
	SourcePath string

	// Title is the human-readable title, when the parser can extract one.
	Title string

	// Domain is an optional subject-matter label assigned at parse time
	// (for example via the --domain ingest flag). When empty, the
	// classifier post-processor decides per chunk.
	Domain string

	// Content is the full text content after parsing.
	// This is the complete document text before chunking.
	Content string

	// Pages maps byte offsets in Content to page or section labels.
	// Empty for sources without page structure.
	Pages []PageSpan

	// CreatedAt is when the document was first ingested.
	CreatedAt time.Time

	// UpdatedAt is when the document was last re-ingested.
	UpdatedAt time.Time
}

// PageSpan labels a contiguous byte range of Document.Content with a
// page or section identifier.
type PageSpan struct {
	// Label is the page number or section heading, e.g. "3" or "Intro".
	Label string

	// Start is the byte offset in Content where the span begins.
	Start int

	// End is the byte offset in Content where the span ends (exclusive).
	End int
}

// NewDocumentID derives the document identifier from a source path.
// Identity is naming-based: the filename stem, lowercased. Content is
// deliberately not part of the identity so that re-uploading the same
// file updates the existing records.
func NewDocumentID(sourcePath string) string {
	base := filepath.Base(sourcePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ToLower(stem)
}

// PageLabel returns the page label covering the given byte offset,
// or "" when the document has no page structure.
func (d *Document) PageLabel(offset int) string {
	for _, span := range d.Pages {
		if offset >= span.Start && offset < span.End {
			return span.Label
		}
	}
	return ""
}
