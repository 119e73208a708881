// Package plaintext provides a parser for plain text and Markdown files.
package plaintext

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brightpath-ai/tutorkit/internal/core/domain"
	"github.com/brightpath-ai/tutorkit/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.Parser = (*Parser)(nil)

// Parser handles plain text and Markdown study material.
type Parser struct{}

// New creates a new plain text parser.
func New() *Parser {
	return &Parser{}
}

// SupportedExtensions returns the file extensions this parser handles.
func (p *Parser) SupportedExtensions() []string {
	return []string{".txt", ".md", ".markdown", ".text"}
}

// Priority returns the selection priority.
func (p *Parser) Priority() int {
	return 5 // Fallback parser
}

// Parse reads the file into a document. Markdown headings become
// section labels so retrieval hits can cite the section they came from.
func (p *Parser) Parse(ctx context.Context, path string) (*domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	content := string(data)
	now := time.Now().UTC()

	doc := &domain.Document{
		ID:         domain.NewDocumentID(path),
		SourcePath: path,
		Title:      extractTitle(content, path),
		Content:    content,
		Pages:      headingSpans(content),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	return doc, nil
}

// extractTitle uses the first Markdown heading when present, otherwise
// the filename stem.
func extractTitle(content, path string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "# "))
		}
		if line != "" {
			break
		}
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// headingSpans labels byte ranges of the content with the Markdown
// heading that governs them. Files without headings yield no spans.
func headingSpans(content string) []domain.PageSpan {
	var spans []domain.PageSpan
	offset := 0

	for _, line := range strings.SplitAfter(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			label := strings.TrimSpace(strings.TrimLeft(trimmed, "# "))
			if len(spans) > 0 {
				spans[len(spans)-1].End = offset
			}
			spans = append(spans, domain.PageSpan{Label: label, Start: offset})
		}
		offset += len(line)
	}

	if len(spans) > 0 {
		spans[len(spans)-1].End = len(content)
	}
	return spans
}
