// Package pdf provides a parser for PDF study material.
package pdf

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/brightpath-ai/tutorkit/internal/core/domain"
	"github.com/brightpath-ai/tutorkit/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.Parser = (*Parser)(nil)

// Parser extracts text from PDF files page by page, so each chunk can
// cite the page it came from.
type Parser struct{}

// New creates a new PDF parser.
func New() *Parser {
	return &Parser{}
}

// SupportedExtensions returns the file extensions this parser handles.
func (p *Parser) SupportedExtensions() []string {
	return []string{".pdf"}
}

// Priority returns the selection priority.
func (p *Parser) Priority() int {
	return 50
}

// Parse reads the PDF and produces a document whose Pages spans map
// content offsets back to page numbers.
func (p *Parser) Parse(ctx context.Context, path string) (*domain.Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	var content strings.Builder
	var spans []domain.PageSpan

	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d of %s: %w", i, path, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}

		start := content.Len()
		content.WriteString(text)
		if !strings.HasSuffix(text, "\n") {
			content.WriteString("\n")
		}
		spans = append(spans, domain.PageSpan{
			Label: strconv.Itoa(i),
			Start: start,
			End:   content.Len(),
		})
	}

	if content.Len() == 0 {
		return nil, fmt.Errorf("%w: no text extracted from %s", domain.ErrInvalidInput, path)
	}

	base := filepath.Base(path)
	now := time.Now().UTC()

	return &domain.Document{
		ID:         domain.NewDocumentID(path),
		SourcePath: path,
		Title:      strings.TrimSuffix(base, filepath.Ext(base)),
		Content:    content.String(),
		Pages:      spans,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}
