// Package parsers provides file parsing implementations and the
// registry that selects between them.
package parsers

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/brightpath-ai/tutorkit/internal/core/domain"
	"github.com/brightpath-ai/tutorkit/internal/core/ports/driven"
	"github.com/brightpath-ai/tutorkit/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.ParserRegistry = (*Registry)(nil)

// Registry selects the highest-priority parser for a file extension.
type Registry struct {
	parsers []driven.Parser
}

// NewRegistry creates a registry with the given parsers.
func NewRegistry(parsers ...driven.Parser) *Registry {
	return &Registry{parsers: parsers}
}

// Register adds a parser to the registry.
func (r *Registry) Register(p driven.Parser) {
	r.parsers = append(r.parsers, p)
}

// Parse selects a parser for the file's extension and runs it.
// Returns domain.ErrUnsupportedType when no parser accepts the
// extension.
func (r *Registry) Parse(ctx context.Context, path string) (*domain.Document, error) {
	ext := strings.ToLower(filepath.Ext(path))

	var selected driven.Parser
	for _, p := range r.parsers {
		if !supports(p, ext) {
			continue
		}
		if selected == nil || p.Priority() > selected.Priority() {
			selected = p
		}
	}

	if selected == nil {
		logger.Debug("No parser for extension %q (%s)", ext, path)
		return nil, domain.ErrUnsupportedType
	}

	return selected.Parse(ctx, path)
}

func supports(p driven.Parser, ext string) bool {
	for _, e := range p.SupportedExtensions() {
		if e == ext {
			return true
		}
	}
	return false
}
