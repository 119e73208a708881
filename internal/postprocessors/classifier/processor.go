// Package classifier provides a keyword-rule domain classification
// processor. Domain labels act as a router: they decide which vector
// store partition a chunk is written to, not a post-hoc result filter.
package classifier

import (
	"context"
	"sort"
	"strings"

	"github.com/brightpath-ai/tutorkit/internal/core/domain"
	"github.com/brightpath-ai/tutorkit/internal/core/ports/driven"
)

// DefaultMinConfidence is the confidence below which a chunk is left
// unlabelled and falls to the default partition.
const DefaultMinConfidence = 0.4

// MaxSecondaryDomains caps the runner-up labels kept per chunk.
const MaxSecondaryDomains = 2

// Ensure Processor implements the interface.
var _ driven.PostProcessor = (*Processor)(nil)

// Rule maps a domain label to the keywords that indicate it.
type Rule struct {
	// Domain is the label assigned when the rule matches.
	Domain string

	// Keywords are matched case-insensitively against chunk content.
	Keywords []string
}

// Processor annotates chunks with domain labels based on keyword rules.
// Chunks that already carry a primary domain (set at ingest time via
// the document-level label) are left untouched.
type Processor struct {
	rules         []Rule
	minConfidence float64
}

// Option configures the classifier processor.
type Option func(*Processor)

// WithMinConfidence sets the labelling threshold.
func WithMinConfidence(c float64) Option {
	return func(p *Processor) {
		if c >= 0 && c <= 1 {
			p.minConfidence = c
		}
	}
}

// New creates a classifier with the given rules.
// With no rules the processor is a no-op.
func New(rules []Rule, opts ...Option) *Processor {
	p := &Processor{
		rules:         rules,
		minConfidence: DefaultMinConfidence,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "classifier"
}

// Process annotates each chunk's metadata with a primary domain, up to
// two secondary domains, the matched keywords as tags, and a
// confidence value. Low-confidence chunks keep an empty primary domain.
func (p *Processor) Process(_ context.Context, _ *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error) {
	if len(p.rules) == 0 {
		return chunks, nil
	}

	for i := range chunks {
		if chunks[i].Metadata.PrimaryDomain != "" {
			continue
		}
		p.classify(&chunks[i])
	}

	return chunks, nil
}

// domainScore is one rule's match result for a chunk.
type domainScore struct {
	domain  string
	hits    int
	matched []string
}

func (p *Processor) classify(chunk *domain.Chunk) {
	content := strings.ToLower(chunk.Content)

	scores := make([]domainScore, 0, len(p.rules))
	total := 0
	for _, rule := range p.rules {
		score := domainScore{domain: rule.Domain}
		for _, kw := range rule.Keywords {
			if n := strings.Count(content, strings.ToLower(kw)); n > 0 {
				score.hits += n
				score.matched = append(score.matched, kw)
			}
		}
		if score.hits > 0 {
			scores = append(scores, score)
			total += score.hits
		}
	}

	if total == 0 {
		return
	}

	// Stable: rules earlier in config win ties
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].hits > scores[j].hits
	})

	confidence := float64(scores[0].hits) / float64(total)
	if confidence < p.minConfidence {
		return
	}

	chunk.Metadata.PrimaryDomain = scores[0].domain
	chunk.Metadata.Confidence = confidence
	chunk.Metadata.DomainTags = scores[0].matched

	for _, s := range scores[1:] {
		if len(chunk.Metadata.SecondaryDomains) == MaxSecondaryDomains {
			break
		}
		chunk.Metadata.SecondaryDomains = append(chunk.Metadata.SecondaryDomains, s.domain)
	}
}
