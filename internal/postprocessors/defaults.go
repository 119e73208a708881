package postprocessors

import (
	"sort"

	"github.com/brightpath-ai/tutorkit/internal/core/ports/driven"
	"github.com/brightpath-ai/tutorkit/internal/postprocessors/chunker"
	"github.com/brightpath-ai/tutorkit/internal/postprocessors/classifier"
)

// RegisterDefaults registers all built-in processors with the registry.
// Call this during application initialisation to enable standard processors.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", buildChunker)
	r.Register("classifier", buildClassifier)
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - chunk_size (int): Characters per chunk (default: 1000)
//   - overlap (int): Overlapping characters between chunks (default: 200)
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if cfg != nil {
		if size := getIntFromConfig(cfg, "chunk_size"); size > 0 {
			opts = append(opts, chunker.WithChunkSize(size))
		}
		if overlap := getIntFromConfig(cfg, "overlap"); overlap >= 0 {
			opts = append(opts, chunker.WithOverlap(overlap))
		}
	}

	return chunker.New(opts...), nil
}

// buildClassifier creates a classifier processor from generic config.
// Supported config keys:
//   - min_confidence (float): labelling threshold (default: 0.4)
//   - rules (map[string][]string): domain label -> keywords
func buildClassifier(cfg map[string]any) (driven.PostProcessor, error) {
	var rules []classifier.Rule
	var opts []classifier.Option

	if cfg != nil {
		if raw, ok := cfg["rules"].(map[string]any); ok {
			rules = rulesFromConfig(raw)
		}
		if c, ok := cfg["min_confidence"].(float64); ok {
			opts = append(opts, classifier.WithMinConfidence(c))
		}
	}

	return classifier.New(rules, opts...), nil
}

// rulesFromConfig converts a generic domain->keywords map into rules,
// sorted by domain name so construction is deterministic.
func rulesFromConfig(raw map[string]any) []classifier.Rule {
	rules := make([]classifier.Rule, 0, len(raw))
	for dom, v := range raw {
		var keywords []string
		switch kws := v.(type) {
		case []string:
			keywords = kws
		case []any:
			for _, kw := range kws {
				if s, ok := kw.(string); ok {
					keywords = append(keywords, s)
				}
			}
		}
		if len(keywords) > 0 {
			rules = append(rules, classifier.Rule{Domain: dom, Keywords: keywords})
		}
	}
	sort.Slice(rules, func(i, j int) bool {
		return rules[i].Domain < rules[j].Domain
	})
	return rules
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
