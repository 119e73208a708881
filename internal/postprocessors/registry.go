package postprocessors

import (
	"fmt"

	"github.com/brightpath-ai/tutorkit/internal/core/ports/driven"
)

// BuilderFunc constructs a PostProcessor from generic configuration,
// typically settings read from the TOML config file.
type BuilderFunc func(cfg map[string]any) (driven.PostProcessor, error)

// Registry maps processor names to builders so the pipeline can be
// assembled from configuration at startup.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates an empty processor registry.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]BuilderFunc)}
}

// Register adds a builder under the given name. The name should match
// the built processor's Name().
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build constructs the named processor with the given config.
func (r *Registry) Build(name string, cfg map[string]any) (driven.PostProcessor, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("no processor registered under %q", name)
	}
	return builder(cfg)
}

// Has reports whether a builder is registered under the given name.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}
