// Package postprocessors builds the splitters that turn pages into chunks.
package postprocessors

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
)

// BuilderFunc creates a Splitter from generic config.
// Config is a map of splitter-specific settings parsed from user config.
type BuilderFunc func(cfg map[string]any) (driven.Splitter, error)

// Registry maps splitter names to their builders.
// It allows dynamic construction of splitters from configuration.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates a new splitter registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]BuilderFunc),
	}
}

// Register adds a splitter builder to the registry.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build creates a splitter by name with the given config.
// Returns error if the name is not registered.
func (r *Registry) Build(name string, cfg map[string]any) (driven.Splitter, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown splitter: %s", name)
	}
	return builder(cfg)
}

// Has returns true if a splitter with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns all registered splitter names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
