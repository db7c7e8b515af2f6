package postprocessors

import (
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/postprocessors/chunker"
)

// Built-in splitter names.
const (
	// SplitterRecursive splits on paragraphs, lines, then spaces.
	SplitterRecursive = "recursive"

	// SplitterSentence also breaks after sentence endings, including the
	// Korean declarative ending "다.".
	SplitterSentence = "sentence"
)

// sentenceSeparators puts sentence endings between line and word breaks.
var sentenceSeparators = []string{"\n\n", "\n", "다. ", ". ", "? ", "! ", " ", ""}

// RegisterDefaults registers all built-in splitters with the registry.
func RegisterDefaults(r *Registry) {
	r.Register(SplitterRecursive, buildRecursive)
	r.Register(SplitterSentence, buildSentence)
}

// DefaultRegistry returns a registry with the built-in splitters.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}

// buildRecursive creates a recursive chunker from generic config.
// Supported config keys:
//   - chunk_size (int): Characters per chunk (default: 1000)
//   - overlap (int): Overlapping characters between chunks (default: 100)
func buildRecursive(cfg map[string]any) (driven.Splitter, error) {
	return chunker.New(sizeOptions(cfg)...), nil
}

func buildSentence(cfg map[string]any) (driven.Splitter, error) {
	opts := append(sizeOptions(cfg), chunker.WithSeparators(sentenceSeparators...))
	return chunker.New(opts...), nil
}

func sizeOptions(cfg map[string]any) []chunker.Option {
	var opts []chunker.Option
	if cfg == nil {
		return opts
	}
	if _, ok := cfg["chunk_size"]; ok {
		opts = append(opts, chunker.WithChunkSize(getIntFromConfig(cfg, "chunk_size")))
	}
	if _, ok := cfg["overlap"]; ok {
		opts = append(opts, chunker.WithOverlap(getIntFromConfig(cfg, "overlap")))
	}
	return opts
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
