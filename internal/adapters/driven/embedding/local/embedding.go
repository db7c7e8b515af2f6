// Package local provides an offline embedding service based on hashed
// character n-grams. It needs no network access and is deterministic,
// which makes it suitable for tests and air-gapped use.
package local

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultDimensions = 256
	DefaultMinN       = 1
	DefaultMaxN       = 3
)

// Config holds configuration for the local embedder.
type Config struct {
	// Dimensions is the number of hash buckets (default: 256).
	Dimensions int

	// MinN and MaxN bound the character n-gram sizes (default: 1..3).
	MinN int
	MaxN int
}

// EmbeddingService hashes character n-grams of each whitespace token into a
// fixed number of buckets and L2-normalises the result.
type EmbeddingService struct {
	dimensions int
	minN       int
	maxN       int
}

// NewEmbeddingService creates a local embedder.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if cfg.MinN == 0 {
		cfg.MinN = DefaultMinN
	}
	if cfg.MaxN == 0 {
		cfg.MaxN = DefaultMaxN
	}
	if cfg.Dimensions < 0 || cfg.MinN < 1 || cfg.MaxN < cfg.MinN {
		return nil, fmt.Errorf("%w: invalid local embedder config dims=%d n=%d..%d",
			domain.ErrConfiguration, cfg.Dimensions, cfg.MinN, cfg.MaxN)
	}
	return &EmbeddingService{
		dimensions: cfg.Dimensions,
		minN:       cfg.MinN,
		maxN:       cfg.MaxN,
	}, nil
}

// Embed returns the normalised n-gram histogram of text.
// Text without any letters or digits maps to the zero vector.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float64, s.dimensions)
	for _, token := range tokenize(text) {
		padded := []rune("<" + token + ">")
		for n := s.minN; n <= s.maxN; n++ {
			for i := 0; i+n <= len(padded); i++ {
				h := fnv.New32a()
				_, _ = h.Write([]byte(string(padded[i : i+n])))
				sum := h.Sum32()
				bucket := int(sum % uint32(s.dimensions))
				// The high bit picks a sign so collisions tend to cancel.
				if sum&0x80000000 != 0 {
					vec[bucket]--
				} else {
					vec[bucket]++
				}
			}
		}
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	out := make([]float32, s.dimensions)
	if norm == 0 {
		return out, nil
	}
	norm = math.Sqrt(norm)
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out, nil
}

// EmbedBatch embeds each text in order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return fmt.Sprintf("ngram-hash-%d", s.dimensions)
}

// Ping always succeeds.
func (s *EmbeddingService) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
