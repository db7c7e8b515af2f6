// Package bertscore scores a candidate text against a reference by greedily
// matching token embeddings, in the manner of BERTScore. Any embedding
// service can supply the token vectors.
package bertscore

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
)

// Ensure Scorer implements the interface.
var _ driven.Scorer = (*Scorer)(nil)

// Scorer computes token-level precision, recall and F1.
type Scorer struct {
	embedder driven.EmbeddingService
}

// New creates a scorer backed by an embedding service.
func New(embedder driven.EmbeddingService) (*Scorer, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: bertscore requires an embedding service", domain.ErrConfiguration)
	}
	return &Scorer{embedder: embedder}, nil
}

// Score matches each candidate token to its most similar reference token for
// precision, and each reference token to its most similar candidate token for
// recall. An empty side scores zero.
func (s *Scorer) Score(ctx context.Context, candidate, reference, language string) (domain.Score, error) {
	cand := Tokenize(candidate, language)
	ref := Tokenize(reference, language)
	if len(cand) == 0 || len(ref) == 0 {
		return domain.Score{}, nil
	}

	vectors, err := s.embedTokens(ctx, cand, ref)
	if err != nil {
		return domain.Score{}, err
	}

	sim := make([][]float64, len(cand))
	for i, c := range cand {
		sim[i] = make([]float64, len(ref))
		for j, r := range ref {
			sim[i][j] = cosine(vectors[c], vectors[r])
		}
	}

	var precision, recall float64
	for i := range cand {
		best := math.Inf(-1)
		for j := range ref {
			best = math.Max(best, sim[i][j])
		}
		precision += best
	}
	precision /= float64(len(cand))

	for j := range ref {
		best := math.Inf(-1)
		for i := range cand {
			best = math.Max(best, sim[i][j])
		}
		recall += best
	}
	recall /= float64(len(ref))

	var f1 float64
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	return domain.Score{Precision: precision, Recall: recall, F1: f1}, nil
}

// embedTokens embeds each distinct token once.
func (s *Scorer) embedTokens(ctx context.Context, groups ...[]string) (map[string][]float32, error) {
	seen := make(map[string]bool)
	var unique []string
	for _, g := range groups {
		for _, tok := range g {
			if !seen[tok] {
				seen[tok] = true
				unique = append(unique, tok)
			}
		}
	}

	vecs, err := s.embedder.EmbedBatch(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("embed tokens: %w", err)
	}
	if len(vecs) != len(unique) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d tokens", domain.ErrEmbeddingService, len(vecs), len(unique))
	}

	out := make(map[string][]float32, len(unique))
	for i, tok := range unique {
		out[tok] = vecs[i]
	}
	return out, nil
}

// Tokenize splits text for scoring. Japanese and Chinese are split into
// single characters since they do not separate words with spaces; other
// languages, Korean included, split on anything that is not a letter or digit.
func Tokenize(text, language string) []string {
	text = strings.ToLower(text)
	switch baseLanguage(language) {
	case "ja", "zh":
		var tokens []string
		for _, r := range text {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				tokens = append(tokens, string(r))
			}
		}
		return tokens
	default:
		return strings.FieldsFunc(text, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
	}
}

func baseLanguage(tag string) string {
	tag = strings.ToLower(tag)
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		tag = tag[:i]
	}
	return tag
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
