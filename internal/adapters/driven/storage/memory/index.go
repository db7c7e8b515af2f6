package memory

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is an immutable exact cosine similarity index. Safe for concurrent
// readers because nothing is mutated after NewIndex returns.
type Index struct {
	records []domain.VectorRecord
	norms   []float64
	dims    int
}

// NewIndex builds an index over records. All embeddings must share one
// dimension; an empty record set yields an empty index.
func NewIndex(records []domain.VectorRecord) (*Index, error) {
	idx := &Index{
		records: make([]domain.VectorRecord, len(records)),
		norms:   make([]float64, len(records)),
	}
	for i, r := range records {
		if i == 0 {
			idx.dims = len(r.Embedding)
		}
		if len(r.Embedding) != idx.dims {
			return nil, fmt.Errorf("%w: record %d has dimension %d, expected %d",
				domain.ErrInvalidInput, i, len(r.Embedding), idx.dims)
		}
		idx.records[i] = r
		idx.norms[i] = norm(r.Embedding)
	}
	return idx, nil
}

// Build adapts NewIndex to driven.IndexBuilder.
func Build(records []domain.VectorRecord) (driven.VectorIndex, error) {
	return NewIndex(records)
}

// Search returns the k most similar records, best first. Equal scores keep
// insertion order.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 || len(idx.records) == 0 {
		return nil, nil
	}
	if len(query) != idx.dims {
		return nil, fmt.Errorf("%w: query has dimension %d, index has %d",
			domain.ErrInvalidInput, len(query), idx.dims)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	qn := norm(query)
	scored := make([]domain.ScoredChunk, len(idx.records))
	for i, r := range idx.records {
		scored[i] = domain.ScoredChunk{
			Chunk: r.Chunk,
			Score: cosine(query, r.Embedding, qn, idx.norms[i]),
		}
	}

	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].Score > scored[b].Score
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

// Len returns the number of stored records.
func (idx *Index) Len() int {
	return len(idx.records)
}

// Dimensions returns the vector size, or 0 for an empty index.
func (idx *Index) Dimensions() int {
	return idx.dims
}

// Records returns a copy of the stored records in insertion order.
func (idx *Index) Records() []domain.VectorRecord {
	out := make([]domain.VectorRecord, len(idx.records))
	copy(out, idx.records)
	return out
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine returns 0 when either vector is zero.
func cosine(a, b []float32, na, nb float64) float64 {
	if na == 0 || nb == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (na * nb)
}
