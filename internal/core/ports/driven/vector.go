package driven

import (
	"context"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// VectorIndex answers nearest-neighbour queries over an immutable set of
// vector records. It is safe for concurrent readers.
type VectorIndex interface {
	// Search returns at most k records ordered by descending similarity.
	// It never returns more results than Len.
	Search(ctx context.Context, query []float32, k int) ([]domain.ScoredChunk, error)

	// Len returns the number of stored records.
	Len() int

	// Dimensions returns the vector size, or 0 for an empty index.
	Dimensions() int

	// Records returns the stored records in insertion order.
	Records() []domain.VectorRecord
}

// IndexBuilder builds an immutable index from records.
type IndexBuilder func(records []domain.VectorRecord) (VectorIndex, error)

// IndexStore persists vector records so a fresh process can reload an index
// without re-ingesting.
type IndexStore interface {
	// Save replaces the persisted records. A reader never observes a partial save.
	Save(ctx context.Context, records []domain.VectorRecord) error

	// Load returns the persisted records. It returns domain.ErrNotFound when
	// nothing has been saved yet.
	Load(ctx context.Context) ([]domain.VectorRecord, error)

	// Close releases resources.
	Close() error
}
