package driven

import (
	"context"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// Splitter turns pages into overlapping chunks that keep page provenance.
type Splitter interface {
	// Name returns the splitter name for logging.
	Name() string

	// Split chunks the pages in order.
	Split(ctx context.Context, pages []domain.Page) ([]domain.Chunk, error)
}
