package driven

import (
	"context"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// Scorer compares a candidate text against a reference text.
type Scorer interface {
	Score(ctx context.Context, candidate, reference, language string) (domain.Score, error)
}
