package driving

import (
	"context"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// CompareService contrasts a retrieval-augmented answer with a direct answer,
// scoring both against a reference answer.
type CompareService interface {
	Compare(ctx context.Context, question, reference string) (domain.Comparison, error)
}
