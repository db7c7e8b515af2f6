package driving

import (
	"context"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// PipelineService ingests documents and answers questions against them.
type PipelineService interface {
	// Ingest builds a new index and swaps it in on success.
	Ingest(ctx context.Context, req domain.IngestRequest) (domain.IngestReport, error)

	// Reingest replays the request that built the current index, including
	// its uploads. It returns ErrReingestSkipped when that request was
	// uploads-only, since a corpus change cannot alter such an index.
	Reingest(ctx context.Context) (domain.IngestReport, error)

	// Answer retrieves context, assembles a prompt and generates an answer.
	// It returns the conversation with the new turns appended.
	Answer(ctx context.Context, conv domain.Conversation, question string) (domain.Answer, domain.Conversation, error)

	// Retrieve returns the top-k chunks for a question without generating.
	Retrieve(ctx context.Context, question string, k int) ([]domain.ScoredChunk, error)

	// State returns the current lifecycle state.
	State() domain.PipelineState

	// Stats describes the current index.
	Stats() domain.IndexStats
}
