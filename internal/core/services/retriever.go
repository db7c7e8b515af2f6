package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
)

// Retriever embeds a query and searches an index. Queries are not cached.
type Retriever struct {
	embedder driven.EmbeddingService
	topK     int
}

// NewRetriever creates a retriever. A non-positive topK uses domain.DefaultTopK.
func NewRetriever(embedder driven.EmbeddingService, topK int) *Retriever {
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	return &Retriever{embedder: embedder, topK: topK}
}

// Retrieve returns at most k chunks ordered by descending similarity.
// A non-positive k uses the retriever default. Embedding failures propagate.
func (r *Retriever) Retrieve(
	ctx context.Context,
	query string,
	index driven.VectorIndex,
	k int,
) ([]domain.ScoredChunk, error) {
	if index == nil {
		return nil, domain.ErrNoIndex
	}
	if k <= 0 {
		k = r.topK
	}
	if index.Len() == 0 {
		return nil, nil
	}

	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := index.Search(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	return hits, nil
}
