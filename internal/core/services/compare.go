package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

// Ensure CompareService implements the interface.
var _ driving.CompareService = (*CompareService)(nil)

// ComparePipeline answers with retrieval and generates without it.
type ComparePipeline interface {
	Answerer
	Generate(ctx context.Context, prompt domain.Prompt) (string, error)
}

// CompareService contrasts a retrieval-augmented answer with a direct answer
// from the same generator and scores each against a reference answer.
type CompareService struct {
	pipeline ComparePipeline
	scorer   driven.Scorer
	language string
}

// NewCompareService creates a compare service. Language selects the scorer's
// tokenisation and defaults to Korean.
func NewCompareService(pipeline ComparePipeline, scorer driven.Scorer, language string) *CompareService {
	if language == "" {
		language = domain.DefaultLanguage
	}
	return &CompareService{pipeline: pipeline, scorer: scorer, language: language}
}

// Compare runs both answers concurrently, then scores each of them against
// the reference.
func (s *CompareService) Compare(ctx context.Context, question, reference string) (domain.Comparison, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.Comparison{}, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return domain.Comparison{}, fmt.Errorf("%w: reference answer is empty", domain.ErrInvalidInput)
	}

	var (
		rag    domain.Answer
		direct string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a, _, err := s.pipeline.Answer(gctx, domain.Conversation{}, question)
		if err != nil {
			return fmt.Errorf("rag answer: %w", err)
		}
		rag = a
		return nil
	})
	g.Go(func() error {
		text, err := s.pipeline.Generate(gctx, domain.Prompt{User: question})
		if err != nil {
			return fmt.Errorf("direct answer: %w", err)
		}
		direct = text
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.Comparison{}, err
	}

	ragScore, err := s.scorer.Score(ctx, rag.Text, reference, s.language)
	if err != nil {
		return domain.Comparison{}, fmt.Errorf("score rag answer: %w", err)
	}
	directScore, err := s.scorer.Score(ctx, direct, reference, s.language)
	if err != nil {
		return domain.Comparison{}, fmt.Errorf("score direct answer: %w", err)
	}

	return domain.Comparison{
		Question:    question,
		Reference:   reference,
		RAG:         rag,
		Direct:      direct,
		RAGScore:    ragScore,
		DirectScore: directScore,
	}, nil
}
