package mcp

import (
	"context"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// mockPipeline is a mock implementation of driving.PipelineService.
type mockPipeline struct {
	answer    domain.Answer
	hits      []domain.ScoredChunk
	stats     domain.IndexStats
	state     domain.PipelineState
	err       error
	lastK     int
	lastQuery string
}

func (m *mockPipeline) Ingest(_ context.Context, _ domain.IngestRequest) (domain.IngestReport, error) {
	return domain.IngestReport{}, m.err
}

func (m *mockPipeline) Reingest(context.Context) (domain.IngestReport, error) {
	return domain.IngestReport{}, m.err
}

func (m *mockPipeline) Answer(
	_ context.Context,
	conv domain.Conversation,
	question string,
) (domain.Answer, domain.Conversation, error) {
	m.lastQuery = question
	return m.answer, conv, m.err
}

func (m *mockPipeline) Retrieve(_ context.Context, question string, k int) ([]domain.ScoredChunk, error) {
	m.lastQuery = question
	m.lastK = k
	return m.hits, m.err
}

func (m *mockPipeline) State() domain.PipelineState { return m.state }
func (m *mockPipeline) Stats() domain.IndexStats    { return m.stats }

// mockSessions is a mock implementation of driving.SessionService.
type mockSessions struct {
	convs  map[string]domain.Conversation
	answer domain.Answer
	asked  string
}

func (m *mockSessions) New(_ context.Context) (domain.Conversation, error) {
	return domain.Conversation{SessionID: "new"}, nil
}

func (m *mockSessions) Get(_ context.Context, id string) (domain.Conversation, error) {
	conv, ok := m.convs[id]
	if !ok {
		return domain.Conversation{}, domain.ErrSessionNotFound
	}
	return conv, nil
}

func (m *mockSessions) Ask(_ context.Context, id, _ string) (domain.Answer, domain.Conversation, error) {
	m.asked = id
	return m.answer, m.convs[id], nil
}

func (m *mockSessions) Reset(_ context.Context, id string) error {
	delete(m.convs, id)
	return nil
}

func sampleHits() []domain.ScoredChunk {
	return []domain.ScoredChunk{{
		Chunk: domain.Chunk{
			Content: "졸업 학점은 130학점입니다.",
			Provenance: domain.Provenance{
				Source: "handbook.pdf",
				Origin: domain.OriginCorpus,
				Page:   2,
			},
		},
		Score: 0.91,
	}}
}
