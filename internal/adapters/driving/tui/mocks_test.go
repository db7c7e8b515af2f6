package tui

import (
	"context"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

type mockSessions struct {
	conv   domain.Conversation
	answer domain.Answer
	err    error
}

func (m *mockSessions) New(context.Context) (domain.Conversation, error) {
	if m.err != nil {
		return domain.Conversation{}, m.err
	}
	return m.conv, nil
}

func (m *mockSessions) Get(context.Context, string) (domain.Conversation, error) {
	return m.conv, m.err
}

func (m *mockSessions) Ask(_ context.Context, _ string, question string) (domain.Answer, domain.Conversation, error) {
	if m.err != nil {
		return domain.Answer{}, domain.Conversation{}, m.err
	}
	conv := m.conv.With(
		domain.Turn{Role: domain.RoleUser, Content: question},
		domain.Turn{Role: domain.RoleAssistant, Content: m.answer.Text, Asset: m.answer.Asset},
	)
	return m.answer, conv, nil
}

func (m *mockSessions) Reset(context.Context, string) error {
	return nil
}

type mockPipeline struct {
	state domain.PipelineState
	stats domain.IndexStats
}

func (m *mockPipeline) Ingest(context.Context, domain.IngestRequest) (domain.IngestReport, error) {
	return domain.IngestReport{}, nil
}

func (m *mockPipeline) Reingest(context.Context) (domain.IngestReport, error) {
	return domain.IngestReport{}, nil
}

func (m *mockPipeline) Answer(_ context.Context, conv domain.Conversation, _ string) (domain.Answer, domain.Conversation, error) {
	return domain.Answer{}, conv, nil
}

func (m *mockPipeline) Retrieve(context.Context, string, int) ([]domain.ScoredChunk, error) {
	return nil, nil
}

func (m *mockPipeline) State() domain.PipelineState {
	return m.state
}

func (m *mockPipeline) Stats() domain.IndexStats {
	return m.stats
}
