package cli

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

type mockPipeline struct {
	state     domain.PipelineState
	stats     domain.IndexStats
	report    domain.IngestReport
	ingestErr error
	answer    domain.Answer
	answerErr error

	ingests   []domain.IngestRequest
	questions []string
}

func (m *mockPipeline) Ingest(_ context.Context, req domain.IngestRequest) (domain.IngestReport, error) {
	m.ingests = append(m.ingests, req)
	if m.ingestErr != nil {
		return domain.IngestReport{}, m.ingestErr
	}
	m.state = domain.StateReady
	return m.report, nil
}

func (m *mockPipeline) Reingest(ctx context.Context) (domain.IngestReport, error) {
	return m.Ingest(ctx, domain.IngestRequest{Policy: domain.PolicyMerge})
}

func (m *mockPipeline) Answer(
	_ context.Context, conv domain.Conversation, question string,
) (domain.Answer, domain.Conversation, error) {
	m.questions = append(m.questions, question)
	if m.answerErr != nil {
		return domain.Answer{}, conv, m.answerErr
	}
	return m.answer, conv, nil
}

func (m *mockPipeline) Retrieve(_ context.Context, _ string, _ int) ([]domain.ScoredChunk, error) {
	return m.answer.Sources, nil
}

func (m *mockPipeline) State() domain.PipelineState { return m.state }

func (m *mockPipeline) Stats() domain.IndexStats { return m.stats }

type mockSessions struct {
	answer domain.Answer
	err    error
	asked  []string
}

func (m *mockSessions) New(_ context.Context) (domain.Conversation, error) {
	return domain.Conversation{SessionID: "new-session"}, nil
}

func (m *mockSessions) Get(_ context.Context, id string) (domain.Conversation, error) {
	return domain.Conversation{SessionID: id}, m.err
}

func (m *mockSessions) Ask(_ context.Context, id, question string) (domain.Answer, domain.Conversation, error) {
	m.asked = append(m.asked, id+":"+question)
	if m.err != nil {
		return domain.Answer{}, domain.Conversation{}, m.err
	}
	return m.answer, domain.Conversation{SessionID: id}, nil
}

func (m *mockSessions) Reset(_ context.Context, _ string) error { return m.err }

type mockCompare struct {
	result domain.Comparison
	err    error
}

func (m *mockCompare) Compare(_ context.Context, question, reference string) (domain.Comparison, error) {
	if m.err != nil {
		return domain.Comparison{}, m.err
	}
	r := m.result
	r.Question = question
	r.Reference = reference
	return r, nil
}

type mockSettings struct {
	settings domain.Settings
	values   map[string]string
	secrets  map[string]bool
	embedErr error
	llmErr   error
}

func newMockSettings() *mockSettings {
	return &mockSettings{
		settings: domain.DefaultSettings(),
		values:   map[string]string{},
		secrets:  map[string]bool{},
	}
}

func (m *mockSettings) Get() (domain.Settings, error) { return m.settings, nil }

func (m *mockSettings) Set(key, value string) error {
	if _, ok := m.values[key]; !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	m.values[key] = value
	return nil
}

func (m *mockSettings) Keys() []string {
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *mockSettings) Lookup(key string) (string, string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", "", fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	return v, "config", nil
}

func (m *mockSettings) IsSecret(key string) bool { return m.secrets[key] }

func (m *mockSettings) ValidateEmbeddingConfig() error { return m.embedErr }

func (m *mockSettings) ValidateLLMConfig() error { return m.llmErr }

type testServices struct {
	pipeline *mockPipeline
	sessions *mockSessions
	compare  *mockCompare
	settings *mockSettings
}

// setupTestServices installs mocks in the package service vars and resets
// command flags. Everything is restored when the test ends.
func setupTestServices(t *testing.T) *testServices {
	t.Helper()

	ts := &testServices{
		pipeline: &mockPipeline{state: domain.StateReady},
		sessions: &mockSessions{},
		compare:  &mockCompare{},
		settings: newMockSettings(),
	}

	oldSettings, oldPipeline, oldSessions, oldCompare := settingsService, pipelineService, sessionService, compareService
	oldDir, oldActive := settingsDir, active
	settingsService = ts.settings
	pipelineService = ts.pipeline
	sessionService = ts.sessions
	compareService = ts.compare
	settingsDir = ""
	active = nil

	ingestUploads, ingestUploadsOnly, ingestJSON = nil, false, false
	askSources, askJSON, askSession = false, false, ""
	compareJSON, compareReference = false, ""
	serveAddr, serveWatch = "", false

	t.Cleanup(func() {
		settingsService, pipelineService, sessionService, compareService = oldSettings, oldPipeline, oldSessions, oldCompare
		settingsDir, active = oldDir, oldActive
	})
	return ts
}

// executeCommand runs the root command with args and returns its combined
// output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(new(bytes.Buffer))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func TestRootCmd_HasCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"ingest", "ask", "chat", "serve", "mcp", "compare", "settings", "version"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestSetVersion(t *testing.T) {
	original := version
	defer func() { version = original }()

	SetVersion("1.2.3")
	assert.Equal(t, "1.2.3", version)

	SetVersion("")
	assert.Equal(t, "1.2.3", version)
}

func TestEnsurePipeline_UsesInjectedServices(t *testing.T) {
	ts := setupTestServices(t)

	err := ensurePipeline(rootCmd, true)

	assert.NoError(t, err)
	assert.Same(t, ts.pipeline, pipelineService)
	assert.Nil(t, active)
}
