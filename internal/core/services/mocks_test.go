package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdesk/internal/adapters/driven/embedding/local"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/postprocessors/chunker"
)

// mockLoader serves corpus pages by path and turns upload bytes into one page.
type mockLoader struct {
	mu        sync.Mutex
	corpus    map[string][]string
	err       error
	block     chan struct{}
	entered   chan struct{}
	pathCalls int
}

func newMockLoader() *mockLoader {
	return &mockLoader{corpus: make(map[string][]string)}
}

// addCorpusDoc registers a document under the corpus directory.
func (l *mockLoader) addCorpusDoc(dir, name string, pages ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.corpus[dir] = append(l.corpus[dir], name)
	l.corpus[dir+"/"+name] = pages
}

func (l *mockLoader) setErr(err error) {
	l.mu.Lock()
	l.err = err
	l.mu.Unlock()
}

func (l *mockLoader) LoadPath(ctx context.Context, path string) ([]domain.Page, error) {
	if l.entered != nil {
		l.entered <- struct{}{}
	}
	if l.block != nil {
		select {
		case <-l.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.pathCalls++
	if l.err != nil {
		return nil, l.err
	}
	names, ok := l.corpus[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
	}

	var pages []domain.Page
	for _, name := range names {
		for i, text := range l.corpus[path+"/"+name] {
			pages = append(pages, domain.Page{
				DocumentID: "corpus:" + name,
				Source:     name,
				Origin:     domain.OriginCorpus,
				Index:      i,
				Content:    text,
			})
		}
	}
	return pages, nil
}

func (l *mockLoader) LoadUpload(_ context.Context, name string, data []byte) ([]domain.Page, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty upload", domain.ErrParse)
	}
	return []domain.Page{{
		DocumentID: "upload:" + name,
		Source:     name,
		Origin:     domain.OriginUpload,
		Content:    string(data),
	}}, nil
}

// failingEmbedder wraps an embedder and fails batch calls while fail is set.
type failingEmbedder struct {
	driven.EmbeddingService
	mu   sync.Mutex
	fail bool
}

func (e *failingEmbedder) setFail(v bool) {
	e.mu.Lock()
	e.fail = v
	e.mu.Unlock()
}

func (e *failingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	fail := e.fail
	e.mu.Unlock()
	if fail {
		return nil, domain.NewServiceError(domain.ErrEmbeddingService, 401, errors.New("invalid api key"))
	}
	return e.EmbeddingService.EmbedBatch(ctx, texts)
}

// mockGenerator records prompts and returns a canned reply.
type mockGenerator struct {
	mu      sync.Mutex
	prompts []domain.Prompt
	opts    []driven.GenerateOptions
	reply   string
	err     error
}

func (g *mockGenerator) Generate(_ context.Context, prompt domain.Prompt, opts driven.GenerateOptions) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	g.opts = append(g.opts, opts)
	if g.err != nil {
		return "", g.err
	}
	if g.reply != "" {
		return g.reply, nil
	}
	return "answer: " + prompt.User, nil
}

func (g *mockGenerator) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

func (g *mockGenerator) lastPrompt() domain.Prompt {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.prompts[len(g.prompts)-1]
}

func (g *mockGenerator) ModelName() string            { return "mock" }
func (g *mockGenerator) Ping(_ context.Context) error { return nil }
func (g *mockGenerator) Close() error                 { return nil }

// mockIndexStore keeps saved records in memory.
type mockIndexStore struct {
	mu      sync.Mutex
	records []domain.VectorRecord
	saved   bool
	saveErr error
	savedAt time.Time
}

func (s *mockIndexStore) Save(_ context.Context, records []domain.VectorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.records = append([]domain.VectorRecord(nil), records...)
	s.saved = true
	return nil
}

func (s *mockIndexStore) Load(_ context.Context) ([]domain.VectorRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.saved {
		return nil, domain.ErrNotFound
	}
	return append([]domain.VectorRecord(nil), s.records...), nil
}

func (s *mockIndexStore) SavedAt(_ context.Context) (time.Time, error) {
	return s.savedAt, nil
}

func (s *mockIndexStore) Close() error { return nil }

// mockPromptStore serves templates from a map.
type mockPromptStore struct {
	prompts map[string]string
}

func (s *mockPromptStore) Load(name string) (string, error) {
	if p, ok := s.prompts[name]; ok {
		return p, nil
	}
	return "", os.ErrNotExist
}

func (s *mockPromptStore) Reload() {}

// testEnv is a pipeline over the local embedder and the in-memory index.
type testEnv struct {
	loader    *mockLoader
	embedder  *failingEmbedder
	generator *mockGenerator
	store     *mockIndexStore
	settings  domain.Settings
}

const testCorpus = "corpus"

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	emb, err := local.NewEmbeddingService(local.Config{})
	require.NoError(t, err)

	settings := domain.DefaultSettings()
	settings.CorpusDir = testCorpus
	settings.Chunking.Size = 200
	settings.Chunking.Overlap = 20
	settings.Embedding.BatchSize = 2
	settings.Embedding.Concurrency = 3

	return &testEnv{
		loader:    newMockLoader(),
		embedder:  &failingEmbedder{EmbeddingService: emb},
		generator: &mockGenerator{},
		store:     &mockIndexStore{},
		settings:  settings,
	}
}

func (e *testEnv) deps() Dependencies {
	return Dependencies{
		Loader:     e.loader,
		Splitter:   chunker.New(chunker.WithChunkSize(e.settings.Chunking.Size), chunker.WithOverlap(e.settings.Chunking.Overlap)),
		Embedder:   e.embedder,
		BuildIndex: memory.Build,
		Generator:  e.generator,
		Store:      e.store,
		Now:        func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) },
	}
}

func (e *testEnv) pipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := NewPipeline(e.deps(), e.settings)
	require.NoError(t, err)
	return p
}
