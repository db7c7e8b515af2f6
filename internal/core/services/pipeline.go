package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

// Ensure Pipeline implements the interface.
var _ driving.PipelineService = (*Pipeline)(nil)

// Pipeline ingests PDFs into a vector index and answers questions against it.
//
// The current index is immutable and held behind an atomic pointer. Ingestion
// builds a new index and swaps it in only on success, so queries that started
// against the old index finish against it. One ingestion runs at a time.
type Pipeline struct {
	deps      Dependencies
	settings  domain.Settings
	template  domain.PromptTemplate
	retriever *Retriever
	store     driven.IndexStore

	current   atomic.Pointer[indexSnapshot]
	ingestMu  sync.Mutex
	ingesting atomic.Bool
	queries   atomic.Int64
}

// indexSnapshot is one built index with its metadata.
type indexSnapshot struct {
	index     driven.VectorIndex
	builtAt   time.Time
	persisted bool
	documents int
	sources   []string
	// request built this index; nil when it was restored from disk.
	request *domain.IngestRequest
}

// Restore loads a persisted index, if persistence is enabled and one exists.
// It reports whether an index was loaded.
func (p *Pipeline) Restore(ctx context.Context) (bool, error) {
	if p.store == nil {
		return false, nil
	}

	records, err := p.store.Load(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		logger.Debug("pipeline: no persisted index")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load persisted index: %w", err)
	}

	index, err := p.deps.BuildIndex(records)
	if err != nil {
		return false, fmt.Errorf("build persisted index: %w", err)
	}
	if dims := p.deps.Embedder.Dimensions(); index.Len() > 0 && dims > 0 && index.Dimensions() != dims {
		return false, fmt.Errorf("%w: persisted index has %d dimensions, embedder %s produces %d; re-ingest required",
			domain.ErrConfiguration, index.Dimensions(), p.deps.Embedder.ModelName(), dims)
	}

	builtAt := p.now()
	if s, ok := p.store.(interface {
		SavedAt(ctx context.Context) (time.Time, error)
	}); ok {
		if t, err := s.SavedAt(ctx); err == nil {
			builtAt = t
		}
	}

	docs, sources := summarise(records)
	p.current.Store(&indexSnapshot{
		index:     index,
		builtAt:   builtAt,
		persisted: true,
		documents: docs,
		sources:   sources,
	})
	logger.Info("Loaded persisted index: %d records from %d documents", len(records), docs)
	return true, nil
}

// Ingest loads, splits and embeds documents, then swaps in the new index.
// On failure the previous index stays current.
func (p *Pipeline) Ingest(ctx context.Context, req domain.IngestRequest) (domain.IngestReport, error) {
	policy := req.Policy
	if policy == "" {
		policy = domain.PolicyMerge
	}
	if !policy.IsValid() {
		return domain.IngestReport{}, fmt.Errorf("%w: unknown ingest policy %q", domain.ErrInvalidInput, policy)
	}

	if !p.ingestMu.TryLock() {
		return domain.IngestReport{}, domain.ErrIngestInProgress
	}
	defer p.ingestMu.Unlock()

	req.Policy = policy
	return p.ingestLocked(ctx, req)
}

// Reingest replays the request that built the current index. An index
// restored from disk replays as a corpus-only merge, since the upload bytes
// behind it are gone.
func (p *Pipeline) Reingest(ctx context.Context) (domain.IngestReport, error) {
	if !p.ingestMu.TryLock() {
		return domain.IngestReport{}, domain.ErrIngestInProgress
	}
	defer p.ingestMu.Unlock()

	req := domain.IngestRequest{Policy: domain.PolicyMerge}
	if snap := p.current.Load(); snap != nil && snap.request != nil {
		req = *snap.request
	}
	if req.Policy == domain.PolicyUploadsOnly {
		return domain.IngestReport{Policy: req.Policy}, domain.ErrReingestSkipped
	}
	return p.ingestLocked(ctx, req)
}

// ingestLocked runs one ingestion. The caller holds ingestMu.
func (p *Pipeline) ingestLocked(ctx context.Context, req domain.IngestRequest) (domain.IngestReport, error) {
	policy := req.Policy

	p.ingesting.Store(true)
	defer p.ingesting.Store(false)

	logger.Section("Ingest")
	report := domain.IngestReport{Policy: policy}

	pages, err := p.loadPages(ctx, policy, req.Uploads)
	if err != nil {
		return domain.IngestReport{}, err
	}
	report.Pages = len(pages)

	chunks, err := p.deps.Splitter.Split(ctx, pages)
	if err != nil {
		return domain.IngestReport{}, fmt.Errorf("split pages: %w", err)
	}
	report.Chunks = len(chunks)
	logger.Debug("pipeline: %d pages -> %d chunks (%s)", len(pages), len(chunks), p.deps.Splitter.Name())

	records, err := p.embedChunks(ctx, chunks)
	if err != nil {
		return domain.IngestReport{}, err
	}

	index, err := p.deps.BuildIndex(records)
	if err != nil {
		return domain.IngestReport{}, fmt.Errorf("build index: %w", err)
	}

	if p.store != nil {
		done := logger.Timed("persist")
		err := p.store.Save(ctx, records)
		done()
		if err != nil {
			return domain.IngestReport{}, fmt.Errorf("persist index: %w", err)
		}
		report.Persisted = true
	}

	docs, sources := summarisePages(pages)
	report.Documents = docs
	p.current.Store(&indexSnapshot{
		index:     index,
		builtAt:   p.now(),
		persisted: report.Persisted,
		documents: docs,
		sources:   sources,
		request:   &domain.IngestRequest{Policy: policy, Uploads: slices.Clone(req.Uploads)},
	})

	logger.Info("Indexed %d chunks from %d documents", report.Chunks, report.Documents)
	return report, nil
}

func (p *Pipeline) loadPages(ctx context.Context, policy domain.IngestPolicy, uploads []domain.Upload) ([]domain.Page, error) {
	done := logger.Timed("load")
	defer done()

	var pages []domain.Page
	if policy == domain.PolicyMerge && p.settings.CorpusDir != "" {
		corpus, err := p.deps.Loader.LoadPath(ctx, p.settings.CorpusDir)
		if err != nil {
			return nil, fmt.Errorf("load corpus: %w", err)
		}
		pages = append(pages, corpus...)
	}

	for _, u := range uploads {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		up, err := p.deps.Loader.LoadUpload(ctx, u.Name, u.Data)
		if err != nil {
			return nil, fmt.Errorf("load upload %s: %w", u.Name, err)
		}
		pages = append(pages, up...)
	}
	return pages, nil
}

// embedChunks embeds chunk texts in batches with bounded parallelism.
// Results keep chunk order.
func (p *Pipeline) embedChunks(ctx context.Context, chunks []domain.Chunk) ([]domain.VectorRecord, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	done := logger.Timed("embed")
	defer done()

	batch := p.settings.Embedding.BatchSize
	if batch <= 0 {
		batch = domain.DefaultBatchSize
	}
	limit := p.settings.Embedding.Concurrency
	if limit <= 0 {
		limit = domain.DefaultConcurrency
	}

	vectors := make([][]float32, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for start := 0; start < len(chunks); start += batch {
		end := min(start+batch, len(chunks))
		g.Go(func() error {
			texts := make([]string, 0, end-start)
			for i := start; i < end; i++ {
				texts = append(texts, chunks[i].Content)
			}
			vecs, err := p.deps.Embedder.EmbedBatch(gctx, texts)
			if err != nil {
				return fmt.Errorf("embed chunks %d-%d: %w", start, end-1, err)
			}
			if len(vecs) != len(texts) {
				return fmt.Errorf("%w: got %d embeddings for %d chunks",
					domain.ErrEmbeddingService, len(vecs), len(texts))
			}
			copy(vectors[start:end], vecs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := make([]domain.VectorRecord, len(chunks))
	for i := range chunks {
		records[i] = domain.VectorRecord{Chunk: chunks[i], Embedding: vectors[i]}
	}
	return records, nil
}

// Answer retrieves context for the question, assembles a prompt and generates
// an answer. On error the conversation is returned unchanged.
func (p *Pipeline) Answer(
	ctx context.Context,
	conv domain.Conversation,
	question string,
) (domain.Answer, domain.Conversation, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.Answer{}, conv, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}
	snap := p.current.Load()
	if snap == nil {
		return domain.Answer{}, conv, domain.ErrNoIndex
	}

	p.queries.Add(1)
	defer p.queries.Add(-1)

	if snap.index.Len() == 0 {
		return domain.Answer{}, conv, domain.ErrEmptyIndex
	}
	if p.deps.Generator == nil {
		return domain.Answer{}, conv, fmt.Errorf("%w: no generator configured", domain.ErrConfiguration)
	}

	hits, err := p.retriever.Retrieve(ctx, question, snap.index, p.settings.Retrieval.TopK)
	if err != nil {
		return domain.Answer{}, conv, fmt.Errorf("retrieve: %w", err)
	}
	if len(hits) == 0 {
		return domain.Answer{}, conv, domain.ErrEmptyIndex
	}

	prompt := Assemble(chunksOf(hits), question, p.template)
	prompt.History = conv.Recent(p.template.HistoryTurns)

	text, err := p.deps.Generator.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   p.settings.LLM.MaxTokens,
		Temperature: p.settings.LLM.Temperature,
	})
	if err != nil {
		return domain.Answer{}, conv, fmt.Errorf("generate answer: %w", err)
	}

	now := p.now()
	next := conv.With(
		domain.Turn{Role: domain.RoleUser, Content: question, At: now},
		domain.Turn{Role: domain.RoleAssistant, Content: text, At: now},
	)
	if next.CreatedAt.IsZero() {
		next.CreatedAt = now
	}

	answer := domain.Answer{
		Question: question,
		Text:     text,
		Sources:  hits,
		Prompt:   prompt,
	}
	return answer, next, nil
}

// Retrieve returns the top-k chunks for a question without generating.
// A non-positive k uses retrieval.top_k.
func (p *Pipeline) Retrieve(ctx context.Context, question string, k int) ([]domain.ScoredChunk, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}
	snap := p.current.Load()
	if snap == nil {
		return nil, domain.ErrNoIndex
	}

	p.queries.Add(1)
	defer p.queries.Add(-1)
	return p.retriever.Retrieve(ctx, question, snap.index, k)
}

// Generate sends a prompt straight to the generator with the configured options.
func (p *Pipeline) Generate(ctx context.Context, prompt domain.Prompt) (string, error) {
	if p.deps.Generator == nil {
		return "", fmt.Errorf("%w: no generator configured", domain.ErrConfiguration)
	}
	return p.deps.Generator.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   p.settings.LLM.MaxTokens,
		Temperature: p.settings.LLM.Temperature,
	})
}

// State returns the current lifecycle state.
func (p *Pipeline) State() domain.PipelineState {
	switch {
	case p.ingesting.Load():
		return domain.StateIngesting
	case p.current.Load() == nil:
		return domain.StateEmpty
	case p.queries.Load() > 0:
		return domain.StateQuerying
	default:
		return domain.StateReady
	}
}

// Stats describes the current index.
func (p *Pipeline) Stats() domain.IndexStats {
	snap := p.current.Load()
	if snap == nil {
		return domain.IndexStats{}
	}
	return domain.IndexStats{
		Records:   snap.index.Len(),
		Documents: snap.documents,
		Sources:   append([]string(nil), snap.sources...),
		BuiltAt:   snap.builtAt,
		Persisted: snap.persisted,
	}
}

// Template returns the resolved prompt template.
func (p *Pipeline) Template() domain.PromptTemplate {
	return p.template
}

// Settings returns the settings the pipeline was built with.
func (p *Pipeline) Settings() domain.Settings {
	return p.settings
}

func (p *Pipeline) now() time.Time {
	if p.deps.Now != nil {
		return p.deps.Now()
	}
	return time.Now()
}

func summarisePages(pages []domain.Page) (int, []string) {
	docs := make(map[string]string)
	for i := range pages {
		docs[pages[i].DocumentID] = pages[i].Source
	}
	return len(docs), sortedSources(docs)
}

func summarise(records []domain.VectorRecord) (int, []string) {
	docs := make(map[string]string)
	for i := range records {
		prov := records[i].Chunk.Provenance
		docs[prov.DocumentID] = prov.Source
	}
	return len(docs), sortedSources(docs)
}

func sortedSources(docs map[string]string) []string {
	seen := make(map[string]bool, len(docs))
	sources := make([]string, 0, len(docs))
	for _, src := range docs {
		if !seen[src] {
			seen[src] = true
			sources = append(sources, src)
		}
	}
	sort.Strings(sources)
	return sources
}
