package services

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
)

// Dependencies are the driven ports a pipeline is built from.
type Dependencies struct {
	Loader     driven.DocumentLoader
	Splitter   driven.Splitter
	Embedder   driven.EmbeddingService
	BuildIndex driven.IndexBuilder

	// Generator may be nil for ingest-only use; Answer then fails with
	// domain.ErrConfiguration.
	Generator driven.Generator

	// Store is required when index.persist is set and ignored otherwise.
	Store driven.IndexStore

	// Prompts overrides built-in templates. Optional.
	Prompts driven.PromptStore

	// Now defaults to time.Now.
	Now func() time.Time
}

// NewPipeline validates the settings and returns a pipeline in the Empty
// state. Its configuration cannot change after construction; build a new
// pipeline instead. Call Restore to pick up a persisted index.
func NewPipeline(deps Dependencies, settings domain.Settings) (*Pipeline, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	switch {
	case deps.Loader == nil:
		return nil, fmt.Errorf("%w: document loader is required", domain.ErrConfiguration)
	case deps.Splitter == nil:
		return nil, fmt.Errorf("%w: splitter is required", domain.ErrConfiguration)
	case deps.Embedder == nil:
		return nil, fmt.Errorf("%w: embedding service is required", domain.ErrConfiguration)
	case deps.BuildIndex == nil:
		return nil, fmt.Errorf("%w: index builder is required", domain.ErrConfiguration)
	}

	var store driven.IndexStore
	if settings.Index.Persist {
		if deps.Store == nil {
			return nil, fmt.Errorf("%w: index.persist is set but no index store is configured", domain.ErrConfiguration)
		}
		store = deps.Store
	}

	tmpl, err := ResolveTemplate(settings.Prompt, deps.Prompts)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		deps:      deps,
		settings:  settings,
		template:  tmpl,
		retriever: NewRetriever(deps.Embedder, settings.Retrieval.TopK),
		store:     store,
	}, nil
}

// ResolveTemplate fills empty template parts from the prompt store, falling
// back to the built-in template for the language and style.
func ResolveTemplate(tmpl domain.PromptTemplate, prompts driven.PromptStore) (domain.PromptTemplate, error) {
	if tmpl.Language == "" {
		tmpl.Language = domain.DefaultLanguage
	}
	if tmpl.Style == "" {
		tmpl.Style = domain.DefaultStyle
	}
	builtin, hasBuiltin := domain.BuiltinTemplate(tmpl.Language, tmpl.Style)

	load := func(part string) (string, bool) {
		if prompts == nil {
			return "", false
		}
		s, err := prompts.Load(driven.PromptName(tmpl.Language, tmpl.Style, part))
		return s, err == nil
	}

	if tmpl.SystemInstruction == "" {
		if s, ok := load(driven.PromptPartSystem); ok {
			tmpl.SystemInstruction = s
		} else if hasBuiltin {
			tmpl.SystemInstruction = builtin.SystemInstruction
		} else {
			return domain.PromptTemplate{}, fmt.Errorf("%w: no prompt template for language %q and style %q",
				domain.ErrConfiguration, tmpl.Language, tmpl.Style)
		}
	}
	if tmpl.HumanTemplate == "" {
		if s, ok := load(driven.PromptPartHuman); ok {
			tmpl.HumanTemplate = s
		} else if hasBuiltin {
			tmpl.HumanTemplate = builtin.HumanTemplate
		}
	}
	return tmpl, nil
}

// PipelineKey returns a stable key for memoising pipelines built from the
// same corpus and configuration. Credentials are not part of the key.
func PipelineKey(settings domain.Settings, corpusDir string) string {
	if abs, err := filepath.Abs(corpusDir); err == nil && corpusDir != "" {
		corpusDir = abs
	}

	settings.Embedding.APIKey = ""
	settings.LLM.APIKey = ""
	settings.CorpusDir = corpusDir

	// Settings hold only plain values, so encoding cannot fail.
	data, _ := json.Marshal(struct {
		Corpus    string
		Chunking  domain.ChunkSettings
		Retrieval domain.RetrievalSettings
		Embedding domain.EmbeddingSettings
		LLM       domain.LLMSettings
		Index     domain.IndexSettings
		Prompt    domain.PromptTemplate
	}{
		Corpus:    settings.CorpusDir,
		Chunking:  settings.Chunking,
		Retrieval: settings.Retrieval,
		Embedding: settings.Embedding,
		LLM:       settings.LLM,
		Index:     settings.Index,
		Prompt:    settings.Prompt,
	})
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:12])
}
