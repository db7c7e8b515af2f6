package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/ragdesk/internal/adapters/driven/ai"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/evaluation/bertscore"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/storage/redis"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
	"github.com/custodia-labs/ragdesk/internal/core/services"
	"github.com/custodia-labs/ragdesk/internal/loaders/pdf"
	"github.com/custodia-labs/ragdesk/internal/logger"
	"github.com/custodia-labs/ragdesk/internal/postprocessors"
)

// PromptFunc asks the user for a secret value. Nil means non-interactive.
type PromptFunc func(label string) (string, error)

// BootstrapOptions controls how the runtime is assembled.
type BootstrapOptions struct {
	// ConfigDir defaults to ~/.ragdesk.
	ConfigDir string

	// RequireGenerator fails bootstrap when no generation provider is
	// usable. Ingest-only commands leave it unset.
	RequireGenerator bool

	// Prompt is used to ask for missing provider API keys.
	Prompt PromptFunc
}

// Runtime is a fully wired set of services.
type Runtime struct {
	Settings *services.SettingsService
	Pipeline *services.Pipeline
	Sessions *services.SessionService
	Compare  *services.CompareService

	// ConfigDir is the resolved configuration directory.
	ConfigDir string

	indexStore   driven.IndexStore
	sessionStore driven.SessionStore
}

// NewSettings loads .env files and opens the config store in configDir.
// It returns the settings service and the resolved directory.
func NewSettings(configDir string) (*services.SettingsService, string, error) {
	dir := configDir
	if dir == "" {
		d, err := file.DefaultConfigDir()
		if err != nil {
			return nil, "", fmt.Errorf("resolve config dir: %w", err)
		}
		dir = d
	}

	loaded, err := file.LoadEnv(".", dir)
	if err != nil {
		return nil, "", err
	}
	for _, f := range loaded {
		logger.Debug("loaded environment from %s", f)
	}

	store, err := file.NewConfigStore(dir)
	if err != nil {
		return nil, "", fmt.Errorf("open config: %w", err)
	}

	validator := ai.NewConfigValidator(domain.DefaultSettings().Remote)
	return services.NewSettingsService(store, validator, services.WithDataDir(dir)), dir, nil
}

// Bootstrap builds the pipeline and the services around it, and restores a
// persisted index when one exists.
func Bootstrap(ctx context.Context, opts BootstrapOptions) (*Runtime, error) {
	settingsSvc, dir, err := NewSettings(opts.ConfigDir)
	if err != nil {
		return nil, err
	}

	settings, err := settingsSvc.Get()
	if err != nil {
		return nil, err
	}
	if opts.Prompt != nil {
		changed, err := ensureAPIKeys(settings, dir, opts.RequireGenerator, opts.Prompt)
		if err != nil {
			return nil, err
		}
		if changed {
			if settings, err = settingsSvc.Get(); err != nil {
				return nil, err
			}
		}
	}

	rt := &Runtime{Settings: settingsSvc, ConfigDir: dir}
	if err := rt.build(ctx, settings, opts.RequireGenerator); err != nil {
		_ = rt.Close()
		return nil, err
	}
	return rt, nil
}

func (r *Runtime) build(ctx context.Context, settings domain.Settings, requireGenerator bool) error {
	embedder, err := ai.CreateEmbeddingService(&settings.Embedding, settings.Remote)
	if err != nil {
		return fmt.Errorf("embedding provider: %w", err)
	}

	generator, err := ai.CreateGenerator(&settings.LLM, settings.Remote)
	if err != nil {
		if requireGenerator {
			return fmt.Errorf("generation provider: %w", err)
		}
		logger.Debug("no generator configured: %v", err)
		generator = nil
	}

	splitter, err := postprocessors.DefaultRegistry().Build(settings.Chunking.Splitter, map[string]any{
		"chunk_size": settings.Chunking.Size,
		"overlap":    settings.Chunking.Overlap,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}

	if settings.Index.Persist {
		if r.indexStore, err = openIndexStore(ctx, settings.Index); err != nil {
			return err
		}
	}

	prompts, err := file.NewPromptStore(filepath.Join(r.ConfigDir, "prompts"))
	if err != nil {
		return fmt.Errorf("open prompts: %w", err)
	}

	pipeline, err := services.NewPipeline(services.Dependencies{
		Loader:     pdf.New(),
		Splitter:   splitter,
		Embedder:   embedder,
		BuildIndex: memory.Build,
		Generator:  generator,
		Store:      r.indexStore,
		Prompts:    prompts,
	}, settings)
	if err != nil {
		return err
	}
	restored, err := pipeline.Restore(ctx)
	if err != nil {
		logger.Warn("could not restore saved index: %v", err)
	} else if restored {
		logger.Debug("restored %d chunks from saved index", pipeline.Stats().Records)
	}
	r.Pipeline = pipeline

	if r.sessionStore, err = openSessionStore(ctx, settings.Session); err != nil {
		return err
	}
	r.Sessions = services.NewSessionService(pipeline, r.sessionStore)

	scorer, err := bertscore.New(embedder)
	if err != nil {
		return err
	}
	r.Compare = services.NewCompareService(pipeline, scorer, settings.Prompt.Language)
	return nil
}

func openIndexStore(ctx context.Context, cfg domain.IndexSettings) (driven.IndexStore, error) {
	switch cfg.Backend {
	case domain.IndexBackendPostgres:
		store, err := postgres.NewIndexStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	case domain.IndexBackendSQLite, "":
		store, err := sqlite.NewIndexStore(cfg.Dir)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: unknown index.backend %q", domain.ErrConfiguration, cfg.Backend)
	}
}

func openSessionStore(ctx context.Context, cfg domain.SessionSettings) (driven.SessionStore, error) {
	switch cfg.Backend {
	case domain.SessionBackendRedis:
		store, err := redis.NewSessionStore(ctx, redis.Options{Addr: cfg.RedisAddr, TTL: cfg.TTL})
		if err != nil {
			return nil, err
		}
		return store, nil
	case domain.SessionBackendMemory, "":
		return memory.NewSessionStore(cfg.TTL), nil
	default:
		return nil, fmt.Errorf("%w: unknown session.backend %q", domain.ErrConfiguration, cfg.Backend)
	}
}

// Close releases the stores opened by Bootstrap.
func (r *Runtime) Close() error {
	var errs []error
	if r.sessionStore != nil {
		errs = append(errs, r.sessionStore.Close())
	}
	if r.indexStore != nil {
		errs = append(errs, r.indexStore.Close())
	}
	return errors.Join(errs...)
}
