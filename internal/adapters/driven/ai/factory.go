// Package ai provides factory functions for creating model service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	localembed "github.com/custodia-labs/ragdesk/internal/adapters/driven/embedding/local"
	ollamaembed "github.com/custodia-labs/ragdesk/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/ragdesk/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/ragdesk/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/ragdesk/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/ragdesk/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/ragdesk/internal/adapters/driven/remote"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// RemoteConfig converts remote settings into adapter plumbing configuration.
func RemoteConfig(settings domain.RemoteSettings) remote.Config {
	return remote.Config{
		Timeout: settings.Timeout,
		Policy: remote.Policy{
			MaxRetries: settings.MaxRetries,
			BaseDelay:  settings.BaseBackoff,
			MaxDelay:   settings.MaxBackoff,
		},
		RateLimit: remote.RateLimitConfig{
			RequestsPerSecond: settings.RatePerSecond,
			BurstSize:         settings.Burst,
		},
	}
}

// CreateEmbeddingService creates the embedding service selected by settings.
// Invalid settings wrap domain.ErrConfiguration.
func CreateEmbeddingService(settings *domain.EmbeddingSettings, rs domain.RemoteSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: embedding settings are missing", domain.ErrConfiguration)
	}
	if err := settings.ValidateEmbedding(); err != nil {
		return nil, err
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
			Remote:     RemoteConfig(rs),
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
			Remote:     RemoteConfig(rs),
		})

	case domain.AIProviderLocal:
		return localembed.NewEmbeddingService(localembed.Config{
			Dimensions: settings.Dimensions,
		})

	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider: %s", domain.ErrConfiguration, settings.Provider)
	}
}

// CreateGenerator creates the generator selected by settings.
// Invalid settings wrap domain.ErrConfiguration.
func CreateGenerator(settings *domain.LLMSettings, rs domain.RemoteSettings) (driven.Generator, error) {
	if settings == nil {
		return nil, fmt.Errorf("%w: llm settings are missing", domain.ErrConfiguration)
	}
	if err := settings.ValidateLLM(); err != nil {
		return nil, err
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewGenerator(ollamallm.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Remote:  RemoteConfig(rs),
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewGenerator(openaillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Remote:  RemoteConfig(rs),
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewGenerator(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Remote:  RemoteConfig(rs),
		})

	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider: %s", domain.ErrConfiguration, settings.Provider)
	}
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
func CreateAndValidateEmbeddingService(
	settings *domain.EmbeddingSettings,
	rs domain.RemoteSettings,
) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings, rs)
	if err != nil {
		return nil, fmt.Errorf("%w. Run 'ragdesk settings set' to fix", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("embedding service unreachable: %w", err)
	}
	return svc, nil
}

// CreateAndValidateGenerator creates a generator and validates connectivity.
func CreateAndValidateGenerator(settings *domain.LLMSettings, rs domain.RemoteSettings) (driven.Generator, error) {
	gen, err := CreateGenerator(settings, rs)
	if err != nil {
		return nil, fmt.Errorf("%w. Run 'ragdesk settings set' to fix", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := gen.Ping(ctx); err != nil {
		_ = gen.Close()
		return nil, fmt.Errorf("generation service unreachable: %w", err)
	}
	return gen, nil
}
