package ai

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator validates model provider configurations.
type ConfigValidator struct {
	remote domain.RemoteSettings
}

// NewConfigValidator creates a validator that uses the given remote settings
// for its pings.
func NewConfigValidator(rs domain.RemoteSettings) *ConfigValidator {
	// A validation ping should fail fast rather than retry.
	rs.MaxRetries = 0
	return &ConfigValidator{remote: rs}
}

// ValidateEmbedding validates an embedding configuration by pinging the provider.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	svc, err := CreateEmbeddingService(config, v.remote)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%s embeddings: %w", config.Provider, err)
	}
	return nil
}

// ValidateLLM validates a generator configuration by pinging the provider.
func (v *ConfigValidator) ValidateLLM(config *domain.LLMSettings) error {
	gen, err := CreateGenerator(config, v.remote)
	if err != nil {
		return err
	}
	defer gen.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := gen.Ping(ctx); err != nil {
		return fmt.Errorf("%s generation: %w", config.Provider, err)
	}
	return nil
}
