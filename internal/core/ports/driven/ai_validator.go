package driven

import "github.com/custodia-labs/ragdesk/internal/core/domain"

// AIConfigValidator validates model provider configurations.
// Implementations verify that configurations are valid by testing connectivity
// to the underlying services.
type AIConfigValidator interface {
	// ValidateEmbedding checks the settings and pings the embedding provider.
	ValidateEmbedding(config *domain.EmbeddingSettings) error

	// ValidateLLM checks the settings and pings the generation provider.
	ValidateLLM(config *domain.LLMSettings) error
}
