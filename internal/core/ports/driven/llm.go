package driven

import (
	"context"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// Generator sends an assembled prompt to a hosted language model.
//
// Implementations may include:
//   - OpenAI (gpt-4o, gpt-4o-mini)
//   - Anthropic (Claude)
//   - Ollama (local models)
type Generator interface {
	// Generate returns the model's completion for the prompt.
	// Remote failures wrap domain.ErrGenerationService.
	Generate(ctx context.Context, prompt domain.Prompt, opts GenerateOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate. Zero uses the adapter default.
	MaxTokens int

	// Temperature controls randomness. Nil leaves the vendor default.
	Temperature *float64
}
