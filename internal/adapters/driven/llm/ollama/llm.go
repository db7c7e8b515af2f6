// Package ollama provides a generator adapter using a local Ollama instance.
package ollama

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/ragdesk/internal/adapters/driven/remote"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
)

// Ensure Generator implements the interface.
var _ driven.Generator = (*Generator)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2"
)

// Config holds configuration for the Ollama generator.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the model to use (default: llama3.2).
	Model string

	Remote remote.Config
}

// Generator sends prompts to Ollama's /api/chat endpoint.
type Generator struct {
	caller  *remote.Caller
	baseURL string
	model   string
}

// options are Ollama model parameters.
type options struct {
	NumPredict  int      `json:"num_predict,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// chatRequest is the Ollama /api/chat request format.
type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *options      `json:"options,omitempty"`
}

// chatMessage is the Ollama chat message format.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the Ollama /api/chat response format.
type chatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
}

// NewGenerator creates a new Ollama generator.
func NewGenerator(cfg Config) *Generator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	cfg.Remote.Service = domain.ErrGenerationService
	return &Generator{
		caller:  remote.NewCaller(cfg.Remote),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
	}
}

// Generate sends the prompt as a non-streaming chat request.
func (g *Generator) Generate(ctx context.Context, prompt domain.Prompt, opts driven.GenerateOptions) (string, error) {
	messages := prompt.Messages()
	chatMessages := make([]chatMessage, len(messages))
	for i, msg := range messages {
		chatMessages[i] = chatMessage{Role: msg.Role, Content: msg.Content}
	}

	reqBody := chatRequest{
		Model:    g.model,
		Messages: chatMessages,
		Stream:   false,
	}
	if opts.MaxTokens > 0 || opts.Temperature != nil {
		reqBody.Options = &options{
			NumPredict:  opts.MaxTokens,
			Temperature: opts.Temperature,
		}
	}

	var chatResp chatResponse
	if err := g.caller.PostJSON(ctx, g.baseURL+"/api/chat", nil, reqBody, &chatResp); err != nil {
		return "", err
	}
	if !chatResp.Done && chatResp.Message.Content == "" {
		return "", fmt.Errorf("%w: ollama returned an incomplete response", domain.ErrGenerationService)
	}
	return chatResp.Message.Content, nil
}

// ModelName returns the name of the model being used.
func (g *Generator) ModelName() string {
	return g.model
}

// Ping validates the service is reachable by checking the /api/tags endpoint.
func (g *Generator) Ping(ctx context.Context) error {
	return g.caller.Get(ctx, g.baseURL+"/api/tags", nil)
}

// Close releases resources.
func (g *Generator) Close() error {
	return nil
}
