// Package anthropic provides a generator adapter using the Anthropic Messages API.
package anthropic

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
	DefaultBaseURL   = "https://api.anthropic.com"
	DefaultModel     = "claude-3-haiku-20240307"
	DefaultMaxTokens = 1024

	// anthropicVersion is the required API version header.
	anthropicVersion = "2023-06-01"
)

// Config holds configuration for the Anthropic generator.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.anthropic.com).
	BaseURL string

	// Model is the model to use (default: claude-3-haiku-20240307).
	Model string

	Remote remote.Config
}

// Generator sends prompts to the Anthropic Messages API.
type Generator struct {
	caller  *remote.Caller
	baseURL string
	apiKey  string
	model   string
}

// messagesRequest is the Anthropic /v1/messages request format.
type messagesRequest struct {
	Model       string            `json:"model"`
	Messages    []messagesMessage `json:"messages"`
	MaxTokens   int               `json:"max_tokens"`
	System      string            `json:"system,omitempty"`
	Temperature *float64          `json:"temperature,omitempty"`
}

// messagesMessage is the Anthropic message format.
type messagesMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messagesResponse is the Anthropic /v1/messages response format.
type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// NewGenerator creates a new Anthropic generator.
func NewGenerator(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: anthropic API key is required", domain.ErrConfiguration)
	}
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
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// Generate sends the prompt. The system instruction goes in the top-level
// system field; history and the question become messages.
func (g *Generator) Generate(ctx context.Context, prompt domain.Prompt, opts driven.GenerateOptions) (string, error) {
	messages := make([]messagesMessage, 0, len(prompt.History)+1)
	for _, msg := range prompt.History {
		if msg.Role == domain.RoleSystem {
			continue
		}
		messages = append(messages, messagesMessage{Role: msg.Role, Content: msg.Content})
	}
	messages = append(messages, messagesMessage{Role: domain.RoleUser, Content: prompt.User})

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	reqBody := messagesRequest{
		Model:       g.model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		System:      prompt.System,
		Temperature: opts.Temperature,
	}

	var msgResp messagesResponse
	if err := g.caller.PostJSON(ctx, g.baseURL+"/v1/messages", g.headers(), reqBody, &msgResp); err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, block := range msgResp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("%w: anthropic returned no text content", domain.ErrGenerationService)
	}
	return sb.String(), nil
}

// ModelName returns the name of the model being used.
func (g *Generator) ModelName() string {
	return g.model
}

// Ping validates the API key by listing models.
func (g *Generator) Ping(ctx context.Context) error {
	return g.caller.Get(ctx, g.baseURL+"/v1/models", g.headers())
}

// Close releases resources.
func (g *Generator) Close() error {
	return nil
}

func (g *Generator) headers() map[string]string {
	return map[string]string{
		"x-api-key":         g.apiKey,
		"anthropic-version": anthropicVersion,
	}
}
