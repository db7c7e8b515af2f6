package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies a model service provider for embeddings or generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderLocal is the built-in hashed n-gram embedder. Embeddings only.
	AIProviderLocal AIProvider = "local"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderLocal:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderLocal:
		return "Built-in n-gram embedder (offline)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	Provider AIProvider
	Model    string

	// BaseURL is the API endpoint. Empty uses the provider default.
	BaseURL string

	// APIKey is required for cloud providers.
	APIKey string

	// Dimensions overrides the model's native vector size when supported.
	Dimensions int

	// BatchSize is the number of texts per embedding request.
	BatchSize int

	// Concurrency bounds parallel embedding requests during ingestion.
	Concurrency int
}

// LLMSettings holds generator configuration.
type LLMSettings struct {
	Provider AIProvider
	Model    string
	BaseURL  string
	APIKey   string

	// Temperature is sent to the model when set. Nil leaves the vendor default.
	Temperature *float64

	// MaxTokens caps the completion length. Zero uses the adapter default.
	MaxTokens int
}

// RemoteSettings controls timeouts, retries and rate limits for model calls.
type RemoteSettings struct {
	Timeout       time.Duration
	MaxRetries    int
	BaseBackoff   time.Duration
	MaxBackoff    time.Duration
	RatePerSecond float64
	Burst         int
}

// ChunkSettings configures the chunker.
type ChunkSettings struct {
	Size    int
	Overlap int

	// Splitter names a registered splitter, "recursive" by default.
	Splitter string
}

// RetrievalSettings configures the retriever.
type RetrievalSettings struct {
	TopK int
}

// IndexBackend selects where a persisted index lives.
type IndexBackend string

// Index backends.
const (
	IndexBackendSQLite   IndexBackend = "sqlite"
	IndexBackendPostgres IndexBackend = "postgres"
)

// IsValid returns true if the backend is recognised.
func (b IndexBackend) IsValid() bool {
	return b == IndexBackendSQLite || b == IndexBackendPostgres
}

// IndexSettings configures the vector index persistence toggle.
type IndexSettings struct {
	Persist     bool
	Backend     IndexBackend
	Dir         string
	PostgresDSN string
}

// SessionBackend selects the conversation store.
type SessionBackend string

// Session backends.
const (
	SessionBackendMemory SessionBackend = "memory"
	SessionBackendRedis  SessionBackend = "redis"
)

// SessionSettings configures conversation storage.
type SessionSettings struct {
	Backend   SessionBackend
	RedisAddr string
	TTL       time.Duration
}

// Settings holds all pipeline settings.
type Settings struct {
	// CorpusDir is the default corpus directory of PDF files.
	CorpusDir string

	Chunking  ChunkSettings
	Retrieval RetrievalSettings
	Embedding EmbeddingSettings
	LLM       LLMSettings
	Remote    RemoteSettings
	Index     IndexSettings
	Prompt    PromptTemplate
	Session   SessionSettings

	// ServerAddr is the HTTP listen address.
	ServerAddr string
}

// Default values.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 100
	DefaultTopK         = 4
	DefaultBatchSize    = 16
	DefaultConcurrency  = 4
	DefaultServerAddr   = ":8080"
	DefaultSplitter     = "recursive"
)

// DefaultSettings returns settings with the pipeline defaults.
// Model providers are left unconfigured.
func DefaultSettings() Settings {
	temperature := 0.0
	return Settings{
		CorpusDir: "data",
		Chunking: ChunkSettings{
			Size:     DefaultChunkSize,
			Overlap:  DefaultChunkOverlap,
			Splitter: DefaultSplitter,
		},
		Retrieval: RetrievalSettings{TopK: DefaultTopK},
		Embedding: EmbeddingSettings{
			BatchSize:   DefaultBatchSize,
			Concurrency: DefaultConcurrency,
		},
		LLM: LLMSettings{
			Temperature: &temperature,
		},
		Remote: RemoteSettings{
			Timeout:       60 * time.Second,
			MaxRetries:    3,
			BaseBackoff:   200 * time.Millisecond,
			MaxBackoff:    5 * time.Second,
			RatePerSecond: 5,
			Burst:         10,
		},
		Index: IndexSettings{
			Backend: IndexBackendSQLite,
		},
		Prompt: PromptTemplate{
			Language: "ko",
			Style:    "polite",
		},
		Session: SessionSettings{
			Backend: SessionBackendMemory,
			TTL:     24 * time.Hour,
		},
		ServerAddr: DefaultServerAddr,
	}
}

// Validate checks the settings needed to build a pipeline.
// Failures wrap ErrConfiguration.
func (s Settings) Validate() error {
	if s.Chunking.Size <= 0 {
		return fmt.Errorf("%w: chunking.size must be positive, got %d", ErrConfiguration, s.Chunking.Size)
	}
	if s.Chunking.Overlap < 0 || s.Chunking.Overlap >= s.Chunking.Size {
		return fmt.Errorf("%w: chunking.overlap must be in [0, %d), got %d",
			ErrConfiguration, s.Chunking.Size, s.Chunking.Overlap)
	}
	if s.Retrieval.TopK <= 0 {
		return fmt.Errorf("%w: retrieval.top_k must be positive, got %d", ErrConfiguration, s.Retrieval.TopK)
	}
	if s.Index.Persist {
		switch s.Index.Backend {
		case IndexBackendSQLite:
			if s.Index.Dir == "" {
				return fmt.Errorf("%w: index.dir is required when index.persist is set", ErrConfiguration)
			}
		case IndexBackendPostgres:
			if s.Index.PostgresDSN == "" {
				return fmt.Errorf("%w: index.postgres_dsn is required for the postgres backend", ErrConfiguration)
			}
		default:
			return fmt.Errorf("%w: unknown index.backend %q", ErrConfiguration, s.Index.Backend)
		}
	}
	return nil
}

// ValidateEmbedding checks that an embedding provider is usable.
func (e EmbeddingSettings) ValidateEmbedding() error {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return fmt.Errorf("%w: unsupported embedding.provider %q", ErrConfiguration, e.Provider)
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return fmt.Errorf("%w: %s API key is required for embeddings", ErrConfiguration, e.Provider)
	}
	return nil
}

// ValidateLLM checks that a generator provider is usable.
func (l LLMSettings) ValidateLLM() error {
	if !l.Provider.IsValid() || l.Provider == AIProviderLocal {
		return fmt.Errorf("%w: unsupported llm.provider %q", ErrConfiguration, l.Provider)
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return fmt.Errorf("%w: %s API key is required for generation", ErrConfiguration, l.Provider)
	}
	return nil
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOpenAI,
		AIProviderOllama,
		AIProviderLocal,
	}
}

// AllLLMProviders returns providers that support generation.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOpenAI,
		AIProviderAnthropic,
		AIProviderOllama,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
		AIProviderLocal:  "ngram-hash-256",
	}
}

// DefaultLLMModels returns default models for each generator provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o",
		AIProviderAnthropic: "claude-3-haiku-20240307",
	}
}
