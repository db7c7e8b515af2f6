package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAIProvider_IsValid(t *testing.T) {
	assert.True(t, AIProviderOpenAI.IsValid())
	assert.True(t, AIProviderAnthropic.IsValid())
	assert.True(t, AIProviderOllama.IsValid())
	assert.True(t, AIProviderLocal.IsValid())
	assert.False(t, AIProvider("cohere").IsValid())
}

func TestAIProvider_RequiresAPIKey(t *testing.T) {
	assert.True(t, AIProviderOpenAI.RequiresAPIKey())
	assert.True(t, AIProviderAnthropic.RequiresAPIKey())
	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.False(t, AIProviderLocal.RequiresAPIKey())
}

func TestAIProvider_Description(t *testing.T) {
	assert.Equal(t, "OpenAI (cloud)", AIProviderOpenAI.Description())
	assert.Equal(t, unknownDescription, AIProvider("x").Description())
}

func TestDefaultSettings_AreValid(t *testing.T) {
	s := DefaultSettings()

	assert.NoError(t, s.Validate())
	assert.Equal(t, DefaultChunkSize, s.Chunking.Size)
	assert.Equal(t, DefaultChunkOverlap, s.Chunking.Overlap)
	assert.Equal(t, DefaultTopK, s.Retrieval.TopK)
	assert.Equal(t, "ko", s.Prompt.Language)
	assert.Equal(t, "polite", s.Prompt.Style)
	if assert.NotNil(t, s.LLM.Temperature) {
		assert.Zero(t, *s.LLM.Temperature)
	}
	assert.False(t, s.Index.Persist)
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"zero chunk size", func(s *Settings) { s.Chunking.Size = 0 }},
		{"negative overlap", func(s *Settings) { s.Chunking.Overlap = -1 }},
		{"overlap equals size", func(s *Settings) { s.Chunking.Overlap = s.Chunking.Size }},
		{"zero top k", func(s *Settings) { s.Retrieval.TopK = 0 }},
		{"sqlite without dir", func(s *Settings) { s.Index.Persist = true }},
		{"postgres without dsn", func(s *Settings) {
			s.Index.Persist = true
			s.Index.Backend = IndexBackendPostgres
		}},
		{"unknown backend", func(s *Settings) {
			s.Index.Persist = true
			s.Index.Backend = "chroma"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(&s)
			assert.ErrorIs(t, s.Validate(), ErrConfiguration)
		})
	}
}

func TestEmbeddingSettings_ValidateEmbedding(t *testing.T) {
	assert.NoError(t, EmbeddingSettings{Provider: AIProviderLocal}.ValidateEmbedding())
	assert.NoError(t, EmbeddingSettings{Provider: AIProviderOllama}.ValidateEmbedding())
	assert.NoError(t, EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "sk"}.ValidateEmbedding())

	assert.ErrorIs(t, EmbeddingSettings{Provider: AIProviderOpenAI}.ValidateEmbedding(), ErrConfiguration)
	assert.ErrorIs(t, EmbeddingSettings{Provider: AIProviderAnthropic, APIKey: "k"}.ValidateEmbedding(), ErrConfiguration)
	assert.ErrorIs(t, EmbeddingSettings{}.ValidateEmbedding(), ErrConfiguration)
}

func TestLLMSettings_ValidateLLM(t *testing.T) {
	assert.NoError(t, LLMSettings{Provider: AIProviderAnthropic, APIKey: "k"}.ValidateLLM())
	assert.NoError(t, LLMSettings{Provider: AIProviderOllama}.ValidateLLM())

	assert.ErrorIs(t, LLMSettings{Provider: AIProviderAnthropic}.ValidateLLM(), ErrConfiguration)
	assert.ErrorIs(t, LLMSettings{Provider: AIProviderLocal}.ValidateLLM(), ErrConfiguration)
}

func TestIngestPolicy_IsValid(t *testing.T) {
	assert.True(t, PolicyMerge.IsValid())
	assert.True(t, PolicyUploadsOnly.IsValid())
	assert.False(t, IngestPolicy("replace").IsValid())
}
