package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdesk/internal/adapters/driven/remote"
	"github.com/custodia-labs/ragdesk/internal/core/domain"
	"github.com/custodia-labs/ragdesk/internal/core/ports/driven"
)

func newTestGenerator(t *testing.T, url string) *Generator {
	t.Helper()
	g, err := NewGenerator(Config{
		APIKey:  "sk-ant-test",
		BaseURL: url,
		Remote: remote.Config{
			Timeout: time.Second,
			Policy:  remote.Policy{BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
		},
	})
	require.NoError(t, err)
	return g
}

func TestNewGenerator_RequiresAPIKey(t *testing.T) {
	_, err := NewGenerator(Config{})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestGenerate_SplitsSystemPrompt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var req messagesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "system text", req.System)
		assert.Equal(t, DefaultMaxTokens, req.MaxTokens)
		require.Len(t, req.Messages, 3)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "assistant", req.Messages[1].Role)
		assert.Equal(t, "question", req.Messages[2].Content)

		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"part one "},{"type":"text","text":"part two"}],"stop_reason":"end_turn"}`))
	}))
	defer server.Close()

	out, err := newTestGenerator(t, server.URL).Generate(context.Background(), domain.Prompt{
		System: "system text",
		History: []domain.Message{
			{Role: domain.RoleUser, Content: "earlier"},
			{Role: domain.RoleAssistant, Content: "reply"},
		},
		User: "question",
	}, driven.GenerateOptions{})

	require.NoError(t, err)
	assert.Equal(t, "part one part two", out)
}

func TestGenerate_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"content":[]}`))
	}))
	defer server.Close()

	_, err := newTestGenerator(t, server.URL).Generate(context.Background(), domain.Prompt{User: "q"}, driven.GenerateOptions{})
	assert.ErrorIs(t, err, domain.ErrGenerationService)
}

func TestGenerate_Overloaded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(529)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`))
	}))
	defer server.Close()

	_, err := newTestGenerator(t, server.URL).Generate(context.Background(), domain.Prompt{User: "q"}, driven.GenerateOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGenerationService)
	assert.True(t, domain.IsTransient(err))
	assert.Contains(t, err.Error(), "Overloaded")
}
