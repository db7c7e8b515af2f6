package ollama

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

func newTestGenerator(url string) *Generator {
	return NewGenerator(Config{
		BaseURL: url,
		Remote: remote.Config{
			Timeout: time.Second,
			Policy:  remote.Policy{BaseDelay: time.Millisecond, MaxDelay: time.Millisecond},
		},
	})
}

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		assert.Equal(t, DefaultModel, req.Model)
		require.NotNil(t, req.Options)
		assert.Equal(t, 64, req.Options.NumPredict)
		require.Len(t, req.Messages, 2)

		_ = json.NewEncoder(w).Encode(chatResponse{
			Message: chatMessage{Role: "assistant", Content: "안녕하세요"},
			Done:    true,
		})
	}))
	defer server.Close()

	out, err := newTestGenerator(server.URL).Generate(context.Background(),
		domain.Prompt{System: "sys", User: "q"},
		driven.GenerateOptions{MaxTokens: 64})

	require.NoError(t, err)
	assert.Equal(t, "안녕하세요", out)
}

func TestGenerate_NoOptionsWhenUnset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Nil(t, req.Options)
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"ok"},"done":true}`))
	}))
	defer server.Close()

	_, err := newTestGenerator(server.URL).Generate(context.Background(), domain.Prompt{User: "q"}, driven.GenerateOptions{})
	require.NoError(t, err)
}

func TestGenerate_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestGenerator(url).Generate(context.Background(), domain.Prompt{User: "q"}, driven.GenerateOptions{})
	assert.ErrorIs(t, err, domain.ErrGenerationService)
}

func TestPingAndModelName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer server.Close()

	g := newTestGenerator(server.URL)
	assert.NoError(t, g.Ping(context.Background()))
	assert.Equal(t, DefaultModel, g.ModelName())
	assert.NoError(t, g.Close())
}
