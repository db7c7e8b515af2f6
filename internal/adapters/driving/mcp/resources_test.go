package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

func readRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestExtractSessionID(t *testing.T) {
	tests := []struct {
		uri      string
		expected string
	}{
		{"ragdesk://sessions/abc", "abc"},
		{"ragdesk://sessions/", ""},
		{"ragdesk://sessions/abc/turns", ""},
		{"file://sessions/abc", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractSessionID(tt.uri))
		})
	}
}

func TestServer_handleIndexResource(t *testing.T) {
	pipeline := &mockPipeline{
		state: domain.StateReady,
		stats: domain.IndexStats{Records: 12, Documents: 2, Sources: []string{"a.pdf", "b.pdf"}},
	}
	server, err := NewServer(&Ports{Pipeline: pipeline})
	require.NoError(t, err)

	res, err := server.handleIndexResource(context.Background(), readRequest("ragdesk://index"))

	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	var got indexInfo
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &got))
	assert.Equal(t, "ready", got.State)
	assert.Equal(t, 12, got.Records)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, got.Sources)
}

func TestServer_handleIndexResource_Empty(t *testing.T) {
	server, err := NewServer(&Ports{Pipeline: &mockPipeline{state: domain.StateEmpty}})
	require.NoError(t, err)

	res, err := server.handleIndexResource(context.Background(), readRequest("ragdesk://index"))

	require.NoError(t, err)
	assert.Contains(t, res.Contents[0].Text, `"sources":[]`)
}

func TestServer_handleSessionResource(t *testing.T) {
	ctx := context.Background()
	sessions := &mockSessions{convs: map[string]domain.Conversation{
		"s1": {SessionID: "s1", Turns: []domain.Turn{{Role: "assistant", Content: "hi"}}},
	}}

	t.Run("returns conversation", func(t *testing.T) {
		server, err := NewServer(&Ports{Pipeline: &mockPipeline{}, Sessions: sessions})
		require.NoError(t, err)

		res, err := server.handleSessionResource(ctx, readRequest("ragdesk://sessions/s1"))

		require.NoError(t, err)
		assert.Contains(t, res.Contents[0].Text, `"session_id":"s1"`)
	})

	t.Run("unknown session", func(t *testing.T) {
		server, err := NewServer(&Ports{Pipeline: &mockPipeline{}, Sessions: sessions})
		require.NoError(t, err)

		_, err = server.handleSessionResource(ctx, readRequest("ragdesk://sessions/zz"))

		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("no session service", func(t *testing.T) {
		server, err := NewServer(&Ports{Pipeline: &mockPipeline{}})
		require.NoError(t, err)

		_, err = server.handleSessionResource(ctx, readRequest("ragdesk://sessions/s1"))

		assert.Error(t, err)
	})
}
