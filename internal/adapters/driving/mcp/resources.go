package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// uriScheme is the custom URI scheme for ragdesk resources.
const uriScheme = "ragdesk://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "index",
		Name:        "index",
		Description: "State and statistics of the current vector index",
		MIMEType:    "application/json",
	}, s.handleIndexResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "sessions/{sessionId}",
		Name:        "session",
		Description: "Turns of a stored conversation",
		MIMEType:    "application/json",
	}, s.handleSessionResource)
}

type indexInfo struct {
	State     string   `json:"state"`
	Records   int      `json:"records"`
	Documents int      `json:"documents"`
	Sources   []string `json:"sources"`
	Persisted bool     `json:"persisted"`
}

func (s *Server) handleIndexResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	stats := s.ports.Pipeline.Stats()
	info := indexInfo{
		State:     s.ports.Pipeline.State().String(),
		Records:   stats.Records,
		Documents: stats.Documents,
		Sources:   stats.Sources,
		Persisted: stats.Persisted,
	}
	if info.Sources == nil {
		info.Sources = []string{}
	}
	return jsonResource(req.Params.URI, info)
}

func (s *Server) handleSessionResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Sessions == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	id := extractSessionID(req.Params.URI)
	if id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	conv, err := s.ports.Sessions.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}
	return jsonResource(req.Params.URI, conv)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractSessionID extracts the session ID from a session URI.
func extractSessionID(uri string) string {
	const prefix = uriScheme + "sessions/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
