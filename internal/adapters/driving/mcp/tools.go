package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ragdesk/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question  string `json:"question" jsonschema:"the question to answer from the indexed documents"`
	SessionID string `json:"session_id,omitempty" jsonschema:"optional session for follow-up questions"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer    string          `json:"answer"`
	SessionID string          `json:"session_id,omitempty"`
	Sources   []PassageOutput `json:"sources"`
}

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query string `json:"query" jsonschema:"text to find similar passages for"`
	K     int    `json:"k,omitempty" jsonschema:"maximum number of passages (default retrieval.top_k)"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Passages []PassageOutput `json:"passages"`
	Count    int             `json:"count"`
}

// PassageOutput is one retrieved chunk.
type PassageOutput struct {
	Source  string  `json:"source"`
	Page    int     `json:"page"`
	Origin  string  `json:"origin"`
	Score   float64 `json:"score"`
	Content string  `json:"content"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using the indexed PDF documents",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Find the passages most similar to a query without generating an answer",
	}, s.handleRetrieve)
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if input.SessionID != "" && s.ports.Sessions != nil {
		answer, _, err := s.ports.Sessions.Ask(ctx, input.SessionID, input.Question)
		if err != nil {
			return nil, AskOutput{}, toolError(err)
		}
		return nil, AskOutput{
			Answer:    answer.Text,
			SessionID: input.SessionID,
			Sources:   passages(answer.Sources),
		}, nil
	}

	answer, _, err := s.ports.Pipeline.Answer(ctx, domain.Conversation{}, input.Question)
	if err != nil {
		return nil, AskOutput{}, toolError(err)
	}
	return nil, AskOutput{Answer: answer.Text, Sources: passages(answer.Sources)}, nil
}

func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	hits, err := s.ports.Pipeline.Retrieve(ctx, input.Query, input.K)
	if err != nil {
		return nil, RetrieveOutput{}, toolError(err)
	}
	out := passages(hits)
	return nil, RetrieveOutput{Passages: out, Count: len(out)}, nil
}

func passages(hits []domain.ScoredChunk) []PassageOutput {
	out := make([]PassageOutput, len(hits))
	for i := range hits {
		prov := hits[i].Chunk.Provenance
		out[i] = PassageOutput{
			Source:  prov.Source,
			Page:    prov.Page + 1,
			Origin:  string(prov.Origin),
			Score:   hits[i].Score,
			Content: hits[i].Chunk.Content,
		}
	}
	return out
}

// toolError rewrites pipeline errors into messages an assistant can act on.
func toolError(err error) error {
	switch {
	case errors.Is(err, domain.ErrNoIndex):
		return fmt.Errorf("no documents have been ingested yet; run `ragdesk ingest` first: %w", err)
	case errors.Is(err, domain.ErrEmptyIndex):
		return fmt.Errorf("the index is empty; ingest at least one PDF: %w", err)
	default:
		return err
	}
}
