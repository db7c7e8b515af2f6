package mcp

import (
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server uses.
type Ports struct {
	// Pipeline answers questions and retrieves passages.
	Pipeline driving.PipelineService

	// Sessions keeps multi-turn conversations. Optional; without it every
	// ask is a single turn.
	Sessions driving.SessionService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Pipeline == nil {
		return ErrMissingPipeline
	}
	return nil
}
