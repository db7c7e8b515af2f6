// Package tui provides an interactive chat interface for ragdesk.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
)

// Ports aggregates the driving ports required by the TUI.
type Ports struct {
	// Sessions owns the conversation shown on screen.
	Sessions driving.SessionService

	// Pipeline reports index state for the status bar.
	Pipeline driving.PipelineService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Sessions == nil {
		return ErrMissingSessionService
	}
	if p.Pipeline == nil {
		return ErrMissingPipeline
	}
	return nil
}
