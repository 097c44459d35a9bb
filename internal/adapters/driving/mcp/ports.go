package mcp

import (
	"github.com/finsight-labs/finsight/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Ask answers questions against a session's documents.
	Ask driving.AskService

	// Session manages sessions and their histories.
	Session driving.SessionService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Ask == nil {
		return ErrMissingAskService
	}
	if p.Session == nil {
		return ErrMissingSessionService
	}
	return nil
}
