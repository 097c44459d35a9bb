// Package mcp provides an MCP (Model Context Protocol) server adapter for FinSight.
// It enables AI assistants to query uploaded financial documents through the
// same gated pipeline the REST API uses.
package mcp

import "errors"

// Errors returned when required ports are not provided.
var (
	// ErrMissingAskService is returned when the ask service is not provided.
	ErrMissingAskService = errors.New("mcp: ask service is required")

	// ErrMissingSessionService is returned when the session service is not provided.
	ErrMissingSessionService = errors.New("mcp: session service is required")
)
