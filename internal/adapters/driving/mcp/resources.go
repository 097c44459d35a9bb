package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/finsight-labs/finsight/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for FinSight resources.
	uriScheme = "finsight://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing chat sessions.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "sessions",
		Name:        "sessions",
		Description: "List of all chat sessions",
		MIMEType:    "application/json",
	}, s.handleSessionsResource)

	// Template for session histories.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "sessions/{sessionId}/history",
		Name:        "session-history",
		Description: "Message history of a specific chat session",
		MIMEType:    "application/json",
	}, s.handleHistoryResource)
}

// handleSessionsResource returns a list of all chat sessions.
func (s *Server) handleSessionsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	sessions, err := s.ports.Session.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	// Build simplified session list.
	type sessionInfo struct {
		ChatID    string    `json:"chat_id"`
		Role      string    `json:"role"`
		Filenames []string  `json:"filenames"`
		CreatedAt time.Time `json:"created_at"`
	}

	infos := make([]sessionInfo, len(sessions))
	for i, session := range sessions {
		filenames := session.Filenames
		if filenames == nil {
			filenames = []string{}
		}
		infos[i] = sessionInfo{
			ChatID:    session.ID,
			Role:      session.Role.String(),
			Filenames: filenames,
			CreatedAt: session.CreatedAt,
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling sessions: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleHistoryResource returns the message history of a specific session.
func (s *Server) handleHistoryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract sessionId from URI: finsight://sessions/{sessionId}/history
	sessionID := extractSessionID(req.Params.URI)
	if sessionID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	messages, err := s.ports.Session.History(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		return nil, fmt.Errorf("fetching history: %w", err)
	}

	// Build simplified message list.
	type sourceInfo struct {
		SourceFile string `json:"source_file"`
		DocType    string `json:"doc_type"`
	}
	type messageInfo struct {
		Role      string       `json:"role"`
		Content   string       `json:"content"`
		Sources   []sourceInfo `json:"sources,omitempty"`
		CreatedAt time.Time    `json:"created_at"`
	}

	infos := make([]messageInfo, len(messages))
	for i, msg := range messages {
		info := messageInfo{
			Role:      msg.Role,
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt,
		}
		for _, src := range msg.Sources {
			info.Sources = append(info.Sources, sourceInfo{
				SourceFile: src.SourceFile,
				DocType:    src.DocType,
			})
		}
		infos[i] = info
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling history: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractSessionID extracts the session ID from a URI like finsight://sessions/{sessionId}/history.
func extractSessionID(uri string) string {
	const prefix = uriScheme + "sessions/"
	const suffix = "/history"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}
