package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	ChatID   string `json:"chat_id" jsonschema:"the session to ask within"`
	Question string `json:"question" jsonschema:"the question to answer from the session's documents"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer   string         `json:"answer"`
	Sources  []SourceOutput `json:"sources"`
	Declined bool           `json:"declined"`
}

// SourceOutput is one cited document.
type SourceOutput struct {
	SourceFile string `json:"source_file"`
	DocType    string `json:"doc_type"`
}

// ListSessionsInput is the input schema for the list_sessions tool.
type ListSessionsInput struct{}

// ListSessionsOutput is the output schema for the list_sessions tool.
type ListSessionsOutput struct {
	Sessions []SessionOutput `json:"sessions"`
	Count    int             `json:"count"`
}

// SessionOutput is one session's metadata.
type SessionOutput struct {
	ChatID    string    `json:"chat_id"`
	Role      string    `json:"role"`
	Filenames []string  `json:"filenames"`
	CreatedAt time.Time `json:"created_at"`
}

// GetHistoryInput is the input schema for the get_history tool.
type GetHistoryInput struct {
	ChatID string `json:"chat_id" jsonschema:"the session whose history to fetch"`
}

// GetHistoryOutput is the output schema for the get_history tool.
type GetHistoryOutput struct {
	Messages []MessageOutput `json:"messages"`
	Count    int             `json:"count"`
}

// MessageOutput is one chat turn.
type MessageOutput struct {
	Role    string         `json:"role"`
	Content string         `json:"content"`
	Sources []SourceOutput `json:"sources,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Ask a question against a chat session's uploaded documents",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_sessions",
		Description: "List all chat sessions with their roles and uploaded files",
	}, s.handleListSessions)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_history",
		Description: "Fetch the full message history of a chat session",
	}, s.handleGetHistory)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Ask.Ask(ctx, input.ChatID, input.Question)
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:   answer.Text,
		Sources:  make([]SourceOutput, len(answer.Sources)),
		Declined: answer.Declined,
	}
	for i, src := range answer.Sources {
		output.Sources[i] = SourceOutput{
			SourceFile: src.SourceFile,
			DocType:    src.DocType,
		}
	}

	return nil, output, nil
}

// handleListSessions handles the list_sessions tool invocation.
func (s *Server) handleListSessions(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListSessionsInput,
) (*mcp.CallToolResult, ListSessionsOutput, error) {
	sessions, err := s.ports.Session.List(ctx)
	if err != nil {
		return nil, ListSessionsOutput{}, err
	}

	output := ListSessionsOutput{
		Sessions: make([]SessionOutput, len(sessions)),
		Count:    len(sessions),
	}
	for i, session := range sessions {
		filenames := session.Filenames
		if filenames == nil {
			filenames = []string{}
		}
		output.Sessions[i] = SessionOutput{
			ChatID:    session.ID,
			Role:      session.Role.String(),
			Filenames: filenames,
			CreatedAt: session.CreatedAt,
		}
	}

	return nil, output, nil
}

// handleGetHistory handles the get_history tool invocation.
func (s *Server) handleGetHistory(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetHistoryInput,
) (*mcp.CallToolResult, GetHistoryOutput, error) {
	messages, err := s.ports.Session.History(ctx, input.ChatID)
	if err != nil {
		return nil, GetHistoryOutput{}, err
	}

	output := GetHistoryOutput{
		Messages: make([]MessageOutput, len(messages)),
		Count:    len(messages),
	}
	for i, msg := range messages {
		out := MessageOutput{
			Role:    msg.Role,
			Content: msg.Content,
		}
		for _, src := range msg.Sources {
			out.Sources = append(out.Sources, SourceOutput{
				SourceFile: src.SourceFile,
				DocType:    src.DocType,
			})
		}
		output.Messages[i] = out
	}

	return nil, output, nil
}
