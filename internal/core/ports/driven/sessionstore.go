package driven

import (
	"context"

	"github.com/finsight-labs/finsight/internal/core/domain"
)

// SessionStore persists chat sessions and their message history.
// Backed by SQLite for durability across restarts.
type SessionStore interface {
	// Create stores a new session. The session row is the commit point
	// of ingestion: a session is visible if and only if its chunks are
	// fully persisted.
	Create(ctx context.Context, session *domain.ChatSession) error

	// Get retrieves a session by ID.
	// Returns domain.ErrNotFound for unknown IDs.
	Get(ctx context.Context, sessionID string) (*domain.ChatSession, error)

	// List returns all sessions ordered by creation time.
	List(ctx context.Context) ([]domain.ChatSession, error)

	// AppendMessage appends a message to the session's history.
	// Returns domain.ErrNotFound for unknown IDs.
	AppendMessage(ctx context.Context, sessionID string, msg *domain.Message) error

	// History returns the session's messages in arrival order.
	// Returns domain.ErrNotFound for unknown IDs.
	History(ctx context.Context, sessionID string) ([]domain.Message, error)

	// Delete removes the session and its messages.
	// Returns domain.ErrNotFound for unknown IDs; a second delete of
	// the same ID fails the same way without touching other sessions.
	Delete(ctx context.Context, sessionID string) error

	// Close releases resources.
	Close() error
}
