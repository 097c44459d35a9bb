package driving

import (
	"context"

	"github.com/finsight-labs/finsight/internal/core/domain"
)

// SessionService manages chat sessions and their histories.
type SessionService interface {
	// List returns all sessions' metadata ordered by creation time.
	List(ctx context.Context) ([]domain.ChatSession, error)

	// History returns the session's messages in arrival order.
	// Returns domain.ErrNotFound for unknown session IDs.
	History(ctx context.Context, sessionID string) ([]domain.Message, error)

	// Delete removes the session, its messages, and every chunk and
	// vector scoped to it. Returns domain.ErrNotFound when the session
	// is already absent; a double delete never corrupts other sessions.
	Delete(ctx context.Context, sessionID string) error

	// Reconcile sweeps vector namespaces whose session row is gone,
	// repairing cascade deletes interrupted between stores.
	// Returns the number of namespaces removed.
	Reconcile(ctx context.Context) (int, error)
}
