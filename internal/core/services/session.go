package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/finsight-labs/finsight/internal/core/domain"
	"github.com/finsight-labs/finsight/internal/core/ports/driven"
	"github.com/finsight-labs/finsight/internal/core/ports/driving"
	"github.com/finsight-labs/finsight/internal/logger"
)

// Ensure SessionService implements the interface.
var _ driving.SessionService = (*SessionService)(nil)

// SessionService manages chat session lifecycle: listing, history and
// deletion with its vector cascade.
type SessionService struct {
	sessions driven.SessionStore
	vectors  driven.VectorStore
}

// NewSessionService creates a new session service.
func NewSessionService(sessions driven.SessionStore, vectors driven.VectorStore) *SessionService {
	return &SessionService{
		sessions: sessions,
		vectors:  vectors,
	}
}

// List returns all sessions, newest first.
func (s *SessionService) List(ctx context.Context) ([]domain.ChatSession, error) {
	sessions, err := s.sessions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// History returns the message history for a session in turn order.
func (s *SessionService) History(ctx context.Context, sessionID string) ([]domain.Message, error) {
	messages, err := s.sessions.History(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	return messages, nil
}

// Delete removes a session, its messages and its vectors. The session
// row goes first so retrieval can never see the session again; a
// failed vector delete leaves an orphan namespace that Reconcile
// sweeps later. Deleting an unknown session returns ErrNotFound.
func (s *SessionService) Delete(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if err := s.vectors.DeleteNamespace(ctx, sessionID); err != nil {
		logger.Warn("Failed to delete vectors for %s: %v (will be swept)", sessionID, err)
		return nil
	}
	logger.Info("Deleted session %s", sessionID)
	return nil
}

// Reconcile removes vector namespaces whose session no longer exists.
// Run at startup to sweep orphans left by interrupted deletes. Returns
// the number of namespaces removed.
func (s *SessionService) Reconcile(ctx context.Context) (int, error) {
	namespaces, err := s.vectors.ListNamespaces(ctx)
	if err != nil {
		return 0, fmt.Errorf("list namespaces: %w", err)
	}

	swept := 0
	for _, id := range namespaces {
		_, err := s.sessions.Get(ctx, id)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return swept, fmt.Errorf("get session %s: %w", id, err)
		}
		if err := s.vectors.DeleteNamespace(ctx, id); err != nil {
			return swept, fmt.Errorf("delete namespace %s: %w", id, err)
		}
		logger.Debug("Swept orphan namespace %s", id)
		swept++
	}

	if swept > 0 {
		logger.Info("Reconcile swept %d orphan namespace(s)", swept)
	}
	return swept, nil
}
