package driving

import (
	"context"

	"github.com/finsight-labs/finsight/internal/core/domain"
)

// AskService answers stakeholder questions against a session's documents.
type AskService interface {
	// Ask runs one query turn: relevance gating, sub-question
	// deconstruction, scoped retrieval, extractive answering, and
	// grounded synthesis. The turn (user question plus assistant
	// answer) is appended to the session's history.
	//
	// A gate refusal is a successful Answer with Declined set, not an
	// error. Returns domain.ErrNotFound for unknown session IDs.
	Ask(ctx context.Context, sessionID, question string) (*domain.Answer, error)
}
