package driven

import (
	"context"

	"github.com/finsight-labs/finsight/internal/core/domain"
)

// VectorStore persists embedded chunks and serves similarity search.
// Entries are namespaced by session ID so retrieval is always scoped
// to one session's documents.
type VectorStore interface {
	// Upsert stores the embedded chunks under the session namespace.
	// Re-upserting a (sessionID, chunkID) pair replaces the entry.
	Upsert(ctx context.Context, sessionID string, chunks []domain.EmbeddedChunk) error

	// Query returns the k most similar chunks within the session
	// namespace, ordered by descending similarity. Fewer than k (or
	// zero) results is valid.
	Query(ctx context.Context, sessionID string, vector []float32, k int) ([]domain.ScoredChunk, error)

	// DeleteNamespace removes every chunk under the session namespace.
	// Deleting an absent namespace is not an error.
	DeleteNamespace(ctx context.Context, sessionID string) error

	// ListNamespaces returns the session IDs that currently hold chunks.
	// Used to sweep namespaces orphaned by a failed cascade delete.
	ListNamespaces(ctx context.Context) ([]string, error)

	// Close releases resources.
	Close() error
}
