package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/finsight-labs/finsight/internal/core/domain"
	"github.com/finsight-labs/finsight/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is an in-memory implementation of driven.VectorStore.
// Queries run a brute-force cosine scan over the session's chunks,
// which is fine for the corpus sizes a single chat session holds.
type VectorStore struct {
	mu         sync.RWMutex
	namespaces map[string][]domain.EmbeddedChunk
}

// NewVectorStore creates a new in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		namespaces: make(map[string][]domain.EmbeddedChunk),
	}
}

// Upsert stores embedded chunks under a session namespace.
func (s *VectorStore) Upsert(_ context.Context, sessionID string, chunks []domain.EmbeddedChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.namespaces[sessionID]
	byID := make(map[string]int, len(existing))
	for i := range existing {
		byID[existing[i].ID] = i
	}
	for _, chunk := range chunks {
		if i, ok := byID[chunk.ID]; ok {
			existing[i] = chunk
			continue
		}
		existing = append(existing, chunk)
		byID[chunk.ID] = len(existing) - 1
	}
	s.namespaces[sessionID] = existing
	return nil
}

// Query returns the k nearest chunks by cosine similarity.
func (s *VectorStore) Query(_ context.Context, sessionID string, vector []float32, k int) ([]domain.ScoredChunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunks, ok := s.namespaces[sessionID]
	if !ok || len(chunks) == 0 {
		return []domain.ScoredChunk{}, nil
	}

	scored := make([]domain.ScoredChunk, 0, len(chunks))
	for i := range chunks {
		scored = append(scored, domain.ScoredChunk{
			Chunk:      chunks[i].Chunk,
			Similarity: CosineSimilarity(vector, chunks[i].Vector),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})

	if k > 0 && k < len(scored) {
		scored = scored[:k]
	}
	return scored, nil
}

// DeleteNamespace removes all vectors for a session. Deleting a
// namespace that does not exist is not an error.
func (s *VectorStore) DeleteNamespace(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.namespaces, sessionID)
	return nil
}

// ListNamespaces returns the IDs of all sessions with stored vectors.
func (s *VectorStore) ListNamespaces(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.namespaces))
	for id := range s.namespaces {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Close is a no-op for the in-memory store.
func (s *VectorStore) Close() error {
	return nil
}

// CosineSimilarity computes the cosine similarity between two vectors.
// Mismatched lengths and zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
