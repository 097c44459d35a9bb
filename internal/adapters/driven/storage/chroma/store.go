// Package chroma provides a ChromaDB-backed implementation of the
// vector store driven port. Each session namespace maps to one Chroma
// collection created with cosine similarity space, so retrieval is
// scoped to a single session's documents server-side.
package chroma

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"

	"github.com/finsight-labs/finsight/internal/core/domain"
	"github.com/finsight-labs/finsight/internal/core/ports/driven"
)

const (
	// DefaultBaseURL is the default Chroma server endpoint.
	DefaultBaseURL = "http://localhost:8000"

	// collectionPrefix namespaces this application's collections on a
	// shared Chroma server, so the reconcile sweep never touches
	// collections it does not own.
	collectionPrefix = "finsight-"
)

// Config holds Chroma connection settings.
type Config struct {
	// BaseURL is the Chroma server endpoint. Empty uses DefaultBaseURL.
	BaseURL string
}

// Store implements driven.VectorStore on a remote Chroma server.
type Store struct {
	client chromago.Client
}

var _ driven.VectorStore = (*Store)(nil)

// NewStore connects to a Chroma server.
func NewStore(cfg Config) (*Store, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	client, err := chromago.NewHTTPClient(chromago.WithBaseURL(baseURL))
	if err != nil {
		return nil, fmt.Errorf("creating chroma client: %w", err)
	}

	return &Store{client: client}, nil
}

// Upsert stores embedded chunks under the session's collection,
// creating it on first write.
func (s *Store) Upsert(ctx context.Context, sessionID string, chunks []domain.EmbeddedChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	collection, err := s.client.GetOrCreateCollection(ctx, collectionName(sessionID),
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(chromago.NewStringAttribute("hnsw:space", "cosine")),
		),
	)
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}

	ids := make([]chromago.DocumentID, 0, len(chunks))
	texts := make([]string, 0, len(chunks))
	vectors := make([]embeddings.Embedding, 0, len(chunks))
	metadatas := make([]chromago.DocumentMetadata, 0, len(chunks))
	for _, chunk := range chunks {
		metadata, err := chunkMetadata(chunk.Chunk)
		if err != nil {
			return err
		}
		ids = append(ids, chromago.DocumentID(chunk.ID))
		texts = append(texts, chunk.Text)
		vectors = append(vectors, embeddings.NewEmbeddingFromFloat32(chunk.Vector))
		metadatas = append(metadatas, metadata)
	}

	if err := collection.Add(ctx,
		chromago.WithIDs(ids...),
		chromago.WithTexts(texts...),
		chromago.WithEmbeddings(vectors...),
		chromago.WithMetadatas(metadatas...),
	); err != nil {
		return fmt.Errorf("adding chunks: %w", err)
	}
	return nil
}

// Query returns the k nearest chunks within the session's collection.
func (s *Store) Query(ctx context.Context, sessionID string, vector []float32, k int) ([]domain.ScoredChunk, error) {
	exists, err := s.namespaceExists(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return []domain.ScoredChunk{}, nil
	}

	collection, err := s.client.GetOrCreateCollection(ctx, collectionName(sessionID))
	if err != nil {
		return nil, fmt.Errorf("getting collection: %w", err)
	}

	// Chroma rejects n_results beyond the collection size, so clamp.
	count, err := collection.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting chunks: %w", err)
	}
	if count == 0 {
		return []domain.ScoredChunk{}, nil
	}
	if k <= 0 || k > int(count) {
		k = int(count)
	}

	results, err := collection.Query(ctx,
		chromago.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(vector)),
		chromago.WithNResults(k),
	)
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}

	documentGroups := results.GetDocumentsGroups()
	metadataGroups := results.GetMetadatasGroups()
	distanceGroups := results.GetDistancesGroups()
	if len(documentGroups) == 0 {
		return []domain.ScoredChunk{}, nil
	}

	scored := make([]domain.ScoredChunk, 0, len(documentGroups[0]))
	for i, doc := range documentGroups[0] {
		var metadata chromago.DocumentMetadata
		if len(metadataGroups) > 0 && i < len(metadataGroups[0]) {
			metadata = metadataGroups[0][i]
		}
		chunk, err := chunkFromMetadata(doc.ContentString(), metadata)
		if err != nil {
			return nil, err
		}

		// Chroma reports cosine distance; similarity is its complement.
		var similarity float64
		if len(distanceGroups) > 0 && i < len(distanceGroups[0]) {
			similarity = 1 - float64(distanceGroups[0][i])
			if similarity < 0 {
				similarity = 0
			}
		}

		scored = append(scored, domain.ScoredChunk{Chunk: chunk, Similarity: similarity})
	}
	return scored, nil
}

// DeleteNamespace drops the session's collection. Deleting a namespace
// that does not exist is not an error.
func (s *Store) DeleteNamespace(ctx context.Context, sessionID string) error {
	exists, err := s.namespaceExists(ctx, sessionID)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	if err := s.client.DeleteCollection(ctx, collectionName(sessionID)); err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}
	return nil
}

// ListNamespaces returns the session IDs with a collection on the server.
func (s *Store) ListNamespaces(ctx context.Context) ([]string, error) {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}

	ids := []string{}
	for _, collection := range collections {
		name := collection.Name()
		if !strings.HasPrefix(name, collectionPrefix) {
			continue
		}
		ids = append(ids, strings.TrimPrefix(name, collectionPrefix))
	}
	sort.Strings(ids)
	return ids, nil
}

// Close releases the client's resources.
func (s *Store) Close() error {
	return s.client.Close()
}

// namespaceExists reports whether the session has a collection.
func (s *Store) namespaceExists(ctx context.Context, sessionID string) (bool, error) {
	collections, err := s.client.ListCollections(ctx)
	if err != nil {
		return false, fmt.Errorf("listing collections: %w", err)
	}

	name := collectionName(sessionID)
	for _, collection := range collections {
		if collection.Name() == name {
			return true, nil
		}
	}
	return false, nil
}

// collectionName maps a session ID to its collection name.
func collectionName(sessionID string) string {
	return collectionPrefix + sessionID
}

// chunkMetadata encodes chunk fields the query path needs back.
func chunkMetadata(chunk domain.Chunk) (chromago.DocumentMetadata, error) {
	entitiesJSON, err := json.Marshal(chunk.Entities)
	if err != nil {
		return nil, fmt.Errorf("marshalling entities: %w", err)
	}

	return chromago.NewDocumentMetadata(
		chromago.NewStringAttribute("chunk_id", chunk.ID),
		chromago.NewStringAttribute("source_file", chunk.SourceFile),
		chromago.NewStringAttribute("doc_type", chunk.DocType),
		chromago.NewStringAttribute("entities", string(entitiesJSON)),
		chromago.NewIntAttribute("position", int64(chunk.Position)),
	), nil
}

// chunkFromMetadata rebuilds a chunk from a query hit. DocumentMetadata
// does not expose its values directly; round-trip through JSON to get a
// plain map.
func chunkFromMetadata(text string, metadata chromago.DocumentMetadata) (domain.Chunk, error) {
	chunk := domain.Chunk{Text: text}
	if metadata == nil {
		return chunk, nil
	}

	jsonBytes, err := json.Marshal(metadata)
	if err != nil {
		return chunk, fmt.Errorf("marshalling chunk metadata: %w", err)
	}
	var values map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &values); err != nil {
		return chunk, fmt.Errorf("unmarshalling chunk metadata: %w", err)
	}

	if v, ok := values["chunk_id"].(string); ok {
		chunk.ID = v
	}
	if v, ok := values["source_file"].(string); ok {
		chunk.SourceFile = v
	}
	if v, ok := values["doc_type"].(string); ok {
		chunk.DocType = v
	}
	if v, ok := values["position"].(float64); ok {
		chunk.Position = int(v)
	}
	if v, ok := values["entities"].(string); ok && v != "" && v != "null" {
		if err := json.Unmarshal([]byte(v), &chunk.Entities); err != nil {
			return chunk, fmt.Errorf("unmarshalling entities: %w", err)
		}
	}

	return chunk, nil
}
