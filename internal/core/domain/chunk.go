package domain

// Chunk represents a bounded segment of a parsed document's text.
// It is the unit of embedding, retrieval, and citation.
// Chunks are immutable once created.
type Chunk struct {
	// ID is unique within an upload batch, of the form "doc{N}_chunk{M}".
	ID string

	// Text is the chunk's content.
	Text string

	// SourceFile is the name of the uploaded file this chunk came from.
	SourceFile string

	// DocType is the category label assigned by the classifier.
	DocType string

	// Entities are the named entities found in the chunk.
	// Duplicates are collapsed; order follows first appearance.
	Entities []Entity

	// Position is the ordinal position within the source document.
	Position int
}

// Entity is a named entity extracted from chunk text.
type Entity struct {
	// Type is the entity category (e.g. "ORG", "MONEY").
	Type string

	// Value is the literal entity text.
	Value string
}

// EmbeddedChunk is a chunk together with its embedding vector.
// Created once at ingestion time and persisted until the owning
// session is deleted.
type EmbeddedChunk struct {
	Chunk

	// Vector is the fixed-dimension embedding of Text.
	Vector []float32
}

// ScoredChunk is a chunk returned by similarity search.
type ScoredChunk struct {
	Chunk

	// Similarity is the cosine similarity to the query vector (0-1).
	Similarity float64
}

// DedupeEntities collapses duplicate (Type, Value) pairs, preserving
// the order of first appearance.
func DedupeEntities(entities []Entity) []Entity {
	if len(entities) == 0 {
		return nil
	}

	seen := make(map[Entity]struct{}, len(entities))
	out := make([]Entity, 0, len(entities))
	for _, e := range entities {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}
