package driven

import (
	"context"

	"github.com/finsight-labs/finsight/internal/core/domain"
)

// Classifier assigns a document category label from a fixed set.
// The label becomes the doc_type carried by every chunk of the document
// and surfaces in answer citations.
type Classifier interface {
	// Classify returns the best category label for the given text.
	// Callers pass a document prefix, not whole documents.
	Classify(ctx context.Context, text string) (domain.Classification, error)
}

// EntityExtractor finds named entities in chunk text.
type EntityExtractor interface {
	// Extract returns the entities found in the text, in occurrence
	// order. Duplicates are the caller's concern.
	Extract(ctx context.Context, text string) ([]domain.Entity, error)
}

// ExtractiveAnswerer produces an answer as a literal span copied from
// the given passage, never generated prose.
type ExtractiveAnswerer interface {
	// Answer returns the best span for the question within the passage.
	// A zero-confidence or empty span means no answer was found; that is
	// a result, not an error.
	Answer(ctx context.Context, question, passage string) (domain.Span, error)
}

// RelevanceClassifier scores a question against candidate topic labels
// without task-specific training (zero-shot).
type RelevanceClassifier interface {
	// ClassifyTopics returns a score per candidate label, ordered by
	// descending score. Ordering among equal scores follows the
	// candidate order, keeping gate decisions reproducible.
	ClassifyTopics(ctx context.Context, question string, candidates []string) ([]domain.TopicScore, error)
}
