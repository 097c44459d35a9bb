package driven

import (
	"context"

	"github.com/finsight-labs/finsight/internal/core/domain"
)

// Synthesizer is the generative model behind query deconstruction and
// answer synthesis. Both operations are prompt-driven text generation;
// adapters own the prompt templates (overridable via PromptStore).
type Synthesizer interface {
	// GenerateSubQuestions deconstructs a question into at most max
	// targeted sub-questions, in the order the model produced them.
	// An empty result is valid; callers fall back to the original
	// question.
	GenerateSubQuestions(ctx context.Context, question string, max int) ([]string, error)

	// Synthesize composes an answer from the extracted snippets.
	// The prompt contract forbids information not present in the
	// snippets and requires inline attribution to their source files.
	// Callers never invoke this with zero snippets.
	Synthesize(ctx context.Context, question string, snippets []domain.Snippet) (string, error)

	// ModelName returns the name of the generative model being used.
	ModelName() string
}
