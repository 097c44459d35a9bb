package domain

import "fmt"

// AnswerNotFound is returned when no qualifying evidence was extracted
// from the session's documents. It is a successful outcome, not an error.
const AnswerNotFound = "Could not find relevant information in the uploaded documents."

// DeclineAnswer returns the fixed decline text for a question outside
// the given role's topic scope.
func DeclineAnswer(role Role) string {
	return fmt.Sprintf("This question does not seem related to the typical responsibilities of a %s.", role)
}

// Answer is the result of one query turn.
type Answer struct {
	// Text is the answer shown to the stakeholder.
	Text string

	// Sources are the cited documents, deduplicated in order of
	// first appearance across the snippets that grounded the answer.
	Sources []Source

	// Declined is true when the relevance gate refused the question.
	// A declined answer carries the fixed decline text and no sources.
	Declined bool
}

// Snippet is a literal answer span extracted for one sub-question.
// Snippets are ephemeral: consumed by synthesis within a single turn,
// never persisted.
type Snippet struct {
	// SubQuestion is the sub-question this snippet answers.
	SubQuestion string

	// Text is the verbatim span copied from chunk text.
	Text string

	// SourceFile is the uploaded file the span came from.
	SourceFile string

	// DocType is the category label of the source chunk.
	DocType string

	// ChunkID identifies the source chunk.
	ChunkID string
}

// Source returns the citation pair for this snippet.
func (s Snippet) Source() Source {
	return Source{SourceFile: s.SourceFile, DocType: s.DocType}
}

// DedupeSources collapses duplicate (SourceFile, DocType) pairs from
// snippets, preserving the order of first appearance. This ordering is
// the citation contract: reproducible given fixed snippet order.
func DedupeSources(snippets []Snippet) []Source {
	seen := make(map[Source]struct{}, len(snippets))
	out := make([]Source, 0, len(snippets))
	for _, sn := range snippets {
		src := sn.Source()
		if _, ok := seen[src]; ok {
			continue
		}
		seen[src] = struct{}{}
		out = append(out, src)
	}
	return out
}
