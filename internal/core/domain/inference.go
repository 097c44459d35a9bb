package domain

// Classification is a document classifier result.
type Classification struct {
	// DocType is the predicted category label.
	DocType string

	// Confidence is the model's score for the label (0-1).
	Confidence float64
}

// Span is an extractive question-answering result: a literal span
// the model reports as present in the given context.
type Span struct {
	// Text is the extracted span. Empty means no answer was found.
	Text string

	// Confidence is the model's score for the span (0-1).
	Confidence float64

	// Start is the span's start offset within the context.
	Start int

	// End is the span's end offset within the context.
	End int
}

// TopicScore is one candidate topic with its relevance score.
// Relevance classifiers return these ordered by descending score.
type TopicScore struct {
	// Topic is the candidate topic label.
	Topic string

	// Score is the classifier's score for the label (0-1).
	Score float64
}

// GateDecision is the relevance gate's verdict on a question.
type GateDecision struct {
	// Admitted is true when the question may proceed to retrieval.
	Admitted bool

	// Topic is the best-scoring topic label.
	Topic string

	// Confidence is the score of the best topic.
	Confidence float64
}
