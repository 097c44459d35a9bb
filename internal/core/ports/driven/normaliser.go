package driven

import (
	"context"

	"github.com/finsight-labs/finsight/internal/core/domain"
)

// Normaliser converts one uploaded file format to plain text.
// Each normaliser handles specific file extensions (e.g. pdf, csv).
type Normaliser interface {
	// SupportedExtensions returns the lowercase extensions this
	// normaliser handles, without the leading dot.
	SupportedExtensions() []string

	// Priority returns the selection priority (higher = preferred)
	// when several normalisers claim the same extension.
	Priority() int

	// Normalise extracts plain text from the file, preserving reading
	// order. Returns domain.ErrParseFailed (wrapped) when the file is
	// corrupt or yields no text.
	Normalise(ctx context.Context, file *domain.UploadFile) (*NormaliseResult, error)
}

// NormaliseResult contains the output of normalisation.
// Chunking is a separate step; normalisation only produces text.
type NormaliseResult struct {
	// Text is the full plain text in reading order.
	Text string
}

// NormaliserRegistry selects the appropriate normaliser for an upload.
// It maintains a priority-ordered set of normalisers and dispatches on
// file extension.
type NormaliserRegistry interface {
	// Normalise converts the file using the best matching normaliser.
	// Returns domain.ErrUnsupportedFormat (wrapped with the file name)
	// when no normaliser claims the extension.
	Normalise(ctx context.Context, file *domain.UploadFile) (*NormaliseResult, error)

	// Register adds a normaliser to the registry.
	Register(normaliser Normaliser)

	// SupportedExtensions returns all extensions that can be normalised.
	SupportedExtensions() []string
}

// Chunker splits parsed text into bounded, order-preserving segments.
// Every character of input is covered by at least one segment;
// consecutive segments overlap to preserve context at boundaries.
type Chunker interface {
	// Chunk returns the ordered segments of the text.
	Chunk(text string) []string
}
