// Package plaintext normalises plain text uploads.
package plaintext

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/finsight-labs/finsight/internal/core/domain"
	"github.com/finsight-labs/finsight/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles plain text documents.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{"txt", "text", "log", "md"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

// Normalise converts the upload to text with normalised line endings.
func (n *Normaliser) Normalise(_ context.Context, file *domain.UploadFile) (*driven.NormaliseResult, error) {
	if file == nil {
		return nil, domain.ErrInvalidInput
	}
	if !utf8.Valid(file.Content) {
		return nil, fmt.Errorf("%w: not valid UTF-8 text", domain.ErrParseFailed)
	}

	text := strings.ReplaceAll(string(file.Content), "\r\n", "\n")
	return &driven.NormaliseResult{Text: text}, nil
}
