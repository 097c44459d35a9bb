// Package csv normalises tabular uploads into labelled text. Each data
// row is rendered as "header: value" pairs so extractive models see the
// column meaning next to every cell.
package csv

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/finsight-labs/finsight/internal/core/domain"
	"github.com/finsight-labs/finsight/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles CSV and TSV documents.
type Normaliser struct{}

// New creates a new CSV normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedExtensions returns the extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{"csv", "tsv"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise renders the table as one line per row. The first row is
// treated as the header; data cells are prefixed with their column
// header.
func (n *Normaliser) Normalise(_ context.Context, file *domain.UploadFile) (*driven.NormaliseResult, error) {
	if file == nil {
		return nil, domain.ErrInvalidInput
	}

	reader := csv.NewReader(bytes.NewReader(file.Content))
	reader.FieldsPerRecord = -1 // Tolerate ragged rows
	if strings.EqualFold(filepath.Ext(file.Name), ".tsv") {
		reader.Comma = '\t'
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParseFailed, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty table", domain.ErrParseFailed)
	}

	var b strings.Builder
	header := records[0]
	b.WriteString(strings.Join(header, ", "))
	b.WriteString("\n")

	for _, row := range records[1:] {
		cells := make([]string, 0, len(row))
		for i, cell := range row {
			if i < len(header) && header[i] != "" {
				cells = append(cells, header[i]+": "+cell)
				continue
			}
			cells = append(cells, cell)
		}
		b.WriteString(strings.Join(cells, ", "))
		b.WriteString("\n")
	}

	return &driven.NormaliseResult{Text: b.String()}, nil
}
