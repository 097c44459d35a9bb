// Package chunker provides a fixed-size text chunking processor.
package chunker

import (
	"github.com/finsight-labs/finsight/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 200

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// Processor splits normalised text into fixed-size overlapping windows.
// Every input character lands in at least one chunk.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Chunk splits text into windows of chunkSize characters advancing by
// chunkSize-overlap. The final window is clamped to the text length.
func (p *Processor) Chunk(text string) []string {
	if text == "" {
		return nil
	}

	textLen := len(text)
	step := p.chunkSize - p.overlap

	estimatedChunks := (textLen / step) + 1
	chunks := make([]string, 0, estimatedChunks)

	start := 0
	for start < textLen {
		end := start + p.chunkSize
		if end > textLen {
			end = textLen
		}

		chunks = append(chunks, text[start:end])

		if end == textLen {
			break
		}
		start += step
	}

	return chunks
}
