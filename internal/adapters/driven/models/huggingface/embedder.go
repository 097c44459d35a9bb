package huggingface

import (
	"context"
	"fmt"

	"github.com/finsight-labs/finsight/internal/core/ports/driven"
)

// Ensure Embedder implements the interface.
var _ driven.EmbeddingService = (*Embedder)(nil)

// Default embedding configuration.
const (
	DefaultEmbedderModel = "BAAI/bge-large-en-v1.5"
	DefaultDimensions    = 1024
)

// Embedder generates embeddings through the feature extraction pipeline.
type Embedder struct {
	client     *Client
	model      string
	dimensions int
}

// embedRequest is the feature extraction request format.
type embedRequest struct {
	Inputs  []string         `json:"inputs"`
	Options inferenceOptions `json:"options"`
}

// NewEmbedder creates an embedder on the shared client.
func NewEmbedder(client *Client, model string, dimensions int) *Embedder {
	if model == "" {
		model = DefaultEmbedderModel
	}
	if dimensions == 0 {
		dimensions = DefaultDimensions
	}

	return &Embedder{
		client:     client,
		model:      model,
		dimensions: dimensions,
	}
}

// Embed generates a vector embedding for the given text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one request.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	var vectors [][]float32
	err := e.client.call(ctx, e.model, embedRequest{
		Inputs:  texts,
		Options: waitForModel,
	}, &vectors)
	if err != nil {
		return nil, err
	}

	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("huggingface returned %d embeddings for %d inputs", len(vectors), len(texts))
	}
	return vectors, nil
}

// Dimensions returns the embedding vector size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// ModelName returns the name of the embedding model being used.
func (e *Embedder) ModelName() string {
	return e.model
}

// Ping validates the service is reachable.
func (e *Embedder) Ping(ctx context.Context) error {
	return e.client.Ping(ctx, e.model)
}

// Close releases resources.
func (e *Embedder) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
