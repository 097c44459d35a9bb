package huggingface

import (
	"context"
	"fmt"

	"github.com/finsight-labs/finsight/internal/core/domain"
	"github.com/finsight-labs/finsight/internal/core/ports/driven"
)

// Ensure DocClassifier implements the interface.
var _ driven.Classifier = (*DocClassifier)(nil)

// DefaultClassifierModel labels financial documents by category.
const DefaultClassifierModel = "finsight-labs/distilbert-financial-doc-classifier"

// DocClassifier assigns document category labels through the text
// classification pipeline.
type DocClassifier struct {
	client *Client
	model  string
}

// classifyRequest is the text classification request format.
type classifyRequest struct {
	Inputs  string           `json:"inputs"`
	Options inferenceOptions `json:"options"`
}

// labelScore is one candidate label with its score.
type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// NewDocClassifier creates a document classifier on the shared client.
func NewDocClassifier(client *Client, model string) *DocClassifier {
	if model == "" {
		model = DefaultClassifierModel
	}

	return &DocClassifier{
		client: client,
		model:  model,
	}
}

// Classify returns the best category label for the given text.
func (c *DocClassifier) Classify(ctx context.Context, text string) (domain.Classification, error) {
	var results [][]labelScore
	err := c.client.call(ctx, c.model, classifyRequest{
		Inputs:  text,
		Options: waitForModel,
	}, &results)
	if err != nil {
		return domain.Classification{}, err
	}

	if len(results) == 0 || len(results[0]) == 0 {
		return domain.Classification{}, fmt.Errorf("huggingface returned no classification labels")
	}

	// The API does not promise label ordering, so scan for the best.
	best := results[0][0]
	for _, ls := range results[0][1:] {
		if ls.Score > best.Score {
			best = ls
		}
	}

	return domain.Classification{DocType: best.Label, Confidence: best.Score}, nil
}

// Ping validates the service is reachable.
func (c *DocClassifier) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, c.model)
}
