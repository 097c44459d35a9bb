package huggingface

import (
	"context"
	"strings"

	"github.com/finsight-labs/finsight/internal/core/domain"
	"github.com/finsight-labs/finsight/internal/core/ports/driven"
)

// Ensure EntityExtractor implements the interface.
var _ driven.EntityExtractor = (*EntityExtractor)(nil)

// DefaultEntityModel recognises financial entities (organisations,
// monetary amounts, dates, percentages).
const DefaultEntityModel = "finsight-labs/distilbert-financial-ner"

// EntityExtractor finds named entities through the token classification
// pipeline. Simple aggregation merges subword pieces back into whole
// entities before they reach us.
type EntityExtractor struct {
	client *Client
	model  string
}

// entityRequest is the token classification request format.
type entityRequest struct {
	Inputs     string           `json:"inputs"`
	Parameters entityParameters `json:"parameters"`
	Options    inferenceOptions `json:"options"`
}

// entityParameters holds token classification parameters.
type entityParameters struct {
	AggregationStrategy string `json:"aggregation_strategy"`
}

// entityResult is one aggregated entity in the response.
type entityResult struct {
	EntityGroup string  `json:"entity_group"`
	Word        string  `json:"word"`
	Score       float64 `json:"score"`
}

// NewEntityExtractor creates an entity extractor on the shared client.
func NewEntityExtractor(client *Client, model string) *EntityExtractor {
	if model == "" {
		model = DefaultEntityModel
	}

	return &EntityExtractor{
		client: client,
		model:  model,
	}
}

// Extract returns the entities found in the text, in occurrence order.
func (e *EntityExtractor) Extract(ctx context.Context, text string) ([]domain.Entity, error) {
	var results []entityResult
	err := e.client.call(ctx, e.model, entityRequest{
		Inputs:     text,
		Parameters: entityParameters{AggregationStrategy: "simple"},
		Options:    waitForModel,
	}, &results)
	if err != nil {
		return nil, err
	}

	entities := make([]domain.Entity, 0, len(results))
	for _, r := range results {
		value := strings.TrimSpace(r.Word)
		if value == "" {
			continue
		}
		entities = append(entities, domain.Entity{
			Type:  r.EntityGroup,
			Value: value,
		})
	}
	return entities, nil
}
