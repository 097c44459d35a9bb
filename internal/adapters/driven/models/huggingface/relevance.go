package huggingface

import (
	"context"
	"fmt"
	"sort"

	"github.com/finsight-labs/finsight/internal/core/domain"
	"github.com/finsight-labs/finsight/internal/core/ports/driven"
)

// Ensure RelevanceClassifier implements the interface.
var _ driven.RelevanceClassifier = (*RelevanceClassifier)(nil)

// DefaultRelevanceModel scores questions against arbitrary topic labels.
const DefaultRelevanceModel = "facebook/bart-large-mnli"

// RelevanceClassifier scores questions against candidate topics through
// the zero-shot classification pipeline.
type RelevanceClassifier struct {
	client *Client
	model  string
}

// zeroShotRequest is the zero-shot classification request format.
type zeroShotRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters zeroShotParameters `json:"parameters"`
	Options    inferenceOptions   `json:"options"`
}

// zeroShotParameters holds the candidate labels to score against.
type zeroShotParameters struct {
	CandidateLabels []string `json:"candidate_labels"`
}

// zeroShotResponse is the zero-shot classification response format.
// Labels and Scores are parallel, ordered by descending score.
type zeroShotResponse struct {
	Labels []string  `json:"labels"`
	Scores []float64 `json:"scores"`
}

// NewRelevanceClassifier creates a relevance classifier on the shared client.
func NewRelevanceClassifier(client *Client, model string) *RelevanceClassifier {
	if model == "" {
		model = DefaultRelevanceModel
	}

	return &RelevanceClassifier{
		client: client,
		model:  model,
	}
}

// ClassifyTopics returns a score per candidate label, ordered by
// descending score with ties following the candidate order.
func (r *RelevanceClassifier) ClassifyTopics(ctx context.Context, question string, candidates []string) ([]domain.TopicScore, error) {
	if len(candidates) == 0 {
		return []domain.TopicScore{}, nil
	}

	var resp zeroShotResponse
	err := r.client.call(ctx, r.model, zeroShotRequest{
		Inputs:     question,
		Parameters: zeroShotParameters{CandidateLabels: candidates},
		Options:    waitForModel,
	}, &resp)
	if err != nil {
		return nil, err
	}

	if len(resp.Labels) != len(resp.Scores) {
		return nil, fmt.Errorf("huggingface returned %d labels with %d scores", len(resp.Labels), len(resp.Scores))
	}

	scores := make([]domain.TopicScore, 0, len(resp.Labels))
	for i, label := range resp.Labels {
		scores = append(scores, domain.TopicScore{Topic: label, Score: resp.Scores[i]})
	}

	// The API sorts by score but leaves tie order unspecified; re-sort
	// with candidate order as the tiebreak so gate decisions are
	// reproducible.
	index := make(map[string]int, len(candidates))
	for i, c := range candidates {
		index[c] = i
	}
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Score == scores[j].Score {
			return index[scores[i].Topic] < index[scores[j].Topic]
		}
		return scores[i].Score > scores[j].Score
	})

	return scores, nil
}
