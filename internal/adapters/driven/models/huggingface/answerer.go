package huggingface

import (
	"context"
	"strings"

	"github.com/finsight-labs/finsight/internal/core/domain"
	"github.com/finsight-labs/finsight/internal/core/ports/driven"
)

// Ensure Answerer implements the interface.
var _ driven.ExtractiveAnswerer = (*Answerer)(nil)

// DefaultAnswererModel extracts answer spans from financial passages.
const DefaultAnswererModel = "finsight-labs/distilbert-financial-qa"

// spanCutset is the boundary punctuation QA models tend to catch at the
// edges of a span.
const spanCutset = " ,.;:-"

// Answerer extracts literal answer spans through the question answering
// pipeline.
type Answerer struct {
	client *Client
	model  string
}

// answerRequest is the question answering request format.
type answerRequest struct {
	Inputs  answerInputs     `json:"inputs"`
	Options inferenceOptions `json:"options"`
}

// answerInputs pairs the question with the passage to search.
type answerInputs struct {
	Question string `json:"question"`
	Context  string `json:"context"`
}

// answerResponse is the question answering response format.
type answerResponse struct {
	Answer string  `json:"answer"`
	Score  float64 `json:"score"`
	Start  int     `json:"start"`
	End    int     `json:"end"`
}

// NewAnswerer creates an extractive answerer on the shared client.
func NewAnswerer(client *Client, model string) *Answerer {
	if model == "" {
		model = DefaultAnswererModel
	}

	return &Answerer{
		client: client,
		model:  model,
	}
}

// Answer returns the best span in the passage for the question. The
// span is trimmed of boundary punctuation; a span that trims to nothing
// is reported as not found, not as an error.
func (a *Answerer) Answer(ctx context.Context, question, passage string) (domain.Span, error) {
	var resp answerResponse
	err := a.client.call(ctx, a.model, answerRequest{
		Inputs:  answerInputs{Question: question, Context: passage},
		Options: waitForModel,
	}, &resp)
	if err != nil {
		return domain.Span{}, err
	}

	text := strings.Trim(resp.Answer, spanCutset)
	if text == "" {
		return domain.Span{}, nil
	}

	return domain.Span{
		Text:       text,
		Confidence: resp.Score,
		Start:      resp.Start,
		End:        resp.End,
	}, nil
}
