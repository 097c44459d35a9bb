package huggingface

import (
	"context"
	"fmt"
	"strings"

	"github.com/finsight-labs/finsight/internal/core/domain"
	"github.com/finsight-labs/finsight/internal/core/ports/driven"
)

// Ensure Synthesizer implements the interfaces.
var (
	_ driven.Synthesizer      = (*Synthesizer)(nil)
	_ driven.PromptStoreAware = (*Synthesizer)(nil)
)

// Default generation configuration.
const (
	DefaultSynthesizerModel = "google/flan-t5-base"

	subQuestionMaxTokens = 100
	synthesisMaxTokens   = 512
)

// Synthesizer runs prompt-driven generation through the text-to-text
// pipeline: question deconstruction and grounded answer synthesis.
type Synthesizer struct {
	client      *Client
	model       string
	promptStore driven.PromptStore
}

// generateRequest is the text-to-text generation request format.
type generateRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters generateParameters `json:"parameters"`
	Options    inferenceOptions   `json:"options"`
}

// generateParameters holds generation parameters.
type generateParameters struct {
	MaxNewTokens int `json:"max_new_tokens,omitempty"`
}

// generatedText is one completion in the response.
type generatedText struct {
	GeneratedText string `json:"generated_text"`
}

// NewSynthesizer creates a synthesizer on the shared client.
func NewSynthesizer(client *Client, model string) *Synthesizer {
	if model == "" {
		model = DefaultSynthesizerModel
	}

	return &Synthesizer{
		client: client,
		model:  model,
	}
}

// defaultSubQuestionsPrompt is the fallback prompt when no PromptStore is configured.
const defaultSubQuestionsPrompt = `Based on the user's question, generate up to %d simple, specific questions to find evidence in a document. Write one question per line.

User Question: %s`

// GenerateSubQuestions deconstructs a question into at most max
// targeted sub-questions.
func (s *Synthesizer) GenerateSubQuestions(ctx context.Context, question string, max int) ([]string, error) {
	promptTemplate := s.loadPrompt(driven.PromptSubQuestions, defaultSubQuestionsPrompt)
	prompt := fmt.Sprintf(promptTemplate, max, question)

	text, err := s.generate(ctx, prompt, subQuestionMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("generate sub-questions: %w", err)
	}

	// One question per line. Lines without a question mark are model
	// preamble, not questions.
	var subQuestions []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.Contains(line, "?") {
			continue
		}
		subQuestions = append(subQuestions, line)
		if len(subQuestions) == max {
			break
		}
	}
	return subQuestions, nil
}

// defaultSynthesisPrompt is the fallback prompt when no PromptStore is configured.
const defaultSynthesisPrompt = `You are an expert financial analyst. Synthesize a single, comprehensive answer to the user's question based ONLY on the extracted quotes below.
- Assemble the quotes into a clean, well-formatted response.
- You MUST use the exact word-for-word quotes. Do not add any information that is not in the quotes.
- Attribute each statement to its source file.

User's Question: %s

Extracted Quotes:
%s

Synthesized Answer:`

// Synthesize composes an answer from the extracted snippets. Every
// statement must come verbatim from a snippet, attributed to its file.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, snippets []domain.Snippet) (string, error) {
	var quotes strings.Builder
	for _, sn := range snippets {
		fmt.Fprintf(&quotes, "- %q (source: %s)\n", sn.Text, sn.SourceFile)
	}

	promptTemplate := s.loadPrompt(driven.PromptSynthesis, defaultSynthesisPrompt)
	prompt := fmt.Sprintf(promptTemplate, question, quotes.String())

	text, err := s.generate(ctx, prompt, synthesisMaxTokens)
	if err != nil {
		return "", fmt.Errorf("synthesize: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// generate runs one text-to-text completion.
func (s *Synthesizer) generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	var results []generatedText
	err := s.client.call(ctx, s.model, generateRequest{
		Inputs:     prompt,
		Parameters: generateParameters{MaxNewTokens: maxTokens},
		Options:    waitForModel,
	}, &results)
	if err != nil {
		return "", err
	}

	if len(results) == 0 {
		return "", fmt.Errorf("huggingface returned no generation")
	}
	return results[0].GeneratedText, nil
}

// loadPrompt loads a prompt from the store, falling back to the default if unavailable.
func (s *Synthesizer) loadPrompt(name, fallback string) string {
	if s.promptStore == nil {
		return fallback
	}
	prompt, err := s.promptStore.Load(name)
	if err != nil {
		return fallback
	}
	return prompt
}

// ModelName returns the name of the generative model being used.
func (s *Synthesizer) ModelName() string {
	return s.model
}

// SetPromptStore sets the prompt store for loading customisable prompts.
// If not set, the adapter uses hardcoded default prompts.
func (s *Synthesizer) SetPromptStore(store driven.PromptStore) {
	s.promptStore = store
}

// Ping validates the service is reachable.
func (s *Synthesizer) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, s.model)
}
