package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/finsight-labs/finsight/internal/core/domain"
	"github.com/finsight-labs/finsight/internal/core/ports/driven"
)

// Ensure Synthesizer implements the interfaces.
var (
	_ driven.Synthesizer      = (*Synthesizer)(nil)
	_ driven.PromptStoreAware = (*Synthesizer)(nil)
)

// Default generation configuration values.
const (
	DefaultSynthesizerModel   = "llama3.2"
	DefaultSynthesizerTimeout = 120 * time.Second

	subQuestionMaxTokens = 100
	synthesisMaxTokens   = 512
)

// SynthesizerConfig holds configuration for the Ollama synthesizer.
type SynthesizerConfig struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the generative model to use (default: llama3.2).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// Synthesizer runs prompt-driven generation through a local Ollama
// model: question deconstruction and grounded answer synthesis.
type Synthesizer struct {
	client      *http.Client
	baseURL     string
	model       string
	promptStore driven.PromptStore
}

// generateRequest is the Ollama /api/generate request format.
type generateRequest struct {
	Model   string   `json:"model"`
	Prompt  string   `json:"prompt"`
	Stream  bool     `json:"stream"`
	Options *options `json:"options,omitempty"`
}

// options holds generation parameters.
type options struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// generateResponse is the Ollama /api/generate response format.
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewSynthesizer creates a new Ollama synthesizer.
func NewSynthesizer(cfg SynthesizerConfig) *Synthesizer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultSynthesizerModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultSynthesizerTimeout
	}

	return &Synthesizer{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
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

// generate runs one non-streaming completion.
func (s *Synthesizer) generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	reqBody := generateRequest{
		Model:  s.model,
		Prompt: prompt,
		Stream: false,
		Options: &options{
			NumPredict: maxTokens,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/api/generate",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", fmt.Errorf("ollama error (status %d): failed to read response", resp.StatusCode)
		}
		return "", fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(body))
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	return genResp.Response, nil
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

// Ping validates the service is reachable by checking the /api/tags endpoint.
// This is a lightweight check that validates connectivity without running inference.
func (s *Synthesizer) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("ollama: failed to create ping request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("ollama: API returned status %d (failed to read body: %w)", resp.StatusCode, err)
		}
		return fmt.Errorf("ollama: API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Close releases resources.
func (s *Synthesizer) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}
