// Package models provides factory functions for creating model service
// adapters from configuration.
package models

import (
	"context"
	"fmt"
	"time"

	"github.com/finsight-labs/finsight/internal/adapters/driven/models/huggingface"
	"github.com/finsight-labs/finsight/internal/adapters/driven/models/ollama"
	"github.com/finsight-labs/finsight/internal/core/domain"
	"github.com/finsight-labs/finsight/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Bundle holds the full set of model services behind the pipeline.
type Bundle struct {
	Embedder        driven.EmbeddingService
	Classifier      driven.Classifier
	EntityExtractor driven.EntityExtractor
	Answerer        driven.ExtractiveAnswerer
	Relevance       driven.RelevanceClassifier
	Synthesizer     driven.Synthesizer

	closers []func() error
	pingers []func(context.Context) error
}

// Close releases all resources held by the bundle.
func (b *Bundle) Close() {
	for _, close := range b.closers {
		close() //nolint:errcheck
	}
}

// SetPromptStore injects custom prompt templates into every adapter
// that can use them.
func (b *Bundle) SetPromptStore(store driven.PromptStore) {
	if aware, ok := b.Synthesizer.(driven.PromptStoreAware); ok {
		aware.SetPromptStore(store)
	}
}

// New creates the model services selected by the settings. The
// specialised pipelines (classification, extraction, QA, relevance)
// always run on the Hugging Face Inference API; the provider setting
// switches where embedding and synthesis run.
func New(settings domain.ModelSettings) (*Bundle, error) {
	if !settings.Provider.IsValid() {
		return nil, fmt.Errorf("unsupported model provider: %s", settings.Provider)
	}

	hfBaseURL := ""
	if settings.Provider == domain.ProviderHuggingFace {
		hfBaseURL = settings.BaseURL
	}
	client := huggingface.NewClient(huggingface.Config{
		BaseURL: hfBaseURL,
		APIKey:  settings.APIKey,
	})

	classifier := huggingface.NewDocClassifier(client, settings.Classifier)
	bundle := &Bundle{
		Classifier:      classifier,
		EntityExtractor: huggingface.NewEntityExtractor(client, settings.EntityExtractor),
		Answerer:        huggingface.NewAnswerer(client, settings.Answerer),
		Relevance:       huggingface.NewRelevanceClassifier(client, settings.Relevance),
		pingers:         []func(context.Context) error{classifier.Ping},
	}

	switch settings.Provider {
	case domain.ProviderHuggingFace:
		embedder := huggingface.NewEmbedder(client, settings.Embedder, 0)
		bundle.Embedder = embedder
		bundle.Synthesizer = huggingface.NewSynthesizer(client, settings.Synthesizer)
		bundle.closers = append(bundle.closers, embedder.Close)

	case domain.ProviderOllama:
		embedder := ollama.NewEmbedder(ollama.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Embedder,
		})
		synthesizer := ollama.NewSynthesizer(ollama.SynthesizerConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Synthesizer,
		})
		bundle.Embedder = embedder
		bundle.Synthesizer = synthesizer
		bundle.closers = append(bundle.closers, embedder.Close, synthesizer.Close)
	}

	return bundle, nil
}

// NewValidated creates the model services and validates connectivity
// before returning them.
func NewValidated(settings domain.ModelSettings) (*Bundle, error) {
	bundle, err := New(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrModelUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	// One ping per stack: the embedder covers the configured provider,
	// the classifier covers the hosted specialised models.
	if err := bundle.Embedder.Ping(ctx); err != nil {
		bundle.Close()
		return nil, fmt.Errorf("%w: embedder unreachable (%w)", domain.ErrModelUnavailable, err)
	}
	for _, ping := range bundle.pingers {
		if err := ping(ctx); err != nil {
			bundle.Close()
			return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrModelUnavailable, err)
		}
	}

	return bundle, nil
}
