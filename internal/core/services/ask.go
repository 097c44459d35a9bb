package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/finsight-labs/finsight/internal/core/domain"
	"github.com/finsight-labs/finsight/internal/core/ports/driven"
	"github.com/finsight-labs/finsight/internal/core/ports/driving"
	"github.com/finsight-labs/finsight/internal/logger"
)

// Ensure AskEngine implements the interface.
var _ driving.AskService = (*AskEngine)(nil)

// AskEngine answers questions over a session's documents. Each turn is
// strictly sequential: gate, deconstruct into sub-questions, retrieve
// and extract per sub-question, synthesize over the gathered snippets,
// persist the turn. Every answer is grounded: synthesis only ever sees
// literal document text, and a turn that gathers no snippets returns
// the fixed not-found response instead of letting the model guess.
type AskEngine struct {
	sessions    driven.SessionStore
	vectors     driven.VectorStore
	gate        *RelevanceGate
	embedder    driven.EmbeddingService
	answerer    driven.ExtractiveAnswerer
	synthesizer driven.Synthesizer

	topK            int
	maxSubQuestions int
	confidenceFloor float64
}

// NewAskEngine creates a new ask engine with the given query tuning.
func NewAskEngine(
	sessions driven.SessionStore,
	vectors driven.VectorStore,
	gate *RelevanceGate,
	embedder driven.EmbeddingService,
	answerer driven.ExtractiveAnswerer,
	synthesizer driven.Synthesizer,
	query domain.QuerySettings,
) *AskEngine {
	if query.TopK <= 0 {
		query.TopK = domain.DefaultTopK
	}
	if query.MaxSubQuestions <= 0 {
		query.MaxSubQuestions = domain.DefaultMaxSubQuestions
	}
	return &AskEngine{
		sessions:        sessions,
		vectors:         vectors,
		gate:            gate,
		embedder:        embedder,
		answerer:        answerer,
		synthesizer:     synthesizer,
		topK:            query.TopK,
		maxSubQuestions: query.MaxSubQuestions,
		confidenceFloor: query.ConfidenceFloor,
	}
}

// Ask runs one question-answering turn against a session.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (e *AskEngine) Ask(ctx context.Context, sessionID, question string) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: blank question", domain.ErrInvalidInput)
	}

	logger.Section("Question Turn")
	logger.Debug("Session %s: %q", sessionID, question)

	// 1. Resolve the session
	session, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	// 2. Gate the question against the session's role
	decision, err := e.gate.Check(ctx, session.Role, question)
	if err != nil {
		return nil, fmt.Errorf("relevance gate: %w", err)
	}
	if !decision.Admitted {
		logger.Info("Declined for %s (top topic %q at %.3f)",
			session.Role, decision.Topic, decision.Confidence)
		answer := &domain.Answer{
			Text:     domain.DeclineAnswer(session.Role),
			Sources:  []domain.Source{},
			Declined: true,
		}
		if err := e.persistTurn(ctx, sessionID, question, answer); err != nil {
			return nil, err
		}
		return answer, nil
	}
	logger.Debug("Admitted on topic %q (%.3f)", decision.Topic, decision.Confidence)

	// 3. Deconstruct into sub-questions
	subQuestions, err := e.deconstruct(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("generate sub-questions: %w", err)
	}
	logger.Debug("Answering %d sub-question(s)", len(subQuestions))

	// 4. Retrieve and extract per sub-question
	snippets, err := e.gather(ctx, sessionID, subQuestions)
	if err != nil {
		return nil, err
	}

	// 5. Nothing extractable anywhere: fixed not-found answer, no
	// synthesis call
	if len(snippets) == 0 {
		logger.Info("No qualifying snippets, returning not-found answer")
		answer := &domain.Answer{
			Text:    domain.AnswerNotFound,
			Sources: []domain.Source{},
		}
		if err := e.persistTurn(ctx, sessionID, question, answer); err != nil {
			return nil, err
		}
		return answer, nil
	}

	// 6. Synthesize over the snippets
	text, err := e.synthesizer.Synthesize(ctx, question, snippets)
	if err != nil {
		return nil, fmt.Errorf("synthesize answer: %w", err)
	}

	answer := &domain.Answer{
		Text:    text,
		Sources: domain.DedupeSources(snippets),
	}

	// 7. Persist the turn
	if err := e.persistTurn(ctx, sessionID, question, answer); err != nil {
		return nil, err
	}

	logger.Info("Answered with %d snippet(s) from %d source(s)", len(snippets), len(answer.Sources))
	return answer, nil
}

// deconstruct asks the synthesizer for sub-questions and always appends
// the original question as the final one. Blank generations are
// dropped; zero usable sub-questions leaves the original alone.
func (e *AskEngine) deconstruct(ctx context.Context, question string) ([]string, error) {
	generated, err := e.synthesizer.GenerateSubQuestions(ctx, question, e.maxSubQuestions)
	if err != nil {
		return nil, err
	}

	subQuestions := make([]string, 0, e.maxSubQuestions+1)
	for _, sq := range generated {
		sq = strings.TrimSpace(sq)
		if sq == "" {
			continue
		}
		subQuestions = append(subQuestions, sq)
		if len(subQuestions) == e.maxSubQuestions {
			break
		}
	}

	return append(subQuestions, question), nil
}

// gather retrieves top-k chunks per sub-question and runs extractive QA
// over each retrieved chunk, keeping spans above the confidence floor.
// A sub-question with no qualifying span contributes nothing; only
// model-call failures are fatal.
func (e *AskEngine) gather(
	ctx context.Context, sessionID string, subQuestions []string,
) ([]domain.Snippet, error) {
	var snippets []domain.Snippet

	for _, sq := range subQuestions {
		vector, err := e.embedder.Embed(ctx, sq)
		if err != nil {
			return nil, fmt.Errorf("embed sub-question: %w", err)
		}

		scored, err := e.vectors.Query(ctx, sessionID, vector, e.topK)
		if err != nil {
			return nil, fmt.Errorf("query vectors: %w", err)
		}
		logger.Debug("Sub-question %q: %d chunk(s) retrieved", sq, len(scored))

		for i := range scored {
			span, err := e.answerer.Answer(ctx, sq, scored[i].Text)
			if err != nil {
				return nil, fmt.Errorf("extract answer: %w", err)
			}
			if span.Text == "" || span.Confidence < e.confidenceFloor {
				continue
			}
			snippets = append(snippets, domain.Snippet{
				SubQuestion: sq,
				Text:        span.Text,
				SourceFile:  scored[i].SourceFile,
				DocType:     scored[i].DocType,
				ChunkID:     scored[i].ID,
			})
		}
	}

	return snippets, nil
}

// persistTurn appends the user question and the assistant answer to the
// session history. A session deleted mid-turn surfaces as ErrNotFound
// here; the turn is then reported as failed rather than half-recorded.
func (e *AskEngine) persistTurn(
	ctx context.Context, sessionID, question string, answer *domain.Answer,
) error {
	now := time.Now().UTC()

	userMsg := &domain.Message{
		Role:      domain.MessageRoleUser,
		Content:   question,
		CreatedAt: now,
	}
	if err := e.sessions.AppendMessage(ctx, sessionID, userMsg); err != nil {
		return fmt.Errorf("append user message: %w", err)
	}

	assistantMsg := &domain.Message{
		Role:      domain.MessageRoleAssistant,
		Content:   answer.Text,
		Sources:   answer.Sources,
		CreatedAt: now,
	}
	if err := e.sessions.AppendMessage(ctx, sessionID, assistantMsg); err != nil {
		return fmt.Errorf("append assistant message: %w", err)
	}

	return nil
}
