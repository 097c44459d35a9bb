package services

import (
	"context"
	"fmt"

	"github.com/finsight-labs/finsight/internal/core/domain"
	"github.com/finsight-labs/finsight/internal/core/ports/driven"
	"github.com/finsight-labs/finsight/internal/logger"
)

// RelevanceGate decides whether a question falls within a role's remit
// before any retrieval or answering happens. It classifies the question
// against the union of every configured topic so that a question whose
// best topic belongs to another role is caught, not just low-signal
// questions.
type RelevanceGate struct {
	classifier driven.RelevanceClassifier
	roleTopics map[domain.Role][]string
	candidates []string
	threshold  float64
}

// NewRelevanceGate creates a relevance gate. The threshold is the
// minimum topic score for admission; roleTopics maps each role to its
// admissible topic labels.
func NewRelevanceGate(
	classifier driven.RelevanceClassifier,
	roleTopics map[domain.Role][]string,
	threshold float64,
) *RelevanceGate {
	return &RelevanceGate{
		classifier: classifier,
		roleTopics: roleTopics,
		candidates: domain.UnionTopics(roleTopics),
		threshold:  threshold,
	}
}

// Check classifies the question and decides admission for the role.
// A negative decision is not an error; classifier failure is. The gate
// fails closed: unknown roles, low scores, and ties with topics outside
// the role's set all decline.
func (g *RelevanceGate) Check(
	ctx context.Context, role domain.Role, question string,
) (domain.GateDecision, error) {
	allowed, ok := g.roleTopics[role]
	if !ok || len(allowed) == 0 {
		return domain.GateDecision{}, fmt.Errorf("%w: %q", domain.ErrUnknownRole, role)
	}

	scores, err := g.classifier.ClassifyTopics(ctx, question, g.candidates)
	if err != nil {
		return domain.GateDecision{}, fmt.Errorf("classify topics: %w", err)
	}
	if len(scores) == 0 {
		logger.Debug("Gate: classifier returned no topics, declining")
		return domain.GateDecision{}, nil
	}

	top := scores[0]
	decision := domain.GateDecision{Topic: top.Topic, Confidence: top.Score}

	if top.Score < g.threshold {
		logger.Debug("Gate: top topic %q scored %.3f below threshold %.3f",
			top.Topic, top.Score, g.threshold)
		return decision, nil
	}

	allowedSet := make(map[string]bool, len(allowed))
	for _, topic := range allowed {
		allowedSet[topic] = true
	}
	if !allowedSet[top.Topic] {
		logger.Debug("Gate: top topic %q (%.3f) outside %s's topics",
			top.Topic, top.Score, role)
		return decision, nil
	}

	// A tie between an admissible topic and one outside the role's set
	// is ambiguous; decline.
	for _, ts := range scores[1:] {
		if ts.Score != top.Score {
			break
		}
		if !allowedSet[ts.Topic] {
			logger.Debug("Gate: tie between %q and out-of-role %q at %.3f",
				top.Topic, ts.Topic, top.Score)
			return decision, nil
		}
	}

	decision.Admitted = true
	return decision, nil
}
