package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight-labs/finsight/internal/core/domain"
)

func newTestGate(classifier *mockRelevanceClassifier) *RelevanceGate {
	return NewRelevanceGate(classifier, domain.DefaultRoleTopics(), domain.DefaultRelevanceThreshold)
}

func TestNewRelevanceGate(t *testing.T) {
	gate := newTestGate(&mockRelevanceClassifier{})

	require.NotNil(t, gate)
	// Candidates cover every configured topic exactly once.
	assert.Len(t, gate.candidates, 12)
}

func TestRelevanceGate_Check_Admitted(t *testing.T) {
	classifier := &mockRelevanceClassifier{scores: []domain.TopicScore{
		{Topic: "audit trails", Score: 0.75},
		{Topic: "business metrics", Score: 0.12},
	}}
	gate := newTestGate(classifier)

	decision, err := gate.Check(context.Background(), domain.RoleComplianceLead, "Any audit trail gaps?")

	require.NoError(t, err)
	assert.True(t, decision.Admitted)
	assert.Equal(t, "audit trails", decision.Topic)
	assert.InDelta(t, 0.75, decision.Confidence, 1e-9)
}

func TestRelevanceGate_Check_UnknownRole(t *testing.T) {
	classifier := &mockRelevanceClassifier{}
	gate := newTestGate(classifier)

	_, err := gate.Check(context.Background(), domain.Role("Operations Lead"), "Any risks?")

	assert.ErrorIs(t, err, domain.ErrUnknownRole)
	assert.Equal(t, 0, classifier.calls)
}

func TestRelevanceGate_Check_BelowThreshold(t *testing.T) {
	classifier := &mockRelevanceClassifier{scores: []domain.TopicScore{
		{Topic: "audit trails", Score: 0.19},
	}}
	gate := newTestGate(classifier)

	decision, err := gate.Check(context.Background(), domain.RoleComplianceLead, "Hmm?")

	require.NoError(t, err)
	assert.False(t, decision.Admitted)
	assert.Equal(t, "audit trails", decision.Topic)
}

func TestRelevanceGate_Check_ExactlyAtThreshold(t *testing.T) {
	classifier := &mockRelevanceClassifier{scores: []domain.TopicScore{
		{Topic: "risk factors", Score: 0.2},
	}}
	gate := newTestGate(classifier)

	decision, err := gate.Check(context.Background(), domain.RoleComplianceLead, "Risks?")

	require.NoError(t, err)
	assert.True(t, decision.Admitted)
}

func TestRelevanceGate_Check_TopTopicOutsideRole(t *testing.T) {
	classifier := &mockRelevanceClassifier{scores: []domain.TopicScore{
		{Topic: "business metrics", Score: 0.88},
		{Topic: "technical issues", Score: 0.07},
	}}
	gate := newTestGate(classifier)

	decision, err := gate.Check(context.Background(), domain.RoleTechLead, "What is our conversion rate?")

	require.NoError(t, err)
	assert.False(t, decision.Admitted)
	assert.Equal(t, "business metrics", decision.Topic)
}

func TestRelevanceGate_Check_TieWithOutOfRoleFailsClosed(t *testing.T) {
	classifier := &mockRelevanceClassifier{scores: []domain.TopicScore{
		{Topic: "system performance", Score: 0.5},
		{Topic: "product performance", Score: 0.5},
		{Topic: "audit trails", Score: 0.1},
	}}
	gate := newTestGate(classifier)

	decision, err := gate.Check(context.Background(), domain.RoleTechLead, "How is performance?")

	require.NoError(t, err)
	assert.False(t, decision.Admitted)
}

func TestRelevanceGate_Check_TieWithinRoleAdmits(t *testing.T) {
	classifier := &mockRelevanceClassifier{scores: []domain.TopicScore{
		{Topic: "system performance", Score: 0.5},
		{Topic: "technical issues", Score: 0.5},
		{Topic: "business metrics", Score: 0.1},
	}}
	gate := newTestGate(classifier)

	decision, err := gate.Check(context.Background(), domain.RoleTechLead, "Is the system degraded?")

	require.NoError(t, err)
	assert.True(t, decision.Admitted)
}

func TestRelevanceGate_Check_ClassifierError(t *testing.T) {
	classifier := &mockRelevanceClassifier{err: errors.New("model unavailable")}
	gate := newTestGate(classifier)

	_, err := gate.Check(context.Background(), domain.RoleComplianceLead, "Any risks?")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "classify topics")
}

func TestRelevanceGate_Check_EmptyScoresDeclines(t *testing.T) {
	classifier := &mockRelevanceClassifier{}
	gate := newTestGate(classifier)

	decision, err := gate.Check(context.Background(), domain.RoleComplianceLead, "Any risks?")

	require.NoError(t, err)
	assert.False(t, decision.Admitted)
}

func TestRelevanceGate_Check_ClassifiesAgainstAllTopics(t *testing.T) {
	classifier := &mockRelevanceClassifier{scores: []domain.TopicScore{
		{Topic: "audit trails", Score: 0.9},
	}}
	gate := newTestGate(classifier)

	_, err := gate.Check(context.Background(), domain.RoleComplianceLead, "Any audit gaps?")
	require.NoError(t, err)

	// The question is scored against every role's topics, not just the
	// asking role's, so an off-remit question can lose to another role.
	assert.Len(t, classifier.lastCandidates, 12)
	assert.Contains(t, classifier.lastCandidates, "business metrics")
	assert.Contains(t, classifier.lastCandidates, "SLA compliance")
}
