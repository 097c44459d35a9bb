package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight-labs/finsight/internal/adapters/driven/storage/memory"
	"github.com/finsight-labs/finsight/internal/core/domain"
)

// --- Mock implementations ---

// mockRelevanceClassifier implements driven.RelevanceClassifier.
type mockRelevanceClassifier struct {
	scores         []domain.TopicScore
	err            error
	calls          int
	lastCandidates []string
}

func (m *mockRelevanceClassifier) ClassifyTopics(
	_ context.Context, _ string, candidates []string,
) ([]domain.TopicScore, error) {
	m.calls++
	m.lastCandidates = candidates
	if m.err != nil {
		return nil, m.err
	}
	return m.scores, nil
}

// mockEmbedder implements driven.EmbeddingService.
type mockEmbedder struct {
	vector     []float32
	vectors    map[string][]float32
	err        error
	calls      int
	batchCalls int
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if v, ok := m.vectors[text]; ok {
		return v, nil
	}
	return m.vector, nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.batchCalls++
	if m.err != nil {
		return nil, m.err
	}
	result := make([][]float32, len(texts))
	for i, text := range texts {
		if v, ok := m.vectors[text]; ok {
			result[i] = v
			continue
		}
		result[i] = m.vector
	}
	return result, nil
}

func (m *mockEmbedder) Dimensions() int {
	return len(m.vector)
}

func (m *mockEmbedder) ModelName() string {
	return "mock-embed"
}

func (m *mockEmbedder) Ping(_ context.Context) error {
	return nil
}

func (m *mockEmbedder) Close() error {
	return nil
}

// mockAnswerer implements driven.ExtractiveAnswerer. Spans are keyed by
// passage text; passages without an entry yield an empty span.
type mockAnswerer struct {
	spans map[string]domain.Span
	err   error
	calls int
}

func (m *mockAnswerer) Answer(_ context.Context, _, passage string) (domain.Span, error) {
	m.calls++
	if m.err != nil {
		return domain.Span{}, m.err
	}
	if span, ok := m.spans[passage]; ok {
		return span, nil
	}
	return domain.Span{}, nil
}

// mockSynthesizer implements driven.Synthesizer.
type mockSynthesizer struct {
	subQuestions []string
	subErr       error
	answer       string
	synthErr     error
	subCalls     int
	synthCalls   int
	lastSnippets []domain.Snippet
}

func (m *mockSynthesizer) GenerateSubQuestions(_ context.Context, _ string, _ int) ([]string, error) {
	m.subCalls++
	if m.subErr != nil {
		return nil, m.subErr
	}
	return m.subQuestions, nil
}

func (m *mockSynthesizer) Synthesize(_ context.Context, _ string, snippets []domain.Snippet) (string, error) {
	m.synthCalls++
	m.lastSnippets = snippets
	if m.synthErr != nil {
		return "", m.synthErr
	}
	if m.answer != "" {
		return m.answer, nil
	}
	return "synthesized answer", nil
}

func (m *mockSynthesizer) ModelName() string {
	return "mock-synth"
}

// --- Test helpers ---

// askFixture wires an AskEngine to in-memory stores and the model mocks.
type askFixture struct {
	sessions    *memory.SessionStore
	vectors     *memory.VectorStore
	relevance   *mockRelevanceClassifier
	embedder    *mockEmbedder
	answerer    *mockAnswerer
	synthesizer *mockSynthesizer
	engine      *AskEngine
}

func newAskFixture(t *testing.T, role domain.Role) *askFixture {
	t.Helper()

	f := &askFixture{
		sessions:    memory.NewSessionStore(),
		vectors:     memory.NewVectorStore(),
		relevance:   &mockRelevanceClassifier{},
		embedder:    &mockEmbedder{vector: []float32{1, 0}},
		answerer:    &mockAnswerer{},
		synthesizer: &mockSynthesizer{},
	}
	gate := NewRelevanceGate(f.relevance, domain.DefaultRoleTopics(), domain.DefaultRelevanceThreshold)
	f.engine = NewAskEngine(f.sessions, f.vectors, gate, f.embedder, f.answerer, f.synthesizer,
		domain.QuerySettings{
			TopK:            domain.DefaultTopK,
			MaxSubQuestions: domain.DefaultMaxSubQuestions,
			ConfidenceFloor: domain.DefaultConfidenceFloor,
		})

	session := &domain.ChatSession{
		ID:        "sess-1",
		Role:      role,
		Filenames: []string{"audit_report.pdf"},
		CreatedAt: time.Now(),
	}
	require.NoError(t, f.sessions.Create(context.Background(), session))

	return f
}

func (f *askFixture) seedChunks(t *testing.T, chunks ...domain.EmbeddedChunk) {
	t.Helper()
	require.NoError(t, f.vectors.Upsert(context.Background(), "sess-1", chunks))
}

func chunkFixture(id, text, file, docType string, vector []float32) domain.EmbeddedChunk {
	return domain.EmbeddedChunk{
		Chunk: domain.Chunk{
			ID:         id,
			Text:       text,
			SourceFile: file,
			DocType:    docType,
		},
		Vector: vector,
	}
}

func complianceScores() []domain.TopicScore {
	return []domain.TopicScore{
		{Topic: "regulatory adherence", Score: 0.82},
		{Topic: "business metrics", Score: 0.11},
	}
}

// --- Tests ---

func TestNewAskEngine_DefaultsApplied(t *testing.T) {
	engine := NewAskEngine(nil, nil, nil, nil, nil, nil, domain.QuerySettings{})

	require.NotNil(t, engine)
	assert.Equal(t, domain.DefaultTopK, engine.topK)
	assert.Equal(t, domain.DefaultMaxSubQuestions, engine.maxSubQuestions)
}

func TestAskEngine_Ask_BlankQuestion(t *testing.T) {
	f := newAskFixture(t, domain.RoleComplianceLead)

	_, err := f.engine.Ask(context.Background(), "sess-1", "   \t ")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 0, f.relevance.calls)
}

func TestAskEngine_Ask_SessionNotFound(t *testing.T) {
	f := newAskFixture(t, domain.RoleComplianceLead)

	_, err := f.engine.Ask(context.Background(), "missing", "What were the audit findings?")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 0, f.relevance.calls)
}

func TestAskEngine_Ask_Declined_NoRetrievalOrModelCalls(t *testing.T) {
	f := newAskFixture(t, domain.RoleTechLead)
	f.seedChunks(t, chunkFixture("doc0_chunk0", "monthly active users grew", "metrics.pdf", "financial_report", []float32{1, 0}))
	// Marketing question: the top topic is a Product Lead topic.
	f.relevance.scores = []domain.TopicScore{
		{Topic: "business metrics", Score: 0.91},
		{Topic: "technical issues", Score: 0.04},
	}

	answer, err := f.engine.Ask(context.Background(), "sess-1", "What was the marketing conversion rate?")

	require.NoError(t, err)
	assert.True(t, answer.Declined)
	assert.Equal(t,
		"This question does not seem related to the typical responsibilities of a Tech Lead.",
		answer.Text)
	assert.Empty(t, answer.Sources)

	// Nothing downstream of the gate may run on a declined turn.
	assert.Equal(t, 1, f.relevance.calls)
	assert.Equal(t, 0, f.embedder.calls)
	assert.Equal(t, 0, f.answerer.calls)
	assert.Equal(t, 0, f.synthesizer.subCalls)
	assert.Equal(t, 0, f.synthesizer.synthCalls)
}

func TestAskEngine_Ask_DeclinedTurnPersisted(t *testing.T) {
	f := newAskFixture(t, domain.RoleTechLead)
	f.relevance.scores = []domain.TopicScore{{Topic: "business metrics", Score: 0.91}}

	_, err := f.engine.Ask(context.Background(), "sess-1", "What was the marketing conversion rate?")
	require.NoError(t, err)

	history, err := f.sessions.History(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.MessageRoleUser, history[0].Role)
	assert.Equal(t, "What was the marketing conversion rate?", history[0].Content)
	assert.Equal(t, domain.MessageRoleAssistant, history[1].Role)
	assert.Equal(t, domain.DeclineAnswer(domain.RoleTechLead), history[1].Content)
	assert.Empty(t, history[1].Sources)
}

func TestAskEngine_Ask_GateErrorAbortsTurn(t *testing.T) {
	f := newAskFixture(t, domain.RoleComplianceLead)
	f.relevance.err = errors.New("model unavailable")

	_, err := f.engine.Ask(context.Background(), "sess-1", "What were the audit findings?")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "relevance gate")

	history, err := f.sessions.History(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestAskEngine_Ask_HappyPath(t *testing.T) {
	f := newAskFixture(t, domain.RoleComplianceLead)
	f.relevance.scores = complianceScores()
	f.seedChunks(t,
		chunkFixture("doc0_chunk0", "The audit identified gaps in KYC verification.", "audit_report.pdf", "audit_report", []float32{1, 0}),
		chunkFixture("doc0_chunk1", "Remediation is scheduled for the fourth quarter.", "audit_report.pdf", "audit_report", []float32{0.9, 0.1}),
	)
	f.synthesizer.subQuestions = []string{"What gaps did the audit identify?"}
	f.synthesizer.answer = "The audit identified KYC verification gaps [audit_report.pdf]."
	f.answerer.spans = map[string]domain.Span{
		"The audit identified gaps in KYC verification.": {Text: "gaps in KYC verification", Confidence: 0.8},
	}

	answer, err := f.engine.Ask(context.Background(), "sess-1", "What regulatory risks were flagged?")

	require.NoError(t, err)
	assert.False(t, answer.Declined)
	assert.Equal(t, "The audit identified KYC verification gaps [audit_report.pdf].", answer.Text)
	require.Len(t, answer.Sources, 1)
	assert.Equal(t, "audit_report.pdf", answer.Sources[0].SourceFile)
	assert.Equal(t, "audit_report", answer.Sources[0].DocType)

	history, err := f.sessions.History(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.MessageRoleUser, history[0].Role)
	assert.Equal(t, answer.Text, history[1].Content)
	assert.Equal(t, answer.Sources, history[1].Sources)
}

func TestAskEngine_Ask_OriginalQuestionAlwaysAppended(t *testing.T) {
	f := newAskFixture(t, domain.RoleComplianceLead)
	f.relevance.scores = complianceScores()
	f.seedChunks(t,
		chunkFixture("doc0_chunk0", "Audit findings text.", "audit_report.pdf", "audit_report", []float32{1, 0}),
	)
	f.synthesizer.subQuestions = []string{"sub one", "sub two"}

	_, err := f.engine.Ask(context.Background(), "sess-1", "What regulatory risks were flagged?")
	require.NoError(t, err)

	// Two generated sub-questions plus the original: three embed calls,
	// one per sub-question, and one answer call per retrieved chunk.
	assert.Equal(t, 3, f.embedder.calls)
	assert.Equal(t, 3, f.answerer.calls)
}

func TestAskEngine_Ask_SubQuestionsCappedAtMax(t *testing.T) {
	f := newAskFixture(t, domain.RoleComplianceLead)
	f.relevance.scores = complianceScores()
	f.seedChunks(t,
		chunkFixture("doc0_chunk0", "Audit findings text.", "audit_report.pdf", "audit_report", []float32{1, 0}),
	)
	f.synthesizer.subQuestions = []string{"one", "two", "three", "four", "five"}

	_, err := f.engine.Ask(context.Background(), "sess-1", "What regulatory risks were flagged?")
	require.NoError(t, err)

	// Capped at three generated plus the original.
	assert.Equal(t, 4, f.embedder.calls)
}

func TestAskEngine_Ask_ZeroSubQuestionsProceedsWithOriginal(t *testing.T) {
	f := newAskFixture(t, domain.RoleComplianceLead)
	f.relevance.scores = complianceScores()
	f.seedChunks(t,
		chunkFixture("doc0_chunk0", "The audit identified gaps.", "audit_report.pdf", "audit_report", []float32{1, 0}),
	)
	f.synthesizer.subQuestions = []string{"", "  "}
	f.answerer.spans = map[string]domain.Span{
		"The audit identified gaps.": {Text: "gaps", Confidence: 0.5},
	}

	answer, err := f.engine.Ask(context.Background(), "sess-1", "What regulatory risks were flagged?")
	require.NoError(t, err)

	assert.Equal(t, 1, f.embedder.calls)
	require.Len(t, f.synthesizer.lastSnippets, 1)
	assert.Equal(t, "What regulatory risks were flagged?", f.synthesizer.lastSnippets[0].SubQuestion)
	assert.False(t, answer.Declined)
}

func TestAskEngine_Ask_NoSnippetsReturnsNotFound(t *testing.T) {
	f := newAskFixture(t, domain.RoleComplianceLead)
	f.relevance.scores = complianceScores()
	f.seedChunks(t,
		chunkFixture("doc0_chunk0", "Unrelated content.", "audit_report.pdf", "audit_report", []float32{1, 0}),
	)
	// The answerer never finds a span, so no snippet qualifies.

	answer, err := f.engine.Ask(context.Background(), "sess-1", "What regulatory risks were flagged?")

	require.NoError(t, err)
	assert.Equal(t, domain.AnswerNotFound, answer.Text)
	assert.Empty(t, answer.Sources)
	assert.False(t, answer.Declined)
	assert.Equal(t, 0, f.synthesizer.synthCalls)

	history, err := f.sessions.History(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.AnswerNotFound, history[1].Content)
}

func TestAskEngine_Ask_ConfidenceFloorFiltersSpans(t *testing.T) {
	f := newAskFixture(t, domain.RoleComplianceLead)
	f.relevance.scores = complianceScores()
	f.seedChunks(t,
		chunkFixture("doc0_chunk0", "high confidence passage", "audit_report.pdf", "audit_report", []float32{1, 0}),
		chunkFixture("doc0_chunk1", "floor confidence passage", "audit_report.pdf", "audit_report", []float32{0.95, 0.05}),
		chunkFixture("doc0_chunk2", "low confidence passage", "audit_report.pdf", "audit_report", []float32{0.9, 0.1}),
	)
	f.synthesizer.subQuestions = nil
	f.answerer.spans = map[string]domain.Span{
		"high confidence passage":  {Text: "high", Confidence: 0.9},
		"floor confidence passage": {Text: "at floor", Confidence: 0.1},
		"low confidence passage":   {Text: "low", Confidence: 0.09},
	}

	_, err := f.engine.Ask(context.Background(), "sess-1", "What regulatory risks were flagged?")
	require.NoError(t, err)

	// Spans at the floor qualify; spans below it are dropped.
	require.Len(t, f.synthesizer.lastSnippets, 2)
	texts := []string{f.synthesizer.lastSnippets[0].Text, f.synthesizer.lastSnippets[1].Text}
	assert.Contains(t, texts, "high")
	assert.Contains(t, texts, "at floor")
}

func TestAskEngine_Ask_SubQuestionGenerationErrorAborts(t *testing.T) {
	f := newAskFixture(t, domain.RoleComplianceLead)
	f.relevance.scores = complianceScores()
	f.synthesizer.subErr = errors.New("model timeout")

	_, err := f.engine.Ask(context.Background(), "sess-1", "What regulatory risks were flagged?")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "generate sub-questions")

	history, err := f.sessions.History(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestAskEngine_Ask_EmbedErrorAborts(t *testing.T) {
	f := newAskFixture(t, domain.RoleComplianceLead)
	f.relevance.scores = complianceScores()
	f.embedder.err = errors.New("model timeout")

	_, err := f.engine.Ask(context.Background(), "sess-1", "What regulatory risks were flagged?")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "embed sub-question")

	history, err := f.sessions.History(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestAskEngine_Ask_SynthesisErrorAborts(t *testing.T) {
	f := newAskFixture(t, domain.RoleComplianceLead)
	f.relevance.scores = complianceScores()
	f.seedChunks(t,
		chunkFixture("doc0_chunk0", "The audit identified gaps.", "audit_report.pdf", "audit_report", []float32{1, 0}),
	)
	f.answerer.spans = map[string]domain.Span{
		"The audit identified gaps.": {Text: "gaps", Confidence: 0.5},
	}
	f.synthesizer.synthErr = errors.New("model timeout")

	_, err := f.engine.Ask(context.Background(), "sess-1", "What regulatory risks were flagged?")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "synthesize answer")

	history, err := f.sessions.History(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestAskEngine_Ask_SourcesDedupedInFirstTurnOrder(t *testing.T) {
	f := newAskFixture(t, domain.RoleComplianceLead)
	f.relevance.scores = complianceScores()
	// The beta chunk ranks above the alpha chunks for the query vector.
	f.seedChunks(t,
		chunkFixture("doc1_chunk0", "beta passage", "beta.pdf", "contract", []float32{1, 0}),
		chunkFixture("doc0_chunk0", "alpha passage one", "alpha.pdf", "audit_report", []float32{0.9, 0.1}),
		chunkFixture("doc0_chunk1", "alpha passage two", "alpha.pdf", "audit_report", []float32{0.8, 0.2}),
	)
	f.answerer.spans = map[string]domain.Span{
		"beta passage":      {Text: "from beta", Confidence: 0.9},
		"alpha passage one": {Text: "from alpha one", Confidence: 0.8},
		"alpha passage two": {Text: "from alpha two", Confidence: 0.7},
	}

	answer, err := f.engine.Ask(context.Background(), "sess-1", "What regulatory risks were flagged?")
	require.NoError(t, err)

	require.Len(t, answer.Sources, 2)
	assert.Equal(t, domain.Source{SourceFile: "beta.pdf", DocType: "contract"}, answer.Sources[0])
	assert.Equal(t, domain.Source{SourceFile: "alpha.pdf", DocType: "audit_report"}, answer.Sources[1])
}

func TestAskEngine_Ask_CitationSoundness(t *testing.T) {
	f := newAskFixture(t, domain.RoleComplianceLead)
	f.relevance.scores = complianceScores()
	seeded := []domain.EmbeddedChunk{
		chunkFixture("doc0_chunk0", "passage one", "audit_report.pdf", "audit_report", []float32{1, 0}),
		chunkFixture("doc1_chunk0", "passage two", "policy.txt", "policy", []float32{0.9, 0.1}),
	}
	f.seedChunks(t, seeded...)
	f.answerer.spans = map[string]domain.Span{
		"passage one": {Text: "one", Confidence: 0.9},
		"passage two": {Text: "two", Confidence: 0.8},
	}

	answer, err := f.engine.Ask(context.Background(), "sess-1", "What regulatory risks were flagged?")
	require.NoError(t, err)

	// Every cited source and every snippet fed to synthesis must trace
	// back to a chunk retrieved this turn.
	retrievedIDs := map[string]bool{}
	retrievedSources := map[domain.Source]bool{}
	for _, c := range seeded {
		retrievedIDs[c.ID] = true
		retrievedSources[domain.Source{SourceFile: c.SourceFile, DocType: c.DocType}] = true
	}
	for _, src := range answer.Sources {
		assert.True(t, retrievedSources[src], "source %+v not retrieved this turn", src)
	}
	for _, sn := range f.synthesizer.lastSnippets {
		assert.True(t, retrievedIDs[sn.ChunkID], "snippet chunk %s not retrieved this turn", sn.ChunkID)
	}
}

func TestAskEngine_Ask_Deterministic(t *testing.T) {
	run := func() *domain.Answer {
		f := newAskFixture(t, domain.RoleComplianceLead)
		f.relevance.scores = complianceScores()
		f.seedChunks(t,
			chunkFixture("doc0_chunk0", "passage one", "audit_report.pdf", "audit_report", []float32{1, 0}),
			chunkFixture("doc1_chunk0", "passage two", "policy.txt", "policy", []float32{0.9, 0.1}),
		)
		f.synthesizer.subQuestions = []string{"What gaps were found?"}
		f.synthesizer.answer = "Gaps were found in KYC [audit_report.pdf]."
		f.answerer.spans = map[string]domain.Span{
			"passage one": {Text: "one", Confidence: 0.9},
			"passage two": {Text: "two", Confidence: 0.8},
		}
		answer, err := f.engine.Ask(context.Background(), "sess-1", "What regulatory risks were flagged?")
		require.NoError(t, err)
		return answer
	}

	first := run()
	second := run()

	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, first.Sources, second.Sources)
	assert.Equal(t, first.Declined, second.Declined)
}

func TestAskEngine_Ask_TopKLimitsAnswererCalls(t *testing.T) {
	f := newAskFixture(t, domain.RoleComplianceLead)
	f.relevance.scores = complianceScores()

	var chunks []domain.EmbeddedChunk
	for i := 0; i < 8; i++ {
		chunks = append(chunks, chunkFixture(
			"doc0_chunk"+string(rune('0'+i)), "passage", "audit_report.pdf", "audit_report",
			[]float32{1, float32(i) * 0.01},
		))
	}
	f.seedChunks(t, chunks...)
	f.synthesizer.subQuestions = nil

	_, err := f.engine.Ask(context.Background(), "sess-1", "What regulatory risks were flagged?")
	require.NoError(t, err)

	// One sub-question (the original), top-k of five: five answer calls.
	assert.Equal(t, domain.DefaultTopK, f.answerer.calls)
}
