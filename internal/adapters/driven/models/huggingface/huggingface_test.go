package huggingface

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight-labs/finsight/internal/core/domain"
	"github.com/finsight-labs/finsight/internal/core/ports/driven"
)

// newTestClient points a client at a local test server with the rate
// limiter effectively disabled.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(Config{
		BaseURL:           server.URL,
		APIKey:            "test-key",
		RequestsPerSecond: 1000,
	})
}

// jsonHandler replies with a fixed JSON body.
func jsonHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}
}

// ==================== Client ====================

func TestClient_SendsAuthAndPath(t *testing.T) {
	var gotPath, gotAuth string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, `[[{"label":"Invoice","score":1.0}]]`)
	})

	classifier := NewDocClassifier(client, "acme/doc-model")
	_, err := classifier.Classify(context.Background(), "some text")
	require.NoError(t, err)

	assert.Equal(t, "/models/acme/doc-model", gotPath)
	assert.Equal(t, "Bearer test-key", gotAuth)
}

func TestClient_ErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"invalid input"}`)
	})

	classifier := NewDocClassifier(client, "")
	_, err := classifier.Classify(context.Background(), "some text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "huggingface error (status 400)")
	assert.Contains(t, err.Error(), "invalid input")
}

func TestClient_Ping_ModelLoading(t *testing.T) {
	// 503 means the model is cold but the endpoint and token are good.
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"error":"Model is currently loading","estimated_time":20}`)
	})

	assert.NoError(t, client.Ping(context.Background(), "acme/doc-model"))
}

func TestClient_Ping_Unauthorized(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"Authorization header is correct, but the token seems invalid"}`)
	})

	err := client.Ping(context.Background(), "acme/doc-model")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

// ==================== Embedder ====================

func TestEmbedder_EmbedBatch(t *testing.T) {
	client := newTestClient(t, jsonHandler(`[[0.1,0.2],[0.3,0.4]]`))
	embedder := NewEmbedder(client, "acme/embed-model", 2)

	vectors, err := embedder.EmbedBatch(context.Background(), []string{"one", "two"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0.1, 0.2}, vectors[0])
	assert.Equal(t, []float32{0.3, 0.4}, vectors[1])
}

func TestEmbedder_EmbedBatch_CountMismatch(t *testing.T) {
	client := newTestClient(t, jsonHandler(`[[0.1,0.2]]`))
	embedder := NewEmbedder(client, "", 0)

	_, err := embedder.EmbedBatch(context.Background(), []string{"one", "two"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 embeddings for 2 inputs")
}

func TestEmbedder_EmbedBatch_Empty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for an empty batch")
	})
	embedder := NewEmbedder(client, "", 0)

	vectors, err := embedder.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
}

func TestEmbedder_Defaults(t *testing.T) {
	embedder := NewEmbedder(NewClient(Config{}), "", 0)
	assert.Equal(t, DefaultEmbedderModel, embedder.ModelName())
	assert.Equal(t, DefaultDimensions, embedder.Dimensions())
}

// ==================== DocClassifier ====================

func TestDocClassifier_Classify(t *testing.T) {
	client := newTestClient(t, jsonHandler(
		`[[{"label":"Invoice","score":0.1},{"label":"Earnings Report","score":0.8},{"label":"Contract","score":0.05}]]`))
	classifier := NewDocClassifier(client, "")

	result, err := classifier.Classify(context.Background(), "Q3 revenue grew 14%")
	require.NoError(t, err)
	assert.Equal(t, "Earnings Report", result.DocType)
	assert.InDelta(t, 0.8, result.Confidence, 1e-9)
}

func TestDocClassifier_Classify_NoLabels(t *testing.T) {
	client := newTestClient(t, jsonHandler(`[]`))
	classifier := NewDocClassifier(client, "")

	_, err := classifier.Classify(context.Background(), "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no classification labels")
}

// ==================== EntityExtractor ====================

func TestEntityExtractor_Extract(t *testing.T) {
	client := newTestClient(t, jsonHandler(
		`[{"entity_group":"ORG","word":" Acme Corp ","score":0.99},
		  {"entity_group":"MONEY","word":"$12.5 million","score":0.97},
		  {"entity_group":"DATE","word":"   ","score":0.91}]`))
	extractor := NewEntityExtractor(client, "")

	entities, err := extractor.Extract(context.Background(), "Acme Corp reported $12.5 million")
	require.NoError(t, err)
	require.Len(t, entities, 2)
	assert.Equal(t, "ORG", entities[0].Type)
	assert.Equal(t, "Acme Corp", entities[0].Value)
	assert.Equal(t, "MONEY", entities[1].Type)
	assert.Equal(t, "$12.5 million", entities[1].Value)
}

func TestEntityExtractor_Extract_None(t *testing.T) {
	client := newTestClient(t, jsonHandler(`[]`))
	extractor := NewEntityExtractor(client, "")

	entities, err := extractor.Extract(context.Background(), "nothing notable here")
	require.NoError(t, err)
	assert.Empty(t, entities)
}

// ==================== Answerer ====================

func TestAnswerer_Answer(t *testing.T) {
	client := newTestClient(t, jsonHandler(
		`{"answer":" 14.2%., ","score":0.93,"start":10,"end":18}`))
	answerer := NewAnswerer(client, "")

	span, err := answerer.Answer(context.Background(), "What was the margin?", "The gross margin was 14.2%.")
	require.NoError(t, err)
	assert.Equal(t, "14.2%", span.Text)
	assert.InDelta(t, 0.93, span.Confidence, 1e-9)
	assert.Equal(t, 10, span.Start)
	assert.Equal(t, 18, span.End)
}

func TestAnswerer_Answer_EmptyAfterTrim(t *testing.T) {
	client := newTestClient(t, jsonHandler(`{"answer":" ,.- ","score":0.4,"start":0,"end":5}`))
	answerer := NewAnswerer(client, "")

	span, err := answerer.Answer(context.Background(), "question", "passage")
	require.NoError(t, err)
	assert.Empty(t, span.Text)
	assert.Zero(t, span.Confidence)
}

// ==================== RelevanceClassifier ====================

func TestRelevanceClassifier_ClassifyTopics(t *testing.T) {
	client := newTestClient(t, jsonHandler(
		`{"labels":["budgeting","revenue analysis","hiring"],"scores":[0.7,0.2,0.1]}`))
	relevance := NewRelevanceClassifier(client, "")

	scores, err := relevance.ClassifyTopics(context.Background(), "How big is the budget?",
		[]string{"revenue analysis", "budgeting", "hiring"})
	require.NoError(t, err)
	require.Len(t, scores, 3)
	assert.Equal(t, "budgeting", scores[0].Topic)
	assert.InDelta(t, 0.7, scores[0].Score, 1e-9)
	assert.Equal(t, "revenue analysis", scores[1].Topic)
	assert.Equal(t, "hiring", scores[2].Topic)
}

func TestRelevanceClassifier_ClassifyTopics_TiesFollowCandidateOrder(t *testing.T) {
	client := newTestClient(t, jsonHandler(
		`{"labels":["beta","alpha","gamma"],"scores":[0.5,0.5,0.2]}`))
	relevance := NewRelevanceClassifier(client, "")

	scores, err := relevance.ClassifyTopics(context.Background(), "question",
		[]string{"alpha", "beta", "gamma"})
	require.NoError(t, err)
	require.Len(t, scores, 3)
	assert.Equal(t, "alpha", scores[0].Topic)
	assert.Equal(t, "beta", scores[1].Topic)
	assert.Equal(t, "gamma", scores[2].Topic)
}

func TestRelevanceClassifier_ClassifyTopics_NoCandidates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected without candidates")
	})
	relevance := NewRelevanceClassifier(client, "")

	scores, err := relevance.ClassifyTopics(context.Background(), "question", nil)
	require.NoError(t, err)
	assert.Empty(t, scores)
}

// ==================== Synthesizer ====================

func TestSynthesizer_GenerateSubQuestions(t *testing.T) {
	client := newTestClient(t, jsonHandler(
		`[{"generated_text":"Here are the questions:\n1. What was total revenue?\nNote without a mark\n2. What was net profit?\n3. What was the margin?\n4. What was free cash flow?"}]`))
	synth := NewSynthesizer(client, "")

	questions, err := synth.GenerateSubQuestions(context.Background(), "How did the quarter go?", 3)
	require.NoError(t, err)
	require.Len(t, questions, 3)
	assert.Equal(t, "1. What was total revenue?", questions[0])
	assert.Equal(t, "2. What was net profit?", questions[1])
	assert.Equal(t, "3. What was the margin?", questions[2])
}

func TestSynthesizer_GenerateSubQuestions_NoQuestions(t *testing.T) {
	client := newTestClient(t, jsonHandler(`[{"generated_text":"I cannot help with that."}]`))
	synth := NewSynthesizer(client, "")

	questions, err := synth.GenerateSubQuestions(context.Background(), "question", 3)
	require.NoError(t, err)
	assert.Empty(t, questions)
}

func TestSynthesizer_Synthesize(t *testing.T) {
	var gotBody string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		fmt.Fprint(w, `[{"generated_text":"  Revenue was $12.5 million (report.pdf).  "}]`)
	})
	synth := NewSynthesizer(client, "")

	answer, err := synth.Synthesize(context.Background(), "What was revenue?", []domain.Snippet{
		{Text: "revenue was $12.5 million", SourceFile: "report.pdf"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Revenue was $12.5 million (report.pdf).", answer)
	assert.Contains(t, gotBody, "What was revenue?")
	assert.Contains(t, gotBody, "revenue was $12.5 million")
	assert.Contains(t, gotBody, "report.pdf")
}

func TestSynthesizer_PromptStoreOverride(t *testing.T) {
	var gotBody string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		fmt.Fprint(w, `[{"generated_text":"What is X?"}]`)
	})
	synth := NewSynthesizer(client, "")
	synth.SetPromptStore(&stubPromptStore{prompts: map[string]string{
		driven.PromptSubQuestions: "Custom template %d %s",
	}})

	_, err := synth.GenerateSubQuestions(context.Background(), "the question", 3)
	require.NoError(t, err)
	assert.Contains(t, gotBody, "Custom template 3 the question")
}

// stubPromptStore serves prompts from a map.
type stubPromptStore struct {
	prompts map[string]string
}

func (s *stubPromptStore) Load(name string) (string, error) {
	prompt, ok := s.prompts[name]
	if !ok {
		return "", fmt.Errorf("prompt %q not found", name)
	}
	return prompt, nil
}

func (s *stubPromptStore) Reload() {}
