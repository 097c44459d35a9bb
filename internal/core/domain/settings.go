package domain

import "sort"

// Default pipeline tuning values. These mirror the behaviour the system
// was calibrated with; configuration may override any of them.
const (
	// DefaultRelevanceThreshold is the minimum topic score for admission.
	DefaultRelevanceThreshold = 0.2

	// DefaultConfidenceFloor is the minimum extractive QA score for a
	// span to qualify as a snippet.
	DefaultConfidenceFloor = 0.1

	// DefaultTopK is how many chunks retrieval returns per sub-question.
	DefaultTopK = 5

	// DefaultMaxSubQuestions bounds generated sub-questions per turn.
	// The original question is always appended on top of these.
	DefaultMaxSubQuestions = 3

	// DefaultClassifyPrefixLen is how many leading characters of a
	// document the classifier sees.
	DefaultClassifyPrefixLen = 512
)

// StorageBackend identifies a persistence backend for chunks and vectors.
type StorageBackend string

// Available storage backends.
const (
	// StorageSQLite keeps sessions and vectors in a local SQLite file.
	StorageSQLite StorageBackend = "sqlite"

	// StorageChroma keeps vectors in a ChromaDB server; sessions stay
	// in SQLite.
	StorageChroma StorageBackend = "chroma"
)

// IsValid returns true if the backend is recognised.
func (b StorageBackend) IsValid() bool {
	switch b {
	case StorageSQLite, StorageChroma:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b StorageBackend) String() string {
	return string(b)
}

// ModelProvider identifies a model inference provider.
type ModelProvider string

// Available model providers.
const (
	// ProviderHuggingFace is the hosted Hugging Face Inference API.
	ProviderHuggingFace ModelProvider = "huggingface"

	// ProviderOllama is a local Ollama instance. Ollama serves the
	// embedder and synthesizer; the specialised classifiers still run
	// on the Hugging Face provider.
	ProviderOllama ModelProvider = "ollama"
)

// IsValid returns true if the provider is recognised.
func (p ModelProvider) IsValid() bool {
	switch p {
	case ProviderHuggingFace, ProviderOllama:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p ModelProvider) RequiresAPIKey() bool {
	return p == ProviderHuggingFace
}

// String returns the string representation.
func (p ModelProvider) String() string {
	return string(p)
}

// ServerSettings holds HTTP server configuration.
type ServerSettings struct {
	// Addr is the listen address (e.g. ":8080").
	Addr string
}

// StorageSettings holds persistence configuration.
type StorageSettings struct {
	// Backend selects where vectors live.
	Backend StorageBackend

	// DataDir is the directory for the SQLite database file.
	DataDir string

	// ChromaURL is the ChromaDB server URL (chroma backend only).
	ChromaURL string
}

// ModelSettings holds model provider configuration.
type ModelSettings struct {
	// Provider selects the embedding/synthesis provider.
	Provider ModelProvider

	// BaseURL overrides the provider's API endpoint.
	BaseURL string

	// APIKey authenticates hosted providers. Loaded from the
	// environment, never written to config files.
	APIKey string

	// Embedder is the embedding model identifier.
	Embedder string

	// Classifier is the document classification model identifier.
	Classifier string

	// EntityExtractor is the named entity recognition model identifier.
	EntityExtractor string

	// Answerer is the extractive QA model identifier.
	Answerer string

	// Relevance is the zero-shot topic classification model identifier.
	Relevance string

	// Synthesizer is the generative model identifier.
	Synthesizer string
}

// GateSettings holds relevance gate configuration.
type GateSettings struct {
	// RelevanceThreshold is the minimum admitting topic score.
	RelevanceThreshold float64
}

// QuerySettings holds query engine configuration.
type QuerySettings struct {
	// TopK is the retrieval depth per sub-question.
	TopK int

	// MaxSubQuestions bounds generated sub-questions.
	MaxSubQuestions int

	// ConfidenceFloor is the minimum qualifying span score.
	ConfidenceFloor float64
}

// ChunkingSettings holds ingestion chunking configuration.
type ChunkingSettings struct {
	// Size is the chunk window in characters.
	Size int

	// Overlap is the overlap between consecutive chunks in characters.
	Overlap int
}

// Settings is the complete run configuration.
// Loaded once at process start; immutable afterwards.
type Settings struct {
	// Server holds HTTP server settings.
	Server ServerSettings

	// Storage holds persistence settings.
	Storage StorageSettings

	// Models holds model provider settings.
	Models ModelSettings

	// Gate holds relevance gate settings.
	Gate GateSettings

	// Query holds query engine settings.
	Query QuerySettings

	// Chunking holds ingestion chunking settings.
	Chunking ChunkingSettings

	// RoleTopics maps each role to its admissible topic labels.
	RoleTopics map[Role][]string
}

// DefaultSettings returns settings with the built-in defaults.
func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{
			Addr: ":8080",
		},
		Storage: StorageSettings{
			Backend:   StorageSQLite,
			DataDir:   "data",
			ChromaURL: "http://localhost:8000",
		},
		Models: ModelSettings{
			Provider:        ProviderHuggingFace,
			Embedder:        "BAAI/bge-large-en-v1.5",
			Classifier:      "finsight-labs/distilbert-financial-doc-classifier",
			EntityExtractor: "finsight-labs/distilbert-financial-ner",
			Answerer:        "finsight-labs/distilbert-financial-qa",
			Relevance:       "facebook/bart-large-mnli",
			Synthesizer:     "google/flan-t5-base",
		},
		Gate: GateSettings{
			RelevanceThreshold: DefaultRelevanceThreshold,
		},
		Query: QuerySettings{
			TopK:            DefaultTopK,
			MaxSubQuestions: DefaultMaxSubQuestions,
			ConfidenceFloor: DefaultConfidenceFloor,
		},
		Chunking: ChunkingSettings{
			Size:    1000,
			Overlap: 200,
		},
		RoleTopics: DefaultRoleTopics(),
	}
}

// TopicsFor returns the admissible topics for a role, or nil when the
// role has no configured topics.
func (s Settings) TopicsFor(role Role) []string {
	return s.RoleTopics[role]
}

// AllTopics returns the union of every role's topics, deduplicated,
// ordered by role then by position within the role's list. The stable
// order keeps classifier calls reproducible.
func (s Settings) AllTopics() []string {
	return UnionTopics(s.RoleTopics)
}

// UnionTopics flattens a role-to-topics mapping into a deduplicated list.
// Built-in roles come first in AllRoles order, then any additional
// configured roles sorted by name, so the result is stable across runs.
func UnionTopics(roleTopics map[Role][]string) []string {
	seen := make(map[string]struct{})
	var out []string

	appendTopics := func(role Role) {
		for _, topic := range roleTopics[role] {
			if _, ok := seen[topic]; ok {
				continue
			}
			seen[topic] = struct{}{}
			out = append(out, topic)
		}
	}

	builtin := make(map[Role]struct{})
	for _, role := range AllRoles() {
		builtin[role] = struct{}{}
		appendTopics(role)
	}

	var extra []Role
	for role := range roleTopics {
		if _, ok := builtin[role]; !ok {
			extra = append(extra, role)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	for _, role := range extra {
		appendTopics(role)
	}

	return out
}
