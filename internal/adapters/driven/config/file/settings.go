package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/finsight-labs/finsight/internal/core/domain"
)

// APIKeyEnv is the environment variable holding the Hugging Face access
// token. The key never lives in the config file.
const APIKeyEnv = "HF_API_KEY"

// fileSettings is the TOML layout of the config file. Pointer fields
// distinguish "absent" from an explicit zero, so a configured zero
// threshold survives the overlay onto the defaults.
type fileSettings struct {
	Server struct {
		Addr string `toml:"addr"`
	} `toml:"server"`

	Storage struct {
		Backend   string `toml:"backend"`
		DataDir   string `toml:"data_dir"`
		ChromaURL string `toml:"chroma_url"`
	} `toml:"storage"`

	Models struct {
		Provider        string `toml:"provider"`
		BaseURL         string `toml:"base_url"`
		Embedder        string `toml:"embedder"`
		Classifier      string `toml:"classifier"`
		EntityExtractor string `toml:"ner"`
		Answerer        string `toml:"answerer"`
		Relevance       string `toml:"relevance"`
		Synthesizer     string `toml:"synthesizer"`
	} `toml:"models"`

	Gate struct {
		RelevanceThreshold *float64 `toml:"relevance_threshold"`
	} `toml:"gate"`

	Query struct {
		TopK            int      `toml:"top_k"`
		MaxSubQuestions int      `toml:"max_sub_questions"`
		ConfidenceFloor *float64 `toml:"confidence_floor"`
	} `toml:"query"`

	Chunking struct {
		Size    int  `toml:"size"`
		Overlap *int `toml:"overlap"`
	} `toml:"chunking"`

	Roles map[string][]string `toml:"roles"`
}

// DefaultSettingsPath returns the default config file location,
// ~/.finsight/config.toml.
func DefaultSettingsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".finsight", "config.toml"), nil
}

// LoadSettings reads the TOML config file at path and overlays it onto
// the built-in defaults. A missing file is not an error: the defaults
// apply unchanged. The API key is always taken from the environment.
func LoadSettings(path string) (domain.Settings, error) {
	settings := domain.DefaultSettings()

	if path == "" {
		var err error
		path, err = DefaultSettingsPath()
		if err != nil {
			return domain.Settings{}, err
		}
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// No config file yet, run on defaults.
	case err != nil:
		return domain.Settings{}, fmt.Errorf("read config %s: %w", path, err)
	default:
		var loaded fileSettings
		if err := toml.Unmarshal(data, &loaded); err != nil {
			return domain.Settings{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		apply(&settings, loaded)
	}

	settings.Models.APIKey = os.Getenv(APIKeyEnv)

	if err := validate(settings); err != nil {
		return domain.Settings{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return settings, nil
}

// apply overlays the configured values onto the defaults.
func apply(settings *domain.Settings, loaded fileSettings) {
	if loaded.Server.Addr != "" {
		settings.Server.Addr = loaded.Server.Addr
	}

	if loaded.Storage.Backend != "" {
		settings.Storage.Backend = domain.StorageBackend(loaded.Storage.Backend)
	}
	if loaded.Storage.DataDir != "" {
		settings.Storage.DataDir = loaded.Storage.DataDir
	}
	if loaded.Storage.ChromaURL != "" {
		settings.Storage.ChromaURL = loaded.Storage.ChromaURL
	}

	if loaded.Models.Provider != "" {
		settings.Models.Provider = domain.ModelProvider(loaded.Models.Provider)
	}
	if loaded.Models.BaseURL != "" {
		settings.Models.BaseURL = loaded.Models.BaseURL
	}
	if loaded.Models.Embedder != "" {
		settings.Models.Embedder = loaded.Models.Embedder
	}
	if loaded.Models.Classifier != "" {
		settings.Models.Classifier = loaded.Models.Classifier
	}
	if loaded.Models.EntityExtractor != "" {
		settings.Models.EntityExtractor = loaded.Models.EntityExtractor
	}
	if loaded.Models.Answerer != "" {
		settings.Models.Answerer = loaded.Models.Answerer
	}
	if loaded.Models.Relevance != "" {
		settings.Models.Relevance = loaded.Models.Relevance
	}
	if loaded.Models.Synthesizer != "" {
		settings.Models.Synthesizer = loaded.Models.Synthesizer
	}

	if loaded.Gate.RelevanceThreshold != nil {
		settings.Gate.RelevanceThreshold = *loaded.Gate.RelevanceThreshold
	}

	if loaded.Query.TopK != 0 {
		settings.Query.TopK = loaded.Query.TopK
	}
	if loaded.Query.MaxSubQuestions != 0 {
		settings.Query.MaxSubQuestions = loaded.Query.MaxSubQuestions
	}
	if loaded.Query.ConfidenceFloor != nil {
		settings.Query.ConfidenceFloor = *loaded.Query.ConfidenceFloor
	}

	if loaded.Chunking.Size != 0 {
		settings.Chunking.Size = loaded.Chunking.Size
	}
	if loaded.Chunking.Overlap != nil {
		settings.Chunking.Overlap = *loaded.Chunking.Overlap
	}

	// A [roles] table replaces the built-in mapping wholesale so that
	// deployments can remove roles, not just add them.
	if len(loaded.Roles) > 0 {
		roleTopics := make(map[domain.Role][]string, len(loaded.Roles))
		for role, topics := range loaded.Roles {
			roleTopics[domain.Role(role)] = topics
		}
		settings.RoleTopics = roleTopics
	}
}

// validate rejects configurations the pipeline cannot run with.
func validate(settings domain.Settings) error {
	if settings.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	if !settings.Storage.Backend.IsValid() {
		return fmt.Errorf("unknown storage backend %q", settings.Storage.Backend)
	}
	if settings.Storage.Backend == domain.StorageChroma && settings.Storage.ChromaURL == "" {
		return fmt.Errorf("storage.chroma_url must be set for the chroma backend")
	}
	if !settings.Models.Provider.IsValid() {
		return fmt.Errorf("unknown model provider %q", settings.Models.Provider)
	}
	if settings.Gate.RelevanceThreshold < 0 || settings.Gate.RelevanceThreshold > 1 {
		return fmt.Errorf("gate.relevance_threshold must be between 0 and 1")
	}
	if settings.Query.TopK <= 0 {
		return fmt.Errorf("query.top_k must be positive")
	}
	if settings.Query.MaxSubQuestions <= 0 {
		return fmt.Errorf("query.max_sub_questions must be positive")
	}
	if settings.Query.ConfidenceFloor < 0 || settings.Query.ConfidenceFloor > 1 {
		return fmt.Errorf("query.confidence_floor must be between 0 and 1")
	}
	if settings.Chunking.Size <= 0 {
		return fmt.Errorf("chunking.size must be positive")
	}
	if settings.Chunking.Overlap < 0 || settings.Chunking.Overlap >= settings.Chunking.Size {
		return fmt.Errorf("chunking.overlap must be non-negative and smaller than chunking.size")
	}
	if len(settings.RoleTopics) == 0 {
		return fmt.Errorf("at least one role must be configured")
	}
	for role, topics := range settings.RoleTopics {
		if len(topics) == 0 {
			return fmt.Errorf("role %q has no topics", role)
		}
	}
	return nil
}
