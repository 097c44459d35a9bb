package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight-labs/finsight/internal/core/domain"
)

// writeConfig writes a config file into a temp dir and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadSettings_MissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.toml")

	settings, err := LoadSettings(path)
	require.NoError(t, err)

	defaults := domain.DefaultSettings()
	assert.Equal(t, defaults.Server.Addr, settings.Server.Addr)
	assert.Equal(t, defaults.Storage.Backend, settings.Storage.Backend)
	assert.Equal(t, defaults.Models.Embedder, settings.Models.Embedder)
	assert.Equal(t, defaults.Gate.RelevanceThreshold, settings.Gate.RelevanceThreshold)
	assert.Equal(t, defaults.Query.TopK, settings.Query.TopK)
	assert.Equal(t, defaults.RoleTopics, settings.RoleTopics)
}

func TestLoadSettings_OverlaysConfiguredValues(t *testing.T) {
	path := writeConfig(t, `
[server]
addr = ":9090"

[storage]
backend = "chroma"
chroma_url = "http://chroma:8000"

[models]
provider = "ollama"
embedder = "nomic-embed-text"
synthesizer = "llama3.2"

[query]
top_k = 8
`)

	settings, err := LoadSettings(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", settings.Server.Addr)
	assert.Equal(t, domain.StorageChroma, settings.Storage.Backend)
	assert.Equal(t, "http://chroma:8000", settings.Storage.ChromaURL)
	assert.Equal(t, domain.ProviderOllama, settings.Models.Provider)
	assert.Equal(t, "nomic-embed-text", settings.Models.Embedder)
	assert.Equal(t, 8, settings.Query.TopK)

	// Untouched values keep their defaults.
	defaults := domain.DefaultSettings()
	assert.Equal(t, defaults.Query.MaxSubQuestions, settings.Query.MaxSubQuestions)
	assert.Equal(t, defaults.Chunking.Size, settings.Chunking.Size)
}

func TestLoadSettings_ExplicitZeroThreshold(t *testing.T) {
	path := writeConfig(t, `
[gate]
relevance_threshold = 0.0

[query]
confidence_floor = 0.0
`)

	settings, err := LoadSettings(path)
	require.NoError(t, err)

	assert.Zero(t, settings.Gate.RelevanceThreshold)
	assert.Zero(t, settings.Query.ConfidenceFloor)
}

func TestLoadSettings_RolesReplaceDefaults(t *testing.T) {
	path := writeConfig(t, `
[roles]
"Product Lead" = ["pricing", "churn"]
`)

	settings, err := LoadSettings(path)
	require.NoError(t, err)

	require.Len(t, settings.RoleTopics, 1)
	assert.Equal(t, []string{"pricing", "churn"}, settings.TopicsFor(domain.RoleProductLead))
	assert.Nil(t, settings.TopicsFor(domain.RoleTechLead))
}

func TestLoadSettings_APIKeyFromEnvironment(t *testing.T) {
	t.Setenv(APIKeyEnv, "hf_test_token")
	path := filepath.Join(t.TempDir(), "does-not-exist.toml")

	settings, err := LoadSettings(path)
	require.NoError(t, err)

	assert.Equal(t, "hf_test_token", settings.Models.APIKey)
}

func TestLoadSettings_MalformedTOML(t *testing.T) {
	path := writeConfig(t, `[server` + "\n")

	_, err := LoadSettings(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoadSettings_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantErr string
	}{
		{
			name:    "unknown backend",
			config:  "[storage]\nbackend = \"postgres\"\n",
			wantErr: "unknown storage backend",
		},
		{
			name:    "unknown provider",
			config:  "[models]\nprovider = \"openai\"\n",
			wantErr: "unknown model provider",
		},
		{
			name:    "threshold out of range",
			config:  "[gate]\nrelevance_threshold = 1.5\n",
			wantErr: "relevance_threshold",
		},
		{
			name:    "negative top_k",
			config:  "[query]\ntop_k = -1\n",
			wantErr: "top_k",
		},
		{
			name:    "overlap not smaller than size",
			config:  "[chunking]\nsize = 100\noverlap = 100\n",
			wantErr: "overlap",
		},
		{
			name:    "role without topics",
			config:  "[roles]\n\"Product Lead\" = []\n",
			wantErr: "no topics",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.config)

			_, err := LoadSettings(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
