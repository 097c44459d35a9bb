// Package cli implements the finsight command-line interface.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/finsight-labs/finsight/internal/adapters/driven/config/file"
	"github.com/finsight-labs/finsight/internal/adapters/driven/models"
	"github.com/finsight-labs/finsight/internal/adapters/driven/storage/chroma"
	"github.com/finsight-labs/finsight/internal/adapters/driven/storage/sqlite"
	"github.com/finsight-labs/finsight/internal/core/domain"
	"github.com/finsight-labs/finsight/internal/core/ports/driven"
	"github.com/finsight-labs/finsight/internal/core/ports/driving"
	"github.com/finsight-labs/finsight/internal/core/services"
	"github.com/finsight-labs/finsight/internal/logger"
	"github.com/finsight-labs/finsight/internal/normalisers"
	"github.com/finsight-labs/finsight/internal/normalisers/csv"
	"github.com/finsight-labs/finsight/internal/normalisers/pdf"
	"github.com/finsight-labs/finsight/internal/normalisers/plaintext"
	"github.com/finsight-labs/finsight/internal/postprocessors/chunker"
)

// version is set at build time via ldflags.
var version = "dev"

// Services wired by initServices and read by the commands.
// Tests substitute mocks here.
var (
	appSettings        domain.Settings
	uploadService      driving.UploadService
	askService         driving.AskService
	sessionService     driving.SessionService
	normaliserRegistry driven.NormaliserRegistry

	serviceClosers []func()
)

// Persistent flags.
var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "finsight",
	Short: "Stakeholder-scoped Q&A over financial documents",
	Long: `FinSight answers stakeholder questions from uploaded financial
documents. Uploads are parsed, chunked, classified, and embedded into a
role-scoped chat session; questions are gated by role relevance and
answered only from literal document text.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		if !needsServices(cmd) || servicesReady() {
			return nil
		}
		return initServices(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"path to config file (default ~/.finsight/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")
}

// Execute runs the root command and releases the service stack.
func Execute() error {
	defer closeServices()
	return rootCmd.Execute()
}

// needsServices reports whether the command requires the service stack.
// Version and help run without configuration.
func needsServices(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "version", "help", "completion", "__complete", "__completeNoDesc":
		return false
	}
	return true
}

func servicesReady() bool {
	return uploadService != nil && askService != nil && sessionService != nil
}

// initServices loads settings and wires the full service stack.
func initServices(cmd *cobra.Command) error {
	path := configPath
	if path == "" {
		var err error
		path, err = file.DefaultSettingsPath()
		if err != nil {
			return fmt.Errorf("resolving config path: %w", err)
		}
	}

	settings, err := file.LoadSettings(path)
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	appSettings = settings

	// Sessions always live in SQLite; the backend setting only moves
	// the vectors.
	store, err := sqlite.NewStore(settings.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	serviceClosers = append(serviceClosers, func() { _ = store.Close() })
	sessions := store.SessionStore()

	var vectors driven.VectorStore
	switch settings.Storage.Backend {
	case domain.StorageChroma:
		chromaStore, err := chroma.NewStore(chroma.Config{BaseURL: settings.Storage.ChromaURL})
		if err != nil {
			return fmt.Errorf("connecting to chroma: %w", err)
		}
		vectors = chromaStore
	default:
		vectors = store.VectorStore()
	}

	bundle, err := buildModels(cmd, settings.Models)
	if err != nil {
		return err
	}
	serviceClosers = append(serviceClosers, bundle.Close)

	prompts, err := file.NewPromptStore("")
	if err != nil {
		return fmt.Errorf("creating prompt store: %w", err)
	}
	bundle.SetPromptStore(prompts)

	registry := normalisers.NewRegistry()
	registry.Register(pdf.New())
	registry.Register(plaintext.New())
	registry.Register(csv.New())
	normaliserRegistry = registry

	chunk := chunker.New(
		chunker.WithChunkSize(settings.Chunking.Size),
		chunker.WithOverlap(settings.Chunking.Overlap),
	)

	gate := services.NewRelevanceGate(
		bundle.Relevance, settings.RoleTopics, settings.Gate.RelevanceThreshold,
	)

	uploadService = services.NewIngestService(
		registry, chunk,
		bundle.Classifier, bundle.EntityExtractor, bundle.Embedder,
		vectors, sessions, settings.RoleTopics,
	)
	askService = services.NewAskEngine(
		sessions, vectors, gate,
		bundle.Embedder, bundle.Answerer, bundle.Synthesizer,
		settings.Query,
	)
	sessionService = services.NewSessionService(sessions, vectors)

	return nil
}

// buildModels picks the validated constructor for servers so a dead
// model endpoint fails the start instead of the first request.
func buildModels(cmd *cobra.Command, settings domain.ModelSettings) (*models.Bundle, error) {
	if cmd.Name() == "serve" {
		bundle, err := models.NewValidated(settings)
		if err != nil {
			return nil, fmt.Errorf("validating model services: %w", err)
		}
		return bundle, nil
	}

	bundle, err := models.New(settings)
	if err != nil {
		return nil, fmt.Errorf("creating model services: %w", err)
	}
	return bundle, nil
}

func closeServices() {
	for i := len(serviceClosers) - 1; i >= 0; i-- {
		serviceClosers[i]()
	}
	serviceClosers = nil
}
