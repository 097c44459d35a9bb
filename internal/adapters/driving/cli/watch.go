package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/finsight-labs/finsight/internal/core/domain"
	"github.com/finsight-labs/finsight/internal/logger"
)

var (
	watchRole   string
	watchSettle time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Watch a directory and ingest new documents",
	Long: `Watches a directory and uploads newly written supported files into
fresh chat sessions for the selected role.

Files written within one settle window are batched into a single
session, so a multi-file copy lands together the way a manual upload
would.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchRole, "role", "r", "",
		"stakeholder role for created sessions (required)")
	watchCmd.Flags().DurationVar(&watchSettle, "settle", 2*time.Second,
		"quiet period before a batch is ingested")
	_ = watchCmd.MarkFlagRequired("role")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if uploadService == nil || normaliserRegistry == nil {
		return errors.New("upload service not configured")
	}

	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exts := normaliserRegistry.SupportedExtensions()
	cmd.Printf("Watching %s for role %s (.%s)\n", dir, watchRole, strings.Join(exts, ", ."))

	// Editors write in bursts of Create and Write events, so a batch
	// ingests only after the directory has been quiet for the settle
	// window.
	settle := time.NewTimer(watchSettle)
	if !settle.Stop() {
		<-settle.C
	}
	defer settle.Stop()

	pending := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !hasExtension(event.Name, exts) {
				continue
			}
			logger.Debug("Watch event: %s", event)
			pending[event.Name] = struct{}{}
			settle.Reset(watchSettle)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)

		case <-settle.C:
			paths := make([]string, 0, len(pending))
			for path := range pending {
				paths = append(paths, path)
			}
			sort.Strings(paths)
			pending = make(map[string]struct{})

			if err := ingestBatch(ctx, cmd, paths); err != nil {
				logger.Error("Ingest failed: %v", err)
			}
		}
	}
}

// ingestBatch uploads the settled files as one new session.
func ingestBatch(ctx context.Context, cmd *cobra.Command, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	files, err := readUploadFiles(paths)
	if err != nil {
		return err
	}

	session, err := uploadService.Upload(ctx, domain.Role(watchRole), files)
	if err != nil {
		return err
	}

	cmd.Printf("Ingested %d file(s) into session %s\n", len(files), session.ID)
	return nil
}

// hasExtension reports whether the path carries one of the extensions
// (listed without the leading dot).
func hasExtension(path string, exts []string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return false
	}
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
