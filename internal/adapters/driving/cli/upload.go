package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/finsight-labs/finsight/internal/core/domain"
)

var uploadRole string

var uploadCmd = &cobra.Command{
	Use:   "upload [files...]",
	Short: "Upload documents into a new chat session",
	Long: `Ingests the given files and creates a chat session scoped to the
selected role. Supported formats: PDF, TXT, CSV. The batch is
all-or-nothing: any failing file aborts the whole upload.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadRole, "role", "r", "",
		"stakeholder role for the session (required)")
	_ = uploadCmd.MarkFlagRequired("role")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	if uploadService == nil {
		return errors.New("upload service not configured")
	}

	files, err := readUploadFiles(args)
	if err != nil {
		return err
	}

	session, err := uploadService.Upload(cmd.Context(), domain.Role(uploadRole), files)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	cmd.Printf("Created chat session %s\n\n", session.ID)
	cmd.Printf("  Role:  %s\n", session.Role)
	cmd.Printf("  Files: %s\n", strings.Join(session.Filenames, ", "))
	return nil
}

// readUploadFiles loads the named files from disk into upload batches.
func readUploadFiles(paths []string) ([]domain.UploadFile, error) {
	files := make([]domain.UploadFile, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		files = append(files, domain.UploadFile{
			Name:    filepath.Base(path),
			Content: content,
		})
	}
	return files, nil
}
