package driving

import (
	"context"

	"github.com/finsight-labs/finsight/internal/core/domain"
)

// UploadService ingests document batches into new chat sessions.
type UploadService interface {
	// Upload parses, chunks, classifies, tags, embeds, and persists
	// the files, creating exactly one session on success.
	//
	// The batch is all-or-nothing: any failure leaves no session,
	// chunks, or vectors behind, and the returned error names the
	// offending file.
	Upload(ctx context.Context, role domain.Role, files []domain.UploadFile) (*domain.ChatSession, error)
}
