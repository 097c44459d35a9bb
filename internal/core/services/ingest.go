package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/finsight-labs/finsight/internal/core/domain"
	"github.com/finsight-labs/finsight/internal/core/ports/driven"
	"github.com/finsight-labs/finsight/internal/core/ports/driving"
	"github.com/finsight-labs/finsight/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.UploadService = (*IngestService)(nil)

// IngestService runs the document ingestion pipeline: normalise,
// chunk, classify, extract entities, embed, persist. An upload batch
// is all-or-nothing: every model step for every file completes in
// memory before anything is persisted, and any failure aborts the
// batch with no session, chunks, or vectors left behind.
type IngestService struct {
	registry   driven.NormaliserRegistry
	chunker    driven.Chunker
	classifier driven.Classifier
	extractor  driven.EntityExtractor
	embedder   driven.EmbeddingService
	vectors    driven.VectorStore
	sessions   driven.SessionStore
	roleTopics map[domain.Role][]string
}

// NewIngestService creates a new ingestion service.
func NewIngestService(
	registry driven.NormaliserRegistry,
	chunker driven.Chunker,
	classifier driven.Classifier,
	extractor driven.EntityExtractor,
	embedder driven.EmbeddingService,
	vectors driven.VectorStore,
	sessions driven.SessionStore,
	roleTopics map[domain.Role][]string,
) *IngestService {
	return &IngestService{
		registry:   registry,
		chunker:    chunker,
		classifier: classifier,
		extractor:  extractor,
		embedder:   embedder,
		vectors:    vectors,
		sessions:   sessions,
		roleTopics: roleTopics,
	}
}

// Upload ingests a batch of files and creates a chat session scoped to
// them. Per-file errors name the offending file.
func (s *IngestService) Upload(
	ctx context.Context, role domain.Role, files []domain.UploadFile,
) (*domain.ChatSession, error) {
	// 1. Validate role and batch
	if _, ok := s.roleTopics[role]; !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownRole, role)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files in upload", domain.ErrInvalidInput)
	}

	logger.Section("Ingestion")
	logger.Info("Ingesting %d file(s) for role %s", len(files), role)

	// 2. Process every file fully in memory
	var chunks []domain.Chunk
	filenames := make([]string, 0, len(files))
	for i := range files {
		fileChunks, err := s.processOneFile(ctx, i, &files[i])
		if err != nil {
			return nil, fmt.Errorf("file %q: %w", files[i].Name, err)
		}
		chunks = append(chunks, fileChunks...)
		filenames = append(filenames, files[i].Name)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: batch produced no text", domain.ErrParseFailed)
	}
	logger.Debug("Batch produced %d chunks", len(chunks))

	// 3. Embed all chunk texts in one batch call
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embed chunks: got %d vectors for %d chunks", len(vectors), len(chunks))
	}

	embedded := make([]domain.EmbeddedChunk, len(chunks))
	for i := range chunks {
		embedded[i] = domain.EmbeddedChunk{Chunk: chunks[i], Vector: vectors[i]}
	}

	// 4. Persist vectors first, then the session row. The session row
	// is the commit point: staged vectors without a session are
	// unreachable by retrieval.
	session := &domain.ChatSession{
		ID:        uuid.NewString(),
		Role:      role,
		Filenames: filenames,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.vectors.Upsert(ctx, session.ID, embedded); err != nil {
		return nil, fmt.Errorf("store vectors: %w", err)
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		// Best effort: unstage the vectors so nothing lingers.
		if cleanupErr := s.vectors.DeleteNamespace(ctx, session.ID); cleanupErr != nil {
			logger.Warn("Failed to clean up vectors for %s: %v", session.ID, cleanupErr)
		}
		return nil, fmt.Errorf("create session: %w", err)
	}

	logger.Info("Created session %s with %d chunks", session.ID, len(embedded))
	return session, nil
}

// processOneFile turns a single upload into classified, entity-tagged
// chunks. Nothing is persisted here.
func (s *IngestService) processOneFile(
	ctx context.Context, docIndex int, file *domain.UploadFile,
) ([]domain.Chunk, error) {
	// 1. NORMALISE to plain text
	result, err := s.registry.Normalise(ctx, file)
	if err != nil {
		return nil, err
	}
	text := strings.TrimSpace(result.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: no extractable text", domain.ErrParseFailed)
	}

	// 2. CHUNK into fixed windows
	pieces := s.chunker.Chunk(text)
	if len(pieces) == 0 {
		return nil, fmt.Errorf("%w: no extractable text", domain.ErrParseFailed)
	}

	// 3. CLASSIFY once per document on its leading text
	prefix := text
	if len(prefix) > domain.DefaultClassifyPrefixLen {
		prefix = prefix[:domain.DefaultClassifyPrefixLen]
	}
	classification, err := s.classifier.Classify(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("classify document: %w", err)
	}
	logger.Debug("Classified %s as %q (%.3f)", file.Name, classification.DocType, classification.Confidence)

	// 4. EXTRACT ENTITIES per chunk
	chunks := make([]domain.Chunk, 0, len(pieces))
	for j, piece := range pieces {
		entities, err := s.extractor.Extract(ctx, piece)
		if err != nil {
			return nil, fmt.Errorf("extract entities: %w", err)
		}
		chunks = append(chunks, domain.Chunk{
			ID:         fmt.Sprintf("doc%d_chunk%d", docIndex, j),
			Text:       piece,
			SourceFile: file.Name,
			DocType:    classification.DocType,
			Entities:   domain.DedupeEntities(entities),
			Position:   j,
		})
	}

	return chunks, nil
}
