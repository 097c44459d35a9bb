package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/finsight-labs/finsight/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/finsight-labs/finsight/internal/core/domain"
	"github.com/finsight-labs/finsight/internal/core/ports/driven"
)

// jsonNull is the JSON representation of null.
const jsonNull = "null"

// Store is a unified SQLite-based storage that provides the session and
// vector store interfaces through wrapper types sharing one connection.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.finsight/data/finsight.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".finsight", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "finsight.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SessionStore returns a SessionStore interface backed by this store.
func (s *Store) SessionStore() driven.SessionStore {
	return &sessionStore{store: s}
}

// VectorStore returns a VectorStore interface backed by this store.
func (s *Store) VectorStore() driven.VectorStore {
	return &vectorStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_init.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Session Store ====================

// sessionStore implements driven.SessionStore.
type sessionStore struct {
	store *Store
}

var _ driven.SessionStore = (*sessionStore)(nil)

// Create stores a new session. Returns domain.ErrAlreadyExists if a
// session with the same ID is already present.
func (s *sessionStore) Create(ctx context.Context, session *domain.ChatSession) error {
	filenamesJSON, err := json.Marshal(session.Filenames)
	if err != nil {
		return fmt.Errorf("marshalling filenames: %w", err)
	}

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}

	res, err := s.store.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO sessions (id, role, filenames, created_at)
		VALUES (?, ?, ?, ?)
	`, session.ID, session.Role.String(), string(filenamesJSON), session.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking insert result: %w", err)
	}
	if affected == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

// Get retrieves a session by ID.
func (s *sessionStore) Get(ctx context.Context, sessionID string) (*domain.ChatSession, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, role, filenames, created_at
		FROM sessions WHERE id = ?
	`, sessionID)

	var session domain.ChatSession
	var role, filenamesJSON string
	var createdAt sql.NullTime
	if err := row.Scan(&session.ID, &role, &filenamesJSON, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning session: %w", err)
	}

	session.Role = domain.Role(role)
	if err := json.Unmarshal([]byte(filenamesJSON), &session.Filenames); err != nil {
		return nil, fmt.Errorf("unmarshalling filenames: %w", err)
	}
	if createdAt.Valid {
		session.CreatedAt = createdAt.Time
	}

	return &session, nil
}

// List returns all sessions ordered by creation time, newest first.
func (s *sessionStore) List(ctx context.Context) ([]domain.ChatSession, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, role, filenames, created_at
		FROM sessions
	`)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.ChatSession //nolint:prealloc // size unknown from query
	for rows.Next() {
		var session domain.ChatSession
		var role, filenamesJSON string
		var createdAt sql.NullTime
		if err := rows.Scan(&session.ID, &role, &filenamesJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}

		session.Role = domain.Role(role)
		if err := json.Unmarshal([]byte(filenamesJSON), &session.Filenames); err != nil {
			return nil, fmt.Errorf("unmarshalling filenames: %w", err)
		}
		if createdAt.Valid {
			session.CreatedAt = createdAt.Time
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}

	// Ordered here rather than in SQL: the driver stores timestamps as
	// RFC3339 text, which does not sort correctly across differing
	// fraction widths.
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})

	return sessions, nil
}

// AppendMessage appends a message to a session's history.
func (s *sessionStore) AppendMessage(ctx context.Context, sessionID string, msg *domain.Message) error {
	sourcesJSON, err := json.Marshal(msg.Sources)
	if err != nil {
		return fmt.Errorf("marshalling sources: %w", err)
	}

	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	// The SELECT makes the existence check and the insert one statement.
	res, err := s.store.db.ExecContext(ctx, `
		INSERT INTO messages (session_id, role, content, sources, created_at)
		SELECT id, ?, ?, ?, ? FROM sessions WHERE id = ?
	`, msg.Role, msg.Content, string(sourcesJSON), msg.CreatedAt, sessionID)
	if err != nil {
		return fmt.Errorf("appending message: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking insert result: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// History returns all messages for a session in append order.
func (s *sessionStore) History(ctx context.Context, sessionID string) ([]domain.Message, error) {
	// A missing session and a session with no turns yet are different
	// answers, so check existence first.
	var exists int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sessions WHERE id = ?", sessionID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("checking session: %w", err)
	}
	if exists == 0 {
		return nil, domain.ErrNotFound
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT role, content, sources, created_at
		FROM messages WHERE session_id = ?
		ORDER BY id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message //nolint:prealloc // size unknown from query
	for rows.Next() {
		var msg domain.Message
		var sourcesJSON string
		var createdAt sql.NullTime
		if err := rows.Scan(&msg.Role, &msg.Content, &sourcesJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}

		if sourcesJSON != "" && sourcesJSON != jsonNull {
			if err := json.Unmarshal([]byte(sourcesJSON), &msg.Sources); err != nil {
				return nil, fmt.Errorf("unmarshalling sources: %w", err)
			}
		}
		if createdAt.Valid {
			msg.CreatedAt = createdAt.Time
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating messages: %w", err)
	}

	return messages, nil
}

// Delete removes a session. Its messages cascade via the foreign key;
// chunks are removed separately through the vector store.
func (s *sessionStore) Delete(ctx context.Context, sessionID string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Close is a no-op; the parent Store owns the database connection.
func (s *sessionStore) Close() error {
	return nil
}

// ==================== Vector Store ====================

// vectorStore implements driven.VectorStore.
type vectorStore struct {
	store *Store
}

var _ driven.VectorStore = (*vectorStore)(nil)

// Upsert stores embedded chunks under a session namespace.
func (s *vectorStore) Upsert(ctx context.Context, sessionID string, chunks []domain.EmbeddedChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (session_id, chunk_id, content, source_file, doc_type, entities, position, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, chunk_id) DO UPDATE SET
			content = excluded.content,
			source_file = excluded.source_file,
			doc_type = excluded.doc_type,
			entities = excluded.entities,
			position = excluded.position,
			embedding = excluded.embedding
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		entitiesJSON, err := json.Marshal(chunk.Entities)
		if err != nil {
			return fmt.Errorf("marshalling entities: %w", err)
		}

		embeddingBlob := float32SliceToBytes(chunk.Vector)

		if _, err := stmt.ExecContext(ctx, sessionID, chunk.ID, chunk.Text, chunk.SourceFile,
			chunk.DocType, string(entitiesJSON), chunk.Position, embeddingBlob); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Query returns the k nearest chunks by cosine similarity within the
// session namespace.
func (s *vectorStore) Query(ctx context.Context, sessionID string, vector []float32, k int) ([]domain.ScoredChunk, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT chunk_id, content, source_file, doc_type, entities, position, embedding
		FROM chunks WHERE session_id = ?
		ORDER BY rowid
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	scored := []domain.ScoredChunk{}
	for rows.Next() {
		var chunk domain.Chunk
		var entitiesJSON string
		var embeddingBlob []byte
		if err := rows.Scan(&chunk.ID, &chunk.Text, &chunk.SourceFile, &chunk.DocType,
			&entitiesJSON, &chunk.Position, &embeddingBlob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}

		if entitiesJSON != "" && entitiesJSON != jsonNull {
			if err := json.Unmarshal([]byte(entitiesJSON), &chunk.Entities); err != nil {
				return nil, fmt.Errorf("unmarshalling entities: %w", err)
			}
		}

		scored = append(scored, domain.ScoredChunk{
			Chunk:      chunk,
			Similarity: cosineSimilarity(vector, bytesToFloat32Slice(embeddingBlob)),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Similarity > scored[j].Similarity
	})
	if k > 0 && k < len(scored) {
		scored = scored[:k]
	}
	return scored, nil
}

// DeleteNamespace removes all chunks for a session. Deleting a
// namespace that does not exist is not an error.
func (s *vectorStore) DeleteNamespace(ctx context.Context, sessionID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM chunks WHERE session_id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("deleting namespace: %w", err)
	}
	return nil
}

// ListNamespaces returns the IDs of all sessions with stored chunks.
func (s *vectorStore) ListNamespaces(ctx context.Context) ([]string, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT DISTINCT session_id FROM chunks ORDER BY session_id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying namespaces: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning namespace: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating namespaces: %w", err)
	}

	return ids, nil
}

// Close is a no-op; the parent Store owns the database connection.
func (s *vectorStore) Close() error {
	return nil
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// cosineSimilarity scores two vectors. Mismatched lengths and zero
// vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
