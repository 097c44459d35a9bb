// Package sqlite provides a unified SQLite-based implementation of the
// storage driven ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO, enabling easy cross-compilation. It implements both store
// interfaces through a single database connection:
//
//   - SessionStore: chat session and message persistence
//   - VectorStore: embedded chunk persistence and similarity search
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Messages cascade on session delete; chunks carry no
// foreign key because they are written before the owning session row, and
// the reconcile sweep cleans up any that a failed cascade leaves behind.
//
// # Data Location
//
// By default, the database is stored at ~/.finsight/data/finsight.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking
// provided by SQLite in WAL mode.
package sqlite
