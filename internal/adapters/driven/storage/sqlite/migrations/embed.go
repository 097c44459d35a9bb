// Package migrations embeds the SQL migration files applied by the
// SQLite store at startup.
package migrations

import "embed"

// FS holds every SQL migration file, embedded at compile time.
//
//go:embed *.sql
var FS embed.FS
