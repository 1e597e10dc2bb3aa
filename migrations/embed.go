// Package migrations embeds the SQLite schema into the binary.
//
// The files follow the YYYYMMDD_HHMMSS_name.up.sql / .down.sql convention
// understood by database.Migrate.
package migrations

import "embed"

// FS holds every migration file at its root.
//
//go:embed *.sql
var FS embed.FS
