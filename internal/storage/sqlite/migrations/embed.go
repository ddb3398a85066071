package migrations

import "embed"

// FS contains embedded SQLite migrations for attempt storage.
//
//go:embed *.sql
var FS embed.FS
