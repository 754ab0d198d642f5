package migrations

import "embed"

// FS contains embedded Postgres migrations for card layout storage.
//
//go:embed *.sql
var FS embed.FS
