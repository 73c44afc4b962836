package migrations

import "embed"

// FS holds the goose SQL migrations in version order.
//
//go:embed *.sql
var FS embed.FS
