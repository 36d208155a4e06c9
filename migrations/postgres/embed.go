// Package migrations embeds SQL migration files.
package migrations

import "embed"

// FS contiene las migraciones de PostgreSQL, ordenadas por prefijo.
//
//go:embed *.sql
var FS embed.FS
