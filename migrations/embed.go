// Package migrations holds the versioned PostgreSQL schema, embedded so the
// binary can migrate without a migrations directory on disk.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
