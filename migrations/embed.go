// Package migrations embeds SQL migration files into the binary.
package migrations

import "embed"

// FS holds every *.sql migration at its root. Pass it to database.DB.Migrate with dir ".".
//
//go:embed *.sql
var FS embed.FS
