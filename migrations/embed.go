// Package migrations embeds the SQL schema migrations into the binary.
//
//	db.Migrate(ctx, migrations.FS)
package migrations

import "embed"

// FS holds the migration files at its root.
//
//go:embed *.sql
var FS embed.FS
