// Package migration embeds the SQL schema migrations.
package migration

import "embed"

// FS holds the up and down migrations in golang-migrate naming.
//
//go:embed *.sql
var FS embed.FS
