// Package migrations embeds the SQL schema for the shared session store.
package migrations

import "embed"

// FS holds goose migration files.
//
//go:embed *.sql
var FS embed.FS
