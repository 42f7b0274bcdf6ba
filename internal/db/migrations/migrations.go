// Package migrations embeds the SQLite reference-data schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
