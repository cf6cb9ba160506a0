// Package migrations embeds the SQL schema so cmd/migrate ships without
// files on disk.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
