// Package migrations embeds the SQL schema migrations into the binary.
// Pass FS as database.Config.Migrations.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed *.sql
var files embed.FS

// FS is the migration set, with the .sql files at its root.
var FS fs.FS = files
