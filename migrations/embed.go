// Package migrations embeds the SQL schema migrations applied by cmd/migrate
// and by the Postgres test container helper.
package migrations

import "embed"

// FS holds every NNNNNN_name.{up,down}.sql file.
//
//go:embed *.sql
var FS embed.FS
