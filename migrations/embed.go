// Package migrations ships the SQL schema so binaries and tests can migrate without a checkout.
package migrations

import "embed"

//go:embed postgres/*.sql
var Postgres embed.FS

// PostgresDir is the directory of the migration files inside Postgres
const PostgresDir = "postgres"
