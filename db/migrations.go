// Package db embeds the goose migrations that provision the schema.
package db

import "embed"

// Migrations holds db/migrations/*.sql, rooted at "migrations".
//
//go:embed migrations/*.sql
var Migrations embed.FS
