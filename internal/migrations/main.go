package migrations

import "github.com/uptrace/bun/migrate"

// Migrations is the registry of schema migrations, filled by init functions.
var Migrations = migrate.NewMigrations()
