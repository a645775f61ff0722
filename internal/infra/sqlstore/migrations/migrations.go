// Package migrations holds the schema history. Table shapes are frozen here
// instead of reusing the store models, so later model changes need a new step.
package migrations

import "github.com/uptrace/bun/migrate"

var Migrations = migrate.NewMigrations()
