package database

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"

	"subtrack/internal/database/migrations"
)

// Migrate applies pending migrations to the server database.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	return goose.UpContext(ctx, db, ".")
}
