package db

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// dialectMap maps database drivers to Goose dialect names
var dialectMap = map[string]string{
	"sqlite": "sqlite3",
	"pgx":    "postgres",
}

func dialect(driver string) (string, error) {
	d, ok := dialectMap[driver]
	if !ok {
		return "", fmt.Errorf("unsupported journal driver: %s (supported: sqlite, pgx)", driver)
	}
	return d, nil
}

// RunMigrations brings the journal schema up to date.
func RunMigrations(db *sql.DB, driver string) error {
	d, err := dialect(driver)
	if err != nil {
		return err
	}

	migrationsDir, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to get migrations directory: %w", err)
	}

	goose.SetBaseFS(migrationsDir)
	goose.SetLogger(goose.NopLogger())
	err = goose.SetDialect(d)
	if err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	err = goose.Up(db, ".")
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Debug("journal migrations completed")
	return nil
}
