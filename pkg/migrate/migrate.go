// Package migrate applies the embedded goose migrations that define the storefront schema.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog/log"
)

// Dir is the directory inside the embedded filesystem holding the SQL migrations.
const Dir = "migrations"

//go:embed migrations/*.sql
var migrations embed.FS

// Open returns a database/sql handle backed by the pgx stdlib driver, which is what goose needs.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open migration db: %w", err)
	}
	return db, nil
}

// Run executes a goose command (up, down, status, version, redo, reset, up-to, down-to)
// against the embedded migrations.
func Run(ctx context.Context, db *sql.DB, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.RunContext(ctx, command, db, Dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// Up opens a short-lived connection to dsn and applies every pending migration.
func Up(ctx context.Context, dsn string) error {
	db, err := Open(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping migration db: %w", err)
	}

	log.Info().Str("dir", Dir).Msg("applying database migrations")
	if err := Run(ctx, db, "up"); err != nil {
		return err
	}
	log.Info().Msg("database migrations applied")
	return nil
}

// Files lists the embedded migration file names in version order.
func Files() ([]string, error) {
	entries, err := migrations.ReadDir(Dir)
	if err != nil {
		return nil, fmt.Errorf("read embedded migrations: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}
