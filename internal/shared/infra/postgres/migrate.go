package postgres

import (
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/pressly/goose/v3"
)

// Migration describes one embedded goose migration set.
type Migration struct {
	FS fs.FS

	// Dir is the directory inside FS holding the .sql files.
	Dir string

	// Table is the goose version table. It must be unique per service
	// when several services share a database.
	Table string
}

// RunMigrations applies pending migrations and logs the resulting schema version.
// goose needs database/sql, so a short-lived connection separate from the pool is used.
func RunMigrations(databaseURL string, m Migration, logger *slog.Logger) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migration: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(m.FS)
	goose.SetTableName(m.Table)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(db, m.Dir); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	logger.Info("database migrations applied", "table", m.Table, "version", version)

	return nil
}
