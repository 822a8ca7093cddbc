// Package db opens the embedded sqlite database and applies schema migrations.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DB wraps the sql handle together with the on-disk path so the backup
// layer can copy the database file directly.
type DB struct {
	*sql.DB
	Path string
}

// Open opens (creating if necessary) the sqlite database at path and runs
// any pending migrations.
func Open(ctx context.Context, path string, logger *slog.Logger) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Rollback journal instead of WAL keeps the database in a single file,
	// which the full-database backup relies on.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(DELETE)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	handle, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := handle.PingContext(ctx); err != nil {
		handle.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		handle.Close()
		return nil, fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.Up(handle, "migrations"); err != nil {
		handle.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	logger.Info("database ready", slog.String("path", path))
	return &DB{DB: handle, Path: path}, nil
}
