package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/zjrosen/vscroll/internal/log"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const createVersionTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version INTEGER NOT NULL,
    dirty   INTEGER NOT NULL DEFAULT 0
)`

type migration struct {
	version uint
	name    string
	query   string
}

// pendingMigrations reads the embedded up migrations newer than current, in
// version order.
func pendingMigrations(current uint) ([]migration, error) {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open migrations: %w", err)
	}
	defer func() { _ = src.Close() }()

	var out []migration
	version, err := src.First()
	for err == nil {
		if version > current {
			m, readErr := readUp(src, version)
			if readErr != nil {
				return nil, readErr
			}
			out = append(out, m)
		}
		version, err = src.Next(version)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}
	return out, nil
}

func readUp(src source.Driver, version uint) (migration, error) {
	r, name, err := src.ReadUp(version)
	if err != nil {
		return migration{}, fmt.Errorf("failed to read migration %d: %w", version, err)
	}
	defer func() { _ = r.Close() }()

	body, err := io.ReadAll(r)
	if err != nil {
		return migration{}, fmt.Errorf("failed to read migration %d: %w", version, err)
	}
	return migration{version: version, name: name, query: string(body)}, nil
}

// schemaVersion returns the applied version, 0 for a fresh database.
func schemaVersion(ctx context.Context, db *sql.DB) (uint, bool, error) {
	if _, err := db.ExecContext(ctx, createVersionTable); err != nil {
		return 0, false, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var (
		version int64
		dirty   bool
	)
	err := db.QueryRowContext(ctx, `SELECT version, dirty FROM schema_migrations LIMIT 1`).Scan(&version, &dirty)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read schema version: %w", err)
	}
	return uint(version), dirty, nil //nolint:gosec // version is never negative
}

// applyMigrations runs each migration in its own transaction and records the
// version alongside it.
func applyMigrations(ctx context.Context, db *sql.DB, pending []migration) error {
	for _, m := range pending {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", m.version, err)
		}

		if _, err := tx.ExecContext(ctx, m.query); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to apply migration %d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM schema_migrations`); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.version, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, dirty) VALUES (?, 0)`, int64(m.version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
		}

		log.Info(log.CatStore, "applied migration", "version", m.version, "name", m.name)
	}
	return nil
}
