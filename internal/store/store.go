// Package store persists item cache snapshots in a local SQLite database so
// scroll positions and measured sizes survive process restarts.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/zjrosen/vscroll/internal/itemcache"
	"github.com/zjrosen/vscroll/internal/log"
)

// ErrNotFound is returned when no snapshot exists for a key.
var ErrNotFound = errors.New("snapshot not found")

// ErrDirtySchema is returned when a previous migration was interrupted.
var ErrDirtySchema = errors.New("database schema is dirty")

// Summary describes a stored snapshot without its items.
type Summary struct {
	Key            string
	Items          int
	ScrollPosition float64
	UpdatedAt      time.Time
}

// Store reads and writes cache snapshots.
type Store struct {
	conn *sql.DB
	path string
}

// Open opens (creating if needed) the database at path and migrates it. An
// existing file is copied to path+".bak" before pending migrations run.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	_, statErr := os.Stat(path)
	existed := statErr == nil

	conn, err := sql.Open("sqlite3", "file:"+path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	// SQLite serializes writers; a single connection avoids SQLITE_BUSY churn.
	conn.SetMaxOpenConns(1)

	ctx := context.Background()
	current, dirty, err := schemaVersion(ctx, conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if dirty {
		_ = conn.Close()
		return nil, fmt.Errorf("%w at version %d", ErrDirtySchema, current)
	}

	pending, err := pendingMigrations(current)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if len(pending) > 0 && existed {
		if err := backup(path); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}
	if err := applyMigrations(ctx, conn, pending); err != nil {
		_ = conn.Close()
		return nil, err
	}

	log.Debug(log.CatStore, "store opened", "path", path, "migrations", len(pending))
	return &Store{conn: conn, path: path}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Version returns the applied schema version.
func (s *Store) Version(ctx context.Context) (uint, error) {
	v, _, err := schemaVersion(ctx, s.conn)
	return v, err
}

// Save upserts the snapshot under its key.
func (s *Store) Save(ctx context.Context, snap itemcache.Snapshot) error {
	if snap.Key == "" {
		return fmt.Errorf("failed to save snapshot: empty key")
	}
	items := snap.Items
	if items == nil {
		items = []itemcache.SnapshotItem{}
	}
	body, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot items: %w", err)
	}

	now := time.Now().Unix()
	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO cache_snapshots (cache_key, scroll_position, estimated_item_height, item_count, items, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			scroll_position = excluded.scroll_position,
			estimated_item_height = excluded.estimated_item_height,
			item_count = excluded.item_count,
			items = excluded.items,
			updated_at = excluded.updated_at`,
		snap.Key, snap.ScrollPosition, snap.EstimatedItemHeight, len(items), string(body), now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot %q: %w", snap.Key, err)
	}
	return nil
}

// Load returns the snapshot stored under key, or ErrNotFound.
func (s *Store) Load(ctx context.Context, key string) (itemcache.Snapshot, error) {
	var (
		snap itemcache.Snapshot
		body string
	)
	err := s.conn.QueryRowContext(ctx, `
		SELECT cache_key, scroll_position, estimated_item_height, items
		FROM cache_snapshots WHERE cache_key = ?`, key,
	).Scan(&snap.Key, &snap.ScrollPosition, &snap.EstimatedItemHeight, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return itemcache.Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return itemcache.Snapshot{}, fmt.Errorf("failed to load snapshot %q: %w", key, err)
	}
	if err := json.Unmarshal([]byte(body), &snap.Items); err != nil {
		return itemcache.Snapshot{}, fmt.Errorf("failed to decode snapshot %q: %w", key, err)
	}
	return snap, nil
}

// List returns a summary of every snapshot, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT cache_key, item_count, scroll_position, updated_at
		FROM cache_snapshots ORDER BY updated_at DESC, cache_key ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Summary
	for rows.Next() {
		var (
			sum     Summary
			updated int64
		)
		if err := rows.Scan(&sum.Key, &sum.Items, &sum.ScrollPosition, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		sum.UpdatedAt = time.Unix(updated, 0)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return out, nil
}

// Delete removes the snapshot for key, or returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, key string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM cache_snapshots WHERE cache_key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot %q: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete snapshot %q: %w", key, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return nil
}

func backup(path string) error {
	src, err := os.Open(path) //nolint:gosec // G304: path is the configured store path
	if err != nil {
		return fmt.Errorf("failed to open store for backup: %w", err)
	}
	defer func() { _ = src.Close() }()

	dst, err := os.OpenFile(path+".bak", os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600) //nolint:gosec // G304: derived from the store path
	if err != nil {
		return fmt.Errorf("failed to create store backup: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("failed to write store backup: %w", err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("failed to write store backup: %w", err)
	}
	log.Info(log.CatStore, "store backed up before migration", "path", path+".bak")
	return nil
}
