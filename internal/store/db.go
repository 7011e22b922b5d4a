// Package store implements the local durable store for sidequest.
//
// All user state (progress, daily seed, task history, reject counter,
// theme preference, auth token) is persisted in an embedded SQLite
// database so reads never depend on network availability. The store is
// pure persistence: it does not validate or transform values, and it
// holds no sync logic. Each scalar kind is exposed as a save method, a
// point read, and a live watch channel that re-emits on every write.
//
// The database runs in embedded mode with WAL so a foreground CLI
// invocation and a background sync daemon can share the same file.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sidequest-dev/sidequest/internal/model"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Store wraps the SQLite connection with typed accessors per data kind.
type Store struct {
	conn *sql.DB
	path string

	progress broadcaster[model.ProgressSnapshot]
	seed     broadcaster[model.SeedRecord]
	reject   broadcaster[model.RejectInfo]
	theme    broadcaster[model.ThemeMode]
}

// Open creates a new store at the specified path.
//
// The parent directory is created if needed. The database is opened in
// embedded mode with WAL for concurrent reads. The caller MUST call
// Close() when done.
//
// Example:
//
//	st, err := store.Open(filepath.Join(home, ".sidequest", "sidequest.db"))
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	st := &Store{
		conn: conn,
		path: path,
	}

	// WAL mode so the daemon can read while the CLI writes
	if _, err := st.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := st.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := st.initSchema(); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return st, nil
}

// Path returns the database file location.
func (st *Store) Path() string {
	return st.path
}

// Close closes the database connection and ends all watch
// subscriptions. Performs a WAL checkpoint to ensure all changes are
// persisted.
func (st *Store) Close() error {
	if st.conn == nil {
		return nil
	}

	st.progress.closeAll()
	st.seed.closeAll()
	st.reject.closeAll()
	st.theme.closeAll()

	if _, err := st.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := st.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	st.conn = nil
	return nil
}

// initSchema creates the state and task_history tables. Idempotent.
func (st *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS state (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS task_history (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		quest         TEXT NOT NULL,
		points        INTEGER NOT NULL,
		status        TEXT NOT NULL,
		date          TEXT NOT NULL,
		time          TEXT NOT NULL,
		goal_id       TEXT NOT NULL DEFAULT '',
		goal_title    TEXT NOT NULL DEFAULT '',
		goal_category TEXT NOT NULL DEFAULT ''
	);
	`

	if _, err := st.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// getKey reads a single state key. Returns ok=false if the key has never
// been written.
func (st *Store) getKey(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := st.conn.QueryRowContext(ctx,
		"SELECT value FROM state WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return value, true, nil
}

// setKeys upserts several state keys in one transaction so multi-key
// kinds (progress is three keys) are never observed half-written.
func (st *Store) setKeys(ctx context.Context, kv map[string]string) error {
	tx, err := st.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for key, value := range kv {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO state (key, value) VALUES (?, ?) "+
				"ON CONFLICT(key) DO UPDATE SET value = excluded.value",
			key, value)
		if err != nil {
			return fmt.Errorf("failed to write key %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit state write: %w", err)
	}
	return nil
}

// deleteKey removes a state key. Missing keys are not an error.
func (st *Store) deleteKey(ctx context.Context, key string) error {
	if _, err := st.conn.ExecContext(ctx,
		"DELETE FROM state WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}
