package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key        TEXT PRIMARY KEY,
	body       BLOB NOT NULL,
	expires_at INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cache_entries_expires_at ON cache_entries(expires_at);
`

// SQLiteCache is a cache backend persisted to a SQLite database. It survives
// restarts, which matters mainly when the relay sits behind a supervisor that
// restarts it frequently. Semantics are identical to MemoryCache: advisory,
// TTL-bounded, last write wins.
//
// The database uses a write-ahead log for better concurrent performance.
// Expired rows are ignored by reads and removed by Prune (see Pruner for
// scheduled sweeps).
type SQLiteCache struct {
	db        *sql.DB
	closeOnce sync.Once

	getStmt   *sql.Stmt
	setStmt   *sql.Stmt
	lenStmt   *sql.Stmt
	pruneStmt *sql.Stmt
}

// SQLiteConfig configures the SQLite cache backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	BusyTimeout time.Duration
}

// NewSQLiteCache opens (creating if necessary) a SQLite-backed cache.
func NewSQLiteCache(cfg SQLiteConfig) (*SQLiteCache, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite cache: path must not be empty")
	}
	busyTimeout := cfg.BusyTimeout
	if busyTimeout <= 0 {
		busyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)",
		cfg.Path, busyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite cache: failed to open database: %w", err)
	}

	// SQLite handles one writer at a time; a single connection avoids
	// SQLITE_BUSY churn under concurrent request load.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite cache: failed to create schema: %w", err)
	}

	c := &SQLiteCache{db: db}
	if err := c.prepareStatements(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return c, nil
}

// prepareStatements pre-compiles the hot-path SQL statements.
func (c *SQLiteCache) prepareStatements() error {
	var err error

	c.getStmt, err = c.db.Prepare(
		`SELECT body FROM cache_entries WHERE key = ? AND expires_at > ?`)
	if err != nil {
		return fmt.Errorf("sqlite cache: failed to prepare get statement: %w", err)
	}

	c.setStmt, err = c.db.Prepare(
		`INSERT INTO cache_entries (key, body, expires_at, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET body = excluded.body,
		   expires_at = excluded.expires_at, created_at = excluded.created_at`)
	if err != nil {
		return fmt.Errorf("sqlite cache: failed to prepare set statement: %w", err)
	}

	c.lenStmt, err = c.db.Prepare(`SELECT COUNT(*) FROM cache_entries`)
	if err != nil {
		return fmt.Errorf("sqlite cache: failed to prepare len statement: %w", err)
	}

	c.pruneStmt, err = c.db.Prepare(`DELETE FROM cache_entries WHERE expires_at <= ?`)
	if err != nil {
		return fmt.Errorf("sqlite cache: failed to prepare prune statement: %w", err)
	}

	return nil
}

// Get returns the cached body for key, or (nil, false) when absent or expired.
// Backend errors are logged and reported as a miss.
func (c *SQLiteCache) Get(ctx context.Context, key string) ([]byte, bool) {
	var body []byte
	err := c.getStmt.QueryRowContext(ctx, key, time.Now().UnixMilli()).Scan(&body)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Warn("sqlite cache read failed", "error", err)
		}
		return nil, false
	}
	return body, true
}

// Set stores a body under key. Backend errors are logged and swallowed.
func (c *SQLiteCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	now := time.Now()
	_, err := c.setStmt.ExecContext(ctx, key, value, now.Add(ttl).UnixMilli(), now.UnixMilli())
	if err != nil {
		slog.Warn("sqlite cache write failed", "error", err)
	}
}

// Len returns the number of rows, including expired rows not yet pruned.
func (c *SQLiteCache) Len() int {
	var count int
	if err := c.lenStmt.QueryRow().Scan(&count); err != nil {
		return 0
	}
	return count
}

// Prune removes rows that expired before now.
func (c *SQLiteCache) Prune(ctx context.Context, now time.Time) (int, error) {
	res, err := c.pruneStmt.ExecContext(ctx, now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("sqlite cache: prune failed: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return int(deleted), nil
}

// Close releases prepared statements and closes the database.
func (c *SQLiteCache) Close() error {
	var closeErr error
	c.closeOnce.Do(func() {
		for _, stmt := range []*sql.Stmt{c.getStmt, c.setStmt, c.lenStmt, c.pruneStmt} {
			if stmt != nil {
				_ = stmt.Close()
			}
		}
		closeErr = c.db.Close()
	})
	return closeErr
}
