package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLite is a durable search cache backed by a SQLite database. It is
// suitable for single-instance deployments where cached results should
// survive restarts.
//
// The store uses a write-ahead log for concurrent read performance and a
// background loop that checkpoints the WAL and deletes expired rows.
type SQLite struct {
	db     *sql.DB
	dbPath string
	ttl    time.Duration

	done      chan struct{}
	closeOnce sync.Once

	getStmt    *sql.Stmt
	putStmt    *sql.Stmt
	expireStmt *sql.Stmt
}

// SQLiteConfig configures the SQLite cache.
type SQLiteConfig struct {
	// Path is the path to the SQLite database file.
	Path string

	// TTL is how long entries stay live. Zero means entries never expire.
	TTL time.Duration

	// MaintenanceInterval is how often to checkpoint the WAL and delete
	// expired rows. Default: 5 minutes.
	MaintenanceInterval time.Duration

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds.
	BusyTimeout time.Duration
}

// NewSQLite opens or creates the cache database at path with default
// settings.
func NewSQLite(path string, ttl time.Duration) (*SQLite, error) {
	return NewSQLiteWithConfig(SQLiteConfig{Path: path, TTL: ttl})
}

// NewSQLiteWithConfig opens or creates the cache database with custom
// configuration.
func NewSQLiteWithConfig(cfg SQLiteConfig) (*SQLite, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("cache db path cannot be empty")
	}
	if cfg.MaintenanceInterval == 0 {
		cfg.MaintenanceInterval = 5 * time.Minute
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		cfg.Path, int(cfg.BusyTimeout.Milliseconds()))

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	c := &SQLite{
		db:     db,
		dbPath: cfg.Path,
		ttl:    cfg.TTL,
		done:   make(chan struct{}),
	}

	if err := c.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cache schema: %w", err)
	}
	if err := c.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare cache statements: %w", err)
	}

	go c.maintenanceLoop(cfg.MaintenanceInterval)

	return c, nil
}

// initSchema creates the cache table if it doesn't exist.
func (c *SQLite) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS search_cache (
		key TEXT PRIMARY KEY,
		query TEXT NOT NULL,
		provider TEXT NOT NULL,
		hits TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_search_cache_created_at ON search_cache(created_at);
	`

	_, err := c.db.Exec(schema)
	return err
}

// prepareStatements prepares SQL statements for reuse.
func (c *SQLite) prepareStatements() error {
	var err error

	c.getStmt, err = c.db.Prepare(`
		SELECT query, provider, hits, created_at
		FROM search_cache
		WHERE key = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare get statement: %w", err)
	}

	c.putStmt, err = c.db.Prepare(`
		INSERT INTO search_cache (key, query, provider, hits, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			query = excluded.query,
			provider = excluded.provider,
			hits = excluded.hits,
			created_at = excluded.created_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare put statement: %w", err)
	}

	c.expireStmt, err = c.db.Prepare(`
		DELETE FROM search_cache
		WHERE created_at < ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare expire statement: %w", err)
	}

	return nil
}

// Get retrieves the entry stored under key. Entries older than the TTL
// count as misses; the row is left for the maintenance loop to delete.
func (c *SQLite) Get(ctx context.Context, key string) (*Entry, bool, error) {
	if key == "" {
		return nil, false, fmt.Errorf("cache key cannot be empty")
	}

	var (
		query     string
		provider  string
		hitsJSON  string
		createdAt int64
	)
	err := c.getStmt.QueryRowContext(ctx, key).Scan(&query, &provider, &hitsJSON, &createdAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	created := time.Unix(createdAt, 0)
	if c.ttl > 0 && time.Since(created) > c.ttl {
		return nil, false, nil
	}

	entry := &Entry{
		Query:     query,
		Provider:  provider,
		CreatedAt: created,
	}
	if err := json.Unmarshal([]byte(hitsJSON), &entry.Hits); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached hits: %w", err)
	}

	return entry, true, nil
}

// Put stores an entry under key, replacing any existing one.
func (c *SQLite) Put(ctx context.Context, key string, entry *Entry) error {
	if key == "" {
		return fmt.Errorf("cache key cannot be empty")
	}
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	hitsJSON, err := json.Marshal(entry.Hits)
	if err != nil {
		return fmt.Errorf("failed to encode hits: %w", err)
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = c.putStmt.ExecContext(ctx, key, entry.Query, entry.Provider, string(hitsJSON), createdAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Len returns the number of stored rows, expired ones included until the
// next maintenance pass.
func (c *SQLite) Len() (int, error) {
	var n int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM search_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return n, nil
}

// Close stops the maintenance loop and closes the database. Idempotent.
func (c *SQLite) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.getStmt.Close()
		c.putStmt.Close()
		c.expireStmt.Close()
		err = c.db.Close()
	})
	return err
}

// maintenanceLoop periodically checkpoints the WAL and deletes expired
// rows.
func (c *SQLite) maintenanceLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if c.ttl > 0 {
				cutoff := time.Now().Add(-c.ttl).Unix()
				c.expireStmt.Exec(cutoff)
			}
			c.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
		}
	}
}
