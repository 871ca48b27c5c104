package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikey/project-digest/internal/core"
	"go.uber.org/zap"
)

// SQLiteCache is a SQLite implementation of the CacheRepository interface.
// Timestamps are stored as unix seconds.
type SQLiteCache struct {
	db      *sql.DB
	logger  *zap.Logger
	janitor *janitor
}

// NewSQLiteCache creates a new SQLite cache
func NewSQLiteCache(dbPath string, logger *zap.Logger, cleanupFreq time.Duration) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS completion_cache (
			cache_key TEXT PRIMARY KEY,
			response TEXT NOT NULL,
			model TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	// Create index on expires_at for faster cleanup
	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_completion_expires_at ON completion_cache(expires_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	c := &SQLiteCache{
		db:     db,
		logger: logger,
	}
	c.janitor = startJanitor(cleanupFreq, logger, c.Cleanup)
	return c, nil
}

// Get retrieves an unexpired entry
func (c *SQLiteCache) Get(ctx context.Context, key string) (*core.CacheEntry, error) {
	var entry core.CacheEntry
	var createdAt, expiresAt int64

	err := c.db.QueryRowContext(ctx, `
		SELECT cache_key, response, model, created_at, expires_at
		FROM completion_cache
		WHERE cache_key = ? AND expires_at > ?
	`, key, time.Now().Unix()).Scan(&entry.Key, &entry.Text, &entry.Model, &createdAt, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}

	entry.CreatedAt = time.Unix(createdAt, 0)
	entry.ExpiresAt = time.Unix(expiresAt, 0)
	return &entry, nil
}

// Set stores a cache entry
func (c *SQLiteCache) Set(ctx context.Context, entry *core.CacheEntry) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO completion_cache (cache_key, response, model, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
	`, entry.Key, entry.Text, entry.Model, entry.CreatedAt.Unix(), entry.ExpiresAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}
	return nil
}

// Delete removes a cache entry
func (c *SQLiteCache) Delete(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, `
		DELETE FROM completion_cache
		WHERE cache_key = ?
	`, key)
	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Cleanup removes expired entries
func (c *SQLiteCache) Cleanup(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, `
		DELETE FROM completion_cache
		WHERE expires_at <= ?
	`, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to clean up expired entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		c.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else {
		c.logger.Debug("Cleaned up expired cache entries", zap.Int64("expired_count", rowsAffected))
	}
	return nil
}

// Stop stops the background cleanup task and closes the database connection
func (c *SQLiteCache) Stop() {
	c.janitor.stop()
	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close SQLite database", zap.Error(err))
	}
}
