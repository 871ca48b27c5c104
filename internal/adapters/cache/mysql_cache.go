package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/mikey/project-digest/internal/core"
	"go.uber.org/zap"
)

// MySQLCache is a MySQL implementation of the CacheRepository interface
type MySQLCache struct {
	db      *sql.DB
	logger  *zap.Logger
	janitor *janitor
}

// NewMySQLCache creates a new MySQL cache. The DSN must allow parseTime.
func NewMySQLCache(ctx context.Context, dsn string, logger *zap.Logger, cleanupFreq time.Duration) (*MySQLCache, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS completion_cache (
			cache_key CHAR(64) PRIMARY KEY,
			response TEXT NOT NULL,
			model VARCHAR(255) NOT NULL,
			created_at DATETIME NOT NULL,
			expires_at DATETIME NOT NULL,
			INDEX idx_expires_at (expires_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	c := &MySQLCache{
		db:     db,
		logger: logger,
	}
	c.janitor = startJanitor(cleanupFreq, logger, c.Cleanup)
	return c, nil
}

// Get retrieves an unexpired entry
func (c *MySQLCache) Get(ctx context.Context, key string) (*core.CacheEntry, error) {
	var entry core.CacheEntry

	err := c.db.QueryRowContext(ctx, `
		SELECT cache_key, response, model, created_at, expires_at
		FROM completion_cache
		WHERE cache_key = ? AND expires_at > ?
	`, key, time.Now().UTC()).Scan(&entry.Key, &entry.Text, &entry.Model, &entry.CreatedAt, &entry.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query cache: %w", err)
	}

	return &entry, nil
}

// Set stores a cache entry
func (c *MySQLCache) Set(ctx context.Context, entry *core.CacheEntry) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO completion_cache (cache_key, response, model, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			response = VALUES(response),
			model = VALUES(model),
			created_at = VALUES(created_at),
			expires_at = VALUES(expires_at)
	`, entry.Key, entry.Text, entry.Model, entry.CreatedAt.UTC(), entry.ExpiresAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}
	return nil
}

// Delete removes a cache entry
func (c *MySQLCache) Delete(ctx context.Context, key string) error {
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
func (c *MySQLCache) Cleanup(ctx context.Context) error {
	result, err := c.db.ExecContext(ctx, `
		DELETE FROM completion_cache
		WHERE expires_at <= ?
	`, time.Now().UTC())
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
func (c *MySQLCache) Stop() {
	c.janitor.stop()
	if err := c.db.Close(); err != nil {
		c.logger.Error("Failed to close MySQL database", zap.Error(err))
	}
}
