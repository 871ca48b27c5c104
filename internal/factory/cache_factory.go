package factory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mikey/project-digest/internal/adapters/cache"
	"github.com/mikey/project-digest/internal/config"
	"github.com/mikey/project-digest/internal/core"
)

// CacheFactory creates cache repositories based on configuration
type CacheFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewCacheFactory creates a new cache factory
func NewCacheFactory(cfg *config.Config, logger *zap.Logger) *CacheFactory {
	return &CacheFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateCacheRepository creates the completion cache. It returns nil when
// caching is disabled.
func (f *CacheFactory) CreateCacheRepository() (core.CacheRepository, error) {
	cc, err := f.cfg.GetCache()
	if err != nil {
		return nil, err
	}
	if !cc.Enabled {
		return nil, nil
	}

	switch cc.Type {
	case "memory":
		return cache.NewMemoryCache(f.logger, cc.CleanupFrequency), nil
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cc.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return cache.NewSQLiteCache(cc.SQLitePath, f.logger, cc.CleanupFrequency)
	case "mysql":
		return cache.NewMySQLCache(context.Background(), cc.MySQLDSN, f.logger, cc.CleanupFrequency)
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cc.Type)
	}
}

// CompletionServiceConfig assembles cache and breaker settings for the completion service
func (f *CacheFactory) CompletionServiceConfig() (core.CompletionServiceConfig, error) {
	cc, err := f.cfg.GetCache()
	if err != nil {
		return core.CompletionServiceConfig{}, err
	}
	bc, err := f.cfg.GetBreaker()
	if err != nil {
		return core.CompletionServiceConfig{}, err
	}
	return core.CompletionServiceConfig{
		CacheEnabled:       cc.Enabled,
		CacheTTL:           cc.TTL,
		BreakerEnabled:     bc.Enabled,
		BreakerMaxFailures: bc.MaxFailures,
		BreakerTimeout:     bc.Timeout,
	}, nil
}
