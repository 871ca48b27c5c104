package cache

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mikey/project-digest/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func entry(key string, ttl time.Duration) *core.CacheEntry {
	now := time.Now()
	return &core.CacheEntry{
		Key:       key,
		Text:      "text for " + key,
		Model:     "m",
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func exerciseRepository(t *testing.T, repo core.CacheRepository) {
	t.Helper()
	ctx := context.Background()

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)

	require.NoError(t, repo.Set(ctx, entry("live", time.Hour)))
	require.NoError(t, repo.Set(ctx, entry("stale", -time.Minute)))

	got, err := repo.Get(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, "text for live", got.Text)
	assert.Equal(t, "m", got.Model)

	_, err = repo.Get(ctx, "stale")
	assert.ErrorIs(t, err, core.ErrNotFound)

	// overwrite
	e := entry("live", time.Hour)
	e.Text = "newer"
	require.NoError(t, repo.Set(ctx, e))
	got, err = repo.Get(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, "newer", got.Text)

	require.NoError(t, repo.Cleanup(ctx))
	require.NoError(t, repo.Delete(ctx, "live"))
	_, err = repo.Get(ctx, "live")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), 0)
	defer c.Stop()

	exerciseRepository(t, c)
}

func TestMemoryCacheCleanup(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), 0)
	defer c.Stop()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, entry("a", time.Hour)))
	require.NoError(t, c.Set(ctx, entry("b", -time.Second)))
	assert.Equal(t, 2, c.Len())

	require.NoError(t, c.Cleanup(ctx))
	assert.Equal(t, 1, c.Len())
}

func TestMemoryCacheBackgroundCleanup(t *testing.T) {
	c := NewMemoryCache(zap.NewNop(), 10*time.Millisecond)
	require.NoError(t, c.Set(context.Background(), entry("b", -time.Second)))

	assert.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 10*time.Millisecond)
	c.Stop()
	c.Stop()
}

func TestSQLiteCache(t *testing.T) {
	c, err := NewSQLiteCache(filepath.Join(t.TempDir(), "cache.db"), zap.NewNop(), 0)
	if err != nil && strings.Contains(err.Error(), "CGO_ENABLED") {
		t.Skip("sqlite3 driver built without cgo")
	}
	require.NoError(t, err)
	defer c.Stop()

	exerciseRepository(t, c)
}
