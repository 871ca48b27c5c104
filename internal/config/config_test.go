package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	comp := cfg.GetCompletion()
	assert.Equal(t, 150, comp.MaxTokens)
	assert.InDelta(t, 0.5, comp.Temperature, 1e-6)

	assert.Equal(t, "openai", cfg.GetLLM().Provider)
	assert.Equal(t, "gpt-3.5-turbo-instruct", cfg.GetOpenAI().ModelName)
	assert.Equal(t, "completion", cfg.GetOpenAI().Mode)

	cache, err := cfg.GetCache()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, cache.TTL)
	assert.Equal(t, time.Hour, cache.CleanupFrequency)

	breaker, err := cfg.GetBreaker()
	require.NoError(t, err)
	assert.Equal(t, uint32(5), breaker.MaxFailures)

	p := cfg.GetPipeline()
	assert.Equal(t, []string{".msg"}, p.Extensions)
	assert.Equal(t, "title", p.DedupKey)
}

func TestConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
llm:
  provider: gemini
store:
  type: local
  input_path: inbox
input:
  extensions: ["MSG", "eml"]
sharepoint:
  site_url: https://contoso.sharepoint.com/sites/delivery/
`), 0o600))
	t.Setenv("PROJECT_DIGEST_STORE_OUTPUT_PATH", "outbox")

	cfg, err := New(file)
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.GetLLM().Provider)
	store := cfg.GetStore()
	assert.Equal(t, "local", store.Type)
	assert.Equal(t, "inbox", store.InputPath)
	assert.Equal(t, "outbox", store.OutputPath)
	assert.Equal(t, []string{".msg", ".eml"}, cfg.GetPipeline().Extensions)

	assert.Equal(t, "https://contoso.sharepoint.com/sites/delivery", cfg.GetSharePoint().SiteURL)
	auth, err := cfg.GetAuth()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://contoso.sharepoint.com/.default"}, auth.Scopes)
}

func TestInvalidDuration(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())
	cfg.Set("cache.ttl", "forever")

	_, err := cfg.GetCache()
	assert.Error(t, err)
}
