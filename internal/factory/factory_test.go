package factory

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mikey/project-digest/internal/adapters/render"
	"github.com/mikey/project-digest/internal/adapters/trigger"
	"github.com/mikey/project-digest/internal/config"
	"github.com/mikey/project-digest/internal/core"
)

func newConfig(t *testing.T, values map[string]interface{}) *config.Config {
	t.Helper()
	cfg := config.NewFromViper(config.NewEmptyViper())
	for k, v := range values {
		cfg.Set(k, v)
	}
	return cfg
}

type constantCompleter struct {
	calls int
}

func (c *constantCompleter) Complete(_ context.Context, _ core.CompletionRequest) (string, error) {
	c.calls++
	return "Atlas", nil
}

func TestLLMFactoryValidation(t *testing.T) {
	_, err := NewLLMFactory(newConfig(t, map[string]interface{}{"llm.provider": "watson"}), zap.NewNop()).CreateLLMClient()
	assert.ErrorContains(t, err, "unsupported LLM provider")

	_, err = NewLLMFactory(newConfig(t, map[string]interface{}{"llm.provider": "openai"}), zap.NewNop()).CreateLLMClient()
	assert.ErrorContains(t, err, "API key is required")

	_, err = NewLLMFactory(newConfig(t, map[string]interface{}{"llm.provider": "gemini"}), zap.NewNop()).CreateLLMClient()
	assert.ErrorContains(t, err, "API key is required")

	client, err := NewLLMFactory(newConfig(t, map[string]interface{}{
		"llm.provider":    "openai",
		"openai.base_url": "http://localhost:8080/v1",
		"openai.mode":     "chat",
	}), zap.NewNop()).CreateLLMClient()
	require.NoError(t, err)
	assert.Equal(t, "gpt-3.5-turbo-instruct", client.ModelName())
}

func TestCacheFactory(t *testing.T) {
	repo, err := NewCacheFactory(newConfig(t, map[string]interface{}{"cache.enabled": false}), zap.NewNop()).CreateCacheRepository()
	require.NoError(t, err)
	assert.Nil(t, repo)

	f := NewCacheFactory(newConfig(t, map[string]interface{}{"cache.cleanup_frequency": "0s"}), zap.NewNop())
	repo, err = f.CreateCacheRepository()
	require.NoError(t, err)
	assert.NotNil(t, repo)

	sc, err := f.CompletionServiceConfig()
	require.NoError(t, err)
	assert.True(t, sc.CacheEnabled)
	assert.True(t, sc.BreakerEnabled)
	assert.Equal(t, uint32(5), sc.BreakerMaxFailures)

	_, err = NewCacheFactory(newConfig(t, map[string]interface{}{"cache.type": "redis"}), zap.NewNop()).CreateCacheRepository()
	assert.ErrorContains(t, err, "unsupported cache type")
}

func TestStoreFactoryValidation(t *testing.T) {
	ctx := context.Background()

	_, err := NewStoreFactory(newConfig(t, map[string]interface{}{"store.type": "ftp"}), zap.NewNop()).CreateStore(ctx)
	assert.ErrorContains(t, err, "unsupported store type")

	_, err = NewStoreFactory(newConfig(t, nil), zap.NewNop()).CreateStore(ctx)
	assert.ErrorContains(t, err, "site_url is required")

	_, err = NewStoreFactory(newConfig(t, map[string]interface{}{
		"sharepoint.site_url": "https://contoso.sharepoint.com/sites/pmo",
	}), zap.NewNop()).CreateStore(ctx)
	assert.ErrorContains(t, err, "client id is required")

	_, err = NewStoreFactory(newConfig(t, map[string]interface{}{"store.type": "s3"}), zap.NewNop()).CreateStore(ctx)
	assert.ErrorContains(t, err, "s3.bucket is required")
}

func TestNotifierFactory(t *testing.T) {
	n, err := NewNotifierFactory(newConfig(t, nil), zap.NewNop()).CreateNotifier()
	require.NoError(t, err)
	assert.Nil(t, n)

	_, err = NewNotifierFactory(newConfig(t, map[string]interface{}{"notify.email.enabled": true}), zap.NewNop()).CreateNotifier()
	assert.Error(t, err)

	n, err = NewNotifierFactory(newConfig(t, map[string]interface{}{
		"notify.email.enabled": true,
		"notify.email.from":    "digest@example.com",
		"notify.email.to":      []string{"pm@example.com"},
	}), zap.NewNop()).CreateNotifier()
	require.NoError(t, err)
	assert.NotNil(t, n)
}

func TestTriggerFactory(t *testing.T) {
	run := func(context.Context) error { return nil }

	tr, err := NewTriggerFactory(newConfig(t, nil), zap.NewNop()).CreateTrigger(run, false)
	require.NoError(t, err)
	assert.IsType(t, &trigger.OnceTrigger{}, tr)

	f := NewTriggerFactory(newConfig(t, map[string]interface{}{"schedule.cron": "@daily"}), zap.NewNop())
	tr, err = f.CreateTrigger(run, false)
	require.NoError(t, err)
	assert.IsType(t, &trigger.CronTrigger{}, tr)

	tr, err = f.CreateTrigger(run, true)
	require.NoError(t, err)
	assert.IsType(t, &trigger.OnceTrigger{}, tr)

	_, err = NewTriggerFactory(newConfig(t, map[string]interface{}{"schedule.cron": "every tuesday"}), zap.NewNop()).CreateTrigger(run, false)
	assert.Error(t, err)
}

func TestPipelineFactoryRunsAgainstLocalStore(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "in"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "in", "atlas.eml"),
		[]byte("Subject: Atlas\r\nDate: Tue, 05 Mar 2024 14:00:00 +0000\r\n\r\nAtlas went live for Contoso.\r\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "in", "notes.txt"), []byte("ignored"), 0o644))

	cfg := newConfig(t, map[string]interface{}{
		"store.type":        "local",
		"local.root":        root,
		"store.input_path":  "in",
		"store.output_path": "out",
		"input.extensions":  []string{"eml"},
	})
	logger := zap.NewNop()
	ef := NewExtractionFactory(cfg, logger)
	completer := &constantCompleter{}
	tp := ef.CreateTextProcessor()

	pf := NewPipelineFactory(cfg, logger,
		NewStoreFactory(cfg, logger),
		ef.CreateParserRegistry(),
		ef.CreateFieldExtractor(completer, tp),
		ef.CreateSummarizer(completer),
		render.NewDocxRenderer(),
		render.NewXlsxRenderer(),
		nil,
	)
	var out bytes.Buffer
	pf.out = &out

	require.NoError(t, pf.Run(context.Background()))
	assert.Equal(t, len(core.AllFields)+len(core.NarrativeFields), completer.calls)
	assert.Contains(t, out.String(), "Processed: 1")

	for _, name := range []string{core.DocumentArtifact, core.TableArtifact, core.ManifestArtifact} {
		assert.FileExists(t, filepath.Join(root, "out", name))
	}

	data, err := os.ReadFile(filepath.Join(root, "out", core.ManifestArtifact))
	require.NoError(t, err)
	var m struct {
		ProcessedEmails []string `json:"processed_emails"`
	}
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, []string{"Atlas"}, m.ProcessedEmails)

	// second run finds nothing new
	out.Reset()
	require.NoError(t, pf.Run(context.Background()))
	assert.Equal(t, len(core.AllFields)+len(core.NarrativeFields), completer.calls)
	assert.Contains(t, out.String(), "Processed: 0")
}
