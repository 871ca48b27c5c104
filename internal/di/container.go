package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/project-digest/internal/adapters/render"
	"github.com/mikey/project-digest/internal/config"
	"github.com/mikey/project-digest/internal/core"
	"github.com/mikey/project-digest/internal/factory"
	"github.com/mikey/project-digest/internal/logging"
	"github.com/mikey/project-digest/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
// for the scheduled batch job
func BuildContainer(configFile string) (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(func() (*config.Config, error) {
		return config.New(configFile)
	}); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	for _, ctor := range []interface{}{
		factory.NewLLMFactory,
		factory.NewCacheFactory,
		factory.NewExtractionFactory,
		factory.NewStoreFactory,
		factory.NewNotifierFactory,
		factory.NewTriggerFactory,
	} {
		if err := container.Provide(ctor); err != nil {
			return nil, err
		}
	}

	// Register LLM client
	if err := container.Provide(func(f *factory.LLMFactory) (core.LLMClient, error) {
		return f.CreateLLMClient()
	}); err != nil {
		return nil, err
	}

	// Register cache repository, nil when disabled
	if err := container.Provide(func(f *factory.CacheFactory) (core.CacheRepository, error) {
		return f.CreateCacheRepository()
	}); err != nil {
		return nil, err
	}

	// Register completion service
	if err := container.Provide(func(
		llmClient core.LLMClient,
		cache core.CacheRepository,
		f *factory.CacheFactory,
		logger *zap.Logger,
	) (*core.CompletionService, error) {
		sc, err := f.CompletionServiceConfig()
		if err != nil {
			return nil, err
		}
		return core.NewCompletionService(llmClient, cache, logger, sc), nil
	}); err != nil {
		return nil, err
	}

	if err := provideExtraction(container); err != nil {
		return nil, err
	}

	// Register parser registry for the configured extensions
	if err := container.Provide(func(f *factory.ExtractionFactory) core.ParserRegistry {
		return f.CreateParserRegistry()
	}); err != nil {
		return nil, err
	}

	// Register renderers
	if err := container.Provide(func() core.DocumentRenderer { return render.NewDocxRenderer() }); err != nil {
		return nil, err
	}
	if err := container.Provide(func() core.TableRenderer { return render.NewXlsxRenderer() }); err != nil {
		return nil, err
	}

	// Register notifier, nil when disabled
	if err := container.Provide(func(f *factory.NotifierFactory) (core.Notifier, error) {
		return f.CreateNotifier()
	}); err != nil {
		return nil, err
	}

	// Register pipeline factory
	if err := container.Provide(factory.NewPipelineFactory); err != nil {
		return nil, err
	}

	return container, nil
}

// provideExtraction registers the stages shared by both containers.
// It expects *core.CompletionService and *factory.ExtractionFactory.
func provideExtraction(container *dig.Container) error {
	if err := container.Provide(func(s *core.CompletionService) core.Completer {
		return s
	}); err != nil {
		return err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.ExtractionFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(tp *utils.TextProcessor) core.BodyCleaner {
		return tp
	}); err != nil {
		return err
	}

	if err := container.Provide(func(f *factory.ExtractionFactory, c core.Completer, cleaner core.BodyCleaner) *core.FieldExtractor {
		return f.CreateFieldExtractor(c, cleaner)
	}); err != nil {
		return err
	}
	return container.Provide(func(f *factory.ExtractionFactory, c core.Completer) *core.Summarizer {
		return f.CreateSummarizer(c)
	})
}
