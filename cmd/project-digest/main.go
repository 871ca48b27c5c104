package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/mikey/project-digest/internal/core"
	"github.com/mikey/project-digest/internal/di"
	"github.com/mikey/project-digest/internal/factory"
)

func main() {
	configFile := flag.String("config", "", "Path to config file")
	once := flag.Bool("once", false, "Run the pipeline once and exit, ignoring schedule.cron")
	flag.Parse()

	// Build the dependency injection container
	container, err := di.BuildContainer(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	err = container.Invoke(func(
		logger *zap.Logger,
		triggers *factory.TriggerFactory,
		pipelines *factory.PipelineFactory,
		llmClient core.LLMClient,
		cacheRepo core.CacheRepository,
	) error {
		return run(logger, triggers, pipelines, llmClient, cacheRepo, *once)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		os.Exit(1)
	}
}

// run starts the trigger and waits for it to finish or for a signal
func run(
	logger *zap.Logger,
	triggers *factory.TriggerFactory,
	pipelines *factory.PipelineFactory,
	llmClient core.LLMClient,
	cacheRepo core.CacheRepository,
	once bool,
) error {
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	trigger, err := triggers.CreateTrigger(pipelines.Run, once)
	if err != nil {
		return err
	}
	if err := trigger.Start(ctx); err != nil {
		return fmt.Errorf("failed to start trigger: %w", err)
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutting down...")
	case <-trigger.Done():
	}

	if err := trigger.Stop(); err != nil {
		logger.Error("Failed to stop trigger", zap.Error(err))
	}

	// Close any resources that need closing
	if closer, ok := llmClient.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close LLM client", zap.Error(err))
		}
	}

	// Stop the cache if needed
	if stopper, ok := cacheRepo.(interface{ Stop() }); ok {
		stopper.Stop()
	}

	logger.Info("Shutdown complete")
	return trigger.Err()
}
