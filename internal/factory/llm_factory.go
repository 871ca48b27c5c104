package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/project-digest/internal/config"
	"github.com/mikey/project-digest/internal/core"
)

// LLMFactory creates LLM clients
type LLMFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(cfg *config.Config, logger *zap.Logger) *LLMFactory {
	return &LLMFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateLLMClient creates a new LLM client based on the configuration
func (f *LLMFactory) CreateLLMClient() (core.LLMClient, error) {
	llmConfig := f.cfg.GetLLM()

	var (
		client core.LLMClient
		err    error
	)
	switch llmConfig.Provider {
	case "bedrock":
		client, err = NewBedrockFactory(f.cfg, f.logger).CreateLLMClient()
	case "gemini":
		client, err = NewGeminiFactory(f.cfg, f.logger).CreateLLMClient()
	case "openai":
		client, err = NewOpenAIFactory(f.cfg, f.logger).CreateLLMClient()
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", llmConfig.Provider)
	}
	if err != nil {
		return nil, err
	}

	f.logger.Info("Using LLM provider",
		zap.String("provider", llmConfig.Provider),
		zap.String("model", client.ModelName()))
	return client, nil
}
