package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/project-digest/internal/adapters/openai"
	"github.com/mikey/project-digest/internal/config"
	"github.com/mikey/project-digest/internal/core"
)

// OpenAIFactory creates OpenAI LLM clients
type OpenAIFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewOpenAIFactory creates a new OpenAI factory
func NewOpenAIFactory(cfg *config.Config, logger *zap.Logger) *OpenAIFactory {
	return &OpenAIFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateLLMClient creates an OpenAI LLM client. A custom base URL may stand
// in for the key when it points at a compatible local server.
func (f *OpenAIFactory) CreateLLMClient() (core.LLMClient, error) {
	oc := f.cfg.GetOpenAI()
	if oc.APIKey == "" && oc.BaseURL == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	return openai.NewOpenAIClient(oc.APIKey, oc.BaseURL, oc.ModelName, oc.Mode, oc.TopP, f.logger)
}
