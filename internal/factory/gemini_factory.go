package factory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/project-digest/internal/adapters/gemini"
	"github.com/mikey/project-digest/internal/config"
	"github.com/mikey/project-digest/internal/core"
)

// GeminiFactory creates Gemini LLM clients
type GeminiFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewGeminiFactory creates a new Gemini factory
func NewGeminiFactory(cfg *config.Config, logger *zap.Logger) *GeminiFactory {
	return &GeminiFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateLLMClient creates a Gemini LLM client
func (f *GeminiFactory) CreateLLMClient() (core.LLMClient, error) {
	gc := f.cfg.GetGemini()
	if gc.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	return gemini.NewGeminiClient(context.Background(), gc.APIKey, gc.ModelName, gc.TopP, f.logger)
}
