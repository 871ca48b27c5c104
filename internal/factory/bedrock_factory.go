package factory

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"github.com/mikey/project-digest/internal/adapters/bedrock"
	"github.com/mikey/project-digest/internal/config"
	"github.com/mikey/project-digest/internal/core"
)

// BedrockFactory creates Bedrock LLM clients
type BedrockFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewBedrockFactory creates a new Bedrock factory
func NewBedrockFactory(cfg *config.Config, logger *zap.Logger) *BedrockFactory {
	return &BedrockFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateLLMClient creates a Bedrock LLM client using the default AWS credential chain
func (f *BedrockFactory) CreateLLMClient() (core.LLMClient, error) {
	bc := f.cfg.GetBedrock()

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(bc.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return bedrock.NewBedrockClient(
		bedrockruntime.NewFromConfig(awsCfg),
		bc.ModelID,
		bc.TopP,
		f.logger,
	), nil
}
