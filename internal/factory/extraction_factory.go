package factory

import (
	"go.uber.org/zap"

	"github.com/mikey/project-digest/internal/adapters/archive"
	"github.com/mikey/project-digest/internal/config"
	"github.com/mikey/project-digest/internal/core"
	"github.com/mikey/project-digest/internal/utils"
)

// ExtractionFactory creates the parsing, extraction and summarization stages
type ExtractionFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewExtractionFactory creates a new ExtractionFactory
func NewExtractionFactory(cfg *config.Config, logger *zap.Logger) *ExtractionFactory {
	return &ExtractionFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateTextProcessor creates a new TextProcessor
func (f *ExtractionFactory) CreateTextProcessor() *utils.TextProcessor {
	return utils.NewTextProcessor(f.logger)
}

// CreateParserRegistry enables the configured input extensions
func (f *ExtractionFactory) CreateParserRegistry() *archive.Registry {
	return archive.NewRegistry(f.cfg.GetPipeline().Extensions, f.logger)
}

// ExtractorConfig returns the completion parameters shared by both stages
func (f *ExtractionFactory) ExtractorConfig() core.ExtractorConfig {
	cc := f.cfg.GetCompletion()
	pc := f.cfg.GetPipeline()
	return core.ExtractorConfig{
		MaxTokens:   cc.MaxTokens,
		Temperature: cc.Temperature,
		MaxBodySize: cc.MaxBodySize,
		FirmName:    pc.FirmName,
		TrackBy:     pc.DedupKey,
	}
}

// CreateFieldExtractor creates the field extractor
func (f *ExtractionFactory) CreateFieldExtractor(completer core.Completer, cleaner core.BodyCleaner) *core.FieldExtractor {
	return core.NewFieldExtractor(completer, cleaner, f.logger, f.ExtractorConfig())
}

// CreateSummarizer creates the summarizer
func (f *ExtractionFactory) CreateSummarizer(completer core.Completer) *core.Summarizer {
	return core.NewSummarizer(completer, f.logger, f.ExtractorConfig())
}
