package factory

import (
	"context"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/mikey/project-digest/internal/config"
	"github.com/mikey/project-digest/internal/core"
	"github.com/mikey/project-digest/internal/report"
)

// PipelineFactory builds a fresh BatchPipeline for every run
type PipelineFactory struct {
	cfg        *config.Config
	logger     *zap.Logger
	stores     *StoreFactory
	parsers    core.ParserRegistry
	extractor  *core.FieldExtractor
	summarizer *core.Summarizer
	document   core.DocumentRenderer
	table      core.TableRenderer
	notifier   core.Notifier
	out        io.Writer
}

// NewPipelineFactory creates a new pipeline factory. notifier may be nil.
func NewPipelineFactory(
	cfg *config.Config,
	logger *zap.Logger,
	stores *StoreFactory,
	parsers core.ParserRegistry,
	extractor *core.FieldExtractor,
	summarizer *core.Summarizer,
	document core.DocumentRenderer,
	table core.TableRenderer,
	notifier core.Notifier,
) *PipelineFactory {
	return &PipelineFactory{
		cfg:        cfg,
		logger:     logger,
		stores:     stores,
		parsers:    parsers,
		extractor:  extractor,
		summarizer: summarizer,
		document:   document,
		table:      table,
		notifier:   notifier,
		out:        os.Stdout,
	}
}

// CreatePipeline authenticates and binds a pipeline to a new store
func (f *PipelineFactory) CreatePipeline(ctx context.Context) (*core.BatchPipeline, error) {
	remote, err := f.stores.CreateStore(ctx)
	if err != nil {
		return nil, err
	}

	sc := f.cfg.GetStore()
	return core.NewBatchPipeline(
		remote,
		f.parsers,
		f.extractor,
		f.summarizer,
		f.document,
		f.table,
		f.notifier,
		f.logger,
		core.PipelineConfig{
			InputPath:  sc.InputPath,
			OutputPath: sc.OutputPath,
		},
	), nil
}

// Run performs one complete run and prints its report
func (f *PipelineFactory) Run(ctx context.Context) error {
	p, err := f.CreatePipeline(ctx)
	if err != nil {
		return err
	}

	rep, runErr := p.Run(ctx)
	if rep != nil {
		if err := report.Write(f.out, rep); err != nil {
			f.logger.Warn("Failed to print run report", zap.Error(err))
		}
	}
	return runErr
}
