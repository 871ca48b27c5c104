package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Tracking key choices for the manifest, see ExtractorConfig.TrackBy
const (
	KeyTitle   = "title"
	KeySubject = "subject"
)

// PipelineConfig is the per-run configuration of a BatchPipeline
type PipelineConfig struct {
	InputPath  string
	OutputPath string
}

// BatchPipeline turns the new archives of an input folder into the three artifacts
type BatchPipeline struct {
	store      RemoteStore
	parsers    ParserRegistry
	extractor  *FieldExtractor
	summarizer *Summarizer
	dedup      *DedupStore
	document   DocumentRenderer
	table      TableRenderer
	notifier   Notifier
	logger     *zap.Logger
	cfg        PipelineConfig
}

// NewBatchPipeline creates a pipeline for one run. notifier may be nil.
func NewBatchPipeline(
	store RemoteStore,
	parsers ParserRegistry,
	extractor *FieldExtractor,
	summarizer *Summarizer,
	document DocumentRenderer,
	table TableRenderer,
	notifier Notifier,
	logger *zap.Logger,
	cfg PipelineConfig,
) *BatchPipeline {
	return &BatchPipeline{
		store:      store,
		parsers:    parsers,
		extractor:  extractor,
		summarizer: summarizer,
		dedup:      NewDedupStore(store, cfg.OutputPath, logger),
		document:   document,
		table:      table,
		notifier:   notifier,
		logger:     logger,
		cfg:        cfg,
	}
}

// Run executes the pipeline once. Artifacts are only uploaded when at least
// one new email was extracted, and the manifest is always written last.
func (p *BatchPipeline) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	log := p.logger.With(zap.String("run_id", report.RunID))
	defer func() { report.Duration = time.Since(report.StartedAt) }()

	handles, err := p.store.List(ctx, p.cfg.InputPath)
	if err != nil {
		return report, fmt.Errorf("failed to list input folder %q: %w", p.cfg.InputPath, err)
	}
	report.Listed = len(handles)
	log.Info("Listed input folder", zap.String("folder", p.cfg.InputPath), zap.Int("files", len(handles)))

	processed := p.dedup.Load(ctx)
	tracked := processed.Clone()

	acc, err := p.collect(ctx, log, handles, processed, tracked)
	if err != nil {
		return report, err
	}
	report.Skipped = report.Listed - acc.Len()
	report.Tracked = processed.Len()

	if acc.Len() == 0 {
		log.Info("No new emails to summarize")
		return report, nil
	}

	artifacts, err := p.render(acc)
	if err != nil {
		return report, err
	}

	for _, a := range artifacts {
		if err := p.store.Upload(ctx, a.data, a.name); err != nil {
			return report, fmt.Errorf("failed to upload %s: %w", a.name, err)
		}
		report.Artifacts = append(report.Artifacts, a.name)
		log.Info("Uploaded artifact", zap.String("name", a.name), zap.Int("size", len(a.data)))
	}

	if err := p.dedup.Persist(ctx, tracked); err != nil {
		return report, err
	}
	report.Artifacts = append(report.Artifacts, ManifestArtifact)
	report.Tracked = tracked.Len()

	for _, r := range acc.Records() {
		report.Processed = append(report.Processed, r.ProjectTitle)
	}

	if p.notifier != nil {
		report.Duration = time.Since(report.StartedAt)
		if err := p.notifier.Notify(ctx, report); err != nil {
			log.Error("Failed to send run notification", zap.Error(err))
		}
	}

	log.Info("Run complete",
		zap.Int("processed", acc.Len()),
		zap.Int("skipped", report.Skipped),
		zap.Int("tracked", report.Tracked))
	return report, nil
}

// collect walks the listing in order and returns the accumulation built from
// new emails. seen is the manifest as loaded; tracked receives the new keys.
func (p *BatchPipeline) collect(
	ctx context.Context,
	log *zap.Logger,
	handles []FileHandle,
	seen Seen,
	tracked *ProcessedSet,
) (RunAccumulation, error) {
	var acc RunAccumulation

	for _, h := range handles {
		if err := ctx.Err(); err != nil {
			return acc, err
		}

		parser, ok := p.parsers.ParserFor(h.Name)
		if !ok {
			log.Debug("Skipping unsupported file", zap.String("file", h.Name))
			continue
		}

		data, err := p.store.Download(ctx, h.Name, p.cfg.InputPath)
		if err != nil {
			log.Warn("Failed to download file, skipping", zap.String("file", h.Name), zap.Error(err))
			continue
		}

		email, err := parser.Parse(data)
		if err != nil {
			log.Warn("Failed to parse archive, skipping", zap.String("file", h.Name), zap.Error(err))
			continue
		}

		record, err := p.extractor.Extract(ctx, email, seen)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return acc, err
			}
			if errors.Is(err, ErrAlreadyProcessed) {
				log.Debug("Skipping processed email", zap.String("file", h.Name), zap.String("subject", email.Subject))
			} else {
				log.Warn("Skipping email", zap.String("file", h.Name), zap.String("subject", email.Subject), zap.Error(err))
			}
			continue
		}

		summary := p.summarizer.Summarize(ctx, *record)
		acc = acc.Append(*record, summary)
		tracked.Add(p.extractor.TrackingKey(email, record))

		log.Info("Extracted project",
			zap.String("file", h.Name),
			zap.String("project", record.ProjectTitle))
	}

	return acc, nil
}

type artifact struct {
	name string
	data []byte
}

func (p *BatchPipeline) render(acc RunAccumulation) ([]artifact, error) {
	doc, err := p.document.RenderDocument(acc.Records())
	if err != nil {
		return nil, fmt.Errorf("failed to render document: %w", err)
	}
	table, err := p.table.RenderTable(acc.Summaries())
	if err != nil {
		return nil, fmt.Errorf("failed to render table: %w", err)
	}
	return []artifact{
		{name: DocumentArtifact, data: doc},
		{name: TableArtifact, data: table},
	}, nil
}
