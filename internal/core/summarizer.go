package core

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Summarizer condenses the narrative fields of a record
type Summarizer struct {
	completer   Completer
	logger      *zap.Logger
	maxTokens   int
	temperature float32
}

// NewSummarizer creates a new summarizer
func NewSummarizer(completer Completer, logger *zap.Logger, cfg ExtractorConfig) *Summarizer {
	return &Summarizer{
		completer:   completer,
		logger:      logger,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

// Summarize returns a copy of record whose narrative fields are summaries of
// their current values. A failed call leaves that field as it was.
func (s *Summarizer) Summarize(ctx context.Context, record Record) SummarizedRecord {
	summary := SummarizedRecord{Record: record}

	for _, field := range NarrativeFields {
		text, err := s.completer.Complete(ctx, CompletionRequest{
			Prompt:      buildPrompt(summaryPrompts[field], record.Get(field)),
			MaxTokens:   s.maxTokens,
			Temperature: s.temperature,
		})
		if err != nil {
			s.logger.Warn("Field summary failed, keeping extracted text",
				zap.String("project", record.ProjectTitle),
				zap.Stringer("field", field),
				zap.Error(err))
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			summary.Set(field, text)
		}
	}

	return summary
}
