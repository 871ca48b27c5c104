package core

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// monthYear matches a full month name followed by a four digit year anywhere in the text
var monthYear = regexp.MustCompile(`(?i)\b(?:January|February|March|April|May|June|July|August|September|October|November|December) \d{4}\b`)

// BodyCleaner turns a raw email body into prompt text
type BodyCleaner interface {
	CleanBody(body string, maxSize int) string
}

// ExtractorConfig holds the completion parameters used for every field prompt
type ExtractorConfig struct {
	MaxTokens   int
	Temperature float32
	MaxBodySize int
	FirmName    string
	TrackBy     string
}

// FieldExtractor produces a Record from one email
type FieldExtractor struct {
	completer Completer
	cleaner   BodyCleaner
	logger    *zap.Logger
	cfg       ExtractorConfig
	prompts   map[Field]string
}

// NewFieldExtractor creates a new field extractor
func NewFieldExtractor(completer Completer, cleaner BodyCleaner, logger *zap.Logger, cfg ExtractorConfig) *FieldExtractor {
	if cfg.TrackBy == "" {
		cfg.TrackBy = KeyTitle
	}
	return &FieldExtractor{
		completer: completer,
		cleaner:   cleaner,
		logger:    logger,
		cfg:       cfg,
		prompts:   extractionPrompts(cfg.FirmName),
	}
}

// Extract issues one completion per field against the cleaned body.
// Emails whose subject is already in seen are rejected before any call.
// When tracking by title, an email whose extracted title is in seen is
// rejected after the title completion.
func (e *FieldExtractor) Extract(ctx context.Context, email *ParsedEmail, seen Seen) (*Record, error) {
	if seen != nil && seen.Contains(email.Subject) {
		return nil, ErrAlreadyProcessed
	}

	body := e.cleaner.CleanBody(email.Body, e.cfg.MaxBodySize)
	if body == "" {
		return nil, ErrNoContent
	}

	record := NewRecord()
	failed := 0
	for _, field := range AllFields {
		text, err := e.completer.Complete(ctx, CompletionRequest{
			Prompt:      buildPrompt(e.prompts[field], body),
			MaxTokens:   e.cfg.MaxTokens,
			Temperature: e.cfg.Temperature,
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			failed++
			e.logger.Warn("Field extraction failed, keeping default",
				zap.String("subject", email.Subject),
				zap.Stringer("field", field),
				zap.Error(err))
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			record.Set(field, text)
		}
		// the title is asked first, so a known project costs one call
		if field == FieldProjectTitle && e.known(seen, &record) {
			return nil, ErrAlreadyProcessed
		}
	}

	if failed == len(AllFields) {
		return nil, ErrExtractionFailed
	}

	record.CompletionDate = NormalizeCompletionDate(record.CompletionDate, email.Date)
	return &record, nil
}

// TrackingKey is the manifest identifier for an extracted email: its project
// title, or its subject when tracking by subject or when no title was found.
func (e *FieldExtractor) TrackingKey(email *ParsedEmail, record *Record) string {
	if e.cfg.TrackBy == KeySubject || record.ProjectTitle == NotProvided {
		return email.Subject
	}
	return record.ProjectTitle
}

func (e *FieldExtractor) known(seen Seen, record *Record) bool {
	if seen == nil || e.cfg.TrackBy == KeySubject || record.ProjectTitle == NotProvided {
		return false
	}
	return seen.Contains(record.ProjectTitle)
}

// NormalizeCompletionDate keeps value when it names a month and year,
// otherwise falls back to the email timestamp or NotProvided.
func NormalizeCompletionDate(value string, emailDate time.Time) string {
	if value != NotProvided && monthYear.MatchString(value) {
		return value
	}
	if !emailDate.IsZero() {
		return emailDate.Format("January 2006")
	}
	return NotProvided
}
