package utils

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

var (
	markupTag  = regexp.MustCompile(`<[^>]+>`)
	whitespace = regexp.MustCompile(`\s+`)
)

// TextProcessor provides utilities for processing text
type TextProcessor struct {
	logger *zap.Logger
}

// NewTextProcessor creates a new TextProcessor
func NewTextProcessor(logger *zap.Logger) *TextProcessor {
	return &TextProcessor{
		logger: logger,
	}
}

// StripMarkup removes tags, decodes entities, collapses runs of whitespace
// into one space and trims the result.
func (tp *TextProcessor) StripMarkup(text string) string {
	text = markupTag.ReplaceAllString(text, "")
	text = html.UnescapeString(text)
	text = whitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// TruncateText safely truncates text to the specified maximum size
// and ensures the result is valid UTF-8
func (tp *TextProcessor) TruncateText(text string, maxSize int) string {
	// If no limit or text is already within limits, return as is
	if maxSize <= 0 || len(text) <= maxSize {
		return text
	}

	truncated := text[:maxSize]

	// Drop a partial rune left at the cut
	for !utf8.ValidString(truncated) && len(truncated) > 0 {
		truncated = truncated[:len(truncated)-1]
	}

	tp.logger.Debug("Text truncated",
		zap.Int("original_size", len(text)),
		zap.Int("truncated_size", len(truncated)),
		zap.Int("max_size", maxSize))

	return truncated + "\n[... Content truncated due to size limits ...]"
}

// SanitizeUTF8 ensures the string contains only valid UTF-8 characters
func (tp *TextProcessor) SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}

	result := make([]rune, 0, len(text))
	for i, r := range text {
		if r == utf8.RuneError {
			_, size := utf8.DecodeRuneInString(text[i:])
			if size == 1 {
				continue
			}
		}
		result = append(result, r)
	}

	tp.logger.Debug("Text sanitized",
		zap.Int("original_size", len(text)),
		zap.Int("sanitized_size", len(string(result))))

	return string(result)
}

// ProcessText truncates and sanitizes text in one operation
func (tp *TextProcessor) ProcessText(text string, maxSize int) string {
	return tp.SanitizeUTF8(tp.TruncateText(text, maxSize))
}

// CleanBody prepares an email body for prompting: markup stripped,
// whitespace collapsed, invalid UTF-8 dropped and the result capped at maxSize bytes.
func (tp *TextProcessor) CleanBody(body string, maxSize int) string {
	return tp.ProcessText(tp.StripMarkup(tp.SanitizeUTF8(body)), maxSize)
}
