package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/project-digest/internal/core"
	"github.com/mikey/project-digest/internal/di"
)

func main() {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	err = container.Invoke(func(
		logger *zap.Logger,
		parsers core.ParserRegistry,
		extractor *core.FieldExtractor,
		summarizer *core.Summarizer,
		llmClient core.LLMClient,
	) error {
		defer logger.Sync()
		if closer, ok := llmClient.(interface{ Close() error }); ok {
			defer closer.Close()
		}
		return extract(logger, flags.InputFile, parsers, extractor, summarizer, llmClient.ModelName())
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func extract(
	logger *zap.Logger,
	inputFile string,
	parsers core.ParserRegistry,
	extractor *core.FieldExtractor,
	summarizer *core.Summarizer,
	model string,
) error {
	// stdin is treated as an RFC 5322 message
	name := "stdin.eml"
	var data []byte
	var err error
	if inputFile != "" {
		name = filepath.Base(inputFile)
		data, err = os.ReadFile(inputFile)
		logger.Info("Reading archive from file", zap.String("file", inputFile))
	} else {
		data, err = io.ReadAll(os.Stdin)
		logger.Info("Reading message from stdin")
	}
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	parser, ok := parsers.ParserFor(name)
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrUnsupportedFormat, name)
	}
	email, err := parser.Parse(data)
	if err != nil {
		return err
	}

	fmt.Printf("\n=== Email Summary ===\n")
	fmt.Printf("Subject: %s\n", email.Subject)
	if !email.Date.IsZero() {
		fmt.Printf("Date: %s\n", email.Date.Format(time.RFC1123Z))
	}
	fmt.Printf("Body length: %d bytes\n", len(email.Body))

	fmt.Printf("\n=== Extraction ===\n")
	fmt.Printf("Model: %s\n", model)
	startTime := time.Now()

	ctx := context.Background()
	record, err := extractor.Extract(ctx, email, nil)
	if err != nil {
		return err
	}
	summary := summarizer.Summarize(ctx, *record)
	duration := time.Since(startTime)

	fmt.Printf("\n=== Fields ===\n")
	for _, f := range core.AllFields {
		fmt.Printf("%s: %s\n", f, record.Get(f))
	}

	fmt.Printf("\n=== Summaries ===\n")
	for _, f := range core.NarrativeFields {
		fmt.Printf("%s: %s\n", f, summary.Get(f))
	}

	fmt.Printf("\nProcessing time: %v\n", duration)
	return nil
}
