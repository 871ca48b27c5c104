package core

import (
	"context"
)

// LLMClient defines the interface for interacting with LLM services
type LLMClient interface {
	// Complete returns the model's text for a single prompt
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// ModelName identifies the backing model
	ModelName() string
}

// Completer is what the extractor and summarizer call
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CacheRepository defines the interface for caching completions
type CacheRepository interface {
	// Get retrieves an unexpired entry, or ErrNotFound
	Get(ctx context.Context, key string) (*CacheEntry, error)

	// Set stores a cache entry
	Set(ctx context.Context, entry *CacheEntry) error

	// Delete removes a cache entry
	Delete(ctx context.Context, key string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}

// RemoteStore lists, fetches and stores files in the document library
type RemoteStore interface {
	// List returns the files in folder
	List(ctx context.Context, folder string) ([]FileHandle, error)

	// Download returns the content of name in folder
	Download(ctx context.Context, name, folder string) ([]byte, error)

	// Upload writes data as name in the output location, replacing any existing file
	Upload(ctx context.Context, data []byte, name string) error
}

// Parser opens one mail archive
type Parser interface {
	Parse(data []byte) (*ParsedEmail, error)
}

// ParserRegistry selects a parser by file name
type ParserRegistry interface {
	ParserFor(name string) (Parser, bool)
}

// DocumentRenderer renders full records into the document artifact
type DocumentRenderer interface {
	RenderDocument(records []Record) ([]byte, error)
}

// TableRenderer renders summarized records into the table artifact
type TableRenderer interface {
	RenderTable(records []SummarizedRecord) ([]byte, error)
}

// Notifier is told about every run that produced artifacts
type Notifier interface {
	Notify(ctx context.Context, report *RunReport) error
}

// Seen answers membership questions against the processed set
type Seen interface {
	Contains(id string) bool
}
