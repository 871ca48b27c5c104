package core

import (
	"time"
)

// NotProvided is the value of any record field the extraction could not resolve
const NotProvided = "Not Provided"

// Artifact names uploaded to the output location
const (
	DocumentArtifact = "Project_Completion_Summaries.docx"
	TableArtifact    = "Project_Summaries.xlsx"
	ManifestArtifact = "processed_emails.json"
)

// FileHandle describes an object in a remote folder
type FileHandle struct {
	Name         string
	Size         int64
	LastModified time.Time
}

// ParsedEmail is the content of one mail archive. A zero Date means the
// archive carried no usable timestamp.
type ParsedEmail struct {
	Subject string
	Date    time.Time
	Body    string
}

// Record holds the ten fields extracted from one project email
type Record struct {
	ProjectTitle       string
	ClientName         string
	UseCase            string
	CompletionDate     string
	ProjectObjectives  string
	BusinessChallenges string
	OurApproach        string
	ValueCreated       string
	MeasuresOfSuccess  string
	Industry           string
}

// NewRecord returns a record with every field set to NotProvided
func NewRecord() Record {
	var r Record
	for _, f := range AllFields {
		r.Set(f, NotProvided)
	}
	return r
}

// SummarizedRecord is a Record whose narrative fields hold condensed text
type SummarizedRecord struct {
	Record
}

// CompletionRequest is a single prompt sent to a completion backend
type CompletionRequest struct {
	Prompt      string
	MaxTokens   int
	Temperature float32
}

// CacheEntry is a stored completion
type CacheEntry struct {
	Key       string
	Text      string
	Model     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// RunReport describes the outcome of one pipeline run
type RunReport struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Listed    int
	Skipped   int
	Processed []string
	Artifacts []string
	Tracked   int
}

// ProcessedSet is an insertion-ordered set of item identifiers
type ProcessedSet struct {
	ids   []string
	index map[string]struct{}
}

// NewProcessedSet creates a set holding ids, ignoring duplicates
func NewProcessedSet(ids ...string) *ProcessedSet {
	s := &ProcessedSet{index: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Contains reports whether id is in the set
func (s *ProcessedSet) Contains(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Add inserts id and reports whether it was new
func (s *ProcessedSet) Add(id string) bool {
	if s.Contains(id) {
		return false
	}
	s.index[id] = struct{}{}
	s.ids = append(s.ids, id)
	return true
}

// Len returns the number of identifiers
func (s *ProcessedSet) Len() int {
	return len(s.ids)
}

// IDs returns a copy of the identifiers in insertion order
func (s *ProcessedSet) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Clone returns an independent copy of the set
func (s *ProcessedSet) Clone() *ProcessedSet {
	return NewProcessedSet(s.ids...)
}

// RunAccumulation holds the records of one run and their summaries,
// index-aligned by processing order.
type RunAccumulation struct {
	records   []Record
	summaries []SummarizedRecord
}

// Append returns a new accumulation with the pair added at the end
func (a RunAccumulation) Append(record Record, summary SummarizedRecord) RunAccumulation {
	n := len(a.records)
	return RunAccumulation{
		records:   append(a.records[:n:n], record),
		summaries: append(a.summaries[:n:n], summary),
	}
}

// Len returns the number of accumulated records
func (a RunAccumulation) Len() int {
	return len(a.records)
}

// Records returns the full records in processing order
func (a RunAccumulation) Records() []Record {
	out := make([]Record, len(a.records))
	copy(out, a.records)
	return out
}

// Summaries returns the summarized records in processing order
func (a RunAccumulation) Summaries() []SummarizedRecord {
	out := make([]SummarizedRecord, len(a.summaries))
	copy(out, a.summaries)
	return out
}
