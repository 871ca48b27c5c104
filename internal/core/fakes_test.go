package core

import (
	"context"
	"errors"
	"path"
	"sort"
	"strings"
	"sync"
	"time"
)

var errBackend = errors.New("backend exploded")

// scriptedCompleter answers prompts through respond and records every prompt it saw
type scriptedCompleter struct {
	mu      sync.Mutex
	respond func(instruction, content string) (string, error)
	prompts []string
}

func (c *scriptedCompleter) Complete(_ context.Context, req CompletionRequest) (string, error) {
	c.mu.Lock()
	c.prompts = append(c.prompts, req.Prompt)
	c.mu.Unlock()
	instruction, content, _ := strings.Cut(req.Prompt, "\n\n")
	return c.respond(instruction, content)
}

func (c *scriptedCompleter) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.prompts)
}

// projectAnswers treats the first word of the body as the project title
func projectAnswers(instruction, content string) (string, error) {
	switch {
	case instruction == "Extract the project title:":
		return strings.Fields(content)[0], nil
	case instruction == "Extract the completion date (Month and Year):":
		return "March 2024", nil
	case strings.HasPrefix(instruction, "Summarize"):
		return "brief: " + content, nil
	}
	return "answer to " + instruction, nil
}

type passthroughCleaner struct{}

func (passthroughCleaner) CleanBody(body string, _ int) string {
	return strings.TrimSpace(body)
}

// memoryStore is an in-memory RemoteStore. Uploads land in the output folder.
type memoryStore struct {
	mu        sync.Mutex
	output    string
	files     map[string][]byte
	uploads   []string
	listErr   error
	failOn    map[string]error
	uploadErr map[string]error
}

func newMemoryStore(output string) *memoryStore {
	return &memoryStore{
		output:    output,
		files:     make(map[string][]byte),
		failOn:    make(map[string]error),
		uploadErr: make(map[string]error),
	}
}

func (s *memoryStore) put(folder, name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path.Join(folder, name)] = data
}

func (s *memoryStore) get(folder, name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[path.Join(folder, name)]
	return data, ok
}

func (s *memoryStore) List(_ context.Context, folder string) ([]FileHandle, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for key := range s.files {
		if path.Dir(key) == path.Clean(folder) {
			names = append(names, path.Base(key))
		}
	}
	sort.Strings(names)
	handles := make([]FileHandle, 0, len(names))
	for _, n := range names {
		handles = append(handles, FileHandle{Name: n, Size: int64(len(s.files[path.Join(folder, n)]))})
	}
	return handles, nil
}

func (s *memoryStore) Download(_ context.Context, name, folder string) ([]byte, error) {
	if err, ok := s.failOn[name]; ok {
		return nil, err
	}
	data, ok := s.get(folder, name)
	if !ok {
		return nil, &TransportError{Op: "download " + name, Code: 404, Message: "not found"}
	}
	return data, nil
}

func (s *memoryStore) Upload(_ context.Context, data []byte, name string) error {
	if err, ok := s.uploadErr[name]; ok {
		return err
	}
	s.put(s.output, name, data)
	s.mu.Lock()
	s.uploads = append(s.uploads, name)
	s.mu.Unlock()
	return nil
}

// lineParser reads "subject\nbody" payloads for files ending in .msg
type lineParser struct {
	date time.Time
}

func (p lineParser) Parse(data []byte) (*ParsedEmail, error) {
	subject, body, ok := strings.Cut(string(data), "\n")
	if !ok {
		return nil, ErrParse
	}
	return &ParsedEmail{Subject: subject, Date: p.date, Body: body}, nil
}

type suffixRegistry struct {
	parser Parser
}

func (r suffixRegistry) ParserFor(name string) (Parser, bool) {
	if strings.HasSuffix(strings.ToLower(name), ".msg") {
		return r.parser, true
	}
	return nil, false
}

// titleRenderer writes one line per record title so payloads can be compared
type titleRenderer struct {
	docs   [][]Record
	tables [][]SummarizedRecord
	err    error
}

func (r *titleRenderer) RenderDocument(records []Record) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.docs = append(r.docs, records)
	var b strings.Builder
	for _, rec := range records {
		b.WriteString(rec.ProjectTitle + "\n")
	}
	return []byte(b.String()), nil
}

func (r *titleRenderer) RenderTable(records []SummarizedRecord) ([]byte, error) {
	r.tables = append(r.tables, records)
	var b strings.Builder
	for _, rec := range records {
		b.WriteString(rec.ProjectTitle + "\n")
	}
	return []byte(b.String()), nil
}

type recordingNotifier struct {
	reports []*RunReport
	err     error
}

func (n *recordingNotifier) Notify(_ context.Context, report *RunReport) error {
	n.reports = append(n.reports, report)
	return n.err
}
