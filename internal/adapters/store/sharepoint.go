package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/mikey/project-digest/internal/core"
	"go.uber.org/zap"
)

const maxErrorBody = 512

// SharePointStore talks to a document library through the SharePoint REST API.
// The HTTP client is expected to attach the bearer token.
type SharePointStore struct {
	client     *http.Client
	siteURL    string
	outputPath string
	logger     *zap.Logger
}

// NewSharePointStore creates a store for siteURL uploading into outputPath
func NewSharePointStore(client *http.Client, siteURL, outputPath string, logger *zap.Logger) *SharePointStore {
	return &SharePointStore{
		client:     client,
		siteURL:    strings.TrimRight(siteURL, "/"),
		outputPath: outputPath,
		logger:     logger,
	}
}

type spFile struct {
	Name             string    `json:"Name"`
	Length           string    `json:"Length"`
	TimeLastModified time.Time `json:"TimeLastModified"`
}

type spFileList struct {
	D struct {
		Results []spFile `json:"results"`
	} `json:"d"`
}

// List returns the files of a server-relative folder
func (s *SharePointStore) List(ctx context.Context, folder string) ([]core.FileHandle, error) {
	op := "list " + folder
	var out spFileList
	if err := s.doGet(ctx, op, s.folderURL(folder)+"/Files", &out); err != nil {
		return nil, err
	}

	handles := make([]core.FileHandle, 0, len(out.D.Results))
	for _, f := range out.D.Results {
		size, _ := strconv.ParseInt(f.Length, 10, 64)
		handles = append(handles, core.FileHandle{
			Name:         f.Name,
			Size:         size,
			LastModified: f.TimeLastModified,
		})
	}
	return handles, nil
}

// Download returns the raw content of name in folder
func (s *SharePointStore) Download(ctx context.Context, name, folder string) ([]byte, error) {
	op := "download " + name
	endpoint := fmt.Sprintf("%s/Files('%s')/$value", s.folderURL(folder), odataLiteral(name))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &core.TransportError{Op: op, Message: "invalid request", Err: err}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, s.wrapError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, s.wrapHTTPError(op, resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &core.TransportError{Op: op, Code: resp.StatusCode, Message: "failed to read body", Err: err}
	}
	return data, nil
}

// Upload adds name to the output folder, overwriting any existing file
func (s *SharePointStore) Upload(ctx context.Context, data []byte, name string) error {
	op := "upload " + name
	endpoint := fmt.Sprintf("%s/Files/add(url='%s',overwrite=true)", s.folderURL(s.outputPath), odataLiteral(name))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return &core.TransportError{Op: op, Message: "invalid request", Err: err}
	}
	req.Header.Set("Accept", "application/json;odata=verbose")
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := s.client.Do(req)
	if err != nil {
		return s.wrapError(op, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return s.wrapHTTPError(op, resp)
	}

	s.logger.Debug("Uploaded file to SharePoint",
		zap.String("name", name),
		zap.String("folder", s.outputPath),
		zap.Int("size", len(data)))
	return nil
}

func (s *SharePointStore) folderURL(folder string) string {
	return fmt.Sprintf("%s/_api/web/GetFolderByServerRelativeUrl('%s')", s.siteURL, odataPath(folder))
}

func (s *SharePointStore) doGet(ctx context.Context, op, endpoint string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &core.TransportError{Op: op, Message: "invalid request", Err: err}
	}
	req.Header.Set("Accept", "application/json;odata=verbose")

	resp, err := s.client.Do(req)
	if err != nil {
		return s.wrapError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return s.wrapHTTPError(op, resp)
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return &core.TransportError{Op: op, Code: resp.StatusCode, Message: "invalid response body", Err: err}
		}
	}
	return nil
}

func (s *SharePointStore) wrapError(op string, err error) error {
	return &core.TransportError{Op: op, Message: "request failed", Err: err}
}

func (s *SharePointStore) wrapHTTPError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var msg string
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		msg = "token rejected"
	case http.StatusForbidden:
		msg = "access denied"
	case http.StatusNotFound:
		msg = "not found"
	case http.StatusTooManyRequests:
		msg = "too many requests"
	default:
		msg = strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
	}

	s.logger.Debug("SharePoint request failed",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.ByteString("body", body))

	return &core.TransportError{Op: op, Code: resp.StatusCode, Message: msg}
}

// odataLiteral escapes a value placed inside a quoted OData string literal
func odataLiteral(s string) string {
	return url.PathEscape(strings.ReplaceAll(s, "'", "''"))
}

// odataPath is odataLiteral for server-relative paths; separators stay literal
func odataPath(p string) string {
	segments := strings.Split(p, "/")
	for i, seg := range segments {
		segments[i] = odataLiteral(seg)
	}
	return strings.Join(segments, "/")
}
