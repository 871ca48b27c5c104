package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/mikey/project-digest/internal/core"
	"go.uber.org/zap"
)

// LocalStore serves folders below a root directory
type LocalStore struct {
	root       string
	outputPath string
	logger     *zap.Logger
}

// NewLocalStore creates a store rooted at root
func NewLocalStore(root, outputPath string, logger *zap.Logger) *LocalStore {
	return &LocalStore{
		root:       root,
		outputPath: outputPath,
		logger:     logger,
	}
}

// List returns the regular files of folder sorted by name
func (s *LocalStore) List(_ context.Context, folder string) ([]core.FileHandle, error) {
	dir := s.resolve(folder)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, s.wrapError("list "+folder, err)
	}

	handles := make([]core.FileHandle, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		handles = append(handles, core.FileHandle{
			Name:         e.Name(),
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i].Name < handles[j].Name })
	return handles, nil
}

// Download reads name from folder
func (s *LocalStore) Download(_ context.Context, name, folder string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.resolve(folder), filepath.Base(name)))
	if err != nil {
		return nil, s.wrapError("download "+name, err)
	}
	return data, nil
}

// Upload writes name into the output folder through a temp file and rename
func (s *LocalStore) Upload(_ context.Context, data []byte, name string) error {
	op := "upload " + name
	dir := s.resolve(s.outputPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return s.wrapError(op, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(name)+".*")
	if err != nil {
		return s.wrapError(op, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return s.wrapError(op, err)
	}
	if err := tmp.Close(); err != nil {
		return s.wrapError(op, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, filepath.Base(name))); err != nil {
		return s.wrapError(op, err)
	}

	s.logger.Debug("Wrote file", zap.String("name", name), zap.String("dir", dir), zap.Int("size", len(data)))
	return nil
}

func (s *LocalStore) resolve(folder string) string {
	return filepath.Join(s.root, filepath.FromSlash(folder))
}

func (s *LocalStore) wrapError(op string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &core.TransportError{Op: op, Code: 404, Message: "not found", Err: err}
	case errors.Is(err, fs.ErrPermission):
		return &core.TransportError{Op: op, Code: 403, Message: "permission denied", Err: err}
	}
	return &core.TransportError{Op: op, Message: fmt.Sprintf("filesystem error: %v", err)}
}
