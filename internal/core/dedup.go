package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

type manifest struct {
	ProcessedEmails []string `json:"processed_emails"`
}

// DecodeManifest parses a manifest payload. Anything other than an object
// whose optional processed_emails key is a list of strings is an error.
func DecodeManifest(data []byte) (*ProcessedSet, error) {
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	return NewProcessedSet(m.ProcessedEmails...), nil
}

// EncodeManifest serializes the whole set in insertion order
func EncodeManifest(set *ProcessedSet) ([]byte, error) {
	data, err := json.Marshal(manifest{ProcessedEmails: set.IDs()})
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	return data, nil
}

// DedupStore loads and persists the processed manifest
type DedupStore struct {
	store  RemoteStore
	folder string
	logger *zap.Logger
}

// NewDedupStore creates a store reading the manifest from folder
func NewDedupStore(store RemoteStore, folder string, logger *zap.Logger) *DedupStore {
	return &DedupStore{
		store:  store,
		folder: folder,
		logger: logger,
	}
}

// Load returns the persisted set. It never fails: a missing, unreadable or
// malformed manifest yields an empty set.
func (d *DedupStore) Load(ctx context.Context) *ProcessedSet {
	data, err := d.store.Download(ctx, ManifestArtifact, d.folder)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			d.logger.Info("No manifest found, starting with empty history")
		} else {
			d.logger.Warn("Failed to fetch manifest, starting with empty history", zap.Error(err))
		}
		return NewProcessedSet()
	}

	set, err := DecodeManifest(data)
	if err != nil {
		d.logger.Warn("Ignoring malformed manifest", zap.Error(err), zap.Int("size", len(data)))
		return NewProcessedSet()
	}

	d.logger.Info("Loaded manifest", zap.Int("processed", set.Len()))
	return set
}

// Persist uploads the full set, replacing the previous manifest
func (d *DedupStore) Persist(ctx context.Context, set *ProcessedSet) error {
	data, err := EncodeManifest(set)
	if err != nil {
		return err
	}
	if err := d.store.Upload(ctx, data, ManifestArtifact); err != nil {
		return fmt.Errorf("failed to persist manifest: %w", err)
	}
	d.logger.Info("Persisted manifest", zap.Int("processed", set.Len()))
	return nil
}
