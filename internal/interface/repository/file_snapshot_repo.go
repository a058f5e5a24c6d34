package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"buswatch-service/internal/domain/entity"
	"buswatch-service/internal/domain/repository"
	"buswatch-service/pkg/logger"
)

// FileSnapshotRepository stores one JSON file per journey under dir.
type FileSnapshotRepository struct {
	dir    string
	logger logger.Logger
}

// NewFileSnapshotRepository creates dir if needed and returns a file-backed snapshot store.
func NewFileSnapshotRepository(dir string, logger logger.Logger) (repository.SnapshotRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot dir: %w", err)
	}
	return &FileSnapshotRepository{dir: dir, logger: logger}, nil
}

func (r *FileSnapshotRepository) path(journeyID string) string {
	return filepath.Join(r.dir, "snapshot_"+journeyID+".json")
}

// Load reads the journey's snapshot file. A missing file is an empty snapshot.
func (r *FileSnapshotRepository) Load(ctx context.Context, journeyID string) ([]entity.Listing, error) {
	if err := validateJourneyID(journeyID); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(r.path(journeyID))
	if errors.Is(err, fs.ErrNotExist) {
		r.logger.Debug("No saved snapshot found", "journey", journeyID)
		return []entity.Listing{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	return decodeListings(journeyID, data)
}

// Save writes to a temp file in the same directory, syncs it and renames it
// over the previous snapshot, so readers only ever see a complete file.
func (r *FileSnapshotRepository) Save(ctx context.Context, journeyID string, listings []entity.Listing) error {
	if err := validateJourneyID(journeyID); err != nil {
		return err
	}

	data, err := encodeListings(listings)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(r.dir, ".snapshot_"+journeyID+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, r.path(journeyID)); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	committed = true

	r.logger.Debug("Snapshot saved", "journey", journeyID, "count", len(listings))
	return nil
}
