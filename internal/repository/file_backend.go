package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/noah-isme/seat-desk-api/internal/models"
	"github.com/noah-isme/seat-desk-api/pkg/storage"
)

// FileBackend persists the snapshot as one JSON document.
type FileBackend struct {
	files *storage.LocalStorage
	name  string
}

// NewFileBackend stores the snapshot at path, creating its directory if needed.
func NewFileBackend(path string) (*FileBackend, error) {
	files, err := storage.NewLocalStorage(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	return &FileBackend{files: files, name: filepath.Base(path)}, nil
}

// Load implements SnapshotBackend; a missing file yields an empty snapshot.
func (b *FileBackend) Load(_ context.Context) (*models.Snapshot, error) {
	raw, err := b.files.Read(b.name)
	if errors.Is(err, storage.ErrNotExist) {
		return &models.Snapshot{}, nil
	}
	if err != nil {
		return nil, err
	}
	var snap models.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode %s: %w", b.name, err)
	}
	return &snap, nil
}

// Save implements SnapshotBackend.
func (b *FileBackend) Save(_ context.Context, snapshot *models.Snapshot) error {
	raw, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return b.files.Save(b.name, raw)
}
