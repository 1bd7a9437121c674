package cache

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/tripfolio/tripfolio/internal/app/models"
)

// Snapshot is the durable form of both cache maps, persisted as one document
// with two fixed records.
type Snapshot struct {
	Locations map[string]models.CachedLocationEntry `json:"locations"`
	Routes    map[string]models.CachedRouteEntry    `json:"routes"`
}

// Storage abstracts the durable local store the caches survive restarts in.
type Storage interface {
	Read() (*Snapshot, error)
	Write(snap *Snapshot) error
}

// FileStorage persists the snapshot as a JSON file on local disk.
type FileStorage struct {
	path string
}

var _ Storage = (*FileStorage)(nil)

// NewFileStorage creates a file-backed storage at path.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// Read loads the snapshot. A missing file is a fresh start, not an error;
// an unreadable or undecodable file is catastrophic and wraps
// models.ErrCacheCorrupted.
func (f *FileStorage) Read() (*Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Snapshot{
				Locations: make(map[string]models.CachedLocationEntry),
				Routes:    make(map[string]models.CachedRouteEntry),
			}, nil
		}
		return nil, errors.Wrapf(models.ErrCacheCorrupted, "read %s: %v", f.path, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, errors.Wrapf(models.ErrCacheCorrupted, "decode %s: %v", f.path, err)
	}
	if snap.Locations == nil {
		snap.Locations = make(map[string]models.CachedLocationEntry)
	}
	if snap.Routes == nil {
		snap.Routes = make(map[string]models.CachedRouteEntry)
	}
	return &snap, nil
}

// Write serializes the snapshot to disk, creating parent directories as
// needed.
func (f *FileStorage) Write(snap *Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return errors.Wrap(err, "create cache directory")
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, "encode cache snapshot")
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return errors.Wrap(err, "write cache snapshot")
	}
	return nil
}
