package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/roach88/vats/internal/device"
)

// Store loads and saves the whole device collection.
type Store interface {
	Load(ctx context.Context) ([]device.Device, error)
	Save(ctx context.Context, devices []device.Device) error
}

// FileStore keeps the collection in a single JSON file.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by path. The file need not exist.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the collection. A missing file yields an empty collection.
func (s *FileStore) Load(ctx context.Context) ([]device.Device, error) {
	if err := ctx.Err(); err != nil {
		return nil, device.NewStorageError("load cancelled", err)
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []device.Device{}, nil
	}
	if err != nil {
		return nil, device.NewStorageError(fmt.Sprintf("read %s", s.path), err)
	}

	return Unmarshal(s.path, data)
}

// Save atomically replaces the file with the full collection.
func (s *FileStore) Save(ctx context.Context, devices []device.Device) error {
	if err := ctx.Err(); err != nil {
		return device.NewStorageError("save cancelled", err)
	}

	data, err := Marshal(devices)
	if err != nil {
		return device.NewStorageError(fmt.Sprintf("save %s", s.path), err)
	}

	if err := writeFileAtomic(s.path, data, 0o644); err != nil {
		return device.NewStorageError(fmt.Sprintf("save %s", s.path), err)
	}
	return nil
}

// writeFileAtomic writes data to a temp file next to path, fsyncs it and
// renames it into place. The temp file is removed on failure.
func writeFileAtomic(path string, data []byte, perm os.FileMode) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Chmod(perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
