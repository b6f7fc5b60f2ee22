package topology

import (
	"os"
	"path/filepath"
	"time"

	"github.com/tombanbury-cyber/network-rail-integration/errors"
)

// CacheStore persists the raw reference dataset between runs so startup does
// not depend on the remote endpoint being reachable.
type CacheStore interface {
	// Load returns the cached payload and the time it was saved.
	// ErrCacheMiss means nothing has been cached yet.
	Load() ([]byte, time.Time, error)
	// Save replaces the cached payload.
	Save(data []byte) error
}

// FileCacheStore keeps the dataset as a single file on disk, with the save
// time taken from the file's modification time.
type FileCacheStore struct {
	path string
}

// NewFileCacheStore returns a store backed by the given file path. Parent
// directories are created on first Save.
func NewFileCacheStore(path string) *FileCacheStore {
	return &FileCacheStore{path: path}
}

// Load reads the cached dataset from disk.
func (s *FileCacheStore) Load() ([]byte, time.Time, error) {
	info, err := os.Stat(s.path)
	if os.IsNotExist(err) {
		return nil, time.Time{}, errors.ErrCacheMiss
	}
	if err != nil {
		return nil, time.Time{}, errors.WrapTransient(err, "FileCacheStore", "Load", "stat cache file")
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, time.Time{}, errors.WrapTransient(err, "FileCacheStore", "Load", "read cache file")
	}
	return data, info.ModTime(), nil
}

// Save writes the dataset through a temp file rename so a crash mid-write
// never leaves a truncated cache.
func (s *FileCacheStore) Save(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.WrapTransient(err, "FileCacheStore", "Save", "create cache directory")
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp*")
	if err != nil {
		return errors.WrapTransient(err, "FileCacheStore", "Save", "create temp file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.WrapTransient(err, "FileCacheStore", "Save", "write temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.WrapTransient(err, "FileCacheStore", "Save", "close temp file")
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return errors.WrapTransient(err, "FileCacheStore", "Save", "replace cache file")
	}
	return nil
}
