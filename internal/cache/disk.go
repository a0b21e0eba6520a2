package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

// Compile-time check that DiskStore implements Store.
var _ Store = (*DiskStore)(nil)

// unsafeChars matches everything that is not safe to keep in a cache file
// name. Keys are derived from media file names, which can carry anything.
var unsafeChars = regexp.MustCompile(`[^-\w. ]`)

// DiskStore is a disk-backed implementation of Store. Each entry lives in
// its own file under dir, so cached reports survive between runs. Writes
// are serialized with a mutex and land via rename, so a concurrent Get
// sees either the previous payload or the new one, never a torn write.
type DiskStore struct {
	mu  sync.Mutex
	dir string
}

// NewDiskStore creates a disk cache rooted at dir, creating the directory
// if it does not exist.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("cache: create directory: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Get returns the cached payload for key, or ErrMiss.
func (s *DiskStore) Get(ctx context.Context, key string) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("cache: context cancelled: %w", ctx.Err())
	default:
	}

	data, err := os.ReadFile(s.path(key)) // #nosec G304 - path is derived from the sanitized key
	if os.IsNotExist(err) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache: read %s: %w", key, err)
	}
	return data, nil
}

// Put stores the payload under key, overwriting any previous value.
func (s *DiskStore) Put(ctx context.Context, key string, data []byte) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("cache: context cancelled: %w", ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, ".write-*")
	if err != nil {
		return fmt.Errorf("cache: write %s: %w", key, err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("cache: write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("cache: write %s: %w", key, err)
	}

	// Rename is atomic on the same filesystem, so the entry appears fully
	// written or not at all.
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("cache: write %s: %w", key, err)
	}
	return nil
}

// path maps a key to its backing file, stripping characters that are unsafe
// in file names.
func (s *DiskStore) path(key string) string {
	return filepath.Join(s.dir, "_output_"+unsafeChars.ReplaceAllString(key, ""))
}
