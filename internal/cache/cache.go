// Package cache provides the analysis cache used to avoid re-running ffmpeg
// or yt-dlp over a file that was already analyzed. It defines the Store
// interface (port) with an in-memory implementation for tests and a disk
// implementation for the CLI.
package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrMiss is returned when a key is not present in the store.
var ErrMiss = errors.New("cache: miss")

// Store defines the interface for the analysis cache.
// Implementations must serialize writes so that two concurrent analyses of
// the same file cannot interleave.
type Store interface {
	// Get returns the cached payload for key, or ErrMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores the payload under key, overwriting any previous value.
	Put(ctx context.Context, key string, data []byte) error
}

// FileKey derives a cache key from a media file's base name and size.
// Size is part of the key so a re-downloaded or re-encoded file with the
// same name does not reuse a stale report.
func FileKey(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("cache: stat %s: %w", path, err)
	}
	return fmt.Sprintf("%s_%d", filepath.Base(path), info.Size()), nil
}
