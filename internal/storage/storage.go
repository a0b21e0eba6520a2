// Package storage manages the per-album output directory and optional
// upload of finished tracks to S3. It defines the Storage interface (port)
// with a local-disk implementation and an S3-backed one layered on top.
package storage

import (
	"context"
	"io"
)

// Storage defines the interface for track output handling.
type Storage interface {
	// PrepareOutputDir creates the output directory if needed and returns
	// the names of any files already in it, so the caller can ask the
	// operator whether to clear them before cutting.
	PrepareOutputDir(ctx context.Context, dir string) (existing []string, err error)

	// ClearDir removes all regular files in dir, continuing past
	// individual failures.
	ClearDir(ctx context.Context, dir string) error

	// Upload pushes a finished track to S3 and returns its public URL.
	// Returns ErrS3NotConfigured when no bucket is configured.
	Upload(ctx context.Context, key string, data io.Reader) (url string, err error)
}
