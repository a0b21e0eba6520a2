// Package cutter cuts one output file per track boundary using the ffmpeg
// CLI with stream copy, so no re-encoding takes place.
package cutter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/albumsplit/albumsplit/internal/track"
)

// ErrNoTracks is returned when Cut is called with an empty boundary list.
var ErrNoTracks = errors.New("cutter: no track boundaries provided")

// Cutter extracts track files from a source recording.
type Cutter struct {
	ffmpegPath string
	logger     *slog.Logger
	// concurrency bounds the number of parallel ffmpeg cut processes.
	concurrency int
}

// New creates a Cutter. If ffmpegPath is empty, "ffmpeg" is resolved from
// PATH; concurrency values below 1 fall back to 1.
func New(ffmpegPath string, logger *slog.Logger, concurrency int) *Cutter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if logger == nil {
		logger = slog.Default()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Cutter{
		ffmpegPath:  ffmpegPath,
		logger:      logger,
		concurrency: concurrency,
	}
}

// Cut writes one file per boundary into outputDir, named from titles when
// supplied (sanitized) and "TrackNN" otherwise, keeping the source file's
// extension. Cuts run in parallel up to the configured bound; on any
// failure the already-written partial outputs are removed.
func (c *Cutter) Cut(ctx context.Context, input, outputDir string, tracks []track.Boundary, titles []string) ([]string, error) {
	if len(tracks) == 0 {
		return nil, ErrNoTracks
	}

	if err := os.MkdirAll(outputDir, 0750); err != nil {
		return nil, fmt.Errorf("cutter: create output directory: %w", err)
	}

	ext := filepath.Ext(input)
	outputs := make([]string, len(tracks))
	for i := range tracks {
		outputs[i] = filepath.Join(outputDir, trackFilename(titles, i, ext))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, tr := range tracks {
		g.Go(func() error {
			c.logger.Info("cutting track",
				slog.String("output", filepath.Base(outputs[i])),
				slog.String("start", track.FormatTimestamp(tr.Start)),
				slog.String("end", track.FormatTimestamp(tr.End)),
			)
			return c.extract(gctx, input, outputs[i], tr)
		})
	}

	if err := g.Wait(); err != nil {
		for _, out := range outputs {
			_ = os.Remove(out)
		}
		return nil, err
	}

	return outputs, nil
}

// extract cuts a single boundary with stream copy. Start and end are passed
// through the timestamp codec so the arguments match what the operator saw
// in the approved track list.
func (c *Cutter) extract(ctx context.Context, input, output string, tr track.Boundary) error {
	args := []string{
		"-y",
		"-i", input,
		"-acodec", "copy",
		"-ss", track.FormatTimestamp(tr.Start),
		"-to", track.FormatTimestamp(tr.End),
		output,
	}

	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, c.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("cutter: ffmpeg cancelled: %w", ctx.Err())
		}
		return &FFmpegError{Args: args, Stderr: stderr.String(), Err: err}
	}

	return nil
}

// FFmpegError represents a failed ffmpeg invocation, including its stderr.
type FFmpegError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *FFmpegError) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *FFmpegError) Unwrap() error {
	return e.Err
}
