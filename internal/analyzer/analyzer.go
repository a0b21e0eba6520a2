// Package analyzer runs ffmpeg's silencedetect filter over an input file and
// returns the raw textual report for the track pipeline to parse. Reports
// are cached keyed by file name and size so repeated runs over the same
// album skip the (slow) re-analysis.
package analyzer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/albumsplit/albumsplit/internal/cache"
)

// Options configures the silencedetect filter.
type Options struct {
	// NoiseDB is the volume threshold in dB below which audio counts as
	// silence. Default: -30 dB.
	NoiseDB float64

	// MinSilenceSec is the minimum silence duration in seconds for a span
	// to be reported at all. Default: 0.25 seconds.
	MinSilenceSec float64
}

// DefaultOptions returns the default silencedetect parameters.
func DefaultOptions() Options {
	return Options{
		NoiseDB:       -30,
		MinSilenceSec: 0.25,
	}
}

// Analyzer produces silence analysis reports via the ffmpeg CLI.
type Analyzer struct {
	ffmpegPath string
	store      cache.Store
	logger     *slog.Logger
	opts       Options
}

// New creates an Analyzer. If ffmpegPath is empty, "ffmpeg" is resolved from
// PATH. A nil store disables caching.
func New(ffmpegPath string, store cache.Store, logger *slog.Logger, opts Options) *Analyzer {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		ffmpegPath: ffmpegPath,
		store:      store,
		logger:     logger,
		opts:       opts,
	}
}

// Report returns the silencedetect report text for the given input file,
// from cache when available.
func (a *Analyzer) Report(ctx context.Context, input string) (string, error) {
	if _, err := os.Stat(input); err != nil {
		return "", fmt.Errorf("analyzer: input file: %w", err)
	}

	var key string
	if a.store != nil {
		var err error
		key, err = cache.FileKey(input)
		if err != nil {
			return "", err
		}
		if data, err := a.store.Get(ctx, key); err == nil {
			a.logger.Debug("using cached silence report",
				slog.String("key", key),
			)
			return string(data), nil
		} else if !errors.Is(err, cache.ErrMiss) {
			return "", err
		}
	}

	a.logger.Info("running ffmpeg silence analysis",
		slog.String("input", input),
		slog.Float64("noise_db", a.opts.NoiseDB),
		slog.Float64("min_silence_sec", a.opts.MinSilenceSec),
	)

	report, err := a.detect(ctx, input)
	if err != nil {
		return "", err
	}

	if a.store != nil {
		if err := a.store.Put(ctx, key, []byte(report)); err != nil {
			return "", err
		}
	}

	return report, nil
}

// detect invokes ffmpeg with the silencedetect filter and a null output.
func (a *Analyzer) detect(ctx context.Context, input string) (string, error) {
	filter := fmt.Sprintf("silencedetect=noise=%gdB:d=%g", a.opts.NoiseDB, a.opts.MinSilenceSec)

	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, a.ffmpegPath,
		"-i", input,
		"-af", filter,
		"-f", "null",
		"-",
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	// ffmpeg writes the whole analysis to stderr and exits non-zero for a
	// null output, so the run error alone is not meaningful.
	_ = cmd.Run()

	if ctx.Err() != nil {
		return "", fmt.Errorf("analyzer: ffmpeg cancelled: %w", ctx.Err())
	}
	if stderr.Len() == 0 {
		return "", fmt.Errorf("analyzer: ffmpeg produced no output for %s", input)
	}

	return stderr.String(), nil
}
