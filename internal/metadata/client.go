package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/albumsplit/albumsplit/internal/cache"
)

// videoURL is the watch URL template the downloader is pointed at.
const videoURL = "https://www.youtube.com/watch?v=%s"

// Client fetches chapter metadata with a yt-dlp compatible downloader.
// Fetched chapter lists are cached per video ID so repeated runs over the
// same album never hit the network twice.
type Client struct {
	ytdlpPath string
	store     cache.Store
	logger    *slog.Logger
}

// NewClient creates a metadata client. If ytdlpPath is empty, "yt-dlp" is
// resolved from PATH. A nil store disables caching.
func NewClient(ytdlpPath string, store cache.Store, logger *slog.Logger) *Client {
	if ytdlpPath == "" {
		ytdlpPath = "yt-dlp"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		ytdlpPath: ytdlpPath,
		store:     store,
		logger:    logger,
	}
}

// Chapters returns the chapter list for the video ID carried in the input
// file's name. A file name without an ID, or a video without chapters,
// yields a nil list and no error; the caller falls back to silence analysis.
func (c *Client) Chapters(ctx context.Context, inputPath string) ([]Chapter, error) {
	id, ok := VideoID(inputPath)
	if !ok {
		c.logger.Debug("filename carries no video ID, skipping chapter lookup",
			slog.String("input", inputPath),
		)
		return nil, nil
	}

	key := "chapters_" + id + ".json"
	if c.store != nil {
		if data, err := c.store.Get(ctx, key); err == nil {
			var chapters []Chapter
			if err := json.Unmarshal(data, &chapters); err != nil {
				return nil, fmt.Errorf("metadata: decode cached chapters: %w", err)
			}
			return chapters, nil
		} else if !errors.Is(err, cache.ErrMiss) {
			return nil, err
		}
	}

	c.logger.Info("fetching video metadata",
		slog.String("video_id", id),
	)

	chapters, err := c.fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	if c.store != nil {
		data, err := json.Marshal(chapters)
		if err != nil {
			return nil, fmt.Errorf("metadata: encode chapters: %w", err)
		}
		if err := c.store.Put(ctx, key, data); err != nil {
			return nil, err
		}
	}

	return chapters, nil
}

// mediaExtensions lists the file types considered during batch extraction.
var mediaExtensions = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".opus": true,
	".ogg":  true,
	".wav":  true,
	".flac": true,
	".webm": true,
	".mkv":  true,
	".mp4":  true,
}

// ExtractAll pre-fetches chapter metadata for every media file in dir whose
// name carries a video ID, warming the cache for later split runs. Files
// without an ID are skipped and individual fetch failures are logged without
// stopping the walk. Returns the number of files whose chapters were
// retrieved.
func (c *Client) ExtractAll(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("metadata: read directory: %w", err)
	}

	fetched := 0
	for _, entry := range entries {
		if entry.IsDir() || !mediaExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		if _, ok := VideoID(entry.Name()); !ok {
			continue
		}
		if ctx.Err() != nil {
			return fetched, fmt.Errorf("metadata: extraction cancelled: %w", ctx.Err())
		}

		if _, err := c.Chapters(ctx, entry.Name()); err != nil {
			c.logger.Warn("chapter extraction failed",
				slog.String("file", entry.Name()),
				slog.String("error", err.Error()),
			)
			continue
		}
		fetched++
	}

	return fetched, nil
}

// fetch runs the downloader in JSON dump mode and extracts the chapter list.
func (c *Client) fetch(ctx context.Context, id string) ([]Chapter, error) {
	// #nosec G204 - ytdlpPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, c.ytdlpPath, "-j", fmt.Sprintf(videoURL, id))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("metadata: fetch cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("metadata: %s failed: %w, stderr: %s", c.ytdlpPath, err, stderr.String())
	}

	var info struct {
		Chapters []Chapter `json:"chapters"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		return nil, fmt.Errorf("metadata: decode video JSON: %w", err)
	}

	return info.Chapters, nil
}
