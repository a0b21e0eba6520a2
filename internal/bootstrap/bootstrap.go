// Package bootstrap provides dependency initialization for the albumsplit CLI.
package bootstrap

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/albumsplit/albumsplit/internal/analyzer"
	"github.com/albumsplit/albumsplit/internal/approve"
	"github.com/albumsplit/albumsplit/internal/cache"
	"github.com/albumsplit/albumsplit/internal/config"
	"github.com/albumsplit/albumsplit/internal/cutter"
	"github.com/albumsplit/albumsplit/internal/metadata"
	"github.com/albumsplit/albumsplit/internal/split"
	"github.com/albumsplit/albumsplit/internal/storage"
	"github.com/albumsplit/albumsplit/internal/track"
)

// Dependencies holds all initialized dependencies for the CLI.
type Dependencies struct {
	SplitService *split.Service
	Metadata     *metadata.Client
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	store, err := initStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	reportCache, err := cache.NewDiskStore(cfg.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("create report cache: %w", err)
	}

	silenceOpts := analyzer.Options{
		NoiseDB:       cfg.NoiseDB,
		MinSilenceSec: cfg.MinSilenceSec,
	}
	metadataClient := metadata.NewClient(cfg.YTDLPPath, reportCache, logger)

	svc := split.NewService(
		analyzer.New(cfg.FFmpegPath, reportCache, logger, silenceOpts),
		metadataClient,
		cutter.New(cfg.FFmpegPath, logger, cfg.MaxConcurrentCuts),
		store,
		approve.NewPrompter(os.Stdin, os.Stdout),
		logger,
		split.WithThresholds(track.Thresholds{
			MaxSilence: cfg.MaxSilenceWarnSec,
			MinTrack:   cfg.MinTrackWarnSec,
		}),
	)

	return &Dependencies{
		SplitService: svc,
		Metadata:     metadataClient,
	}, nil
}

// initStorage creates the appropriate storage backend based on configuration.
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.S3Enabled() {
		s3Store, err := storage.NewS3Storage(storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, nil
	}

	return storage.NewLocalStorage(), nil
}
