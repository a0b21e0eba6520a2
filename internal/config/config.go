// Package config provides configuration loading from environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Static errors for configuration validation.
var (
	// ErrInvalidNoiseFloor is returned when the silence noise floor is not a
	// negative dB value.
	ErrInvalidNoiseFloor = errors.New("config: SILENCE_NOISE_DB must be negative")
	// ErrInvalidMinSilence is returned when the minimum silence duration is
	// not positive.
	ErrInvalidMinSilence = errors.New("config: SILENCE_MIN_SEC must be positive")
	// ErrInvalidConcurrency is returned when the cut concurrency is not positive.
	ErrInvalidConcurrency = errors.New("config: MAX_CONCURRENT_CUTS must be positive")
)

// Config holds all configuration for the application.
type Config struct {
	// External tools
	FFmpegPath string `env:"FFMPEG_PATH, default=ffmpeg" json:"ffmpeg_path"`
	YTDLPPath  string `env:"YTDLP_PATH, default=yt-dlp" json:"ytdlp_path"`

	// Analysis cache
	CacheDir string `env:"CACHE_DIR, default=_CACHE" json:"cache_dir"`

	// Silence detection settings
	NoiseDB       float64 `env:"SILENCE_NOISE_DB, default=-30" json:"noise_db"`
	MinSilenceSec float64 `env:"SILENCE_MIN_SEC, default=0.25" json:"min_silence_sec"`

	// Advisory thresholds for the rendered track list
	MaxSilenceWarnSec float64 `env:"WARN_MAX_SILENCE_SEC, default=5" json:"max_silence_warn_sec"`
	MinTrackWarnSec   float64 `env:"WARN_MIN_TRACK_SEC, default=30" json:"min_track_warn_sec"`

	// Processing settings
	MaxConcurrentCuts int `env:"MAX_CONCURRENT_CUTS, default=3" json:"max_concurrent_cuts"`

	// Optional S3 settings
	S3Bucket           string `env:"S3_BUCKET" json:"s3_bucket,omitempty"`
	S3Region           string `env:"S3_REGION" json:"s3_region,omitempty"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" json:"-"`     // Masked in JSON
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" json:"-"` // Masked in JSON

	// Logging settings
	LogFormat string `env:"LOG_FORMAT, default=text" json:"log_format"` // "json" or "text"
	LogLevel  string `env:"LOG_LEVEL, default=info" json:"log_level"`   // "debug", "info", "warn", "error"
}

// S3Enabled returns true if S3 configuration is provided.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// Load reads configuration from the environment using go-envconfig, after
// loading a .env file from the working directory when one exists.
func Load() (*Config, error) {
	// A missing .env file is fine; real env vars still win over its contents.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the configured values are usable.
func (c *Config) Validate() error {
	if c.NoiseDB >= 0 {
		return fmt.Errorf("%w: got %g", ErrInvalidNoiseFloor, c.NoiseDB)
	}
	if c.MinSilenceSec <= 0 {
		return fmt.Errorf("%w: got %g", ErrInvalidMinSilence, c.MinSilenceSec)
	}
	if c.MaxConcurrentCuts <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidConcurrency, c.MaxConcurrentCuts)
	}
	return nil
}

// NewLogger creates a structured logger based on the configuration.
// When LogFormat is "json", it outputs JSON logs suitable for production.
// Otherwise, it outputs human-readable text logs. Logs go to stderr so they
// never interleave with the rendered track lists on stdout.
func (c *Config) NewLogger() *slog.Logger {
	level := parseLogLevel(c.LogLevel)

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})
	}

	return slog.New(handler)
}

// String returns a string representation of the config with sensitive values masked.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{FFmpegPath: %s, YTDLPPath: %s, CacheDir: %s, NoiseDB: %g, MinSilenceSec: %g, MaxConcurrentCuts: %d, S3Bucket: %s, S3Region: %s, LogFormat: %s, LogLevel: %s}",
		c.FFmpegPath,
		c.YTDLPPath,
		c.CacheDir,
		c.NoiseDB,
		c.MinSilenceSec,
		c.MaxConcurrentCuts,
		c.S3Bucket,
		c.S3Region,
		c.LogFormat,
		c.LogLevel,
	)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
