// Package main provides the entry point for the albumsplit CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/albumsplit/albumsplit/internal/approve"
	"github.com/albumsplit/albumsplit/internal/bootstrap"
	"github.com/albumsplit/albumsplit/internal/config"
	"github.com/albumsplit/albumsplit/internal/split"
	"github.com/albumsplit/albumsplit/internal/track"
)

type cliFlags struct {
	outputDir       string
	multiplier      float64
	skipChapters    bool
	assumeYes       bool
	upload          bool
	extractMetadata bool
}

func main() {
	flags := &cliFlags{}

	rootCmd := &cobra.Command{
		Use:   "albumsplit [file]",
		Short: "Split a single-file album recording into individual tracks",
		Long: `albumsplit locates track boundaries in a continuous recording, either
from platform chapter metadata or by analyzing the silences between
songs, and cuts the file into per-track copies without re-encoding.

With --extract-metadata it instead pre-fetches chapter metadata for every
media file in a directory (default: the working directory), warming the
cache for later split runs.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.extractMetadata {
				dir := "."
				if len(args) == 1 {
					dir = args[0]
				}
				return runExtract(cmd.Context(), dir)
			}
			if len(args) != 1 {
				return errors.New("expected exactly one input file")
			}
			return run(cmd.Context(), args[0], flags)
		},
	}

	rootCmd.Flags().StringVarP(&flags.outputDir, "output", "o", "", "output directory (default: input name without extension)")
	rootCmd.Flags().Float64VarP(&flags.multiplier, "multiplier", "m", track.DefaultGapMultiplier, "gap multiplier to try first")
	rootCmd.Flags().BoolVar(&flags.skipChapters, "skip-chapters", false, "ignore chapter metadata and detect tracks from silence")
	rootCmd.Flags().BoolVarP(&flags.assumeYes, "yes", "y", false, "accept the first track list without prompting")
	rootCmd.Flags().BoolVar(&flags.upload, "upload", false, "upload the cut tracks to S3 after splitting")
	rootCmd.Flags().BoolVar(&flags.extractMetadata, "extract-metadata", false, "pre-fetch chapter metadata for every media file in a directory")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, split.ErrAborted) || errors.Is(err, approve.ErrRejected) {
			fmt.Fprintln(os.Stderr, "aborted")
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration, installs the structured logger, and wires all
// dependencies.
func setup() (*bootstrap.Dependencies, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	logger.Debug("starting albumsplit",
		slog.String("log_format", cfg.LogFormat),
		slog.String("log_level", cfg.LogLevel),
		slog.String("cache_dir", cfg.CacheDir),
		slog.Bool("s3_enabled", cfg.S3Enabled()),
	)

	deps, err := bootstrap.NewDependencies(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initialize dependencies: %w", err)
	}
	return deps, nil
}

func run(ctx context.Context, input string, flags *cliFlags) error {
	deps, err := setup()
	if err != nil {
		return err
	}

	result, err := deps.SplitService.Run(ctx, split.Request{
		Input:        input,
		OutputDir:    flags.outputDir,
		Multiplier:   flags.multiplier,
		SkipChapters: flags.skipChapters,
		AssumeYes:    flags.assumeYes,
		Upload:       flags.upload,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Wrote %d tracks\n", len(result.Files))
	for _, url := range result.UploadedURLs {
		fmt.Println(url)
	}
	return nil
}

func runExtract(ctx context.Context, dir string) error {
	deps, err := setup()
	if err != nil {
		return err
	}

	fetched, err := deps.Metadata.ExtractAll(ctx, dir)
	if err != nil {
		return err
	}

	fmt.Printf("Fetched chapter metadata for %d files\n", fetched)
	return nil
}
