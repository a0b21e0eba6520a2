// Package split orchestrates a full album split run: chapter lookup, silence
// analysis, track detection with operator approval, cutting, and optional
// upload of the finished tracks.
package split

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/albumsplit/albumsplit/internal/cutter"
	"github.com/albumsplit/albumsplit/internal/metadata"
	"github.com/albumsplit/albumsplit/internal/storage"
	"github.com/albumsplit/albumsplit/internal/track"
)

// ErrAborted is returned when the operator declines a candidate track list.
var ErrAborted = errors.New("split: aborted by operator")

// ReportSource produces the raw silence analysis report for an input file.
type ReportSource interface {
	Report(ctx context.Context, input string) (string, error)
}

// ChapterSource retrieves platform chapter metadata for an input file.
type ChapterSource interface {
	Chapters(ctx context.Context, input string) ([]metadata.Chapter, error)
}

// TrackCutter extracts per-track files from the source recording.
type TrackCutter interface {
	Cut(ctx context.Context, input, outputDir string, tracks []track.Boundary, titles []string) ([]string, error)
}

// Approver owns the operator conversation: rendering candidates, asking for
// confirmation, and walking the multiplier retry sequence.
type Approver interface {
	Render(tracks []track.Boundary, titles []string, notes []string)
	Confirm(prompt string) (bool, error)
	SelectTracks(intervals []track.Interval, titles []string, thresholds track.Thresholds, multipliers []float64) ([]track.Boundary, error)
}

// Request describes one split run.
type Request struct {
	// Input is the path to the single-file album recording.
	Input string `validate:"required"`
	// OutputDir receives the cut tracks; defaults to the input's base name
	// without extension, in the working directory.
	OutputDir string
	// Multiplier is the gap multiplier tried first. Default 1.0.
	Multiplier float64 `validate:"gt=0"`
	// SkipChapters disables chapter metadata lookup and forces the silence
	// pipeline.
	SkipChapters bool
	// AssumeYes accepts the first candidate track list and clears a
	// non-empty output directory without prompting.
	AssumeYes bool
	// Upload pushes the finished tracks to S3 after cutting.
	Upload bool
}

// Result carries the outcome of a split run.
type Result struct {
	// Tracks are the approved boundaries, in order.
	Tracks []track.Boundary
	// Titles are the track titles when chapters supplied them, else nil.
	Titles []string
	// Files are the paths of the cut track files.
	Files []string
	// UploadedURLs are the S3 URLs, in file order, when Upload was set.
	UploadedURLs []string
}

// Service runs album splits.
type Service struct {
	reports  ReportSource
	chapters ChapterSource
	cut      TrackCutter
	store    storage.Storage
	approver Approver
	logger   *slog.Logger
	validate *validator.Validate

	thresholds  track.Thresholds
	multipliers []float64
}

// Option configures a Service.
type Option func(*Service)

// WithThresholds overrides the advisory warning thresholds.
func WithThresholds(t track.Thresholds) Option {
	return func(s *Service) {
		s.thresholds = t
	}
}

// WithRetryMultipliers overrides the gap multiplier retry sequence.
func WithRetryMultipliers(ms []float64) Option {
	return func(s *Service) {
		if len(ms) > 0 {
			s.multipliers = ms
		}
	}
}

// NewService creates a split service.
func NewService(reports ReportSource, chapters ChapterSource, cut TrackCutter, store storage.Storage, approver Approver, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		reports:     reports,
		chapters:    chapters,
		cut:         cut,
		store:       store,
		approver:    approver,
		logger:      logger,
		validate:    validator.New(),
		thresholds:  track.DefaultThresholds(),
		multipliers: track.RetryMultipliers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes one split: detect boundaries (chapters first, silence
// otherwise), get operator approval, cut, and optionally upload.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("split: invalid request: %w", err)
	}
	if _, err := os.Stat(req.Input); err != nil {
		return nil, fmt.Errorf("split: input file: %w", err)
	}

	boundaries, titles, err := s.detect(ctx, req)
	if err != nil {
		return nil, err
	}

	outputDir := req.OutputDir
	if outputDir == "" {
		base := filepath.Base(req.Input)
		outputDir = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if err := s.prepareOutput(ctx, outputDir, req.AssumeYes); err != nil {
		return nil, err
	}

	files, err := s.cut.Cut(ctx, req.Input, outputDir, boundaries, titles)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Tracks: boundaries,
		Titles: titles,
		Files:  files,
	}

	if req.Upload {
		urls, err := s.upload(ctx, outputDir, files)
		if err != nil {
			return nil, err
		}
		result.UploadedURLs = urls
	}

	s.logger.Info("split complete",
		slog.String("input", req.Input),
		slog.String("output_dir", outputDir),
		slog.Int("tracks", len(files)),
	)

	return result, nil
}

// detect produces the approved track boundaries and, when chapters supplied
// them, the track titles.
func (s *Service) detect(ctx context.Context, req Request) ([]track.Boundary, []string, error) {
	if !req.SkipChapters {
		chapters, err := s.chapters.Chapters(ctx, req.Input)
		if err != nil {
			// Metadata retrieval is best effort; the silence pipeline still
			// works without it.
			s.logger.Warn("chapter lookup failed, falling back to silence analysis",
				slog.String("error", err.Error()),
			)
		}
		if len(chapters) > 0 {
			return s.approveChapters(chapters, req)
		}
	}

	report, err := s.reports.Report(ctx, req.Input)
	if err != nil {
		return nil, nil, err
	}

	if !req.SkipChapters {
		if embedded := metadata.ParseEmbedded(report); len(embedded) > 0 {
			s.logger.Info("using chapter markers embedded in the container",
				slog.Int("chapters", len(embedded)),
			)
			return s.approveChapters(embedded, req)
		}
	}

	parsed, err := track.ParseReport(report)
	if err != nil {
		return nil, nil, err
	}
	intervals, err := track.SoundIntervals(parsed.Events, parsed.Duration)
	if err != nil {
		return nil, nil, err
	}

	if req.AssumeYes {
		boundaries, err := track.Cluster(intervals, req.Multiplier)
		if err != nil {
			return nil, nil, err
		}
		s.approver.Render(boundaries, nil, track.Warnings(intervals, boundaries, s.thresholds))
		return boundaries, nil, nil
	}

	boundaries, err := s.approver.SelectTracks(intervals, nil, s.thresholds, s.retrySequence(req.Multiplier))
	if err != nil {
		return nil, nil, err
	}
	return boundaries, nil, nil
}

// approveChapters renders a chapter-derived track list and asks for a
// single up-front confirmation; there is no multiplier to retry with.
func (s *Service) approveChapters(chapters []metadata.Chapter, req Request) ([]track.Boundary, []string, error) {
	boundaries, titles := metadata.Boundaries(chapters)
	titles = cutter.NumberedTitles(titles)

	s.approver.Render(boundaries, titles, track.Warnings(nil, boundaries, s.thresholds))
	if req.AssumeYes {
		return boundaries, titles, nil
	}

	ok, err := s.approver.Confirm("Is this ok?")
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrAborted
	}
	return boundaries, titles, nil
}

// retrySequence puts the requested multiplier first and follows with the
// standard retry sequence.
func (s *Service) retrySequence(first float64) []float64 {
	if first == s.multipliers[0] {
		return s.multipliers
	}
	seq := make([]float64, 0, len(s.multipliers)+1)
	seq = append(seq, first)
	for _, m := range s.multipliers {
		if m != first {
			seq = append(seq, m)
		}
	}
	return seq
}

// prepareOutput creates the output directory and, when it already contains
// files, offers to clear it first.
func (s *Service) prepareOutput(ctx context.Context, dir string, assumeYes bool) error {
	existing, err := s.store.PrepareOutputDir(ctx, dir)
	if err != nil {
		return err
	}
	if len(existing) == 0 {
		return nil
	}

	wipe := assumeYes
	if !assumeYes {
		wipe, err = s.approver.Confirm(fmt.Sprintf("Folder %q contains %d files - delete them?", dir, len(existing)))
		if err != nil {
			return err
		}
	}
	if wipe {
		if err := s.store.ClearDir(ctx, dir); err != nil {
			return err
		}
	}
	return nil
}

// upload pushes each cut file to S3 under the output directory's name.
func (s *Service) upload(ctx context.Context, outputDir string, files []string) ([]string, error) {
	prefix := filepath.Base(outputDir)
	urls := make([]string, 0, len(files))

	for _, file := range files {
		f, err := os.Open(file) // #nosec G304 - paths come from the cutter, not user input
		if err != nil {
			return nil, fmt.Errorf("split: open track for upload: %w", err)
		}

		url, err := s.store.Upload(ctx, prefix+"/"+filepath.Base(file), f)
		closeErr := f.Close()
		if err != nil {
			return nil, err
		}
		if closeErr != nil {
			return nil, fmt.Errorf("split: close track after upload: %w", closeErr)
		}

		s.logger.Info("uploaded track",
			slog.String("url", url),
		)
		urls = append(urls, url)
	}

	return urls, nil
}
