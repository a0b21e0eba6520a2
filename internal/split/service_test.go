package split

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albumsplit/albumsplit/internal/metadata"
	"github.com/albumsplit/albumsplit/internal/storage"
	"github.com/albumsplit/albumsplit/internal/track"
)

const sampleReport = `Input #0, mp3, from 'album.mp3':
  Duration: 00:03:00.00, start: 0.000000, bitrate: 128 kb/s
[silencedetect @ 0x7f8e4b704f40] silence_start: 60
[silencedetect @ 0x7f8e4b704f40] silence_end: 70 | silence_duration: 10
`

const embeddedChapterReport = `Input #0, mp3, from 'album.mp3':
  Duration: 00:03:00.00, start: 0.000000, bitrate: 128 kb/s
    Chapter #0:0: start 0.000000, end 90.000000
    Chapter #0:1: start 90.000000, end 180.000000
`

type stubReports struct {
	report string
	err    error
	calls  int
}

func (s *stubReports) Report(_ context.Context, _ string) (string, error) {
	s.calls++
	return s.report, s.err
}

type stubChapters struct {
	chapters []metadata.Chapter
	err      error
	calls    int
}

func (s *stubChapters) Chapters(_ context.Context, _ string) ([]metadata.Chapter, error) {
	s.calls++
	return s.chapters, s.err
}

type stubCutter struct {
	files  []string
	err    error
	input  string
	outDir string
	tracks []track.Boundary
	titles []string
}

func (s *stubCutter) Cut(_ context.Context, input, outputDir string, tracks []track.Boundary, titles []string) ([]string, error) {
	s.input = input
	s.outDir = outputDir
	s.tracks = tracks
	s.titles = titles
	if s.err != nil {
		return nil, s.err
	}
	if s.files != nil {
		return s.files, nil
	}
	files := make([]string, len(tracks))
	for i := range tracks {
		files[i] = filepath.Join(outputDir, fmt.Sprintf("Track%02d.mp3", i+1))
	}
	return files, nil
}

type stubStorage struct {
	existing  []string
	cleared   []string
	uploaded  []string
	uploadErr error
}

var _ storage.Storage = (*stubStorage)(nil)

func (s *stubStorage) PrepareOutputDir(_ context.Context, dir string) ([]string, error) {
	return s.existing, nil
}

func (s *stubStorage) ClearDir(_ context.Context, dir string) error {
	s.cleared = append(s.cleared, dir)
	return nil
}

func (s *stubStorage) Upload(_ context.Context, key string, data io.Reader) (string, error) {
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	if _, err := io.ReadAll(data); err != nil {
		return "", err
	}
	s.uploaded = append(s.uploaded, key)
	return "https://tracks.s3.eu-west-1.amazonaws.com/" + key, nil
}

type scriptedApprover struct {
	answers     []bool
	prompts     []string
	rendered    int
	selected    []track.Boundary
	selectErr   error
	multipliers []float64
}

func (a *scriptedApprover) Render(_ []track.Boundary, _ []string, _ []string) {
	a.rendered++
}

func (a *scriptedApprover) Confirm(prompt string) (bool, error) {
	a.prompts = append(a.prompts, prompt)
	if len(a.answers) == 0 {
		return false, io.EOF
	}
	answer := a.answers[0]
	a.answers = a.answers[1:]
	return answer, nil
}

func (a *scriptedApprover) SelectTracks(intervals []track.Interval, _ []string, _ track.Thresholds, multipliers []float64) ([]track.Boundary, error) {
	a.multipliers = multipliers
	if a.selectErr != nil {
		return nil, a.selectErr
	}
	return a.selected, nil
}

func testInput(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "album.mp3")
	require.NoError(t, os.WriteFile(path, []byte("not really audio"), 0o600))
	return path
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestServiceRunValidation(t *testing.T) {
	svc := NewService(&stubReports{}, &stubChapters{}, &stubCutter{}, &stubStorage{}, &scriptedApprover{}, discardLogger())

	t.Run("missing input", func(t *testing.T) {
		_, err := svc.Run(context.Background(), Request{Multiplier: 1})
		assert.Error(t, err)
	})

	t.Run("zero multiplier", func(t *testing.T) {
		_, err := svc.Run(context.Background(), Request{Input: "album.mp3"})
		assert.Error(t, err)
	})

	t.Run("input does not exist", func(t *testing.T) {
		_, err := svc.Run(context.Background(), Request{Input: "no-such-file.mp3", Multiplier: 1})
		assert.Error(t, err)
	})
}

func TestServiceRunSilencePipeline(t *testing.T) {
	input := testInput(t)
	outDir := filepath.Join(t.TempDir(), "out")

	reports := &stubReports{report: sampleReport}
	chapters := &stubChapters{}
	cut := &stubCutter{}
	approver := &scriptedApprover{
		selected: []track.Boundary{{Start: 0, End: 65}, {Start: 65, End: 180}},
	}
	svc := NewService(reports, chapters, cut, &stubStorage{}, approver, discardLogger())

	result, err := svc.Run(context.Background(), Request{
		Input:        input,
		OutputDir:    outDir,
		Multiplier:   1,
		SkipChapters: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 0, chapters.calls)
	assert.Equal(t, 1, reports.calls)
	assert.Equal(t, approver.selected, result.Tracks)
	assert.Nil(t, result.Titles)
	assert.Len(t, result.Files, 2)
	assert.Equal(t, input, cut.input)
	assert.Equal(t, outDir, cut.outDir)
	assert.Equal(t, track.RetryMultipliers, approver.multipliers)
}

func TestServiceRunAssumeYesClustersDirectly(t *testing.T) {
	input := testInput(t)

	approver := &scriptedApprover{}
	cut := &stubCutter{}
	svc := NewService(&stubReports{report: sampleReport}, &stubChapters{}, cut, &stubStorage{}, approver, discardLogger())

	result, err := svc.Run(context.Background(), Request{
		Input:        input,
		OutputDir:    filepath.Join(t.TempDir(), "out"),
		Multiplier:   1,
		SkipChapters: true,
		AssumeYes:    true,
	})
	require.NoError(t, err)

	// One silence of 10s with a single gap: the average gap equals the gap
	// itself, so nothing exceeds it and the whole recording is one track.
	require.Len(t, result.Tracks, 1)
	assert.InDelta(t, 0, result.Tracks[0].Start, 0.001)
	assert.InDelta(t, 180, result.Tracks[0].End, 0.001)
	assert.Equal(t, 1, approver.rendered)
	assert.Empty(t, approver.prompts)
}

func TestServiceRunCustomMultiplierGoesFirst(t *testing.T) {
	input := testInput(t)

	approver := &scriptedApprover{selected: []track.Boundary{{Start: 0, End: 180}}}
	svc := NewService(&stubReports{report: sampleReport}, &stubChapters{}, &stubCutter{}, &stubStorage{}, approver, discardLogger())

	_, err := svc.Run(context.Background(), Request{
		Input:        input,
		OutputDir:    filepath.Join(t.TempDir(), "out"),
		Multiplier:   0.75,
		SkipChapters: true,
	})
	require.NoError(t, err)

	require.NotEmpty(t, approver.multipliers)
	assert.Equal(t, 0.75, approver.multipliers[0])
	assert.Equal(t, len(track.RetryMultipliers)+1, len(approver.multipliers))
}

func TestServiceRunChapters(t *testing.T) {
	input := testInput(t)

	chapters := &stubChapters{chapters: []metadata.Chapter{
		{Title: "Opening", StartTime: 0, EndTime: 90},
		{Title: "Finale", StartTime: 90, EndTime: 180},
	}}

	t.Run("approved", func(t *testing.T) {
		reports := &stubReports{report: sampleReport}
		cut := &stubCutter{}
		approver := &scriptedApprover{answers: []bool{true}}
		svc := NewService(reports, chapters, cut, &stubStorage{}, approver, discardLogger())

		result, err := svc.Run(context.Background(), Request{
			Input:      input,
			OutputDir:  filepath.Join(t.TempDir(), "out"),
			Multiplier: 1,
		})
		require.NoError(t, err)

		assert.Equal(t, 0, reports.calls)
		assert.Equal(t, []string{"1. Opening", "2. Finale"}, result.Titles)
		require.Len(t, result.Tracks, 2)
		assert.InDelta(t, 90, result.Tracks[0].End, 0.001)
		assert.Equal(t, result.Titles, cut.titles)
	})

	t.Run("rejected", func(t *testing.T) {
		approver := &scriptedApprover{answers: []bool{false}}
		svc := NewService(&stubReports{}, chapters, &stubCutter{}, &stubStorage{}, approver, discardLogger())

		_, err := svc.Run(context.Background(), Request{
			Input:      input,
			OutputDir:  filepath.Join(t.TempDir(), "out"),
			Multiplier: 1,
		})
		assert.ErrorIs(t, err, ErrAborted)
	})

	t.Run("lookup failure falls back to silence", func(t *testing.T) {
		reports := &stubReports{report: sampleReport}
		broken := &stubChapters{err: errors.New("yt-dlp exploded")}
		approver := &scriptedApprover{selected: []track.Boundary{{Start: 0, End: 180}}}
		svc := NewService(reports, broken, &stubCutter{}, &stubStorage{}, approver, discardLogger())

		result, err := svc.Run(context.Background(), Request{
			Input:      input,
			OutputDir:  filepath.Join(t.TempDir(), "out"),
			Multiplier: 1,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, reports.calls)
		assert.Nil(t, result.Titles)
	})
}

func TestServiceRunEmbeddedChapters(t *testing.T) {
	input := testInput(t)

	reports := &stubReports{report: embeddedChapterReport}
	approver := &scriptedApprover{answers: []bool{true}}
	cut := &stubCutter{}
	svc := NewService(reports, &stubChapters{}, cut, &stubStorage{}, approver, discardLogger())

	result, err := svc.Run(context.Background(), Request{
		Input:      input,
		OutputDir:  filepath.Join(t.TempDir(), "out"),
		Multiplier: 1,
	})
	require.NoError(t, err)

	require.Len(t, result.Tracks, 2)
	assert.InDelta(t, 90, result.Tracks[0].End, 0.001)
	assert.NotNil(t, result.Titles)
}

func TestServiceRunOutputDirDefaultsToInputName(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "Best Album Ever.mp3")
	require.NoError(t, os.WriteFile(input, []byte("x"), 0o600))

	cut := &stubCutter{files: []string{}}
	approver := &scriptedApprover{selected: []track.Boundary{{Start: 0, End: 180}}}
	svc := NewService(&stubReports{report: sampleReport}, &stubChapters{}, cut, &stubStorage{}, approver, discardLogger())

	_, err := svc.Run(context.Background(), Request{
		Input:        input,
		Multiplier:   1,
		SkipChapters: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Best Album Ever", cut.outDir)
}

func TestServiceRunClearsExistingOutput(t *testing.T) {
	input := testInput(t)
	outDir := filepath.Join(t.TempDir(), "out")

	t.Run("assume yes clears without asking", func(t *testing.T) {
		store := &stubStorage{existing: []string{"old.mp3"}}
		approver := &scriptedApprover{}
		svc := NewService(&stubReports{report: sampleReport}, &stubChapters{}, &stubCutter{}, store, approver, discardLogger())

		_, err := svc.Run(context.Background(), Request{
			Input:        input,
			OutputDir:    outDir,
			Multiplier:   1,
			SkipChapters: true,
			AssumeYes:    true,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{outDir}, store.cleared)
		assert.Empty(t, approver.prompts)
	})

	t.Run("declined keeps the files", func(t *testing.T) {
		store := &stubStorage{existing: []string{"old.mp3"}}
		approver := &scriptedApprover{
			answers:  []bool{false},
			selected: []track.Boundary{{Start: 0, End: 180}},
		}
		svc := NewService(&stubReports{report: sampleReport}, &stubChapters{}, &stubCutter{}, store, approver, discardLogger())

		_, err := svc.Run(context.Background(), Request{
			Input:        input,
			OutputDir:    outDir,
			Multiplier:   1,
			SkipChapters: true,
		})
		require.NoError(t, err)
		assert.Empty(t, store.cleared)
	})
}

func TestServiceRunUpload(t *testing.T) {
	input := testInput(t)
	outDir := filepath.Join(t.TempDir(), "My Album")
	require.NoError(t, os.MkdirAll(outDir, 0o750))

	trackFile := filepath.Join(outDir, "Track01.mp3")
	require.NoError(t, os.WriteFile(trackFile, []byte("cut audio"), 0o600))

	store := &stubStorage{}
	cut := &stubCutter{files: []string{trackFile}}
	approver := &scriptedApprover{selected: []track.Boundary{{Start: 0, End: 180}}}
	svc := NewService(&stubReports{report: sampleReport}, &stubChapters{}, cut, store, approver, discardLogger())

	result, err := svc.Run(context.Background(), Request{
		Input:        input,
		OutputDir:    outDir,
		Multiplier:   1,
		SkipChapters: true,
		Upload:       true,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"My Album/Track01.mp3"}, store.uploaded)
	require.Len(t, result.UploadedURLs, 1)
	assert.Contains(t, result.UploadedURLs[0], "My Album/Track01.mp3")

	t.Run("upload failure aborts", func(t *testing.T) {
		failing := &stubStorage{uploadErr: errors.New("no bucket")}
		svc := NewService(&stubReports{report: sampleReport}, &stubChapters{}, cut, failing, &scriptedApprover{selected: approver.selected}, discardLogger())

		_, err := svc.Run(context.Background(), Request{
			Input:        input,
			OutputDir:    outDir,
			Multiplier:   1,
			SkipChapters: true,
			Upload:       true,
		})
		assert.Error(t, err)
	})
}

func TestServiceRunReportFailure(t *testing.T) {
	input := testInput(t)

	svc := NewService(&stubReports{err: errors.New("ffmpeg missing")}, &stubChapters{}, &stubCutter{}, &stubStorage{}, &scriptedApprover{}, discardLogger())

	_, err := svc.Run(context.Background(), Request{
		Input:        input,
		OutputDir:    filepath.Join(t.TempDir(), "out"),
		Multiplier:   1,
		SkipChapters: true,
	})
	assert.Error(t, err)
}
