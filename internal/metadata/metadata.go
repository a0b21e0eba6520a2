// Package metadata retrieves chapter information for an input recording.
// Two sources exist: video platform metadata fetched with yt-dlp when the
// file name carries a video ID, and chapter markers embedded in the media
// container itself. When chapters are available the silence pipeline is
// bypassed entirely, since chapters carry exact boundaries and titles.
package metadata

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/albumsplit/albumsplit/internal/track"
)

// Chapter is one chapter marker: a titled span within the recording.
type Chapter struct {
	Title     string  `json:"title"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// videoIDPattern matches an 11-character video ID run.
// https://stackoverflow.com/a/19647711
var videoIDPattern = regexp.MustCompile(`[A-Za-z0-9_-]{11,}`)

// VideoID extracts a video ID from a downloaded file's name, where
// downloaders commonly append it before the extension. Returns false when
// the name carries no plausible ID.
func VideoID(filename string) (string, bool) {
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	runs := videoIDPattern.FindAllString(stem, -1)
	if len(runs) == 0 {
		return "", false
	}
	// Rightmost run wins; the ID is the suffix of it.
	run := runs[len(runs)-1]
	return run[len(run)-11:], true
}

// Boundaries converts chapters into track boundaries plus their titles.
func Boundaries(chapters []Chapter) ([]track.Boundary, []string) {
	boundaries := make([]track.Boundary, len(chapters))
	titles := make([]string, len(chapters))
	for i, ch := range chapters {
		boundaries[i] = track.Boundary{Start: ch.StartTime, End: ch.EndTime}
		titles[i] = ch.Title
	}
	return boundaries, titles
}

// embeddedChapterPattern matches chapter lines in ffmpeg's stream info,
// e.g. "    Chapter #0:2: start 620.405000, end 1260.037000".
var embeddedChapterPattern = regexp.MustCompile(`Chapter #(\d+:\d+): start (\d+\.?\d*), end (\d+\.?\d*)`)

// ParseEmbedded extracts container chapter markers from ffmpeg output. The
// silencedetect report already contains the stream info header, so no extra
// probe run is needed. Returns nil when the container has no chapters.
func ParseEmbedded(report string) []Chapter {
	var chapters []Chapter
	for _, m := range embeddedChapterPattern.FindAllStringSubmatch(report, -1) {
		start, err := track.ParseTimestamp(m[2])
		if err != nil {
			continue
		}
		end, err := track.ParseTimestamp(m[3])
		if err != nil {
			continue
		}
		chapters = append(chapters, Chapter{
			Title:     "Chapter " + strings.ReplaceAll(m[1], ":", "_"),
			StartTime: start,
			EndTime:   end,
		})
	}
	return chapters
}
