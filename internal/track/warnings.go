package track

import "fmt"

// Thresholds configures the advisory checks run over a candidate track list.
// They flag suspicious output for the operator; they never fail a run.
type Thresholds struct {
	// MaxSilence flags inter-interval silences longer than this many seconds.
	MaxSilence float64
	// MinTrack flags tracks shorter than this many seconds.
	MinTrack float64
}

// DefaultThresholds returns the advisory thresholds used by the CLI:
// silences over 5 seconds and tracks under 30 seconds get flagged.
func DefaultThresholds() Thresholds {
	return Thresholds{MaxSilence: 5, MinTrack: 30}
}

// Warnings inspects the sound intervals and candidate tracks and returns
// human-readable notes about anything suspicious: unusually long silences
// (often a hidden track or trailing noise floor shift) and unusually short
// tracks (often a spurious split inside a song).
func Warnings(intervals []Interval, tracks []Boundary, t Thresholds) []string {
	var notes []string

	for i := 1; i < len(intervals); i++ {
		gap := intervals[i].Start - intervals[i-1].End
		if gap > t.MaxSilence {
			notes = append(notes, fmt.Sprintf(
				"silence of %.2fs at %s exceeds %.1fs",
				gap, FormatTimestamp(intervals[i-1].End), t.MaxSilence,
			))
		}
	}

	for i, tr := range tracks {
		if tr.Duration() < t.MinTrack {
			notes = append(notes, fmt.Sprintf(
				"track %02d is %.2fs, shorter than %.1fs",
				i+1, tr.Duration(), t.MinTrack,
			))
		}
	}

	return notes
}
