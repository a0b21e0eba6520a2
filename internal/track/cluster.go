package track

import (
	"errors"
	"fmt"
)

// ErrInsufficientData is returned when fewer than two sound intervals are
// available; no meaningful gap statistic can be computed from a single span.
var ErrInsufficientData = errors.New("track: need at least two sound intervals to cluster")

// DefaultGapMultiplier is the clustering sensitivity used when the caller
// has no better idea. The approval loop walks RetryMultipliers from here.
const DefaultGapMultiplier = 1.0

// RetryMultipliers is the ordered sequence of gap multipliers offered to the
// operator when a candidate track list is rejected.
var RetryMultipliers = []float64{1, 0.5, 1.5, 0.25, 2, 3, 4, 5}

// Cluster groups sound intervals into track boundaries.
//
// The characteristic between-track silence length is auto-calibrated as the
// mean gap between consecutive sound intervals; silence length varies per
// recording and genre, so a hardcoded threshold would not transfer. A gap
// wider than averageGap*multiplier separates tracks and the split lands on
// the gap midpoint, so neither the tail of the preceding track nor the head
// of the following one gets clipped. Narrower gaps (breaths, pauses inside a
// song) merge into the running track.
//
// Cluster is pure: it never mutates intervals and repeated calls with the
// same inputs yield identical boundaries, so the approval loop can re-invoke
// it with different multipliers without re-parsing the report. The
// multiplier must be positive.
func Cluster(intervals []Interval, multiplier float64) ([]Boundary, error) {
	if len(intervals) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInsufficientData, len(intervals))
	}

	var sum float64
	for i := 1; i < len(intervals); i++ {
		sum += intervals[i].Start - intervals[i-1].End
	}
	averageGap := sum / float64(len(intervals)-1)
	threshold := averageGap * multiplier

	var tracks []Boundary
	trackStart := intervals[0].Start
	trackEnd := intervals[0].End

	for _, iv := range intervals {
		gap := iv.Start - trackEnd
		if gap > threshold {
			tracks = append(tracks, Boundary{Start: trackStart, End: trackEnd + gap/2})
			trackStart = iv.Start - gap/2
		}
		trackEnd = iv.End
	}

	if len(tracks) == 0 {
		// No gap exceeded the threshold; the whole recording is one track.
		return []Boundary{{Start: trackStart, End: trackEnd}}, nil
	}

	// The loop only appends when a split fires, so the final track is still
	// open here. Close it up to the last sound interval's end.
	if lastEnd := tracks[len(tracks)-1].End; lastEnd < trackEnd {
		tracks = append(tracks, Boundary{Start: lastEnd, End: trackEnd})
	}

	return tracks, nil
}
