// Package track implements the silence-based track detection pipeline:
// parsing ffmpeg silencedetect reports into silence events, reconciling the
// events into sound intervals, and clustering sound intervals into track
// boundaries using an adaptive gap threshold. Every function here is pure;
// running ffmpeg and cutting media live elsewhere.
package track

// EventKind discriminates the two silence event variants.
type EventKind string

const (
	// EventStart marks the beginning of a silence span.
	EventStart EventKind = "silence_start"
	// EventEnd marks the end of a silence span.
	EventEnd EventKind = "silence_end"
)

// SilenceEvent is one silencedetect marker from the analysis report.
// Duration is only meaningful for EventEnd, where it carries the length of
// the silence span that just ended.
type SilenceEvent struct {
	Kind     EventKind
	Time     float64
	Duration float64
}

// Interval is a contiguous span of non-silent audio, derived from the gaps
// between silence events and the file boundaries.
type Interval struct {
	Start float64
	End   float64
}

// Boundary is the start/end extent of one output track within the source
// recording.
type Boundary struct {
	Start float64
	End   float64
}

// Duration returns the length of the track in seconds.
func (b Boundary) Duration() float64 {
	return b.End - b.Start
}

// Report is the parsed form of a silencedetect analysis run: the ordered
// silence events plus the recording's total duration. Offset is the file
// start offset from the duration header; it is parsed for completeness but
// nothing downstream requires it.
type Report struct {
	Events   []SilenceEvent
	Duration float64
	Offset   float64
}
