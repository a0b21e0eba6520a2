package track

import (
	"errors"
	"fmt"
)

// Static errors for boundary reconciliation.
var (
	// ErrUnexpectedFirstEvent is returned when the event sequence does not
	// begin with a silence start. silencedetect always reports silence
	// starting before any sound, at time 0 if the file opens silent.
	ErrUnexpectedFirstEvent = errors.New("track: first event is not a silence start")
	// ErrInconsistentSilenceSequence is returned when an interior silence
	// start appears before any silence end established a baseline.
	ErrInconsistentSilenceSequence = errors.New("track: silence start before any silence end")
)

// SoundIntervals transforms the ordered silence events into the list of
// non-silent spans between file start and file end.
//
// The first event must be a silence start and yields the opening interval
// from time 0. Every silence start after that closes the span that began at
// the previous silence end. A trailing silence end yields the final interval
// up to the file end; a trailing silence start means the file ends silent,
// so its span closes at the start time rather than the file end. An interior
// start at exactly time 0 cannot bound a real sound span and is skipped.
func SoundIntervals(events []SilenceEvent, duration float64) ([]Interval, error) {
	if len(events) == 0 {
		return nil, fmt.Errorf("%w: empty event sequence", ErrUnexpectedFirstEvent)
	}

	var intervals []Interval
	var prevSilenceEnd float64
	seenEnd := false
	last := len(events) - 1

	for i, ev := range events {
		if ev.Kind == EventEnd {
			prevSilenceEnd = ev.Time
			seenEnd = true
		}

		switch {
		case i == 0:
			if ev.Kind != EventStart {
				return nil, fmt.Errorf("%w: got %s at %.4f", ErrUnexpectedFirstEvent, ev.Kind, ev.Time)
			}
			intervals = append(intervals, Interval{Start: 0, End: ev.Time})
		case i == last && ev.Kind == EventEnd:
			intervals = append(intervals, Interval{Start: prevSilenceEnd, End: duration})
		default:
			if ev.Kind == EventStart && ev.Time != 0 {
				if !seenEnd {
					return nil, fmt.Errorf("%w: silence start at %.4f (event %d)", ErrInconsistentSilenceSequence, ev.Time, i)
				}
				intervals = append(intervals, Interval{Start: prevSilenceEnd, End: ev.Time})
			}
		}
	}

	return intervals, nil
}
