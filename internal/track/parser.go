package track

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Static errors for report parsing.
var (
	// ErrUnrecognizedSilenceLine is returned when a silencedetect line matches
	// neither the silence_start nor the silence_end pattern. The analyzer
	// output is malformed and must not propagate into incorrect splits.
	ErrUnrecognizedSilenceLine = errors.New("track: unrecognized silencedetect line")
	// ErrMissingDuration is returned when the report contains no duration
	// header. Reconciliation cannot place the trailing sound span without a
	// known file end.
	ErrMissingDuration = errors.New("track: no duration header in report")
)

// silenceMarker prefixes every silencedetect filter line in ffmpeg output,
// e.g. "[silencedetect @ 0x55f1a2b3c4d0] silence_start: 7.0035".
const silenceMarker = "[silencedetect"

// ParseReport consumes the full text of an ffmpeg silencedetect run (ffmpeg
// writes it to stderr) and produces the ordered silence events plus the
// recording duration. Lines are processed independently and in order; lines
// that are neither silencedetect markers nor the duration header are ignored.
func ParseReport(report string) (*Report, error) {
	var r Report
	haveDuration := false

	sc := bufio.NewScanner(strings.NewReader(report))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, silenceMarker):
			ev, err := parseSilenceLine(line)
			if err != nil {
				return nil, err
			}
			r.Events = append(r.Events, ev)
		case strings.HasPrefix(line, "Duration"):
			// Only the first duration header is authoritative.
			if haveDuration {
				continue
			}
			duration, offset, err := parseDurationLine(line)
			if err != nil {
				return nil, err
			}
			r.Duration = duration
			r.Offset = offset
			haveDuration = true
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("track: scan report: %w", err)
	}

	if !haveDuration {
		return nil, ErrMissingDuration
	}

	return &r, nil
}

// parseSilenceLine turns one "[silencedetect ...]" line into a SilenceEvent.
func parseSilenceLine(line string) (SilenceEvent, error) {
	switch {
	case strings.Contains(line, "silence_start"):
		_, rest, _ := strings.Cut(line, "silence_start:")
		t, err := strconv.ParseFloat(strings.TrimSpace(rest), 64)
		if err != nil {
			return SilenceEvent{}, fmt.Errorf("%w: silence_start in %q", ErrMalformedTimestamp, line)
		}
		return SilenceEvent{Kind: EventStart, Time: t}, nil

	case strings.Contains(line, "silence_end"):
		// silence_end: 1.5 | silence_duration: 0.5
		endPart, durationPart, ok := strings.Cut(line, "|")
		if !ok {
			return SilenceEvent{}, fmt.Errorf("%w: %q", ErrUnrecognizedSilenceLine, line)
		}
		_, endText, _ := strings.Cut(endPart, "silence_end:")
		end, err := strconv.ParseFloat(strings.TrimSpace(endText), 64)
		if err != nil {
			return SilenceEvent{}, fmt.Errorf("%w: silence_end in %q", ErrMalformedTimestamp, line)
		}
		_, durationText, _ := strings.Cut(durationPart, ":")
		duration, err := strconv.ParseFloat(strings.TrimSpace(durationText), 64)
		if err != nil {
			return SilenceEvent{}, fmt.Errorf("%w: silence_duration in %q", ErrMalformedTimestamp, line)
		}
		return SilenceEvent{Kind: EventEnd, Time: end, Duration: duration}, nil

	default:
		return SilenceEvent{}, fmt.Errorf("%w: %q", ErrUnrecognizedSilenceLine, line)
	}
}

// parseDurationLine extracts the recording duration and file start offset
// from a "Duration: 00:03:00.00, start: 0.000000, bitrate: ..." header.
func parseDurationLine(line string) (duration, offset float64, err error) {
	fields := strings.Split(line, ",")

	_, durationText, _ := strings.Cut(fields[0], ":")
	duration, err = ParseTimestamp(strings.TrimSpace(durationText))
	if err != nil {
		return 0, 0, fmt.Errorf("duration header %q: %w", line, err)
	}

	if len(fields) >= 2 {
		_, offsetText, _ := strings.Cut(fields[1], ":")
		offset, err = strconv.ParseFloat(strings.TrimSpace(offsetText), 64)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: start offset in %q", ErrMalformedTimestamp, line)
		}
	}

	return duration, offset, nil
}
