package track

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrMalformedTimestamp is returned when a numeric time field cannot be parsed.
var ErrMalformedTimestamp = errors.New("track: malformed timestamp")

// ParseTimestamp converts a textual timestamp of the form "[[HH:]MM:]SS[.frac]"
// into seconds. Missing higher units default to zero, so "90", "1:30" and
// "0:01:30" all parse to 90 seconds.
func ParseTimestamp(text string) (float64, error) {
	parts := strings.Split(text, ":")
	if len(parts) > 3 {
		parts = parts[len(parts)-3:]
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(parts[len(parts)-1]), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedTimestamp, text)
	}

	var minutes, hours int
	if len(parts) >= 2 {
		minutes, err = strconv.Atoi(strings.TrimSpace(parts[len(parts)-2]))
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrMalformedTimestamp, text)
		}
	}
	if len(parts) >= 3 {
		hours, err = strconv.Atoi(strings.TrimSpace(parts[len(parts)-3]))
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrMalformedTimestamp, text)
		}
	}

	return seconds + float64(minutes)*60 + float64(hours)*3600, nil
}

// FormatTimestamp renders seconds as "HH:MM:SS.CC" with every unit
// zero-padded to two digits. The fractional part is truncated, not rounded,
// so the output never overstates the position.
func FormatTimestamp(seconds float64) string {
	whole := int(seconds)
	hours := whole / 3600
	minutes := (whole / 60) % 60
	secs := whole % 60
	centis := int(math.Floor((seconds - math.Floor(seconds)) * 100))

	return fmt.Sprintf("%02d:%02d:%02d.%02d", hours, minutes, secs, centis)
}
