// Package approve implements the interactive approval loop: candidate track
// lists are rendered for the operator, who either accepts one or asks for a
// regeneration with the next gap multiplier from the retry sequence. The
// clustering itself stays pure; this package only owns the retry policy and
// the terminal conversation.
package approve

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/albumsplit/albumsplit/internal/track"
)

// ErrRejected is returned when the operator declined every candidate track
// list in the retry sequence.
var ErrRejected = errors.New("approve: all candidate track lists rejected")

// Prompter renders track lists to out and reads operator decisions from in.
type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewPrompter creates a Prompter over the given streams, typically stdin
// and stdout.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:  bufio.NewScanner(in),
		out: out,
	}
}

// Render prints each track's name, duration, and span, any advisory notes,
// and the total count.
func (p *Prompter) Render(tracks []track.Boundary, titles []string, notes []string) {
	for i, tr := range tracks {
		name := fmt.Sprintf("%02d", i+1)
		if i < len(titles) && titles[i] != "" {
			name = titles[i]
		}
		// Track durations never reach an hour worth printing, so the
		// duration column drops the "HH:" prefix.
		fmt.Fprintf(p.out, "Track %s [%s] %s - %s (%g - %g)\n",
			name,
			track.FormatTimestamp(tr.Duration())[3:],
			track.FormatTimestamp(tr.Start),
			track.FormatTimestamp(tr.End),
			tr.Start,
			tr.End,
		)
	}
	for _, note := range notes {
		fmt.Fprintf(p.out, "warning: %s\n", note)
	}
	fmt.Fprintf(p.out, "Total tracks: %d\n", len(tracks))
}

// Confirm prints the prompt and reads one line; "y", "ye" and "yes" (any
// case) mean yes, anything else means no.
func (p *Prompter) Confirm(prompt string) (bool, error) {
	fmt.Fprintln(p.out, prompt)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return false, fmt.Errorf("approve: read answer: %w", err)
		}
		return false, fmt.Errorf("approve: read answer: %w", io.EOF)
	}

	switch strings.ToLower(strings.TrimSpace(p.in.Text())) {
	case "y", "ye", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// SelectTracks walks the multiplier sequence, rendering the clustering
// result for each and returning the first candidate the operator accepts.
// Returns ErrRejected when the sequence is exhausted.
func (p *Prompter) SelectTracks(intervals []track.Interval, titles []string, thresholds track.Thresholds, multipliers []float64) ([]track.Boundary, error) {
	for _, m := range multipliers {
		tracks, err := track.Cluster(intervals, m)
		if err != nil {
			return nil, err
		}

		fmt.Fprintf(p.out, "Gap multiplier %g:\n", m)
		p.Render(tracks, titles, track.Warnings(intervals, tracks, thresholds))

		ok, err := p.Confirm("Is this ok?")
		if err != nil {
			return nil, err
		}
		if ok {
			return tracks, nil
		}
	}

	return nil, ErrRejected
}
