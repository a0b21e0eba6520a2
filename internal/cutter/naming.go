package cutter

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// invalidFilenameChars matches everything outside the conservative set kept
// in output file names.
var invalidFilenameChars = regexp.MustCompile(`[^-\w. ]`)

// SafeFilename strips filesystem-unsafe characters from a track title so it
// can be used directly as an output file name.
func SafeFilename(title string) string {
	return invalidFilenameChars.ReplaceAllString(strings.TrimSpace(title), "")
}

// NumberedTitles prefixes each title with its 1-based sequence number so the
// output files sort in album order. Titles are left untouched when any of
// them already begins with a digit, since that usually means the source
// carries its own numbering.
func NumberedTitles(titles []string) []string {
	for _, title := range titles {
		trimmed := strings.TrimSpace(title)
		if trimmed != "" && unicode.IsDigit(rune(trimmed[0])) {
			return titles
		}
	}

	numbered := make([]string, len(titles))
	for i, title := range titles {
		numbered[i] = fmt.Sprintf("%d. %s", i+1, title)
	}
	return numbered
}

// trackFilename returns the output file name for track i (0-based), using
// the supplied title when present and a sequential fallback otherwise.
func trackFilename(titles []string, i int, ext string) string {
	if i < len(titles) && SafeFilename(titles[i]) != "" {
		return SafeFilename(titles[i]) + ext
	}
	return fmt.Sprintf("Track%02d%s", i+1, ext)
}
