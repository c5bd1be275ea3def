package core

import (
	"regexp"
	"strings"
)

var blankRuns = regexp.MustCompile(`\n{3,}`)

// NormalizeText canonicalizes raw source text before fingerprinting:
// line endings become LF, leading/trailing whitespace is trimmed, and runs
// of three or more newlines collapse to a single blank line. ContentHash is
// always computed over the normalized form, so two sources delivering the
// same content with different padding dedup to one document.
func NormalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.TrimSpace(s)
	return blankRuns.ReplaceAllString(s, "\n\n")
}
