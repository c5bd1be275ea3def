// Package htmltext converts HTML fragments to plain text. It is a stateless
// cleanup step for sources that deliver HTML bodies, not a full parser:
// scripts and styles are dropped, block-level breaks become newlines, the
// remaining tags are stripped, and entities are unescaped.
package htmltext

import (
	"html"
	"regexp"
)

var (
	scriptRe = regexp.MustCompile(`(?is)<(script|style)\b.*?</(script|style)>`)
	breakRe  = regexp.MustCompile(`(?i)<br\s*/?>`)
	blockRe  = regexp.MustCompile(`(?i)</(p|div|li|tr|h[1-6]|blockquote)>`)
	tagRe    = regexp.MustCompile(`(?s)<[^>]*>`)
)

// Strip converts an HTML fragment to plain text.
func Strip(s string) string {
	s = scriptRe.ReplaceAllString(s, "")
	s = breakRe.ReplaceAllString(s, "\n")
	s = blockRe.ReplaceAllString(s, "\n")
	s = tagRe.ReplaceAllString(s, "")
	return html.UnescapeString(s)
}
