package util

import (
	"regexp"
	"strings"
)

var whitespace = regexp.MustCompile(`\s+`)

// NormalizeWhitespace trims and collapses whitespace to single spaces.
func NormalizeWhitespace(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

var markup = strings.NewReplacer(
	"<p>", "", "</p>", "",
	"<b>", "", "</b>", "",
	"<i>", "", "</i>", "",
)

// StripMarkup removes the basic paragraph/bold tags provider summaries
// arrive with. Not a sanitizer; summaries are plain text plus these tags.
func StripMarkup(s string) string {
	return NormalizeWhitespace(markup.Replace(s))
}
