package extract

import (
	"regexp"
	"strings"
)

var (
	urlPattern         = regexp.MustCompile(`(?i)http\S+`)
	nonLetterPattern   = regexp.MustCompile(`[^A-Za-z ]`)
	nonSentencePattern = regexp.MustCompile(`[^A-Za-z .]`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
	periodPattern      = regexp.MustCompile(`\s*\.\s*`)
)

// Clean normalizes free-form text for the classifier: URLs are removed, every
// character other than an ASCII letter or space becomes a space, the result is
// lowercased and runs of whitespace collapse to a single space.
//
// Clean is idempotent.
func Clean(text string) string {
	text = urlPattern.ReplaceAllString(text, "")
	text = nonLetterPattern.ReplaceAllString(text, " ")
	text = strings.ToLower(text)
	return strings.Join(strings.Fields(text), " ")
}

// cleanSentences is Clean but keeps periods, normalizing them to ". "
func cleanSentences(text string) string {
	text = urlPattern.ReplaceAllString(text, "")
	text = nonSentencePattern.ReplaceAllString(text, " ")
	text = strings.ToLower(text)
	text = whitespacePattern.ReplaceAllString(text, " ")
	text = periodPattern.ReplaceAllString(text, ". ")
	return strings.TrimSpace(text)
}
