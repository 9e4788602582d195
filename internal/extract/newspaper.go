package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Line filters for OCR output of a newspaper page.
var (
	weekdayLine   = regexp.MustCompile(`(?i)^(MONDAY|TUESDAY|WEDNESDAY|THURSDAY|FRIDAY|SATURDAY|SUNDAY)`)
	monthDateLine = regexp.MustCompile(`^[A-Z]+\s+\d{1,2},\s+\d{4}`)
	numDateLine   = regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}`)
	weatherLine   = regexp.MustCompile(`(?i)\b(HIGH|LOW|SHOWER|RAIN|SUNNY|CLOUDY|TEMPERATURE)\b|°`)
	priceLine     = regexp.MustCompile(`^\$?\d+\.?\d*\s*$`)
	domainLine    = regexp.MustCompile(`(?i)\.(com|org|net|edu|gov|io|co)\b`)
)

const (
	minContentLineLen = 10
	maxSectionLabel   = 20
)

// ReduceNewspaperText keeps the sentence-like lines of raw OCR output and drops
// page metadata: dates, weather, prices, bare domains and section labels.
// Surviving lines are joined as sentences and normalized with periods kept.
// It returns "" when nothing survives.
func ReduceNewspaperText(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	var kept []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || isMetadataLine(line) {
			continue
		}
		if utf8.RuneCountInString(line) > minContentLineLen {
			kept = append(kept, line)
		}
	}

	var joined string
	switch len(kept) {
	case 0:
		return ""
	case 1:
		joined = kept[0]
	default:
		joined = strings.Join(kept, ". ")
	}
	return cleanSentences(joined)
}

func isMetadataLine(line string) bool {
	switch {
	case weekdayLine.MatchString(line),
		monthDateLine.MatchString(line),
		numDateLine.MatchString(line):
		return true
	case weatherLine.MatchString(line):
		return true
	case priceLine.MatchString(line):
		return true
	}

	fields := strings.Fields(line)
	// a domain inside a longer sentence is content, a bare one is a masthead URL
	if domainLine.MatchString(line) && len(fields) <= 2 {
		return true
	}
	if len(fields) == 1 && isUpper(line) && utf8.RuneCountInString(line) < maxSectionLabel {
		return true
	}
	return false
}

// isUpper reports whether s has at least one cased letter and no lowercase ones.
func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) || unicode.IsTitle(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}
