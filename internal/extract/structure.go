package extract

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/newsguard/internal/model"
)

const (
	maxSubheadlines = 3
	maxSections     = 5
)

var paperNameKeywords = []string{"TIMES", "POST", "NEWS", "JOURNAL", "TRIBUNE", "HERALD"}

// Tried in order; the first match in a block wins.
var blockDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`([A-Z]+DAY,\s+[A-Z]+\s+\d{1,2},\s+\d{4})`), // WEDNESDAY, AUGUST 25, 2010
	regexp.MustCompile(`([A-Z]+\s+\d{1,2},\s+\d{4})`),              // AUGUST 25, 2010
	regexp.MustCompile(`(\d{1,2}/\d{1,2}/\d{4})`),                  // 08/25/2010
}

// Describe walks labeled OCR blocks once and collects the newspaper name, date,
// headlines, section labels, weather blurb and website. Blocks with empty
// content are skipped and unknown labels are tolerated.
func Describe(blocks []model.OCRBlock) model.StructuredDescription {
	var d model.StructuredDescription

	for _, b := range blocks {
		content := strings.TrimSpace(b.Content)
		if content == "" {
			continue
		}
		upper := strings.ToUpper(content)
		lower := strings.ToLower(content)

		switch b.Label {
		case model.BlockParagraphTitle:
			if d.Newspaper == "" && containsAny(upper, paperNameKeywords) {
				d.Newspaper = content
			}
			if content != d.Newspaper {
				d.Subheadlines = append(d.Subheadlines, content)
			}
		case model.BlockDocTitle:
			if d.MainHeadline == "" {
				d.MainHeadline = content
			}
		case model.BlockText:
			if d.Date == "" {
				d.Date = findDate(content)
			}
			if utf8.RuneCountInString(content) < maxSectionLabel && isUpper(content) {
				d.Sections = append(d.Sections, content)
			}
		}

		if containsAny(upper, []string{"SHOWER", "HIGH", "LOW"}) {
			d.Weather = content
		}
		if strings.Contains(lower, ".com") || strings.Contains(lower, "www.") {
			d.Website = content
		}
	}

	d.Subheadlines = limit(d.Subheadlines, maxSubheadlines)
	d.Sections = limit(d.Sections, maxSections)
	return d
}

// FormatNewspaperStructure renders the structured description of the blocks.
func FormatNewspaperStructure(blocks []model.OCRBlock) string {
	return Render(Describe(blocks))
}

// Render formats a description with the fixed newspaper template.
func Render(d model.StructuredDescription) string {
	parts := []string{
		"This image appears to be the front page of a newspaper.",
		"",
		"Newspaper: " + orNotIdentified(d.Newspaper) + ".",
		"Date: " + orNotIdentified(d.Date) + ".",
		"",
	}

	if d.MainHeadline != "" {
		parts = append(parts,
			"Main Story: "+d.MainHeadline,
			"",
			"Headline: \""+d.MainHeadline+"\"",
		)
	}

	if len(d.Subheadlines) > 0 {
		parts = append(parts, "", "Additional Headlines:")
		for i, s := range limit(d.Subheadlines, maxSubheadlines) {
			parts = append(parts, fmt.Sprintf("  %d. \"%s\"", i+1, s))
		}
	}

	if len(d.Sections) > 0 {
		parts = append(parts, "", "Sections:")
		for _, s := range limit(d.Sections, maxSections) {
			parts = append(parts, "  - "+s)
		}
	}

	if d.Weather != "" {
		parts = append(parts, "", "Weather: "+d.Weather)
	}
	if d.Website != "" {
		parts = append(parts, "", "Website: "+d.Website)
	}

	parts = append(parts, "",
		"Context: This is a newspaper front page containing news articles, headlines, and images typical of a daily publication.")

	return strings.Join(parts, "\n")
}

func findDate(content string) string {
	for _, re := range blockDatePatterns {
		if m := re.FindStringSubmatch(content); m != nil {
			return m[1]
		}
	}
	return ""
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func orNotIdentified(s string) string {
	if s == "" {
		return "[Not identified]"
	}
	return s
}

func limit(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
