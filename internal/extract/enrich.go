package extract

import (
	"strings"

	"github.com/ppiankov/newsguard/internal/model"
)

// Enrich merges detected page context into reduced OCR text. The newspaper
// name is prepended and the main headline appended, each only when it is not
// already present (case-insensitive). The headline check runs against the text
// after the newspaper name was prepended.
func Enrich(reduced string, d model.StructuredDescription) string {
	text := reduced
	if d.Newspaper != "" && !containsFold(text, d.Newspaper) {
		text = d.Newspaper + " " + text
	}
	if d.MainHeadline != "" && !containsFold(text, d.MainHeadline) {
		text = text + " " + d.MainHeadline
	}
	return text
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
