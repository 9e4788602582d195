package ocr

import "strings"

// LanguageSource tells where a language list came from
type LanguageSource string

const (
	SourceEngine LanguageSource = "tesseract"
	SourceStatic LanguageSource = "static"
)

// hint codes accepted by the API and their tesseract traineddata names
var tesseractLanguages = map[string]string{
	"en": "eng",
	"ch": "chi_sim",
	"fr": "fra",
	"de": "deu",
	"es": "spa",
	"it": "ita",
	"pt": "por",
	"ru": "rus",
	"ja": "jpn",
	"ko": "kor",
}

// StaticLanguages is the advertised hint list when the engine cannot report
// what is installed. It is not a guarantee of availability.
var StaticLanguages = []string{"en", "ch", "fr", "de", "es", "it", "pt", "ru", "ja", "ko"}

// ToTesseractLanguages maps language hints to tesseract codes. Known two-letter
// hints are translated, longer codes pass through as already being tesseract
// names, and unknown two-letter hints are dropped. Duplicates are removed.
func ToTesseractLanguages(hints []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, h := range hints {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" {
			continue
		}
		code, ok := tesseractLanguages[h]
		if !ok {
			if len(h) <= 2 {
				continue
			}
			code = h
		}
		if !seen[code] {
			seen[code] = true
			out = append(out, code)
		}
	}
	return out
}

// FromTesseractLanguages maps installed tesseract codes back to hint codes
// where a mapping exists. "osd" and "equ" are engine data, not languages.
func FromTesseractLanguages(codes []string) []string {
	reverse := make(map[string]string, len(tesseractLanguages))
	for hint, code := range tesseractLanguages {
		reverse[code] = hint
	}

	var out []string
	for _, c := range codes {
		if c == "osd" || c == "equ" {
			continue
		}
		if hint, ok := reverse[c]; ok {
			out = append(out, hint)
		} else {
			out = append(out, c)
		}
	}
	return out
}
