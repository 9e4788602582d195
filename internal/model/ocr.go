package model

// Block labels produced by the OCR layout adapter
const (
	BlockDocTitle       = "doc_title"
	BlockParagraphTitle = "paragraph_title"
	BlockText           = "text"
)

// OCRBlock is one labeled region of recognized text
type OCRBlock struct {
	Label   string `json:"label"`
	Content string `json:"content"`
}

// StructuredDescription summarizes what was detected on a newspaper page.
// Empty strings mean "not identified".
type StructuredDescription struct {
	Newspaper    string   `json:"newspaper,omitempty"`
	Date         string   `json:"date,omitempty"`
	MainHeadline string   `json:"main_headline,omitempty"`
	Subheadlines []string `json:"subheadlines,omitempty"`
	Sections     []string `json:"sections,omitempty"`
	Weather      string   `json:"weather,omitempty"`
	Website      string   `json:"website,omitempty"`
}
