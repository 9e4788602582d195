package model

import "math"

// ClassificationResult is the final verdict for one request.
// Confidence is always the probability of Label, in percent.
type ClassificationResult struct {
	Label             Label   `json:"label"`
	Confidence        float64 `json:"confidence"`
	IsReputableSource bool    `json:"is_reputable_source"`
}

// ImageClassification carries the verdict plus OCR diagnostics
type ImageClassification struct {
	ClassificationResult
	ExtractedText       string `json:"extracted_text"`
	PreprocessedText    string `json:"preprocessed_text"`
	StructuredText      string `json:"structured_text,omitempty"`
	TextDetections      int    `json:"text_detections"`
	Engine              string `json:"engine,omitempty"`
	HasStructuredFormat bool   `json:"has_structured_format"`
}

// URLClassification carries the verdict for a fetched article
type URLClassification struct {
	ClassificationResult
	URL              string `json:"url"`
	SiteName         string `json:"site_name,omitempty"`
	Headline         string `json:"headline,omitempty"`
	PreprocessedText string `json:"preprocessed_text"`
}

// Percent converts a probability in [0,1] to a percentage rounded to two decimals
func Percent(p float64) float64 {
	return math.Round(p*100*100) / 100
}
