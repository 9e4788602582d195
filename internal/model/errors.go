package model

import "errors"

var (
	// ErrInvalidInput is returned for input of the wrong type or encoding
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmptyText is returned when the text is blank after trimming
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrNoTextExtracted is returned when OCR recognized nothing
	ErrNoTextExtracted = errors.New("no text extracted from image")
	// ErrNoMeaningfulText is returned when filtering left no news text
	ErrNoMeaningfulText = errors.New("no meaningful news text found")
	ErrInvalidImage     = errors.New("invalid image")
	ErrOCRFailure       = errors.New("ocr failed")
	ErrClassification   = errors.New("classification failed")
	ErrFetchFailure     = errors.New("fetch failed")
	ErrRobotsDisallowed = errors.New("fetch disallowed by robots.txt")
)
