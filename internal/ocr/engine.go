package ocr

import (
	"context"
	"image"
	"strings"

	"github.com/ppiankov/newsguard/internal/model"
)

// Engine recognizes text on an image. Implementations are safe for
// concurrent use.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, img image.Image, languages []string) (Result, error)
}

// Result is the normalized output of an engine
type Result struct {
	Blocks  []model.OCRBlock
	RawText string
	Engine  string
}

// Detections is the number of recognized text lines
func (r Result) Detections() int {
	if r.RawText == "" {
		return 0
	}
	return strings.Count(r.RawText, "\n") + 1
}

// NewResult builds a result from labeled blocks. RawText is the unique
// non-empty block contents in order, one per line.
func NewResult(engine string, blocks []model.OCRBlock) Result {
	seen := make(map[string]bool)
	var lines []string
	for _, b := range blocks {
		content := strings.TrimSpace(b.Content)
		if content == "" || seen[content] {
			continue
		}
		seen[content] = true
		lines = append(lines, content)
	}

	return Result{
		Blocks:  blocks,
		RawText: strings.Join(lines, "\n"),
		Engine:  engine,
	}
}
