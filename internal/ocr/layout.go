package ocr

import (
	"image"
	"sort"
	"strings"

	"github.com/ppiankov/newsguard/internal/model"
)

const (
	// a region is a title when its line height reaches this multiple of the median
	titleHeightRatio = 1.35

	// mastheads sit in the top fifth of the page
	mastheadZone = 0.2
)

var mastheadKeywords = []string{"TIMES", "POST", "NEWS", "JOURNAL", "TRIBUNE", "HERALD"}

// Region is a recognized paragraph with its bounding box, in reading order
type Region struct {
	Text string
	Box  image.Rectangle
}

type measuredRegion struct {
	Region
	lines      []string
	lineHeight float64
}

// LabelBlocks assigns semantic labels from geometry. Regions whose line height
// is at least 1.35x the median are titles: the tallest one is the document
// title, unless it is a masthead (top fifth of the page, containing a paper
// keyword) in which case the next tallest title is. Everything else is body
// text and is emitted one block per line.
func LabelBlocks(regions []Region, pageHeight int) []model.OCRBlock {
	var measured []measuredRegion
	for _, r := range regions {
		lines := nonEmptyLines(r.Text)
		if len(lines) == 0 {
			continue
		}
		measured = append(measured, measuredRegion{
			Region:     r,
			lines:      lines,
			lineHeight: float64(r.Box.Dy()) / float64(len(lines)),
		})
	}
	if len(measured) == 0 {
		return nil
	}

	threshold := medianLineHeight(measured) * titleHeightRatio

	var titles []int
	for i, m := range measured {
		if m.lineHeight >= threshold && m.lineHeight > 0 {
			titles = append(titles, i)
		}
	}
	// tallest first, reading order breaks ties
	sort.SliceStable(titles, func(a, b int) bool {
		return measured[titles[a]].lineHeight > measured[titles[b]].lineHeight
	})

	docTitle := -1
	for _, idx := range titles {
		if isMasthead(measured[idx], pageHeight) {
			continue
		}
		docTitle = idx
		break
	}

	isTitle := make(map[int]bool, len(titles))
	for _, idx := range titles {
		isTitle[idx] = true
	}

	var blocks []model.OCRBlock
	for i, m := range measured {
		switch {
		case i == docTitle:
			blocks = append(blocks, model.OCRBlock{Label: model.BlockDocTitle, Content: strings.Join(m.lines, " ")})
		case isTitle[i]:
			blocks = append(blocks, model.OCRBlock{Label: model.BlockParagraphTitle, Content: strings.Join(m.lines, " ")})
		default:
			for _, line := range m.lines {
				blocks = append(blocks, model.OCRBlock{Label: model.BlockText, Content: line})
			}
		}
	}
	return blocks
}

func isMasthead(m measuredRegion, pageHeight int) bool {
	if pageHeight <= 0 || float64(m.Box.Min.Y) > float64(pageHeight)*mastheadZone {
		return false
	}
	upper := strings.ToUpper(m.Text)
	for _, kw := range mastheadKeywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}

func medianLineHeight(measured []measuredRegion) float64 {
	heights := make([]float64, len(measured))
	for i, m := range measured {
		heights[i] = m.lineHeight
	}
	sort.Float64s(heights)

	mid := len(heights) / 2
	if len(heights)%2 == 0 {
		return (heights[mid-1] + heights[mid]) / 2
	}
	return heights[mid]
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
