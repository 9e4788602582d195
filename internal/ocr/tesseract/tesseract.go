// Package tesseract implements ocr.Engine with the gosseract client.
package tesseract

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/otiai10/gosseract/v2"

	"github.com/ppiankov/newsguard/internal/ocr"
)

// Engine recognizes images with a fresh tesseract client per call
type Engine struct {
	clientFactory    func() *gosseract.Client
	defaultLanguages []string
	pageSegMode      int
	tempDir          string
}

var _ ocr.Engine = (*Engine)(nil)

// New creates a tesseract engine. defaultLanguages are tesseract codes used
// when a request carries no usable hints. A pageSegMode of 0 keeps the
// tesseract default.
func New(defaultLanguages []string, pageSegMode int) *Engine {
	return &Engine{
		clientFactory:    gosseract.NewClient,
		defaultLanguages: defaultLanguages,
		pageSegMode:      pageSegMode,
	}
}

func (e *Engine) Name() string { return "tesseract" }

type recognition struct {
	regions []ocr.Region
	err     error
}

// Recognize writes img to a temporary PNG and runs tesseract on it. The file
// is removed on every path; when ctx ends first the worker goroutine still
// finishes and cleans up.
func (e *Engine) Recognize(ctx context.Context, img image.Image, languages []string) (ocr.Result, error) {
	if err := ctx.Err(); err != nil {
		return ocr.Result{}, err
	}

	langs := ocr.ToTesseractLanguages(languages)
	if len(langs) == 0 {
		langs = e.defaultLanguages
	}

	path, err := writeTempPNG(e.tempDir, img)
	if err != nil {
		return ocr.Result{}, err
	}

	done := make(chan recognition, 1)
	go func() {
		defer func() { _ = os.Remove(path) }()
		regions, err := e.recognizeFile(path, langs)
		done <- recognition{regions: regions, err: err}
	}()

	select {
	case <-ctx.Done():
		return ocr.Result{}, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return ocr.Result{}, r.err
		}
		blocks := ocr.LabelBlocks(r.regions, img.Bounds().Dy())
		return ocr.NewResult(e.Name(), blocks), nil
	}
}

func (e *Engine) recognizeFile(path string, langs []string) (regions []ocr.Region, err error) {
	c := e.clientFactory()
	defer func() { _ = c.Close() }()

	// the cgo layer may panic on broken traineddata
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tesseract panic: %v", r)
		}
	}()

	if len(langs) > 0 {
		if err := c.SetLanguage(langs...); err != nil {
			return nil, fmt.Errorf("set languages: %w", err)
		}
	}
	if e.pageSegMode > 0 {
		if err := c.SetPageSegMode(gosseract.PageSegMode(e.pageSegMode)); err != nil {
			return nil, fmt.Errorf("set page segmentation mode: %w", err)
		}
	}
	if err := c.SetImage(path); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_PARA)
	if err != nil {
		return nil, fmt.Errorf("recognize text: %w", err)
	}

	regions = make([]ocr.Region, 0, len(boxes))
	for _, b := range boxes {
		regions = append(regions, ocr.Region{Text: b.Word, Box: b.Box})
	}
	return regions, nil
}

func writeTempPNG(dir string, img image.Image) (string, error) {
	f, err := os.CreateTemp(dir, "newsguard-ocr-*.png")
	if err != nil {
		return "", fmt.Errorf("create temp image: %w", err)
	}
	path := f.Name()

	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("encode temp image: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close temp image: %w", err)
	}
	return path, nil
}

// Languages reports the installed tesseract languages as hint codes, falling
// back to the static list when none can be read.
func Languages() ([]string, ocr.LanguageSource) {
	installed, err := gosseract.GetAvailableLanguages()
	if err != nil || len(installed) == 0 {
		return append([]string(nil), ocr.StaticLanguages...), ocr.SourceStatic
	}
	langs := ocr.FromTesseractLanguages(installed)
	if len(langs) == 0 {
		return append([]string(nil), ocr.StaticLanguages...), ocr.SourceStatic
	}
	return langs, ocr.SourceEngine
}

// Version returns the linked tesseract version
func Version() string {
	return gosseract.Version()
}
