package cli

import (
	"fmt"
	"log/slog"

	"github.com/ppiankov/newsguard/internal/cache"
	"github.com/ppiankov/newsguard/internal/classifier"
	"github.com/ppiankov/newsguard/internal/model"
	"github.com/ppiankov/newsguard/internal/ocr"
	"github.com/ppiankov/newsguard/internal/ocr/tesseract"
	"github.com/ppiankov/newsguard/internal/pipeline"
)

// buildPipeline wires the classifier backend, prediction cache and, when
// withOCR is set, the tesseract engine.
func buildPipeline(cfg *model.Config, logger *slog.Logger, withOCR bool) (*pipeline.Pipeline, error) {
	store := cache.New(cfg.Cache)
	ttl := cfg.Cache.MemoryTTL
	if cfg.Cache.Dir != "" && cfg.Cache.DiskTTL > ttl {
		ttl = cfg.Cache.DiskTTL
	}

	c, err := classifier.NewClassifier(cfg.Classifier, store, ttl)
	if err != nil {
		return nil, fmt.Errorf("create classifier: %w", err)
	}

	var engine ocr.Engine
	if withOCR {
		engine = tesseract.New(cfg.OCR.Languages, cfg.OCR.PageSegMode)
	}

	logger.Debug("pipeline ready",
		"classifier", c.Name(),
		"ocr", withOCR,
		"cache", store != nil,
		"override_threshold", cfg.Override.Threshold)

	return pipeline.NewPipeline(cfg, c, engine, logger), nil
}
