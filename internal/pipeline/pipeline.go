package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ppiankov/newsguard/internal/classifier"
	"github.com/ppiankov/newsguard/internal/extract"
	"github.com/ppiankov/newsguard/internal/logging"
	"github.com/ppiankov/newsguard/internal/model"
	"github.com/ppiankov/newsguard/internal/ocr"
	"github.com/ppiankov/newsguard/internal/util"
	"github.com/ppiankov/newsguard/internal/validate"
)

// Pipeline turns text, images and article URLs into verdicts. The classifier
// and OCR engine are shared read-only by all calls.
type Pipeline struct {
	classifier classifier.Classifier
	engine     ocr.Engine // nil disables image classification
	override   *validate.ReputableOverride
	fetcher    *Fetcher
	robots     *util.RobotsChecker // nil skips robots.txt
	timeout    time.Duration
	logger     *slog.Logger
}

// NewPipeline wires a pipeline from config and its collaborators
func NewPipeline(cfg *model.Config, c classifier.Classifier, engine ocr.Engine, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.Discard()
	}

	p := &Pipeline{
		classifier: c,
		engine:     engine,
		override:   validate.NewReputableOverride(&cfg.Override),
		fetcher:    NewFetcher(cfg.HTTP),
		timeout:    cfg.Server.RequestTimeout,
		logger:     logger,
	}
	if cfg.HTTP.RespectRobots {
		proxy := util.NewProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy)
		p.robots = util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout, proxy)
	}
	return p
}

// ClassifierName identifies the classification backend
func (p *Pipeline) ClassifierName() string {
	return p.classifier.Name()
}

// EngineName identifies the OCR engine, empty when none is configured
func (p *Pipeline) EngineName() string {
	if p.engine == nil {
		return ""
	}
	return p.engine.Name()
}

// ClassifyText cleans and classifies plain text without enrichment or override
func (p *Pipeline) ClassifyText(ctx context.Context, text string) (model.ClassificationResult, error) {
	if !utf8.ValidString(text) {
		return model.ClassificationResult{}, fmt.Errorf("%w: text must be valid UTF-8", model.ErrInvalidInput)
	}
	if strings.TrimSpace(text) == "" {
		return model.ClassificationResult{}, model.ErrEmptyText
	}

	cleaned := extract.Clean(text)
	if cleaned == "" {
		return model.ClassificationResult{}, model.ErrEmptyText
	}

	label, confidence, err := p.classify(ctx, cleaned)
	if err != nil {
		return model.ClassificationResult{}, err
	}

	return model.ClassificationResult{
		Label:      label,
		Confidence: model.Percent(confidence),
	}, nil
}

// ClassifyImage runs OCR on img and classifies the recognized text
func (p *Pipeline) ClassifyImage(ctx context.Context, img image.Image, languageHints []string) (*model.ImageClassification, error) {
	if p.engine == nil {
		return nil, fmt.Errorf("%w: no OCR engine configured", model.ErrOCRFailure)
	}
	if img == nil {
		return nil, fmt.Errorf("%w: no image", model.ErrInvalidImage)
	}

	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	result, err := p.engine.Recognize(ctx, img, languageHints)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrOCRFailure, err)
	}
	p.logger.Debug("ocr complete",
		"engine", result.Engine,
		"blocks", len(result.Blocks),
		"detections", result.Detections(),
		"duration", time.Since(start))

	return p.ClassifyOCR(ctx, result)
}

// ClassifyOCR reduces, structures and enriches OCR output, classifies it and
// applies the reputable-source override.
func (p *Pipeline) ClassifyOCR(ctx context.Context, result ocr.Result) (*model.ImageClassification, error) {
	if strings.TrimSpace(result.RawText) == "" {
		return nil, model.ErrNoTextExtracted
	}

	reduced := extract.ReduceNewspaperText(result.RawText)
	if reduced == "" {
		return nil, model.ErrNoMeaningfulText
	}

	var (
		desc       model.StructuredDescription
		structured string
	)
	if len(result.Blocks) > 0 {
		desc = extract.Describe(result.Blocks)
		structured = extract.Render(desc)
	}
	enriched := extract.Enrich(reduced, desc)

	label, confidence, err := p.classify(ctx, enriched)
	if err != nil {
		return nil, err
	}
	finalLabel, finalConfidence, reputable := p.override.Apply(enriched, label, confidence)
	if finalLabel != label {
		p.logger.Info("reputable source override",
			"raw_label", label,
			"raw_confidence", model.Percent(confidence),
			"threshold", p.override.Threshold())
	}

	return &model.ImageClassification{
		ClassificationResult: model.ClassificationResult{
			Label:             finalLabel,
			Confidence:        model.Percent(finalConfidence),
			IsReputableSource: reputable,
		},
		ExtractedText:       result.RawText,
		PreprocessedText:    enriched,
		StructuredText:      structured,
		TextDetections:      result.Detections(),
		Engine:              result.Engine,
		HasStructuredFormat: structured != "",
	}, nil
}

// ClassifyURL fetches an article, classifies its body enriched with the
// outlet name and headline, and applies the override. The article's host
// counts as a reputable signal.
func (p *Pipeline) ClassifyURL(ctx context.Context, rawURL string) (*model.URLClassification, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("%w: url must be an absolute http(s) URL", model.ErrInvalidInput)
	}
	target := parsed.String()

	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	if p.robots != nil {
		allowed, err := p.robots.Allowed(ctx, target)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", model.ErrFetchFailure, err)
		}
		if !allowed {
			return nil, model.ErrRobotsDisallowed
		}
	}

	page, err := p.fetcher.FetchWithRetry(ctx, target)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", model.ErrFetchFailure, err)
	}

	article, err := extract.ExtractArticle(page.HTML)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrFetchFailure, err)
	}

	text := extract.Clean(article.Text)
	if text == "" {
		return nil, model.ErrNoMeaningfulText
	}
	enriched := extract.Enrich(text, model.StructuredDescription{
		Newspaper:    article.SiteName,
		MainHeadline: article.Headline,
	})

	label, confidence, err := p.classify(ctx, enriched)
	if err != nil {
		return nil, err
	}
	fromReputableHost := p.override.IsReputableHost(page.FinalURL)
	finalLabel, finalConfidence, reputable := p.override.ApplyWithSource(enriched, fromReputableHost, label, confidence)

	return &model.URLClassification{
		ClassificationResult: model.ClassificationResult{
			Label:             finalLabel,
			Confidence:        model.Percent(finalConfidence),
			IsReputableSource: reputable,
		},
		URL:              page.FinalURL,
		SiteName:         article.SiteName,
		Headline:         article.Headline,
		PreprocessedText: enriched,
	}, nil
}

// classify returns the predicted label and its probability
func (p *Pipeline) classify(ctx context.Context, text string) (model.Label, float64, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	prediction, err := p.classifier.Classify(ctx, text)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %w", model.ErrClassification, err)
	}
	label, confidence, err := prediction.Verdict()
	if err != nil {
		return "", 0, fmt.Errorf("%w: %w", model.ErrClassification, err)
	}
	return label, confidence, nil
}

// withTimeout bounds a call by the request timeout unless ctx is already
// shorter.
func (p *Pipeline) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) <= p.timeout {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.timeout)
}
