package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/time/rate"

	"github.com/ppiankov/newsguard/internal/model"
)

// Classifier is the part of the pipeline a batch needs
type Classifier interface {
	ClassifyText(ctx context.Context, text string) (model.ClassificationResult, error)
	ClassifyURL(ctx context.Context, rawURL string) (*model.URLClassification, error)
}

// Item is one batch entry, either free text or an article URL
type Item struct {
	Text string `json:"text,omitempty"`
	URL  string `json:"url,omitempty"`
}

// ItemJob classifies a single batch item
type ItemJob struct {
	Index      int
	Item       Item
	Classifier Classifier
	Limiter    *Limiter // per-host pacing for URL items, may be nil
}

// Execute classifies the item
func (j *ItemJob) Execute(ctx context.Context) Result {
	result := &ItemResult{Index: j.Index, Item: j.Item}

	if j.Item.URL == "" {
		verdict, err := j.Classifier.ClassifyText(ctx, j.Item.Text)
		if err != nil {
			result.Error = err
			return result
		}
		result.Result = &verdict
		return result
	}

	if j.Limiter != nil {
		host, err := extractHost(j.Item.URL)
		if err != nil {
			result.Error = fmt.Errorf("%w: %w", model.ErrInvalidInput, err)
			return result
		}
		if err := j.Limiter.Wait(ctx, host); err != nil {
			// the limiter fails early when the wait would outlast the deadline
			if ctx.Err() == nil {
				err = fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
			}
			result.Error = err
			return result
		}
	}
	verdict, err := j.Classifier.ClassifyURL(ctx, j.Item.URL)
	if err != nil {
		result.Error = err
		return result
	}
	result.Result = &verdict.ClassificationResult
	result.Article = verdict
	return result
}

// ItemResult is the outcome of one batch item
type ItemResult struct {
	Index   int
	Item    Item
	Result  *model.ClassificationResult
	Article *model.URLClassification // set for URL items
	Error   error
}

// GetError returns the item's error
func (r *ItemResult) GetError() error {
	return r.Error
}

// BatchProcessor classifies many items concurrently
type BatchProcessor struct {
	classifier  Classifier
	concurrency int
	limiter     *Limiter
}

// NewBatchProcessor creates a processor. A positive hostRate paces URL items
// per host.
func NewBatchProcessor(classifier Classifier, concurrency int, hostRate float64, hostBurst int) *BatchProcessor {
	b := &BatchProcessor{
		classifier:  classifier,
		concurrency: concurrency,
	}
	if hostRate > 0 {
		b.limiter = NewLimiter(hostRate, hostBurst)
	}
	return b
}

// PaceHosts pins per-host request rates, overriding the default pacing.
// Hosts missing from rates keep the default, unpaced when it is zero.
func (b *BatchProcessor) PaceHosts(rates map[string]float64) {
	if len(rates) == 0 {
		return
	}
	if b.limiter == nil {
		b.limiter = NewLimiter(float64(rate.Inf), 1)
	}
	for host, rps := range rates {
		b.limiter.SetRate(strings.ToLower(host), rps, 1)
	}
}

// ProcessItems classifies items and returns results in input order
func (b *BatchProcessor) ProcessItems(ctx context.Context, items []Item) []*ItemResult {
	if len(items) == 0 {
		return []*ItemResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	go func() {
		for i, item := range items {
			job := &ItemJob{
				Index:      i,
				Item:       item,
				Classifier: b.classifier,
				Limiter:    b.limiter,
			}
			if !pool.Submit(job) {
				return
			}
		}
	}()

	results := make([]*ItemResult, 0, len(items))
collect:
	for len(results) < len(items) {
		select {
		case result := <-pool.Results():
			results = append(results, result.(*ItemResult))
		case <-ctx.Done():
			break collect
		}
	}
	pool.Shutdown()

	// cancelled before every item ran
	done := make(map[int]bool, len(results))
	for _, r := range results {
		done[r.Index] = true
	}
	for i, item := range items {
		if !done[i] {
			results = append(results, &ItemResult{Index: i, Item: item, Error: context.Cause(ctx)})
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })
	return results
}

// ProcessFile reads items from a file and classifies them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*ItemResult, error) {
	items, err := ReadItemsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read items: %w", err)
	}

	return b.ProcessItems(ctx, items), nil
}

// ReadItemsFromFile reads one item per line. Lines starting with http:// or
// https:// are URLs, anything else is text. Blank lines, # comments and
// duplicates are skipped.
func ReadItemsFromFile(filePath string) ([]Item, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var items []Item
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if seen[line] {
			continue
		}
		seen[line] = true

		lower := strings.ToLower(line)
		if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
			items = append(items, Item{URL: line})
		} else {
			items = append(items, Item{Text: line})
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return items, nil
}
