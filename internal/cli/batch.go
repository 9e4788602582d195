package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/newsguard/internal/model"
	"github.com/ppiankov/newsguard/internal/worker"
)

var (
	concurrency  int
	batchTimeout time.Duration
	hostRate     float64
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Classify many texts and article URLs from a file in parallel",
	Long: `Batch reads one item per line and classifies them concurrently:
- lines starting with http:// or https:// are fetched as articles
- any other line is classified as text
- blank lines, # comments and duplicates are skipped

One JSON object per item is written to stdout in input order.

Example:
  newsguard batch headlines.txt
  newsguard batch mixed.txt --concurrency 8 --host-rate 0.5 > verdicts.jsonl`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().Float64Var(&hostRate, "host-rate", 1, "article fetches per second per host (0 disables pacing)")
}

type batchLine struct {
	Index int    `json:"index"`
	Text  string `json:"text,omitempty"`
	URL   string `json:"url,omitempty"`
	*model.ClassificationResult
	Error string `json:"error,omitempty"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("concurrency") && cfg.Concurrency.Workers > 0 {
		concurrency = cfg.Concurrency.Workers
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Newsguard Batch Classification\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Classifier:   %s\n", cfg.Classifier.Provider)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	p, err := buildPipeline(cfg, newLogger(cfg), false)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	processor := worker.NewBatchProcessor(p, concurrency, hostRate, 1)
	processor.PaceHosts(cfg.RateLimit.HostRates())
	start := time.Now()
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	counts := map[model.Label]int{}
	failures := 0
	for _, res := range results {
		line := batchLine{
			Index:                res.Index,
			Text:                 res.Item.Text,
			URL:                  res.Item.URL,
			ClassificationResult: res.Result,
		}
		if res.Error != nil {
			failures++
			line.Error = res.Error.Error()
			if verbose {
				fmt.Fprintf(os.Stderr, "✗ item %d: %v\n", res.Index, res.Error)
			}
		} else {
			counts[res.Result.Label]++
		}
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d items\n", len(results))
	fmt.Fprintf(os.Stderr, "  REAL:      %d\n", counts[model.LabelReal])
	fmt.Fprintf(os.Stderr, "  FAKE:      %d\n", counts[model.LabelFake])
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failures)
	fmt.Fprintf(os.Stderr, "  Duration:  %v\n", time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}
