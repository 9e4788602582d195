package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/newsguard/internal/model"
	"github.com/ppiankov/newsguard/internal/ocr"
)

var (
	predictImage   string
	predictURL     string
	predictLangs   []string
	predictJSON    bool
	predictTimeout time.Duration
)

var predictCmd = &cobra.Command{
	Use:   "predict [text]",
	Short: "Classify one text, newspaper image or article",
	Long: `Predict classifies a single input and prints the verdict.

Example:
  newsguard predict "Scientists confirm water on Mars"
  newsguard predict --image frontpage.jpg --lang en
  newsguard predict --url https://www.reuters.com/world/some-article --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPredict,
}

func init() {
	rootCmd.AddCommand(predictCmd)

	predictCmd.Flags().StringVar(&predictImage, "image", "", "image file of a newspaper page")
	predictCmd.Flags().StringVar(&predictURL, "url", "", "article URL")
	predictCmd.Flags().StringSliceVar(&predictLangs, "lang", nil, "OCR language hints (en, fr, de, ...)")
	predictCmd.Flags().BoolVar(&predictJSON, "json", false, "print the full result as JSON")
	predictCmd.Flags().DurationVar(&predictTimeout, "timeout", 2*time.Minute, "overall timeout")
}

func runPredict(cmd *cobra.Command, args []string) error {
	inputs := 0
	if len(args) == 1 {
		inputs++
	}
	if predictImage != "" {
		inputs++
	}
	if predictURL != "" {
		inputs++
	}
	if inputs != 1 {
		return fmt.Errorf("provide exactly one of: text argument, --image, --url")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	p, err := buildPipeline(cfg, newLogger(cfg), predictImage != "")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), predictTimeout)
	defer cancel()

	out := cmd.OutOrStdout()
	switch {
	case predictImage != "":
		data, err := os.ReadFile(predictImage)
		if err != nil {
			return fmt.Errorf("read image: %w", err)
		}
		img, format, err := ocr.DecodeImage(data, cfg.OCR.MaxPixels)
		if err != nil {
			return err
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Decoded %s image %dx%d\n", format, img.Bounds().Dx(), img.Bounds().Dy())
		}

		result, err := p.ClassifyImage(ctx, img, predictLangs)
		if err != nil {
			return fmt.Errorf("prediction failed: %w", err)
		}
		if predictJSON {
			return writeJSON(out, result)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Extracted %d lines with %s\n", result.TextDetections, result.Engine)
			fmt.Fprintf(os.Stderr, "Classified text: %s\n\n", result.PreprocessedText)
		}
		printVerdict(out, result.ClassificationResult)

	case predictURL != "":
		result, err := p.ClassifyURL(ctx, predictURL)
		if err != nil {
			return fmt.Errorf("prediction failed: %w", err)
		}
		if predictJSON {
			return writeJSON(out, result)
		}
		if result.Headline != "" {
			fmt.Fprintf(out, "Article: %s\n", result.Headline)
		}
		printVerdict(out, result.ClassificationResult)

	default:
		result, err := p.ClassifyText(ctx, args[0])
		if err != nil {
			return fmt.Errorf("prediction failed: %w", err)
		}
		if predictJSON {
			return writeJSON(out, result)
		}
		printVerdict(out, result)
	}
	return nil
}

func printVerdict(w io.Writer, r model.ClassificationResult) {
	fmt.Fprintf(w, "Analysis: %s\n", r.Label)
	fmt.Fprintf(w, "Confidence: %.2f%%\n", r.Confidence)
	if r.IsReputableSource {
		fmt.Fprintln(w, "Source: reputable outlet detected")
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
