package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/newsguard/internal/model"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Classify sentences interactively",
	Long: `Chat reads one news sentence per line and prints the verdict.
Type 'exit' to quit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		p, err := buildPipeline(cfg, newLogger(cfg), false)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		return runChat(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), p.ClassifyText)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

type classifyTextFunc func(ctx context.Context, text string) (model.ClassificationResult, error)

// runChat is the prompt loop. It ends on "exit", end of input or ctx.
func runChat(ctx context.Context, in io.Reader, out io.Writer, classify classifyTextFunc) error {
	fmt.Fprintln(out, "Fake News Chatbot Ready! Type 'exit' to quit.")
	fmt.Fprintln(out)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(out, "Enter a news sentence: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Goodbye!")
			return scanner.Err()
		}

		line := strings.TrimSuffix(scanner.Text(), "\r")
		if strings.EqualFold(strings.TrimSpace(line), "exit") {
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}
		if strings.TrimSpace(line) == "" {
			fmt.Fprintln(out, "Please enter a non-empty sentence.")
			fmt.Fprintln(out)
			continue
		}

		result, err := classify(ctx, line)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				fmt.Fprintln(out, "\nGoodbye!")
				return nil
			}
			fmt.Fprintf(out, "\nError: %v\n\n", err)
			continue
		}
		fmt.Fprintf(out, "\nAnalysis: %s\n", result.Label)
		fmt.Fprintf(out, "Confidence: %.2f%%\n\n", result.Confidence)
	}
}
