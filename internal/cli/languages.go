package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/newsguard/internal/ocr/tesseract"
)

var languagesJSON bool

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List OCR language hints",
	Long: `Languages lists the hint codes accepted for image classification.

The list comes from the installed tesseract data when it can be read. The
static fallback is marked as such and does not guarantee availability.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		langs, source := tesseract.Languages()
		if languagesJSON {
			return writeJSON(cmd.OutOrStdout(), map[string]any{"languages": langs, "source": source})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (source: %s)\n", strings.Join(langs, ", "), source)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(languagesCmd)
	languagesCmd.Flags().BoolVar(&languagesJSON, "json", false, "print as JSON")
}
