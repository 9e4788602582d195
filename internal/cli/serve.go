package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/newsguard/internal/ocr/tesseract"
	"github.com/ppiankov/newsguard/internal/server"
)

var serveNoOCR bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve exposes classification over HTTP:

  GET  /                 liveness message
  GET  /healthz          status, uptime, classifier and OCR engine
  GET  /languages        OCR language hints
  POST /predict          {"text": "..."}
  POST /predict/image    {"image": "<base64>", "language_hints": ["en"]} or multipart field "image"
  POST /predict/url      {"url": "https://..."}
  POST /predict/batch    {"texts": ["..."], "urls": ["..."]}

Example:
  newsguard serve --addr :8080
  NEWSGUARD_CLASSIFIER_PROVIDER=openai newsguard serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":5000", "listen address")
	serveCmd.Flags().BoolVar(&serveNoOCR, "no-ocr", false, "disable image classification")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	p, err := buildPipeline(cfg, logger, !serveNoOCR)
	if err != nil {
		return err
	}

	opts := server.Options{Version: version}
	if !serveNoOCR {
		opts.Languages = tesseract.Languages
	}
	srv := server.New(cfg, p, logger, opts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}
