package server

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ppiankov/newsguard/internal/logging"
	"github.com/ppiankov/newsguard/internal/model"
	"github.com/ppiankov/newsguard/internal/ocr"
	"github.com/ppiankov/newsguard/internal/worker"
)

const (
	maxBatchItems   = 100
	shutdownTimeout = 10 * time.Second
)

// Service is the classification facade served over HTTP
type Service interface {
	worker.Classifier
	ClassifyImage(ctx context.Context, img image.Image, languageHints []string) (*model.ImageClassification, error)
	ClassifierName() string
	EngineName() string
}

// LanguagesFunc reports the OCR languages available to clients
type LanguagesFunc func() ([]string, ocr.LanguageSource)

// Options carries optional server collaborators
type Options struct {
	Languages LanguagesFunc // nil advertises the static list
	Version   string
}

// Server is the newsguard HTTP API
type Server struct {
	service   Service
	config    model.ServerConfig
	logger    *slog.Logger
	limiter   *worker.Limiter // nil disables rate limiting
	batch     *worker.BatchProcessor
	maxPixels int64 // decoded image cap
	languages LanguagesFunc
	version   string
	started   time.Time
	handler   http.Handler
}

// New builds the API around service
func New(cfg *model.Config, service Service, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = logging.Discard()
	}

	s := &Server{
		service:   service,
		config:    cfg.Server,
		logger:    logger,
		batch:     worker.NewBatchProcessor(service, cfg.Concurrency.Workers, 0, 0),
		maxPixels: cfg.OCR.MaxPixels,
		languages: opts.Languages,
		version:   opts.Version,
		started:   time.Now(),
	}
	s.batch.PaceHosts(cfg.RateLimit.HostRates())
	if cfg.RateLimit.RequestsPerSecond > 0 {
		s.limiter = worker.NewLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}
	if s.languages == nil {
		s.languages = func() ([]string, ocr.LanguageSource) {
			return append([]string(nil), ocr.StaticLanguages...), ocr.SourceStatic
		}
	}

	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusNotFound, "Not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	router.HandleFunc("/", s.handleHome).Methods("GET")
	router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	router.HandleFunc("/languages", s.handleLanguages).Methods("GET")

	api := router.PathPrefix("/predict").Subrouter()
	api.Use(s.rateLimit)
	api.HandleFunc("", s.handlePredict).Methods("POST")
	api.HandleFunc("/image", s.handlePredictImage).Methods("POST")
	api.HandleFunc("/url", s.handlePredictURL).Methods("POST")
	api.HandleFunc("/batch", s.handlePredictBatch).Methods("POST")

	// outermost first
	return s.recoverer(s.requestID(s.accessLog(s.cors(router))))
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.handler,
		ReadTimeout:       s.config.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.config.Addr,
			"classifier", s.service.ClassifierName(),
			"engine", s.service.EngineName())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
