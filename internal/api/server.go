// Package api serves vendor classification and text extraction over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/saas-classifier/internal/model"
	"github.com/sells-group/saas-classifier/internal/monitoring"
	"github.com/sells-group/saas-classifier/internal/pipeline"
)

// maxBodyBytes caps request bodies. Website text is the largest field.
const maxBodyBytes = 4 << 20

// TextExtractor fetches a URL and returns its cleaned text.
type TextExtractor interface {
	ExtractURL(ctx context.Context, url string, ct model.ContentType) (*model.Document, error)
}

// Options configures a Server.
type Options struct {
	// Pipeline classifies vendors. Nil means the built-in defaults.
	Pipeline *pipeline.Pipeline
	// Extractor fetches page text for url-based requests. Nil disables them.
	Extractor TextExtractor
	// Metrics records classifications and is served at /metrics. Nil
	// creates a fresh registry.
	Metrics        *monitoring.Metrics
	CORSOrigins    []string
	RequestTimeout time.Duration
}

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	pipeline  *pipeline.Pipeline
	extractor TextExtractor
	metrics   *monitoring.Metrics
	opts      Options
}

// NewServer creates a Server, filling unset options with defaults.
func NewServer(opts Options) *Server {
	if opts.Pipeline == nil {
		opts.Pipeline = pipeline.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = monitoring.NewMetrics()
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	return &Server{
		pipeline:  opts.Pipeline,
		extractor: opts.Extractor,
		metrics:   opts.Metrics,
		opts:      opts,
	}
}

// Router returns the configured chi router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))
	r.Use(chimiddleware.Timeout(s.opts.RequestTimeout))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/classify", s.handleClassify)
		r.Post("/extract-text", s.handleExtractText)
		r.Get("/taxonomy", s.handleTaxonomy)
		r.Get("/benchmarks/{category}", s.handleBenchmark)
	})

	return r
}

// requestLogger logs each request through the global zap logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("api: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", chimiddleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("api: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
