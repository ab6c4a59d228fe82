package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/sells-group/saas-classifier/internal/fetcher"
	"github.com/sells-group/saas-classifier/internal/model"
	"github.com/sells-group/saas-classifier/internal/monitoring"
	"github.com/sells-group/saas-classifier/internal/taxonomy"
	"github.com/sells-group/saas-classifier/internal/textextract"
)

// ClassifyRequest is the body of POST /v1/classify. When URL is set the
// page text is fetched and appended to WebsiteText before scoring.
type ClassifyRequest struct {
	model.VendorInput
	URL         string `json:"url,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	// Explain returns signals and the per-category breakdown too.
	Explain bool `json:"explain,omitempty"`
}

// ExtractRequest is the body of POST /v1/extract-text.
type ExtractRequest struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type,omitempty"`
}

// ExtractResponse is the reply to POST /v1/extract-text.
type ExtractResponse struct {
	Success bool `json:"success"`
	model.Document
}

// TaxonomyResponse is the reply to GET /v1/taxonomy.
type TaxonomyResponse struct {
	Categories []taxonomy.Category `json:"categories"`
	Weights    taxonomy.Weights    `json:"weights"`
	Benchmarks map[string]string   `json:"benchmarks"`
}

// BenchmarkResponse is the reply to GET /v1/benchmarks/{category}.
type BenchmarkResponse struct {
	Category     string `json:"category"`
	BenchmarkKey string `json:"benchmark_key"`
	Known        bool   `json:"known"`
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	start := time.Now()

	in := req.VendorInput
	if req.URL != "" {
		doc, ok := s.extract(w, r, req.URL, req.ContentType)
		if !ok {
			return
		}
		in.WebsiteText = strings.TrimSpace(in.WebsiteText + " " + doc.Text)
	}

	if req.Explain {
		exp := s.pipeline.Explain(in)
		s.metrics.ObserveClassification(monitoring.SourceAPI, exp.Result.Category, time.Since(start))
		writeJSON(w, http.StatusOK, exp)
		return
	}

	res := s.pipeline.ClassifySaaS(in)
	s.metrics.ObserveClassification(monitoring.SourceAPI, res.Category, time.Since(start))
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleExtractText(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	doc, ok := s.extract(w, r, req.URL, req.ContentType)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ExtractResponse{Success: true, Document: *doc})
}

// extract fetches rawURL and writes the error response itself on failure.
func (s *Server) extract(w http.ResponseWriter, r *http.Request, rawURL, contentType string) (*model.Document, bool) {
	if s.extractor == nil {
		writeError(w, http.StatusNotImplemented, "url fetching is disabled")
		return nil, false
	}
	ct, err := textextract.ParseContentType(contentType)
	if err != nil {
		writeError(w, http.StatusBadRequest, "content_type must be html, pdf, or text")
		return nil, false
	}

	doc, err := s.extractor.ExtractURL(r.Context(), rawURL, ct)
	if err != nil {
		status, msg := fetchErrorStatus(err)
		if status != http.StatusBadRequest {
			s.metrics.ObserveFetchFailure(err)
		}
		zap.L().Warn("api: extract failed", zap.String("url", rawURL), zap.Int("status", status), zap.Error(err))
		writeError(w, status, msg)
		return nil, false
	}
	return doc, true
}

// fetchErrorStatus maps an extraction error to a response status and
// message. Upstream 403, 404, and 429 keep their code and challenge pages
// report 403. Other upstream failures become 502.
func fetchErrorStatus(err error) (int, string) {
	if errors.Is(err, textextract.ErrInvalidURL) {
		return http.StatusBadRequest, "URL must start with http:// or https://"
	}
	var be *fetcher.BlockedError
	if errors.As(err, &be) {
		return http.StatusForbidden, be.Error()
	}
	var se *fetcher.StatusError
	if errors.As(err, &se) {
		switch se.StatusCode {
		case http.StatusForbidden, http.StatusNotFound, http.StatusTooManyRequests:
			return se.StatusCode, se.Error()
		default:
			return http.StatusBadGateway, se.Error()
		}
	}
	return http.StatusBadGateway, "Failed to fetch URL"
}

func (s *Server) handleTaxonomy(w http.ResponseWriter, _ *http.Request) {
	tax := s.pipeline.Taxonomy()
	writeJSON(w, http.StatusOK, TaxonomyResponse{
		Categories: tax.Categories(),
		Weights:    tax.Weights(),
		Benchmarks: s.pipeline.Selector().Table(),
	})
}

func (s *Server) handleBenchmark(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	_, known := s.pipeline.Selector().Table()[category]
	writeJSON(w, http.StatusOK, BenchmarkResponse{
		Category:     category,
		BenchmarkKey: s.pipeline.Selector().Key(category),
		Known:        known,
	})
}
