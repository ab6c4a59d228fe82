package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/saas-classifier/internal/fetcher"
	"github.com/sells-group/saas-classifier/internal/model"
	"github.com/sells-group/saas-classifier/internal/monitoring"
	"github.com/sells-group/saas-classifier/internal/textextract"
)

type fakeExtractor struct {
	doc   *model.Document
	err   error
	calls int
	gotCT model.ContentType
}

func (f *fakeExtractor) ExtractURL(_ context.Context, url string, ct model.ContentType) (*model.Document, error) {
	f.calls++
	f.gotCT = ct
	if f.err != nil {
		return nil, f.err
	}
	doc := *f.doc
	doc.URL = url
	return &doc, nil
}

func newTestServer(t *testing.T, ext TextExtractor) (*Server, http.Handler) {
	t.Helper()
	s := NewServer(Options{Extractor: ext, Metrics: monitoring.NewMetrics()})
	return s, s.Router()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	_, h := newTestServer(t, nil)

	w := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, map[string]string{"status": "ok"}, decode[map[string]string](t, w))
}

func TestClassify(t *testing.T) {
	s, h := newTestServer(t, nil)

	body := `{
		"name": "Acme Dev API",
		"description": "CI/CD and developer APIs. SDKs for deployment and observability.",
		"website_text": "Build with our API. Debug and monitor your services. Kubernetes and Docker.",
		"product_tags": ["devtools", "api", "sdk", "ci/cd"]
	}`
	w := do(t, h, http.MethodPost, "/v1/classify", body)
	require.Equal(t, http.StatusOK, w.Code)

	res := decode[model.ClassifySaaSResult](t, w)
	assert.Equal(t, "DevTools", res.Category)
	assert.Equal(t, "devtools_growth_benchmark", res.BenchmarkKey)
	assert.Equal(t, 1.0, res.Confidence)
	require.NotNil(t, res.CategoryProfile)

	assert.Equal(t, 1.0, testutil.ToFloat64(
		s.metrics.Classifications.WithLabelValues("DevTools", monitoring.SourceAPI)))
}

func TestClassify_Empty(t *testing.T) {
	_, h := newTestServer(t, nil)

	w := do(t, h, http.MethodPost, "/v1/classify", `{}`)
	require.Equal(t, http.StatusOK, w.Code)

	res := decode[model.ClassifySaaSResult](t, w)
	assert.Equal(t, "Unknown", res.Category)
	assert.Equal(t, "general_saas_benchmark_v1", res.BenchmarkKey)
}

func TestClassify_Explain(t *testing.T) {
	_, h := newTestServer(t, nil)

	w := do(t, h, http.MethodPost, "/v1/classify", `{"website_text": "Kubernetes hosting", "explain": true}`)
	require.Equal(t, http.StatusOK, w.Code)

	ex := decode[model.Explanation](t, w)
	assert.Equal(t, "DevTools", ex.Result.Category)
	assert.Len(t, ex.ScoreBreakdown, 9)
	assert.True(t, ex.Signals.WebsiteTokens.Has("kubernetes"))
}

func TestClassify_WithURL(t *testing.T) {
	ext := &fakeExtractor{doc: &model.Document{
		Text:        "Kubernetes hosting",
		ContentType: model.ContentTypeHTML,
	}}
	_, h := newTestServer(t, ext)

	w := do(t, h, http.MethodPost, "/v1/classify",
		`{"url": "https://example.com", "content_type": "html", "explain": true}`)
	require.Equal(t, http.StatusOK, w.Code)

	ex := decode[model.Explanation](t, w)
	assert.Equal(t, 1, ext.calls)
	assert.Equal(t, model.ContentTypeHTML, ext.gotCT)
	assert.Equal(t, "DevTools", ex.Result.Category)
	assert.True(t, ex.Signals.WebsiteTokens.Has("hosting"))
}

func TestClassify_InvalidBody(t *testing.T) {
	_, h := newTestServer(t, nil)

	w := do(t, h, http.MethodPost, "/v1/classify", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid request body", decode[errorResponse](t, w).Error)
}

func TestClassify_URLWithoutExtractor(t *testing.T) {
	_, h := newTestServer(t, nil)

	w := do(t, h, http.MethodPost, "/v1/classify", `{"url": "https://example.com"}`)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestExtractText(t *testing.T) {
	doc := textextract.NewDocument("", "Payment processing API for online businesses.", model.ContentTypeHTML)
	ext := &fakeExtractor{doc: &doc}
	_, h := newTestServer(t, ext)

	w := do(t, h, http.MethodPost, "/v1/extract-text", `{"url": "https://stripe.com"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, true, got["success"])
	assert.Equal(t, "https://stripe.com", got["url"])
	assert.Equal(t, "Payment processing API for online businesses.", got["text"])
	assert.Equal(t, float64(45), got["length"])
	assert.Equal(t, float64(6), got["word_count"])
	assert.Equal(t, "html", got["content_type"])
	assert.Equal(t, model.ContentType(""), ext.gotCT)
}

func TestExtractText_Validation(t *testing.T) {
	ext := &fakeExtractor{doc: &model.Document{}}
	_, h := newTestServer(t, ext)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing url", `{}`, "url is required"},
		{"bad content type", `{"url": "https://example.com", "content_type": "docx"}`, "content_type must be html, pdf, or text"},
		{"bad json", `[`, "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/v1/extract-text", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.want, decode[errorResponse](t, w).Error)
		})
	}
	assert.Equal(t, 0, ext.calls)
}

func TestExtractText_FetchErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
		counted    bool
	}{
		{
			name:       "invalid url",
			err:        textextract.ErrInvalidURL,
			wantStatus: http.StatusBadRequest,
			wantMsg:    "URL must start with http:// or https://",
		},
		{
			name:       "forbidden",
			err:        &fetcher.StatusError{StatusCode: 403, URL: "https://example.com"},
			wantStatus: http.StatusForbidden,
			wantMsg:    (&fetcher.StatusError{StatusCode: 403}).Error(),
			counted:    true,
		},
		{
			name:       "not found",
			err:        &fetcher.StatusError{StatusCode: 404, URL: "https://example.com"},
			wantStatus: http.StatusNotFound,
			wantMsg:    "URL not found (404): https://example.com",
			counted:    true,
		},
		{
			name:       "rate limited",
			err:        &fetcher.StatusError{StatusCode: 429, URL: "https://example.com"},
			wantStatus: http.StatusTooManyRequests,
			wantMsg:    (&fetcher.StatusError{StatusCode: 429}).Error(),
			counted:    true,
		},
		{
			name:       "challenge page",
			err:        &fetcher.BlockedError{URL: "https://example.com", Type: fetcher.BlockCloudflare},
			wantStatus: http.StatusForbidden,
			wantMsg:    "Access blocked (cloudflare). The website may be blocking automated requests: https://example.com",
			counted:    true,
		},
		{
			name:       "upstream 500",
			err:        &fetcher.StatusError{StatusCode: 500, URL: "https://example.com"},
			wantStatus: http.StatusBadGateway,
			wantMsg:    "Failed to fetch URL: HTTP 500",
			counted:    true,
		},
		{
			name:       "network",
			err:        errors.New("dial tcp: connection refused"),
			wantStatus: http.StatusBadGateway,
			wantMsg:    "Failed to fetch URL",
			counted:    true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, h := newTestServer(t, &fakeExtractor{err: tt.err})

			w := do(t, h, http.MethodPost, "/v1/extract-text", `{"url": "https://example.com"}`)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantMsg, decode[errorResponse](t, w).Error)

			n := testutil.CollectAndCount(s.metrics.FetchFailures)
			if tt.counted {
				assert.Equal(t, 1, n)
			} else {
				assert.Equal(t, 0, n)
			}
		})
	}
}

func TestTaxonomy(t *testing.T) {
	_, h := newTestServer(t, nil)

	w := do(t, h, http.MethodGet, "/v1/taxonomy", "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[TaxonomyResponse](t, w)
	require.Len(t, resp.Categories, 9)
	assert.Equal(t, "Payments", resp.Categories[0].ID)
	assert.Equal(t, 2.0, resp.Weights.WebsitePhrase)
	assert.Equal(t, "crm_sales_benchmark_v1", resp.Benchmarks["CRM"])
}

func TestBenchmark(t *testing.T) {
	_, h := newTestServer(t, nil)

	w := do(t, h, http.MethodGet, "/v1/benchmarks/Payments", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, BenchmarkResponse{
		Category:     "Payments",
		BenchmarkKey: "fintech_benchmark_v1",
		Known:        true,
	}, decode[BenchmarkResponse](t, w))

	w = do(t, h, http.MethodGet, "/v1/benchmarks/Unknown", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, BenchmarkResponse{
		Category:     "Unknown",
		BenchmarkKey: "general_saas_benchmark_v1",
	}, decode[BenchmarkResponse](t, w))
}

func TestMetricsEndpoint(t *testing.T) {
	_, h := newTestServer(t, nil)

	do(t, h, http.MethodPost, "/v1/classify", `{"website_text": "Kubernetes hosting"}`)
	w := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `saas_classifier_classifications_total{category="DevTools",source="api"} 1`)
}

func TestCORS(t *testing.T) {
	s := NewServer(Options{CORSOrigins: []string{"https://app.example.com"}})
	h := s.Router()

	req := httptest.NewRequest(http.MethodOptions, "/v1/classify", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestBodyTooLarge(t *testing.T) {
	_, h := newTestServer(t, nil)

	big := `{"website_text": "` + strings.Repeat("a", maxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/classify", bytes.NewBufferString(big))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNotFound(t *testing.T) {
	_, h := newTestServer(t, nil)

	w := do(t, h, http.MethodGet, "/v1/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
