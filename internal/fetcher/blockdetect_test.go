package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectBlock(t *testing.T) {
	tests := []struct {
		name   string
		status int
		header http.Header
		body   string
		want   BlockType
	}{
		{"cloudflare 403 ray", 403, http.Header{"Cf-Ray": {"abc123"}}, "", BlockCloudflare},
		{"cloudflare 503 server", 503, http.Header{"Server": {"cloudflare"}}, "", BlockCloudflare},
		{"plain 403", 403, http.Header{}, "", BlockNone},
		{"challenge page", 200, http.Header{}, "<title>Just a moment...</title>", BlockCloudflare},
		{"cloudflare challenge", 200, http.Header{}, "Cloudflare security challenge", BlockCloudflare},
		{"recaptcha widget", 200, http.Header{}, `<div class="g-recaptcha"></div>`, BlockCaptcha},
		{"js shell", 200, http.Header{}, "<html><noscript>Enable JavaScript to continue</noscript></html>", BlockJSShell},
		{"meta refresh", 200, http.Header{}, `<meta http-equiv="refresh" content="0;url=/x">`, BlockJSShell},
		{"clean page", 200, http.Header{}, "<html><body>Payments infrastructure for the internet.</body></html>", BlockNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectBlock(tt.status, tt.header, []byte(tt.body)))
		})
	}
}

func TestDetectBlock_LargePageMentioningCaptcha(t *testing.T) {
	body := "<html><body>Bot protection with g-recaptcha and h-captcha support. " +
		strings.Repeat("Stop credential stuffing at the edge. ", 1000) + "</body></html>"
	assert.Equal(t, BlockNone, DetectBlock(http.StatusOK, http.Header{}, []byte(body)))
}

func TestFetch_ChallengePage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><title>Just a moment...</title><body>Checking your browser</body></html>"))
	}))
	defer srv.Close()

	_, err := newTestFetcher(HTTPOptions{}).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	var be *BlockedError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, BlockCloudflare, be.Type)
	assert.Contains(t, err.Error(), "Access blocked (cloudflare)")
}

func TestFetch_CloudflareBlockNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Cf-Ray", "8abc")
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newTestFetcher(HTTPOptions{MaxRetries: 3}).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	assert.Equal(t, BlockCloudflare, se.Block)
}

func TestFetch_BinaryBodySkipsBlockCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 verify you are human"))
	}))
	defer srv.Close()

	resp, err := newTestFetcher(HTTPOptions{}).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", resp.ContentType)
}
