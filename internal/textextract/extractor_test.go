package textextract

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/saas-classifier/internal/fetcher"
	"github.com/sells-group/saas-classifier/internal/model"
)

type fakeFetcher struct {
	resp  *fetcher.Response
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*fetcher.Response, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	r := *f.resp
	r.URL = url
	return &r, nil
}

type fakePDF struct {
	text    string
	gotPath string
	gotBody []byte
}

func (p *fakePDF) ExtractText(_ context.Context, path string) (string, error) {
	p.gotPath = path
	body, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	p.gotBody = body
	return p.text, nil
}

type memCache struct {
	mu   sync.Mutex
	docs map[string]model.Document
}

func newMemCache() *memCache { return &memCache{docs: map[string]model.Document{}} }

func (c *memCache) GetCachedText(_ context.Context, url string) (*model.CachedText, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc, ok := c.docs[url]
	if !ok {
		return nil, nil
	}
	return &model.CachedText{URL: url, Document: doc}, nil
}

func (c *memCache) SetCachedText(_ context.Context, url string, doc model.Document, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs[url] = doc
	return nil
}

func TestExtract_HTML(t *testing.T) {
	e := NewExtractor(nil)
	html := `<html><body><h1>Contract Terms</h1><p>   This   is   a   contract   with   extra   spaces.   </p></body></html>`

	text, err := e.Extract(context.Background(), []byte(html), model.ContentTypeHTML)
	require.NoError(t, err)
	assert.Equal(t, "Contract Terms This is a contract with extra spaces.", text)
}

func TestExtract_AutoDetect(t *testing.T) {
	e := NewExtractor(nil)
	text, err := e.Extract(context.Background(), []byte("<html><body><p>Content</p></body></html>"), "")
	require.NoError(t, err)
	assert.Equal(t, "Content", text)
}

func TestExtract_Text(t *testing.T) {
	e := NewExtractor(nil)
	text, err := e.Extract(context.Background(), []byte("Usage-based billing.Invoices   too."), model.ContentTypeText)
	require.NoError(t, err)
	assert.Equal(t, "Usage-based billing. Invoices too.", text)
}

func TestExtract_Empty(t *testing.T) {
	e := NewExtractor(nil)
	for _, in := range []string{"", "   "} {
		text, err := e.Extract(context.Background(), []byte(in), "")
		require.NoError(t, err)
		assert.Empty(t, text)
	}
}

func TestExtract_PDF(t *testing.T) {
	pdf := &fakePDF{text: "Page one\f\n\nPage   two"}
	e := NewExtractor(nil, WithPDFExtractor(pdf))

	text, err := e.Extract(context.Background(), []byte("%PDF-1.4 body"), "")
	require.NoError(t, err)
	assert.Equal(t, "Page one\n\nPage two", text)
	assert.Equal(t, []byte("%PDF-1.4 body"), pdf.gotBody)

	_, statErr := os.Stat(pdf.gotPath)
	assert.True(t, os.IsNotExist(statErr), "temp pdf should be removed")
}

func TestExtract_UnknownType(t *testing.T) {
	_, err := NewExtractor(nil).Extract(context.Background(), []byte("x"), "docx")
	require.Error(t, err)
}

func TestExtractURL_HTML(t *testing.T) {
	f := &fakeFetcher{resp: &fetcher.Response{
		StatusCode:  200,
		ContentType: "text/html",
		Body:        []byte("<html><body><p>Payment processing API for online businesses.</p></body></html>"),
	}}
	e := NewExtractor(f)

	doc, err := e.ExtractURL(context.Background(), "https://stripe.com", "")
	require.NoError(t, err)
	assert.Equal(t, "https://stripe.com", doc.URL)
	assert.Equal(t, model.ContentTypeHTML, doc.ContentType)
	assert.Equal(t, "Payment processing API for online businesses.", doc.Text)
	assert.Equal(t, 45, doc.Length)
	assert.Equal(t, 6, doc.WordCount)
}

func TestExtractURL_PDFOverridesExplicitType(t *testing.T) {
	f := &fakeFetcher{resp: &fetcher.Response{ContentType: "application/pdf", Body: []byte("%PDF")}}
	e := NewExtractor(f, WithPDFExtractor(&fakePDF{text: "terms"}))

	doc, err := e.ExtractURL(context.Background(), "https://a.io/terms", model.ContentTypeText)
	require.NoError(t, err)
	assert.Equal(t, model.ContentTypePDF, doc.ContentType)
	assert.Equal(t, "terms", doc.Text)
}

func TestExtractURL_InvalidURL(t *testing.T) {
	e := NewExtractor(&fakeFetcher{})
	for _, u := range []string{"", "stripe.com", "ftp://stripe.com", "https://"} {
		_, err := e.ExtractURL(context.Background(), u, "")
		assert.ErrorIs(t, err, ErrInvalidURL, u)
	}
}

func TestExtractURL_FetchErrorKeepsStatus(t *testing.T) {
	f := &fakeFetcher{err: eris.Wrap(&fetcher.StatusError{StatusCode: 403, URL: "https://a.io"}, "fetcher: get")}
	_, err := NewExtractor(f).ExtractURL(context.Background(), "https://a.io", "")
	require.Error(t, err)
	assert.Equal(t, 403, fetcher.StatusCodeOf(err))
}

func TestExtractURL_Cache(t *testing.T) {
	f := &fakeFetcher{resp: &fetcher.Response{ContentType: "text/plain", Body: []byte("CRM for sales teams")}}
	cache := newMemCache()
	e := NewExtractor(f, WithCache(cache, time.Hour))

	first, err := e.ExtractURL(context.Background(), "https://hubspot.com", "")
	require.NoError(t, err)
	second, err := e.ExtractURL(context.Background(), "https://hubspot.com", "")
	require.NoError(t, err)

	assert.Equal(t, 1, f.calls)
	assert.Equal(t, first, second)
}

func TestExtractURL_CacheRespectsContentType(t *testing.T) {
	f := &fakeFetcher{resp: &fetcher.Response{
		ContentType: "text/html",
		Body:        []byte("<html><body><p>CRM</p><p>for sales</p></body></html>"),
	}}
	cache := newMemCache()
	e := NewExtractor(f, WithCache(cache, time.Hour))
	ctx := context.Background()

	html, err := e.ExtractURL(ctx, "https://hubspot.com", "")
	require.NoError(t, err)
	assert.Equal(t, model.ContentTypeHTML, html.ContentType)

	sameType, err := e.ExtractURL(ctx, "https://hubspot.com", model.ContentTypeHTML)
	require.NoError(t, err)
	assert.Equal(t, html, sameType)
	assert.Equal(t, 1, f.calls)

	text, err := e.ExtractURL(ctx, "https://hubspot.com", model.ContentTypeText)
	require.NoError(t, err)
	assert.Equal(t, 2, f.calls)
	assert.Equal(t, model.ContentTypeText, text.ContentType)
	assert.Contains(t, text.Text, "<p>")

	again, err := e.ExtractURL(ctx, "https://hubspot.com", model.ContentTypeText)
	require.NoError(t, err)
	assert.Equal(t, 2, f.calls)
	assert.Equal(t, text, again)
}

func TestNewDocument(t *testing.T) {
	doc := NewDocument("https://a.io", "café au lait", model.ContentTypeText)
	assert.Equal(t, 12, doc.Length)
	assert.Equal(t, 3, doc.WordCount)
}

func TestPdfToText_BinPath(t *testing.T) {
	assert.Equal(t, "pdftotext", NewPdfToText("").binPath)
	assert.Equal(t, "/opt/bin/pdftotext", NewPdfToText("/opt/bin/pdftotext").binPath)
}

func TestPdfToText_MissingBinary(t *testing.T) {
	p := NewPdfToText("/nonexistent/pdftotext")
	_, err := p.ExtractText(context.Background(), "x.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pdftotext failed")
}
