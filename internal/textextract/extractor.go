// Package textextract turns web pages, PDFs, and raw text into cleaned
// plain text suitable for vendor classification.
package textextract

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/saas-classifier/internal/fetcher"
	"github.com/sells-group/saas-classifier/internal/model"
)

// ErrInvalidURL is returned by ExtractURL for anything but an absolute
// http or https URL.
var ErrInvalidURL = eris.New("textextract: URL must start with http:// or https://")

// Cache stores extracted documents by URL. A nil document from
// GetCachedText is a miss.
type Cache interface {
	GetCachedText(ctx context.Context, url string) (*model.CachedText, error)
	SetCachedText(ctx context.Context, url string, doc model.Document, ttl time.Duration) error
}

// Extractor extracts and cleans text from content or URLs.
type Extractor struct {
	fetcher  fetcher.Fetcher
	pdf      PDFExtractor
	cache    Cache
	cacheTTL time.Duration
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithPDFExtractor overrides the pdftotext-based PDF extractor.
func WithPDFExtractor(p PDFExtractor) Option {
	return func(e *Extractor) { e.pdf = p }
}

// WithCache enables URL caching of extracted documents.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(e *Extractor) {
		e.cache = c
		e.cacheTTL = ttl
	}
}

// NewExtractor creates an Extractor. f may be nil when only Extract is used.
func NewExtractor(f fetcher.Fetcher, opts ...Option) *Extractor {
	e := &Extractor{fetcher: f, pdf: NewPdfToText(""), cacheTTL: 24 * time.Hour}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract converts content of type ct into cleaned text. An empty ct is
// sniffed from the content.
func (e *Extractor) Extract(ctx context.Context, content []byte, ct model.ContentType) (string, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return "", nil
	}
	if ct == "" {
		ct = Sniff(content)
	}

	var raw string
	switch ct {
	case model.ContentTypeHTML:
		text, err := FromHTML(bytes.NewReader(content))
		if err != nil {
			return "", err
		}
		raw = text
	case model.ContentTypePDF:
		text, err := FromPDF(ctx, e.pdf, content)
		if err != nil {
			return "", err
		}
		raw = text
	case model.ContentTypeText:
		raw = strings.ToValidUTF8(string(content), "")
	default:
		return "", eris.Errorf("textextract: unsupported content type %q", ct)
	}

	return NormalizeLayout(Clean(raw)), nil
}

// ExtractURL fetches rawURL and extracts its text. ct forces the content
// type; empty means detect from the response. A cached document extracted
// as a different type than an explicit ct is refetched. Fetch failures keep the
// upstream status reachable through fetcher.StatusCodeOf.
func (e *Extractor) ExtractURL(ctx context.Context, rawURL string, ct model.ContentType) (*model.Document, error) {
	if !validURL(rawURL) {
		return nil, ErrInvalidURL
	}
	if e.fetcher == nil {
		return nil, eris.New("textextract: no fetcher configured")
	}

	if e.cache != nil {
		cached, err := e.cache.GetCachedText(ctx, rawURL)
		if err != nil {
			zap.L().Warn("textextract: cache lookup failed", zap.String("url", rawURL), zap.Error(err))
		} else if cached != nil && (ct == "" || cached.Document.ContentType == ct) {
			zap.L().Debug("textextract: cache hit", zap.String("url", rawURL))
			doc := cached.Document
			return &doc, nil
		}
	}

	resp, err := e.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	detected := DetectContentType(resp.Body, resp.ContentType, rawURL)
	if ct == "" || detected == model.ContentTypePDF {
		ct = detected
	}

	text, err := e.Extract(ctx, resp.Body, ct)
	if err != nil {
		return nil, eris.Wrapf(err, "textextract: extract %s", rawURL)
	}

	doc := NewDocument(rawURL, text, ct)
	if e.cache != nil {
		if err := e.cache.SetCachedText(ctx, rawURL, doc, e.cacheTTL); err != nil {
			zap.L().Warn("textextract: cache store failed", zap.String("url", rawURL), zap.Error(err))
		}
	}
	return &doc, nil
}

// NewDocument builds a Document with its length in characters and word
// count filled in.
func NewDocument(url, text string, ct model.ContentType) model.Document {
	return model.Document{
		URL:         url,
		Text:        text,
		Length:      utf8.RuneCountInString(text),
		WordCount:   len(strings.Fields(text)),
		ContentType: ct,
	}
}

func validURL(raw string) bool {
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return false
	}
	u, err := url.Parse(raw)
	return err == nil && u.Host != ""
}
