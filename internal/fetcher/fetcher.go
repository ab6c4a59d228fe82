// Package fetcher downloads vendor web pages and documents, and reads
// tabular vendor files (CSV, XLSX).
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Fetcher retrieves a single URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Response, error)
}

// Response is a fetched document. Body holds UTF-8 text for textual media
// types and the raw bytes otherwise.
type Response struct {
	// URL is the final URL after redirects.
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
	// Truncated is set when the body exceeded the size limit.
	Truncated bool
}

// StatusError is returned when the server answers with a non-2xx status
// after all retries.
type StatusError struct {
	StatusCode int
	URL        string
	// Block is set when the error response came from anti-bot protection.
	Block BlockType
}

func (e *StatusError) Error() string {
	switch e.StatusCode {
	case http.StatusForbidden:
		return "Access forbidden (403). The website may be blocking automated requests. " +
			"Try accessing the URL in a browser first."
	case http.StatusNotFound:
		return fmt.Sprintf("URL not found (404): %s", e.URL)
	case http.StatusTooManyRequests:
		return "Too many requests (429). Please try again later."
	default:
		return fmt.Sprintf("Failed to fetch URL: HTTP %d", e.StatusCode)
	}
}

// StatusCodeOf returns the HTTP status carried by a StatusError in err's
// chain, or zero.
func StatusCodeOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
