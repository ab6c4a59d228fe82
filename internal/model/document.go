package model

import "time"

// ContentType identifies the format of raw vendor content.
type ContentType string

const (
	ContentTypeHTML ContentType = "html"
	ContentTypePDF  ContentType = "pdf"
	ContentTypeText ContentType = "text"
)

// Document is plain text extracted from a web page, PDF, or text body.
type Document struct {
	URL         string      `json:"url,omitempty"`
	Text        string      `json:"text"`
	Length      int         `json:"length"`
	WordCount   int         `json:"word_count"`
	ContentType ContentType `json:"content_type"`
}

// CachedText is a previously extracted document stored by URL.
type CachedText struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Document  Document  `json:"document"`
	FetchedAt time.Time `json:"fetched_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
