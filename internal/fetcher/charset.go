package fetcher

import (
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/htmlindex"
)

// isTextual reports whether a media type carries character data.
func isTextual(mediaType string) bool {
	switch {
	case strings.HasPrefix(mediaType, "text/"),
		strings.Contains(mediaType, "html"),
		strings.Contains(mediaType, "xml"),
		strings.Contains(mediaType, "json"):
		return true
	default:
		return false
	}
}

// mediaTypeOf returns the lowercased media type of a Content-Type header
// without parameters.
func mediaTypeOf(contentType string) string {
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}

// DecodeBody converts a textual body to UTF-8. The charset comes from the
// Content-Type parameter when present; HTML without one is sniffed for a
// BOM or meta tag, and valid UTF-8 is kept unless the sniffed encoding is
// certain. Non-textual bodies are returned unchanged.
func DecodeBody(body []byte, contentType string) ([]byte, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = mediaTypeOf(contentType)
		params = nil
	}
	if mediaType != "" && !isTextual(mediaType) {
		return body, nil
	}

	name := strings.ToLower(strings.TrimSpace(params["charset"]))
	if name == "" && (mediaType == "" || strings.Contains(mediaType, "html")) {
		var certain bool
		_, name, certain = charset.DetermineEncoding(body, contentType)
		// The sniffer only sees the first KiB and guesses windows-1252 for
		// plain ASCII, so an uncertain guess never overrides valid UTF-8.
		if !certain && utf8.Valid(body) {
			return body, nil
		}
	}
	if name == "" || name == "utf-8" || name == "utf8" || name == "us-ascii" {
		return body, nil
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: unsupported charset %q", name)
	}
	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: decode %s body", name)
	}
	return out, nil
}
