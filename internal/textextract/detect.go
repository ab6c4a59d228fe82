package textextract

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/saas-classifier/internal/model"
)

const sniffLen = 1024

var htmlTag = regexp.MustCompile(`(?i)<[a-z][\s>]`)

// ParseContentType maps "html", "pdf", or "text" (any case) to a
// ContentType. The empty string yields "" with no error.
func ParseContentType(s string) (model.ContentType, error) {
	switch ct := model.ContentType(strings.ToLower(strings.TrimSpace(s))); ct {
	case "", model.ContentTypeHTML, model.ContentTypePDF, model.ContentTypeText:
		return ct, nil
	default:
		return "", eris.Errorf("textextract: unsupported content type %q", s)
	}
}

// Sniff guesses the type of raw content from its first bytes: a %PDF magic
// number means PDF, anything that looks like an opening tag means HTML,
// and the rest is text.
func Sniff(content []byte) model.ContentType {
	head := content
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	if bytes.HasPrefix(head, []byte("%PDF")) {
		return model.ContentTypePDF
	}
	if htmlTag.Match(head) {
		return model.ContentTypeHTML
	}
	return model.ContentTypeText
}

// DetectContentType picks the type of a fetched body. The Content-Type
// header and a .pdf URL suffix take precedence; otherwise the body is
// sniffed.
func DetectContentType(content []byte, contentTypeHeader, url string) model.ContentType {
	h := strings.ToLower(contentTypeHeader)
	switch {
	case strings.Contains(h, "application/pdf"),
		strings.HasSuffix(strings.ToLower(url), ".pdf"):
		return model.ContentTypePDF
	case strings.Contains(h, "text/html"), strings.Contains(h, "application/xhtml"):
		return model.ContentTypeHTML
	default:
		return Sniff(content)
	}
}
