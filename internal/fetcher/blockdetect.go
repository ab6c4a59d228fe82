package fetcher

import (
	"bytes"
	"fmt"
	"net/http"
)

// BlockType describes the kind of anti-bot block detected.
type BlockType string

const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockCaptcha    BlockType = "captcha"
	BlockJSShell    BlockType = "js_shell"
)

// maxChallengeBytes bounds the body size inspected for challenge markers.
// Real vendor pages are larger and may legitimately mention captchas.
const maxChallengeBytes = 16 << 10

var (
	cloudflareMarkers = [][]byte{
		[]byte("checking your browser"),
		[]byte("cf-browser-verification"),
		[]byte("just a moment..."),
		[]byte("attention required! | cloudflare"),
	}
	captchaMarkers = [][]byte{
		[]byte("g-recaptcha"),
		[]byte("h-captcha"),
		[]byte("complete the captcha"),
		[]byte("complete the recaptcha"),
		[]byte("verify you are human"),
	}
)

// BlockedError is returned when a 2xx response is an anti-bot challenge
// page rather than the site content.
type BlockedError struct {
	URL  string
	Type BlockType
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("Access blocked (%s). The website may be blocking automated requests: %s", e.Type, e.URL)
}

// DetectBlock reports whether a response looks like anti-bot protection
// rather than page content.
func DetectBlock(statusCode int, header http.Header, body []byte) BlockType {
	if statusCode == http.StatusForbidden || statusCode == http.StatusServiceUnavailable {
		if header.Get("Cf-Ray") != "" || header.Get("Cf-Cache-Status") != "" ||
			header.Get("Cf-Mitigated") != "" {
			return BlockCloudflare
		}
		if bytes.EqualFold([]byte(header.Get("Server")), []byte("cloudflare")) {
			return BlockCloudflare
		}
	}

	if len(body) > maxChallengeBytes {
		return BlockNone
	}
	lower := bytes.ToLower(body)

	if containsAny(lower, cloudflareMarkers) ||
		bytes.Contains(lower, []byte("cloudflare")) && bytes.Contains(lower, []byte("challenge")) {
		return BlockCloudflare
	}
	if containsAny(lower, captchaMarkers) {
		return BlockCaptcha
	}

	// JS-only shell: tiny body with a noscript notice or meta refresh.
	if len(body) < 2000 {
		if bytes.Contains(lower, []byte("<noscript")) && bytes.Contains(lower, []byte("javascript")) {
			return BlockJSShell
		}
		if bytes.Contains(lower, []byte(`http-equiv="refresh"`)) {
			return BlockJSShell
		}
	}

	return BlockNone
}

func containsAny(b []byte, markers [][]byte) bool {
	for _, m := range markers {
		if bytes.Contains(b, m) {
			return true
		}
	}
	return false
}
