package textextract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", "  \n\t ", ""},
		{"collapse spaces and newlines", "This   has    multiple    spaces.\n\n\n\nAnd   many   newlines.", "This has multiple spaces. And many newlines."},
		{"zero width", "Normal text\u200b\u200c\u200d\ufeffhidden chars", "Normal texthidden chars"},
		{"space before punctuation", "Payments , billing ; invoicing !", "Payments, billing; invoicing!"},
		{"curly quotes", "\u201cfast\u201d and \u2018simple\u2019", `"fast" and 'simple'`},
		{"tabs", "a\t\tb", "a b"},
		{"paragraph kept", "first line\n\n\n\nsecond line", "first line\n\nsecond line"},
		{"control chars", "a\x00b\x07c", "abc"},
		{"unicode spaces", "Tom\u00a0&\u00a0Jerry", "Tom & Jerry"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestNormalizeLayout(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"sentence spacing", "Sentence one.Sentence two.", "Sentence one. Sentence two."},
		{"crlf", "a\r\nb\rc", "a\nb\nc"},
		{"paragraphs", "a\n\n\n\nb", "a\n\nb"},
		{"trim lines", "  a  \n  b  ", "a\nb"},
		{"lowercase untouched", "v1.beta", "v1.beta"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeLayout(tt.in))
		})
	}
}
