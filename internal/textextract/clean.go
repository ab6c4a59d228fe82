package textextract

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	multiSpace       = regexp.MustCompile(` +`)
	manyNewlines     = regexp.MustCompile(`\n{3,}`)
	blankRuns        = regexp.MustCompile(`\n\s*\n\s*\n+`)
	spaceBeforePunct = regexp.MustCompile(`\s+([.,;:!?])`)
	spaceAfterPunct  = regexp.MustCompile(`([.,;:!?])\s+`)
	doubleSpace      = regexp.MustCompile(` {2,}`)
	paragraphRuns    = regexp.MustCompile(`\n{2,}`)
	missingSentGap   = regexp.MustCompile(`([.!?])([A-Z])`)

	quoteReplacer = strings.NewReplacer(
		"\u201c", `"`, "\u201d", `"`,
		"\u2018", "'", "\u2019", "'",
		"\u200b", "", "\u200c", "", "\u200d", "", "\ufeff", "",
	)
)

// Clean strips non-printable characters and tidies whitespace and
// punctuation spacing in extracted text. Unicode spaces such as NBSP become
// plain spaces rather than being dropped.
func Clean(text string) string {
	if text == "" {
		return ""
	}

	text = strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			return r
		case unicode.IsSpace(r):
			return ' '
		case unicode.IsPrint(r):
			return r
		default:
			return -1
		}
	}, text)

	text = multiSpace.ReplaceAllString(text, " ")
	text = manyNewlines.ReplaceAllString(text, "\n\n")
	text = strings.ReplaceAll(text, "\t", " ")
	text = trimLines(text)
	text = blankRuns.ReplaceAllString(text, "\n\n")
	text = spaceBeforePunct.ReplaceAllString(text, "$1")
	text = spaceAfterPunct.ReplaceAllString(text, "$1 ")
	text = quoteReplacer.Replace(text)
	text = doubleSpace.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}

// NormalizeLayout converts line endings to \n, keeps exactly one blank line
// between paragraphs, and puts a space after sentence punctuation that runs
// into a capital letter.
func NormalizeLayout(text string) string {
	if text == "" {
		return ""
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = paragraphRuns.ReplaceAllString(text, "\n\n")
	text = missingSentGap.ReplaceAllString(text, "$1 $2")
	text = trimLines(text)

	return strings.TrimSpace(text)
}

func trimLines(text string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return strings.Join(lines, "\n")
}
