package textextract

import (
	"bytes"
	"context"
	"os"
	"os/exec"

	"github.com/rotisserie/eris"
)

// PDFExtractor turns a PDF file on disk into text.
type PDFExtractor interface {
	ExtractText(ctx context.Context, pdfPath string) (string, error)
}

// PdfToText extracts text from PDFs using the poppler pdftotext CLI.
type PdfToText struct {
	binPath string
}

// NewPdfToText creates a PdfToText extractor. If binPath is empty,
// "pdftotext" is looked up on PATH.
func NewPdfToText(binPath string) *PdfToText {
	if binPath == "" {
		binPath = "pdftotext"
	}
	return &PdfToText{binPath: binPath}
}

// ExtractText runs pdftotext -layout on pdfPath and returns stdout.
func (p *PdfToText) ExtractText(ctx context.Context, pdfPath string) (string, error) {
	cmd := exec.CommandContext(ctx, p.binPath, "-layout", pdfPath, "-")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", eris.Wrapf(err, "textextract: pdftotext failed for %s: %s", pdfPath, stderr.String())
	}
	return stdout.String(), nil
}

// FromPDF extracts text from an in-memory PDF by spooling it to a temp
// file for the extractor.
func FromPDF(ctx context.Context, pdf PDFExtractor, content []byte) (string, error) {
	f, err := os.CreateTemp("", "saas-classifier-*.pdf")
	if err != nil {
		return "", eris.Wrap(err, "textextract: create temp pdf")
	}
	path := f.Name()
	defer os.Remove(path) //nolint:errcheck

	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return "", eris.Wrap(err, "textextract: write temp pdf")
	}
	if err := f.Close(); err != nil {
		return "", eris.Wrap(err, "textextract: close temp pdf")
	}
	return pdf.ExtractText(ctx, path)
}
