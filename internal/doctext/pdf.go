package doctext

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strconv"

	"github.com/rotisserie/eris"
)

// ErrPdfToTextNotFound reports a missing pdftotext binary at construction.
var ErrPdfToTextNotFound = eris.New("doctext: pdftotext binary not found")

const defaultMaxPages = 25

// PdfToText extracts text from PDFs using the pdftotext CLI tool.
// Reflow tables sit in the first pages of a datasheet, so conversion is
// capped rather than walking hundred-page documents.
type PdfToText struct {
	binPath  string
	maxPages int
}

// NewPdfToText creates a PdfToText extractor. If binPath is empty,
// "pdftotext" is looked up on PATH. A missing binary fails here, not at
// first use.
func NewPdfToText(binPath string, maxPages int) (*PdfToText, error) {
	if binPath == "" {
		binPath = "pdftotext"
	}
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	if _, err := exec.LookPath(binPath); err != nil {
		return nil, eris.Wrapf(ErrPdfToTextNotFound, "looked for %q", binPath)
	}
	return &PdfToText{binPath: binPath, maxPages: maxPages}, nil
}

// Text runs pdftotext -layout over the PDF bytes and returns stdout.
func (p *PdfToText) Text(ctx context.Context, data []byte) (string, error) {
	tmp, err := os.CreateTemp("", "reflow-*.pdf")
	if err != nil {
		return "", eris.Wrap(err, "doctext: create temp file")
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", eris.Wrap(err, "doctext: write temp file")
	}
	if err := tmp.Close(); err != nil {
		return "", eris.Wrap(err, "doctext: close temp file")
	}

	cmd := exec.CommandContext(ctx, p.binPath, "-layout", "-l", strconv.Itoa(p.maxPages), tmpPath, "-")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", eris.Wrapf(err, "doctext: pdftotext failed: %s", stderr.String())
	}

	return stdout.String(), nil
}
