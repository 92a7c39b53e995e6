// Package doctext converts fetched documents to plain text so extraction
// works over one representation regardless of source format.
package doctext

import (
	"context"
	"strings"

	"github.com/brynleigh/reflow-cli/internal/config"
	"github.com/brynleigh/reflow-cli/internal/fetcher"
	"github.com/brynleigh/reflow-cli/internal/model"
)

// Raw is a fetched document before text conversion.
type Raw struct {
	URL         string
	ContentType string
	Data        []byte
}

// Converter turns raw document bytes into plain text.
type Converter interface {
	// Text converts the document and reports the kind it detected.
	Text(ctx context.Context, raw Raw) (string, model.DocKind, error)
}

// New creates a Converter based on config. Fails when the pdftotext
// binary cannot be found.
func New(cfg config.DoctextConfig) (Converter, error) {
	pdf, err := NewPdfToText(cfg.PdfToTextPath, cfg.MaxPages)
	if err != nil {
		return nil, err
	}
	return &converter{pdf: pdf}, nil
}

type converter struct {
	pdf *PdfToText
}

func (c *converter) Text(ctx context.Context, raw Raw) (string, model.DocKind, error) {
	kind := Classify(raw.ContentType, raw.Data)
	switch kind {
	case model.DocPDF:
		text, err := c.pdf.Text(ctx, raw.Data)
		return text, kind, err
	case model.DocHTML:
		return HTMLText(raw.Data, raw.ContentType), kind, nil
	default:
		return string(raw.Data), model.DocText, nil
	}
}

// Classify picks the document kind. The PDF magic wins over any declared
// content type; mislabeled datasheet servers are common.
func Classify(contentType string, data []byte) model.DocKind {
	if fetcher.IsPDF(data) {
		return model.DocPDF
	}

	mt := strings.ToLower(contentType)
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	mt = strings.TrimSpace(mt)

	switch {
	case strings.Contains(mt, "pdf"):
		return model.DocPDF
	case strings.Contains(mt, "html"), sniffHTML(data):
		return model.DocHTML
	}
	return model.DocText
}

func sniffHTML(data []byte) bool {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	lower := strings.ToLower(string(head))
	return strings.Contains(lower, "<html") || strings.Contains(lower, "<!doctype html")
}
