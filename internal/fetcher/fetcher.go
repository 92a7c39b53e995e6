// Package fetcher downloads candidate documents over HTTP and FTP.
package fetcher

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
)

// Fetcher downloads a remote document.
type Fetcher interface {
	// Fetch retrieves the URL and returns the raw bytes and the declared
	// content type (empty when the transport carries none).
	Fetch(ctx context.Context, url string) (data []byte, contentType string, err error)
}

// Dispatch routes fetches to the transport matching the URL scheme.
type Dispatch struct {
	HTTP Fetcher
	FTP  Fetcher
}

// Fetch dispatches on the URL scheme. http and https go to the HTTP
// transport, ftp to the FTP transport.
func (d *Dispatch) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", eris.Wrap(err, "fetch: parse url")
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return d.HTTP.Fetch(ctx, rawURL)
	case "ftp":
		return d.FTP.Fetch(ctx, rawURL)
	default:
		return nil, "", eris.Errorf("fetch: unsupported url scheme %q", u.Scheme)
	}
}

// pdfSniffWindow bounds the search for the PDF magic. Some generators
// emit a byte-order mark or comment lines ahead of the header.
const pdfSniffWindow = 512

// IsPDF reports whether the data carries the "%PDF" magic within the
// first 512 bytes, case-insensitively.
func IsPDF(data []byte) bool {
	window := data
	if len(window) > pdfSniffWindow {
		window = window[:pdfSniffWindow]
	}
	return bytes.Contains(bytes.ToUpper(window), []byte("%PDF"))
}
