package fetcher

import (
	"context"
	"io"
	"net"
	"net/url"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// FTPOptions configures the FTP fetcher.
type FTPOptions struct {
	Timeout  time.Duration
	MaxBytes int64
}

// FTPFetcher downloads datasheets from FTP mirrors with anonymous login.
type FTPFetcher struct {
	opts FTPOptions
}

// NewFTPFetcher creates a new FTPFetcher with the given options.
func NewFTPFetcher(opts FTPOptions) *FTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxBytes == 0 {
		opts.MaxBytes = 20 << 20
	}
	return &FTPFetcher{opts: opts}
}

// parseFTPURL extracts host (with port) and path from an FTP URL.
func parseFTPURL(rawURL string) (host string, path string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", eris.Wrap(err, "parse ftp url")
	}
	if u.Scheme != "ftp" {
		return "", "", eris.Errorf("expected ftp scheme, got %q", u.Scheme)
	}

	host = u.Host
	if _, _, splitErr := net.SplitHostPort(host); splitErr != nil {
		host = net.JoinHostPort(host, "21")
	}

	path = u.Path
	if path == "" {
		return "", "", eris.New("empty path in ftp url")
	}

	return host, path, nil
}

// Fetch retrieves the file behind the FTP URL. FTP carries no content
// type, so the second return is always empty.
func (f *FTPFetcher) Fetch(ctx context.Context, ftpURL string) ([]byte, string, error) {
	host, path, err := parseFTPURL(ftpURL)
	if err != nil {
		return nil, "", err
	}

	zap.L().Debug("ftp: connecting", zap.String("host", host), zap.String("path", path))

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(f.opts.Timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, "", eris.Wrap(err, "ftp dial")
	}

	if err := conn.Login("anonymous", "anonymous@"); err != nil {
		_ = conn.Quit()
		return nil, "", eris.Wrap(err, "ftp login")
	}

	resp, err := conn.Retr(path)
	if err != nil {
		_ = conn.Quit()
		return nil, "", eris.Wrap(err, "ftp retrieve")
	}

	data, readErr := io.ReadAll(io.LimitReader(resp, f.opts.MaxBytes+1))
	_ = resp.Close()
	_ = conn.Quit()

	if readErr != nil {
		return nil, "", eris.Wrap(readErr, "ftp read")
	}
	if int64(len(data)) > f.opts.MaxBytes {
		return nil, "", eris.Errorf("ftp: %s exceeds %d byte cap", ftpURL, f.opts.MaxBytes)
	}

	return data, "", nil
}
