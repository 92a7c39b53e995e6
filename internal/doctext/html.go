package doctext

import (
	"bytes"
	"io"
	"mime"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"
)

// dropBlockRes matches entire non-content blocks, one regex per tag so
// the opening and closing tags pair up.
var dropBlockRes = func() []*regexp.Regexp {
	tags := []string{"script", "style", "noscript", "nav", "footer"}
	res := make([]*regexp.Regexp, len(tags))
	for i, tag := range tags {
		res[i] = regexp.MustCompile(`(?is)<` + tag + `[^>]*>.*?</` + tag + `>`)
	}
	return res
}()

var (
	// Closing block elements become line breaks so clause boundaries
	// survive into the plain text.
	lineBreakRe   = regexp.MustCompile(`(?i)<(?:br|/p|/div|/tr|/li|/h[1-6]|/table|/section|/ul|/ol)[^>]*>`)
	tagRe         = regexp.MustCompile(`<[^>]+>`)
	spaceRe       = regexp.MustCompile(`[ \t]+`)
	spacedBreakRe = regexp.MustCompile(`[ ]*\n[ ]*`)
	multiBreakRe  = regexp.MustCompile(`\n{3,}`)

	metaCharsetRe = regexp.MustCompile(`(?i)<meta[^>]+charset\s*=\s*["']?\s*([A-Za-z0-9._-]+)`)

	// Datasheet pages lean on the degree, dash, and comparison entities.
	entityReplacer = strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
		"&deg;", "°",
		"&#176;", "°",
		"&ndash;", "–",
		"&#8211;", "–",
		"&minus;", "−",
		"&#8722;", "−",
		"&plusmn;", "±",
		"&le;", "≤",
		"&#8804;", "≤",
	)
)

// HTMLText strips an HTML page to visible plain text, decoding non-UTF-8
// charsets declared in the Content-Type header or a meta tag.
func HTMLText(data []byte, contentType string) string {
	if cs := detectCharset(data, contentType); cs != "" && cs != "utf-8" && cs != "utf8" {
		if enc, err := htmlindex.Get(cs); err == nil {
			if decoded, decErr := io.ReadAll(enc.NewDecoder().Reader(bytes.NewReader(data))); decErr == nil {
				data = decoded
			}
		} else {
			zap.L().Debug("doctext: unknown charset, keeping raw bytes", zap.String("charset", cs))
		}
	}
	return stripHTML(string(data))
}

// detectCharset reads the charset from the Content-Type header, falling
// back to a meta tag in the first KB of the page.
func detectCharset(data []byte, contentType string) string {
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		if cs := params["charset"]; cs != "" {
			return strings.ToLower(cs)
		}
	}

	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	if m := metaCharsetRe.FindSubmatch(head); m != nil {
		return strings.ToLower(string(m[1]))
	}
	return ""
}

// stripHTML removes scripts, styles, and chrome blocks, turns block
// boundaries into newlines, strips tags, decodes entities, and collapses
// whitespace.
func stripHTML(html string) string {
	for _, re := range dropBlockRes {
		html = re.ReplaceAllString(html, "")
	}
	html = lineBreakRe.ReplaceAllString(html, "\n")
	html = tagRe.ReplaceAllString(html, " ")
	html = entityReplacer.Replace(html)

	html = spaceRe.ReplaceAllString(html, " ")
	html = spacedBreakRe.ReplaceAllString(html, "\n")
	html = multiBreakRe.ReplaceAllString(html, "\n\n")

	return strings.TrimSpace(html)
}
