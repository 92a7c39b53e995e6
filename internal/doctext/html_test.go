package doctext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTMLText_StripsTags(t *testing.T) {
	t.Parallel()

	page := `<!DOCTYPE html>
<html>
<head><title>LM358 Reflow</title><style>body { color: red; }</style></head>
<body>
<nav><a href="/">home</a></nav>
<script>trackPageView();</script>
<h1>Soldering profile</h1>
<p>Peak temperature: 245C</p>
<p>Time above liquidus: 60-90s</p>
<footer>copyright</footer>
</body>
</html>`

	text := HTMLText([]byte(page), "text/html")

	assert.NotContains(t, text, "color: red")
	assert.NotContains(t, text, "trackPageView")
	assert.NotContains(t, text, "home")
	assert.NotContains(t, text, "copyright")
	assert.NotContains(t, text, "<")

	assert.Contains(t, text, "Soldering profile")
	assert.Contains(t, text, "Peak temperature: 245C")
	assert.Contains(t, text, "Time above liquidus: 60-90s")
}

func TestHTMLText_BlockTagsBecomeLineBreaks(t *testing.T) {
	t.Parallel()

	page := `<p>Preheat: 150-180C</p><p>Peak: 245C</p>`
	text := HTMLText([]byte(page), "text/html")

	assert.Equal(t, "Preheat: 150-180C\nPeak: 245C", text)
}

func TestHTMLText_DecodesEntities(t *testing.T) {
	t.Parallel()

	page := `<p>Peak 245&deg;C &ndash; 260&deg;C, ramp &le;3&deg;C/s, tolerance &plusmn;5&deg;C</p>`
	text := HTMLText([]byte(page), "text/html")

	assert.Equal(t, "Peak 245°C – 260°C, ramp ≤3°C/s, tolerance ±5°C", text)
}

func TestHTMLText_Latin1Charset(t *testing.T) {
	t.Parallel()

	// 0xB0 is the degree sign in ISO 8859-1.
	raw := []byte{'P', 'e', 'a', 'k', ' ', '2', '4', '5', 0xB0, 'C'}
	text := HTMLText(raw, "text/html; charset=iso-8859-1")

	assert.Equal(t, "Peak 245°C", text)
}

func TestHTMLText_MetaCharset(t *testing.T) {
	t.Parallel()

	// 0x96 is the en dash in Windows-1252. No charset in the content
	// type, so the meta tag decides.
	raw := append([]byte(`<html><head><meta charset="windows-1252"></head><body>150`), 0x96)
	raw = append(raw, []byte(`180</body></html>`)...)

	text := HTMLText(raw, "text/html")
	assert.Contains(t, text, "150–180")
}

func TestHTMLText_UnknownCharsetKeepsRaw(t *testing.T) {
	t.Parallel()

	page := `<p>Peak 245C</p>`
	text := HTMLText([]byte(page), "text/html; charset=klingon")

	assert.Contains(t, text, "Peak 245C")
}

func TestHTMLText_CollapsesWhitespace(t *testing.T) {
	t.Parallel()

	page := "<div>Peak    245C\t\tmax</div>\n\n\n\n<div>Cooling   4C/s</div>"
	text := HTMLText([]byte(page), "text/html")

	assert.Equal(t, "Peak 245C max\n\nCooling 4C/s", text)
}

func TestDetectCharset(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		data        string
		contentType string
		want        string
	}{
		{
			name:        "content type wins",
			data:        `<meta charset="utf-8">`,
			contentType: "text/html; charset=ISO-8859-1",
			want:        "iso-8859-1",
		},
		{
			name: "meta fallback",
			data: `<html><head><meta charset='Windows-1252'></head>`,
			want: "windows-1252",
		},
		{
			name: "http-equiv style meta",
			data: `<meta http-equiv="Content-Type" content="text/html; charset=shift_jis">`,
			want: "shift_jis",
		},
		{
			name: "none declared",
			data: `<html><body>plain</body></html>`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, detectCharset([]byte(tt.data), tt.contentType))
		})
	}
}
