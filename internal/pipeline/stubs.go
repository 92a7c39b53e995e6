package pipeline

import (
	"context"
	"strings"

	"github.com/brynleigh/reflow-cli/internal/doctext"
	"github.com/brynleigh/reflow-cli/internal/fetcher"
	"github.com/brynleigh/reflow-cli/internal/model"
	"github.com/brynleigh/reflow-cli/pkg/websearch"
)

// Compile-time interface checks.
var (
	_ websearch.Client  = (*StubSearchClient)(nil)
	_ fetcher.Fetcher   = (*StubFetcher)(nil)
	_ doctext.Converter = (*StubConverter)(nil)
)

// --- Search Stub ---

// StubSearchClient implements websearch.Client with canned hits: a
// datasheet PDF, an HTML mirror of its soldering limits, and forum noise.
type StubSearchClient struct{}

// Search implements websearch.Client.
func (s *StubSearchClient) Search(_ context.Context, _ string) ([]websearch.Result, error) {
	return []websearch.Result{
		{
			URL:     "https://files.example.com/mx4812/datasheet-rev-c.pdf",
			Title:   "MX-4812 Datasheet (Rev. C)",
			Snippet: "Soldering and mounting guidance for the MX-4812 transceiver, including the recommended Pb-free profile.",
		},
		{
			URL:     "https://components.example.com/mx4812/soldering-limits",
			Title:   "MX-4812 Soldering Limits",
			Snippet: "Community mirror of the MX-4812 assembly guidance with the profile table.",
		},
		{
			URL:     "https://forum.example.com/t/hand-soldering-the-mx-4812/118",
			Title:   "Hand soldering the MX-4812 - Forum",
			Snippet: "Has anyone mounted this part with a hot plate?",
		},
	}, nil
}

// --- Fetcher Stub ---

// StubFetcher implements fetcher.Fetcher with canned documents keyed off
// the stub search URLs.
type StubFetcher struct{}

// Fetch implements fetcher.Fetcher.
func (s *StubFetcher) Fetch(_ context.Context, rawURL string) ([]byte, string, error) {
	switch {
	case strings.Contains(rawURL, ".pdf"):
		return []byte(stubDatasheetPDF), "application/pdf", nil
	case strings.Contains(rawURL, "forum"):
		return []byte(stubForumHTML), "text/html; charset=utf-8", nil
	default:
		return []byte(stubMirrorHTML), "text/html; charset=utf-8", nil
	}
}

// --- Converter Stub ---

// StubConverter implements doctext.Converter without shelling out to
// pdftotext: PDF bodies are read as plain text, HTML is stripped as usual.
type StubConverter struct{}

// Text implements doctext.Converter.
func (s *StubConverter) Text(_ context.Context, raw doctext.Raw) (string, model.DocKind, error) {
	kind := doctext.Classify(raw.ContentType, raw.Data)
	if kind == model.DocHTML {
		return doctext.HTMLText(raw.Data, raw.ContentType), kind, nil
	}
	return string(raw.Data), kind, nil
}

// Canned documents. The profile values agree across the PDF and the HTML
// mirror, so an offline lookup resolves every field.

const stubDatasheetPDF = `%PDF-1.4
MX-4812 Low-Power Transceiver
Soldering and Mounting Guidance

The device withstands three solder cycles. Moisture sensitivity level is
MSL 3 and exceeded floor life calls for a 24 h bake at 125 °C before
mounting. Recommended Pb-free profile (SAC305 alloy):

Preheat: 150–180 °C for 60–120 s; Soak: 180–200 °C, 60–90 s; Reflow (TAL): 60–90 s above 217 °C; Peak temperature Tp: 245 °C max; Cooling: ≤4 °C/s

Wave soldering is not recommended for this package.
`

const stubMirrorHTML = `<!DOCTYPE html>
<html>
<head><title>MX-4812 Soldering Limits</title></head>
<body>
<h1>MX-4812 soldering limits</h1>
<p>Community mirror of the assembly guidance in the MX-4812 datasheet, rev C.
Values below are quoted verbatim from the manufacturer document.</p>
<table>
<tr><th>Phase</th><th>Limit</th></tr>
<tr><td>Preheat</td><td>150–180 °C for 60–120 s</td></tr>
<tr><td>Soak</td><td>180–200 °C, 60–90 s</td></tr>
<tr><td>Time above liquidus (TAL)</td><td>60–90 s above 217 °C</td></tr>
<tr><td>Peak temperature (Tp)</td><td>245 °C max</td></tr>
<tr><td>Cooling rate</td><td>≤4 °C/s</td></tr>
</table>
</body>
</html>
`

const stubForumHTML = `<!DOCTYPE html>
<html>
<head><title>Hand soldering the MX-4812 - Forum</title></head>
<body>
<h1>Hand soldering the MX-4812</h1>
<p>Has anyone mounted this part with a hot plate? The pad under the package
makes an iron impractical and I would rather not order a stencil for two
boards.</p>
<p>Reply: follow the manufacturer guidance. A hot plate works if you watch
the thermocouple closely.</p>
</body>
</html>
`
