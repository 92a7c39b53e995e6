package model

// DocKind classifies raw document content before text conversion.
type DocKind string

const (
	DocPDF  DocKind = "pdf"
	DocHTML DocKind = "html"
	DocText DocKind = "text"
)

// Document is one fetched-and-converted source: plain text plus the URL it
// came from. Extraction consumes documents, never raw bytes.
type Document struct {
	URL  string  `json:"url"`
	Kind DocKind `json:"kind"`
	Text string  `json:"text"`
}

// BOM is the parsed preview of an uploaded bill of materials.
type BOM struct {
	Label   string              `json:"label"`
	Columns []string            `json:"columns"`
	Rows    []map[string]string `json:"rows"`
}
