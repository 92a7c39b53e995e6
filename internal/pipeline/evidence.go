package pipeline

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/brynleigh/reflow-cli/internal/model"
)

// evidenceRe marks the thermally relevant text a reviewer wants to see.
var evidenceRe = regexp.MustCompile(`(?i)reflow|liquidus|TAL|Tp|peak temperature|ramp`)

const (
	evidenceBefore = 120
	evidenceAfter  = 220
)

// findEvidence returns a snippet from the first document whose text
// mentions reflow terminology, with the document URL for attribution.
func findEvidence(docs []model.Document) model.Evidence {
	for _, doc := range docs {
		if snippet := evidenceSnippet(doc.Text); snippet != "" {
			return model.Evidence{SourceURL: doc.URL, Snippet: snippet}
		}
	}
	return model.Evidence{}
}

// evidenceSnippet extracts the window around the first reflow-term match,
// 120 characters before to 220 after, with whitespace collapsed.
func evidenceSnippet(text string) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	loc := evidenceRe.FindStringIndex(collapsed)
	if loc == nil {
		return ""
	}

	start := utf8.RuneCountInString(collapsed[:loc[0]])
	end := utf8.RuneCountInString(collapsed[:loc[1]])
	rs := []rune(collapsed)

	lo := start - evidenceBefore
	if lo < 0 {
		lo = 0
	}
	hi := end + evidenceAfter
	if hi > len(rs) {
		hi = len(rs)
	}
	return string(rs[lo:hi])
}
