// Package unitpattern recognizes physical-quantity phrasings in datasheet
// text: temperature ranges, soldering durations, and ramp rates in their
// many inconsistent spellings.
package unitpattern

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/brynleigh/reflow-cli/internal/model"
)

const (
	// bareConfidence is the hint for matches with no profile vocabulary
	// nearby. Every descriptor confidence sits above it.
	bareConfidence = 0.30

	// keywordRadius is how far around a match (bytes, normalized text) the
	// context scan looks.
	keywordRadius = 48
)

// contextRe matches the reflow-profile vocabulary that distinguishes a
// profile quantity from an arbitrary number with a unit.
var contextRe = regexp.MustCompile(`(?i)\b(preheat|pre-heat|soak|ramp(?:-?(?:up|down|rate))?|reflow|liquidus|tal|tp|peak|cool(?:ing|-?down)?|temperature|profile)\b`)

// rateTailRe guards temperature matches against rate expressions: "3 °C/s"
// must not yield a 3 °C temperature hit.
var rateTailRe = regexp.MustCompile(`^\s*/`)

// Match is one recognized quantity: the parsed value, the span it came from
// (byte offsets into the original text), and a confidence hint.
type Match struct {
	Quantity model.Quantity
	Text     string
	Hint     float64
	Start    int
	End      int
}

// Stats exposes the library's diagnostic counters.
type Stats struct {
	ParseMisses uint64
}

// Library matches quantity phrasings against text. Safe for concurrent use:
// the descriptor table is immutable after construction and the diagnostic
// counter is atomic.
type Library struct {
	descriptors map[model.Kind][]Descriptor
	parseMisses atomic.Uint64
}

// New returns a Library with the built-in descriptor table.
func New() *Library {
	l := &Library{descriptors: map[model.Kind][]Descriptor{}}
	for _, d := range DefaultDescriptors() {
		d.re = regexp.MustCompile("(?i)" + d.Expr)
		l.descriptors[d.Kind] = append(l.descriptors[d.Kind], d)
	}
	return l
}

// Add compiles and appends a descriptor. Later descriptors have lower claim
// priority than earlier ones of the same kind.
func (l *Library) Add(d Descriptor) error {
	if err := d.compile(); err != nil {
		return err
	}
	l.descriptors[d.Kind] = append(l.descriptors[d.Kind], d)
	return nil
}

// LoadFile appends descriptors from a YAML pattern file.
func (l *Library) LoadFile(path string) error {
	ds, err := LoadDescriptors(path)
	if err != nil {
		return err
	}
	for _, d := range ds {
		l.descriptors[d.Kind] = append(l.descriptors[d.Kind], d)
	}
	return nil
}

// Stats returns the current diagnostic counters.
func (l *Library) Stats() Stats {
	return Stats{ParseMisses: l.parseMisses.Load()}
}

// FindAll returns every quantity of the given kind recognized in text,
// ordered by position. Spans that superficially match but fail validation
// (reversed ranges, unparsable numbers) are dropped and counted, never
// raised. Overlapping matches of the same kind keep only the
// highest-priority descriptor's hit.
func (l *Library) FindAll(text string, kind model.Kind) []Match {
	norm, starts, ends := normalize(text)

	var claimed [][2]int
	var out []Match
	for _, d := range l.descriptors[kind] {
		for _, m := range d.re.FindAllStringSubmatchIndex(norm, -1) {
			s, e := m[0], m[1]
			if overlapsAny(claimed, s, e) {
				continue
			}
			if kind == model.KindTemperature && rateTailRe.MatchString(norm[e:]) {
				l.parseMisses.Add(1)
				continue
			}
			q, ok := parseQuantity(d, norm, m)
			if !ok {
				l.parseMisses.Add(1)
				continue
			}
			claimed = append(claimed, [2]int{s, e})

			hint := bareConfidence
			if hasContext(norm, s, e) {
				hint = d.Confidence
			}
			origStart, origEnd := starts[s], ends[e-1]
			out = append(out, Match{
				Quantity: q,
				Text:     text[origStart:origEnd],
				Hint:     hint,
				Start:    origStart,
				End:      origEnd,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].End < out[j].End
	})
	return out
}

// parseQuantity builds a Quantity from a submatch via the descriptor's named
// captures (lo, optional hi, optional unit).
func parseQuantity(d Descriptor, norm string, m []int) (model.Quantity, bool) {
	group := func(name string) string {
		idx := d.re.SubexpIndex(name)
		if idx < 0 || 2*idx+1 >= len(m) {
			return ""
		}
		lo, hi := m[2*idx], m[2*idx+1]
		if lo < 0 || hi < 0 {
			return ""
		}
		return norm[lo:hi]
	}

	low, err := strconv.ParseFloat(group("lo"), 64)
	if err != nil {
		return model.Quantity{}, false
	}
	high := low
	if g := group("hi"); g != "" {
		high, err = strconv.ParseFloat(g, 64)
		if err != nil {
			return model.Quantity{}, false
		}
	}

	factor := unitFactor(d.Kind, group("unit"))
	low *= factor
	high *= factor

	q := model.Range(d.Kind, low, high)
	if !q.Valid() {
		return model.Quantity{}, false
	}
	return q, true
}

// unitFactor converts the matched unit word to the kind's base unit:
// minutes become seconds, °C/min becomes °C/s.
func unitFactor(kind model.Kind, unit string) float64 {
	minutes := strings.HasPrefix(strings.ToLower(unit), "m")
	switch kind {
	case model.KindTime:
		if minutes {
			return 60
		}
	case model.KindRate:
		if minutes {
			return 1.0 / 60
		}
	}
	return 1
}

func overlapsAny(claimed [][2]int, s, e int) bool {
	for _, c := range claimed {
		if s < c[1] && c[0] < e {
			return true
		}
	}
	return false
}

func hasContext(norm string, s, e int) bool {
	lo := s - keywordRadius
	if lo < 0 {
		lo = 0
	}
	for lo > 0 && !utf8.RuneStart(norm[lo]) {
		lo--
	}
	hi := e + keywordRadius
	if hi > len(norm) {
		hi = len(norm)
	}
	for hi < len(norm) && !utf8.RuneStart(norm[hi]) {
		hi++
	}
	return contextRe.MatchString(norm[lo:hi])
}

// normalize maps dash variants (en dash, em dash, Unicode minus) to "-" and
// exotic spaces to " " so the descriptor table only deals with ASCII
// separators. Returns the normalized text plus per-byte maps back to the
// original: starts[i] is where the rune producing normalized byte i begins,
// ends[i] is where it ends.
func normalize(text string) (string, []int, []int) {
	var b strings.Builder
	b.Grow(len(text))
	starts := make([]int, 0, len(text))
	ends := make([]int, 0, len(text))

	for i, r := range text {
		size := utf8.RuneLen(r)
		mapped := r
		switch {
		case r == '−' || (r >= '‐' && r <= '―'):
			mapped = '-'
		case r == ' ' || (r >= ' ' && r <= ' ') || r == ' ' || r == ' ' || r == '　':
			mapped = ' '
		}
		b.WriteRune(mapped)
		for j := 0; j < utf8.RuneLen(mapped); j++ {
			starts = append(starts, i)
			ends = append(ends, i+size)
		}
	}
	return b.String(), starts, ends
}
