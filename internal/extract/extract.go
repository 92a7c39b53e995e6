// Package extract scans datasheet text for reflow profile fields. The
// engine locates anchor phrases per field, opens a bounded window around
// each anchor, and asks the unit pattern library for the quantity kinds
// that field needs. Overlapping anchors for the same field collapse into
// one candidate so repeated phrasings corroborate instead of duplicating.
package extract

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"

	"github.com/brynleigh/reflow-cli/internal/model"
	"github.com/brynleigh/reflow-cli/internal/unitpattern"
)

const (
	defaultWindowBefore = 16
	defaultWindowAfter  = 160

	// Doubt multipliers. Corroborating signal shrinks the remaining doubt
	// multiplicatively, which keeps confidence inside [0, 1).
	extraKindFactor = 0.75
	phrasingFactor  = 0.7

	// missingPenalty scales confidence down for each expected quantity the
	// window failed to yield.
	missingPenalty = 0.6
)

// Config tunes window geometry and anchor phrasing.
type Config struct {
	// WindowBefore and WindowAfter bound, in bytes, how far a field's
	// quantities may sit from their anchor. Windows additionally stop at
	// clause delimiters so tightly packed profile lines do not bleed one
	// field's values into a neighbor's window.
	WindowBefore int `yaml:"window_before"`
	WindowAfter  int `yaml:"window_after"`

	// Anchors maps a field name to replacement anchor phrases, overriding
	// the built-in list for that field only.
	Anchors map[string][]string `yaml:"anchors"`
}

// DefaultConfig returns the built-in window geometry.
func DefaultConfig() Config {
	return Config{WindowBefore: defaultWindowBefore, WindowAfter: defaultWindowAfter}
}

// Engine turns one document's text into candidate measurements. It is
// stateless after construction and safe for concurrent use.
type Engine struct {
	lib   *unitpattern.Library
	cfg   Config
	specs []fieldSpec
	res   map[model.Field]*regexp.Regexp
}

// New builds an engine over the given unit pattern library.
func New(lib *unitpattern.Library, cfg Config) (*Engine, error) {
	if lib == nil {
		return nil, eris.New("extract: nil unit pattern library")
	}
	if cfg.WindowBefore <= 0 {
		cfg.WindowBefore = defaultWindowBefore
	}
	if cfg.WindowAfter <= 0 {
		cfg.WindowAfter = defaultWindowAfter
	}

	specs := defaultFieldSpecs()
	for name, phrases := range cfg.Anchors {
		idx := -1
		for i := range specs {
			if specs[i].field == model.Field(name) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, eris.Errorf("extract: unknown field %q in anchor overrides", name)
		}
		if len(phrases) == 0 {
			return nil, eris.Errorf("extract: field %s needs at least one anchor phrase", name)
		}
		specs[idx].anchors = phrases
	}

	res := make(map[model.Field]*regexp.Regexp, len(specs))
	for _, spec := range specs {
		re, err := anchorPattern(spec.anchors)
		if err != nil {
			return nil, eris.Wrapf(err, "extract: field %s", spec.field)
		}
		res[spec.field] = re
	}
	return &Engine{lib: lib, cfg: cfg, specs: specs, res: res}, nil
}

// occurrence is one anchor hit with its clamped search window.
type occurrence struct {
	field      model.Field
	start, end int
	winStart   int
	winEnd     int
}

// cluster is a run of same-field occurrences with overlapping windows.
type cluster struct {
	winStart, winEnd int
	anchors          []occurrence
	phrasings        map[string]struct{}
}

// Extract returns every candidate measurement found in the document text.
// A document with no recognizable anchors yields nil, which is a normal
// outcome rather than an error.
func (e *Engine) Extract(text, sourceURL string) []model.CandidateMeasurement {
	byField := e.anchorOccurrences(text)

	var out []model.CandidateMeasurement
	for _, spec := range e.specs {
		for _, cl := range clusterOccurrences(byField[spec.field], text) {
			if cand, ok := e.candidate(text, sourceURL, spec, cl); ok {
				out = append(out, cand)
			}
		}
	}
	return out
}

// anchorOccurrences finds every anchor hit and drops hits fully contained
// in a longer hit of another field, so the "soak" inside "ramp-to-soak"
// does not spawn a soak candidate.
func (e *Engine) anchorOccurrences(text string) map[model.Field][]occurrence {
	var all []occurrence
	for _, spec := range e.specs {
		for _, m := range e.res[spec.field].FindAllStringIndex(text, -1) {
			ws, we := e.window(text, m[0], m[1])
			all = append(all, occurrence{field: spec.field, start: m[0], end: m[1], winStart: ws, winEnd: we})
		}
	}

	byField := make(map[model.Field][]occurrence)
	for _, o := range all {
		contained := false
		for _, p := range all {
			if p.field != o.field && p.start <= o.start && o.end <= p.end && p.end-p.start > o.end-o.start {
				contained = true
				break
			}
		}
		if !contained {
			byField[o.field] = append(byField[o.field], o)
		}
	}
	return byField
}

// window clamps the anchor's search radius to clause boundaries: the last
// ";" or newline before the anchor and the first ";" after it.
func (e *Engine) window(text string, start, end int) (int, int) {
	ws := start - e.cfg.WindowBefore
	if ws < 0 {
		ws = 0
	}
	if i := strings.LastIndexAny(text[ws:start], ";\n"); i >= 0 {
		ws += i + 1
	}
	we := end + e.cfg.WindowAfter
	if we > len(text) {
		we = len(text)
	}
	if i := strings.IndexByte(text[end:we], ';'); i >= 0 {
		we = end + i
	}
	for ws > 0 && !utf8.RuneStart(text[ws]) {
		ws--
	}
	for we < len(text) && !utf8.RuneStart(text[we]) {
		we++
	}
	return ws, we
}

func clusterOccurrences(occs []occurrence, text string) []cluster {
	if len(occs) == 0 {
		return nil
	}
	sort.Slice(occs, func(i, j int) bool { return occs[i].start < occs[j].start })

	var out []cluster
	for _, o := range occs {
		if n := len(out); n > 0 && o.winStart <= out[n-1].winEnd {
			cl := &out[n-1]
			if o.winEnd > cl.winEnd {
				cl.winEnd = o.winEnd
			}
			cl.anchors = append(cl.anchors, o)
			cl.phrasings[phraseKey(text[o.start:o.end])] = struct{}{}
			continue
		}
		out = append(out, cluster{
			winStart:  o.winStart,
			winEnd:    o.winEnd,
			anchors:   []occurrence{o},
			phrasings: map[string]struct{}{phraseKey(text[o.start:o.end]): {}},
		})
	}
	return out
}

// phraseKey normalizes an anchor's matched text so "Ramp-to-Soak" and
// "ramp to soak" count as the same phrasing for corroboration.
func phraseKey(s string) string {
	return anchorSepRe.ReplaceAllString(strings.ToLower(s), " ")
}

// candidate runs the unit pattern library over one cluster window and
// shapes the result into a measurement. ok is false when the field's
// mandatory quantity is absent from the window.
func (e *Engine) candidate(text, sourceURL string, spec fieldSpec, cl cluster) (model.CandidateMeasurement, bool) {
	window := text[cl.winStart:cl.winEnd]

	var quantities []model.Quantity
	var missing []model.Kind
	var matched []string
	conf := 0.0
	for _, want := range spec.wants {
		best, ok := pick(e.lib.FindAll(window, want.kind))
		if !ok {
			switch want.role {
			case roleMandatory:
				return model.CandidateMeasurement{}, false
			case roleExpected:
				missing = append(missing, want.kind)
			}
			continue
		}
		quantities = append(quantities, best.Quantity)
		matched = append(matched, best.Text)
		if want.role == roleMandatory {
			conf = best.Hint
		} else {
			conf = 1 - (1-conf)*extraKindFactor
		}
	}

	conf *= math.Pow(missingPenalty, float64(len(missing)))
	conf = 1 - (1-conf)*math.Pow(phrasingFactor, float64(len(cl.phrasings)-1))

	return model.CandidateMeasurement{
		Field:      spec.field,
		Quantities: quantities,
		Source: model.SourceRef{
			URL:     sourceURL,
			Locator: fmt.Sprintf("line %d", 1+strings.Count(text[:cl.anchors[0].start], "\n")),
		},
		Matched:    strings.Join(matched, "; "),
		Confidence: conf,
		Missing:    missing,
	}, true
}

// pick prefers the highest hint and breaks ties by earliest position.
func pick(ms []unitpattern.Match) (unitpattern.Match, bool) {
	if len(ms) == 0 {
		return unitpattern.Match{}, false
	}
	best := ms[0]
	for _, m := range ms[1:] {
		if m.Hint > best.Hint {
			best = m
		}
	}
	return best, true
}
