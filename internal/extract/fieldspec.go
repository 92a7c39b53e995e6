package extract

import (
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/brynleigh/reflow-cli/internal/model"
)

// quantityRole states how a field treats one of its quantity kinds.
type quantityRole int

const (
	// roleMandatory kinds gate candidate emission: no match, no candidate.
	roleMandatory quantityRole = iota
	// roleExpected kinds are flagged as missing and penalize confidence
	// when absent.
	roleExpected
	// roleOptional kinds enrich the candidate when present and cost
	// nothing when absent.
	roleOptional
)

type quantitySpec struct {
	kind model.Kind
	role quantityRole
}

// fieldSpec binds one target field to its anchor phrases and the quantity
// kinds worth looking for near them. The mandatory kind comes first in
// wants so emission can bail early.
type fieldSpec struct {
	field   model.Field
	anchors []string
	wants   []quantitySpec
}

func defaultFieldSpecs() []fieldSpec {
	return []fieldSpec{
		{
			field:   model.FieldPreheat,
			anchors: []string{"preheat", "pre-heat", "ramp-to-soak"},
			wants: []quantitySpec{
				{kind: model.KindTemperature, role: roleMandatory},
				{kind: model.KindTime, role: roleExpected},
			},
		},
		{
			field:   model.FieldSoak,
			anchors: []string{"soak", "soaking"},
			wants: []quantitySpec{
				{kind: model.KindTemperature, role: roleMandatory},
				{kind: model.KindTime, role: roleExpected},
			},
		},
		{
			field:   model.FieldReflow,
			anchors: []string{"reflow", "time above liquidus", "TAL"},
			wants: []quantitySpec{
				{kind: model.KindTime, role: roleMandatory},
				{kind: model.KindTemperature, role: roleOptional},
			},
		},
		{
			field:   model.FieldPeak,
			anchors: []string{"peak temperature", "peak temp", "peak"},
			wants: []quantitySpec{
				{kind: model.KindTemperature, role: roleMandatory},
			},
		},
		{
			field:   model.FieldCooling,
			anchors: []string{"cooling rate", "cooling", "cool-down"},
			wants: []quantitySpec{
				{kind: model.KindRate, role: roleMandatory},
			},
		},
	}
}

// anchorSepRe matches the separators inside multi-word anchors so
// "ramp-to-soak" also matches "ramp to soak" in document text.
var anchorSepRe = regexp.MustCompile(`[\s-]+`)

// anchorPattern compiles the given phrases into one case-insensitive
// word-bounded alternation, longest phrase first so "peak temperature"
// beats "peak" at the same position.
func anchorPattern(phrases []string) (*regexp.Regexp, error) {
	parts := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, eris.New("extract: empty anchor phrase")
		}
		parts = append(parts, anchorSepRe.ReplaceAllString(regexp.QuoteMeta(p), `[\s-]+`))
	}
	sort.Slice(parts, func(i, j int) bool { return len(parts[i]) > len(parts[j]) })

	re, err := regexp.Compile(`(?i)\b(?:` + strings.Join(parts, "|") + `)\b`)
	if err != nil {
		return nil, eris.Wrap(err, "extract: compile anchor pattern")
	}
	return re, nil
}

type patternFile struct {
	Anchors map[string][]string `yaml:"anchors"`
}

// LoadAnchors reads per-field anchor phrase overrides from the shared
// pattern YAML file. Its quantities section belongs to the unit pattern
// library and is ignored here.
func LoadAnchors(path string) (map[string][]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "extract: read pattern file %s", path)
	}
	var pf patternFile
	if err := yaml.Unmarshal(raw, &pf); err != nil {
		return nil, eris.Wrapf(err, "extract: parse pattern file %s", path)
	}
	return pf.Anchors, nil
}
