package unitpattern

import (
	"os"
	"regexp"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/brynleigh/reflow-cli/internal/model"
)

// Descriptor is one declarative phrasing rule. Expr is compiled
// case-insensitively against dash/space-normalized text and names its
// captures: (?P<lo>...) for the value (required), (?P<hi>...) for a range
// upper bound, (?P<unit>...) for a unit word needing normalization
// (min → s, °C/min → °C/s).
type Descriptor struct {
	Name       string     `yaml:"name"`
	Kind       model.Kind `yaml:"kind"`
	Expr       string     `yaml:"expr"`
	Confidence float64    `yaml:"confidence"`

	re *regexp.Regexp
}

func (d *Descriptor) compile() error {
	if d.Name == "" || d.Expr == "" {
		return eris.New("unitpattern: descriptor needs name and expr")
	}
	switch d.Kind {
	case model.KindTemperature, model.KindTime, model.KindRate:
	default:
		return eris.Errorf("unitpattern: descriptor %s: unknown kind %q", d.Name, d.Kind)
	}
	if d.Confidence <= 0 || d.Confidence > 1 {
		return eris.Errorf("unitpattern: descriptor %s: confidence must be in (0, 1]", d.Name)
	}
	re, err := regexp.Compile("(?i)" + d.Expr)
	if err != nil {
		return eris.Wrapf(err, "unitpattern: compile %s", d.Name)
	}
	if re.SubexpIndex("lo") < 0 {
		return eris.Errorf("unitpattern: descriptor %s: expr must define a (?P<lo>...) group", d.Name)
	}
	d.re = re
	return nil
}

// Building blocks for the default descriptor table.
const (
	loExpr       = `(?P<lo>\d+(?:\.\d+)?)`
	hiExpr       = `(?P<hi>\d+(?:\.\d+)?)`
	sepExpr      = `\s*(?:-|to)\s*`
	tempUnitExpr = `°?\s*C\b`
	timeUnitExpr = `(?P<unit>s|secs?|seconds?|mins?|minutes?)\b`
	rateUnitExpr = `°?\s*C\s*/\s*(?P<unit>s|secs?|seconds?|mins?|minutes?)\b`
)

// DefaultDescriptors returns the built-in phrasing table. Order within a kind
// is priority order: earlier descriptors claim overlapping spans first.
func DefaultDescriptors() []Descriptor {
	return []Descriptor{
		{
			Name:       "temp-range",
			Kind:       model.KindTemperature,
			Expr:       loExpr + sepExpr + hiExpr + `\s*` + tempUnitExpr,
			Confidence: 0.70,
		},
		{
			Name:       "temp-single",
			Kind:       model.KindTemperature,
			Expr:       loExpr + `\s*` + tempUnitExpr,
			Confidence: 0.55,
		},
		{
			Name:       "time-range",
			Kind:       model.KindTime,
			Expr:       loExpr + sepExpr + hiExpr + `\s*` + timeUnitExpr,
			Confidence: 0.70,
		},
		{
			Name:       "time-single",
			Kind:       model.KindTime,
			Expr:       loExpr + `\s*` + timeUnitExpr,
			Confidence: 0.55,
		},
		{
			Name:       "rate-limit",
			Kind:       model.KindRate,
			Expr:       `(?:≤|<=|<|max(?:imum)?\.?|up\s+to)\s*` + loExpr + `\s*` + rateUnitExpr,
			Confidence: 0.75,
		},
		{
			Name:       "rate-limit-suffix",
			Kind:       model.KindRate,
			Expr:       loExpr + `\s*` + rateUnitExpr + `\s*max(?:imum)?\.?`,
			Confidence: 0.75,
		},
		{
			Name:       "rate-range",
			Kind:       model.KindRate,
			Expr:       loExpr + sepExpr + hiExpr + `\s*` + rateUnitExpr,
			Confidence: 0.70,
		},
		{
			Name:       "rate-single",
			Kind:       model.KindRate,
			Expr:       loExpr + `\s*` + rateUnitExpr,
			Confidence: 0.60,
		},
	}
}

// LoadDescriptors reads extra descriptors from a YAML pattern file. The file
// shares its top-level layout with the anchor tables:
//
//	quantities:
//	  - name: temp-range-paren
//	    kind: temperature_c
//	    expr: '...'
//	    confidence: 0.7
func LoadDescriptors(path string) ([]Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "unitpattern: read pattern file %s", path)
	}

	var wrapper struct {
		Quantities []Descriptor `yaml:"quantities"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrapf(err, "unitpattern: parse pattern file %s", path)
	}

	for i := range wrapper.Quantities {
		if err := wrapper.Quantities[i].compile(); err != nil {
			return nil, err
		}
	}
	return wrapper.Quantities, nil
}
