package model

// Field identifies one target reflow-profile parameter.
type Field string

const (
	FieldPreheat Field = "preheat"
	FieldSoak    Field = "soak"
	FieldReflow  Field = "reflow"
	FieldPeak    Field = "peak"
	FieldCooling Field = "cooling"
)

// TargetFields returns the five profile fields in stable output order.
func TargetFields() []Field {
	return []Field{FieldPreheat, FieldSoak, FieldReflow, FieldPeak, FieldCooling}
}

// FieldKinds returns the quantity kinds a field reports, primary kind first.
func FieldKinds(f Field) []Kind {
	switch f {
	case FieldPreheat, FieldSoak:
		return []Kind{KindTemperature, KindTime}
	case FieldReflow:
		return []Kind{KindTime, KindTemperature}
	case FieldPeak:
		return []Kind{KindTemperature}
	case FieldCooling:
		return []Kind{KindRate}
	}
	return nil
}

// SourceRef identifies where a candidate was matched: the document URL plus
// an optional locator (page or character offset) for auditing.
type SourceRef struct {
	URL     string `json:"url"`
	Locator string `json:"locator,omitempty"`
}

// CandidateMeasurement is one extraction hit for one field. Immutable once
// created: reconciliation reads candidates, it never rewrites them.
type CandidateMeasurement struct {
	Field      Field      `json:"field"`
	Quantities []Quantity `json:"quantities"`
	Source     SourceRef  `json:"source"`
	Matched    string     `json:"matched"`
	Confidence float64    `json:"confidence"`
	// Missing names the sub-quantity kinds the field wants but the match
	// lacked (e.g. preheat time when only the temperature was found).
	Missing []Kind `json:"missing,omitempty"`
}

// QuantityOf returns the candidate's quantity of the given kind, if present.
func (c CandidateMeasurement) QuantityOf(kind Kind) (Quantity, bool) {
	for _, q := range c.Quantities {
		if q.Kind == kind {
			return q, true
		}
	}
	return Quantity{}, false
}
