package model

// ProfileRecord is the final row for one part number. Terminal once
// assembled; read-only output.
type ProfileRecord struct {
	PartNumber string     `json:"part_number"`
	Preheat    FieldValue `json:"preheat"`
	Soak       FieldValue `json:"soak"`
	Reflow     FieldValue `json:"reflow"`
	Peak       FieldValue `json:"peak"`
	Cooling    FieldValue `json:"cooling"`
	// SourceURLs is the sorted set of distinct URLs that contributed.
	SourceURLs []string `json:"source_urls"`
}

// Value returns the record's FieldValue for a target field.
func (p ProfileRecord) Value(f Field) FieldValue {
	switch f {
	case FieldPreheat:
		return p.Preheat
	case FieldSoak:
		return p.Soak
	case FieldReflow:
		return p.Reflow
	case FieldPeak:
		return p.Peak
	case FieldCooling:
		return p.Cooling
	default:
		return FieldValue{Field: f, Status: FieldNotFound}
	}
}

// Resolved reports whether any field carries a value.
func (p ProfileRecord) Resolved() bool {
	for _, f := range TargetFields() {
		switch p.Value(f).Status {
		case FieldResolved, FieldConflicting:
			return true
		}
	}
	return false
}

// Conflicts returns the fields left in conflicting status.
func (p ProfileRecord) Conflicts() []Field {
	var out []Field
	for _, f := range TargetFields() {
		if p.Value(f).Status == FieldConflicting {
			out = append(out, f)
		}
	}
	return out
}
