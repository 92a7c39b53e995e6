package model

// FieldStatus is the terminal state of one reconciled field.
type FieldStatus string

const (
	FieldResolved    FieldStatus = "resolved"
	FieldConflicting FieldStatus = "conflicting"
	FieldNotFound    FieldStatus = "not_found"
)

// CandidateGroup is a set of candidates whose quantities agree within
// tolerance, with the combined confidence and the representative (union)
// value the group stands for.
type CandidateGroup struct {
	Representative []Quantity             `json:"representative"`
	Combined       float64                `json:"combined_confidence"`
	Members        []CandidateMeasurement `json:"members"`
}

// SourceCount returns the number of distinct source URLs in the group.
func (g CandidateGroup) SourceCount() int {
	seen := map[string]struct{}{}
	for _, m := range g.Members {
		seen[m.Source.URL] = struct{}{}
	}
	return len(seen)
}

// FieldValue is the reconciled result for one field of one part number.
// Provenance holds every surviving candidate group, best first; for a
// conflicting field the runner-up groups are what a reviewer inspects.
// Never mutated after creation; a re-run replaces the value wholesale.
type FieldValue struct {
	Field      Field            `json:"field"`
	Status     FieldStatus      `json:"status"`
	Quantities []Quantity       `json:"quantities,omitempty"`
	Confidence float64          `json:"confidence,omitempty"`
	Provenance []CandidateGroup `json:"provenance,omitempty"`
}

// Contributing returns the candidates behind the chosen value.
func (fv FieldValue) Contributing() []CandidateMeasurement {
	if len(fv.Provenance) == 0 {
		return nil
	}
	return fv.Provenance[0].Members
}

// QuantityOf returns the reconciled quantity of the given kind, if present.
func (fv FieldValue) QuantityOf(kind Kind) (Quantity, bool) {
	for _, q := range fv.Quantities {
		if q.Kind == kind {
			return q, true
		}
	}
	return Quantity{}, false
}
