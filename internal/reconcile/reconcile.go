// Package reconcile merges candidate measurements collected across
// documents into one authoritative value per profile field. Candidates
// that approximately agree corroborate each other; disagreeing groups of
// comparable confidence are surfaced as conflicts rather than silently
// picked between.
package reconcile

import (
	"math"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/rotisserie/eris"

	"github.com/brynleigh/reflow-cli/internal/model"
)

const (
	defaultTolerance      = 0.05
	defaultConflictMargin = 0.15
)

// Config carries the two heuristic thresholds worth tuning per corpus.
type Config struct {
	// Tolerance is the relative difference under which two single values
	// of the same kind count as the same measurement.
	Tolerance float64 `yaml:"tolerance"`
	// ConflictMargin is the combined-confidence gap below which the top
	// two disagreeing groups are reported as a conflict.
	ConflictMargin float64 `yaml:"conflict_margin"`
}

// DefaultConfig returns the tuned default thresholds.
func DefaultConfig() Config {
	return Config{Tolerance: defaultTolerance, ConflictMargin: defaultConflictMargin}
}

// Stats exposes the diagnostic counters.
type Stats struct {
	OutOfBounds uint64
}

// Engine reconciles per-field candidates. Safe for concurrent use; the
// only mutable state is the out-of-bounds counter.
type Engine struct {
	cfg         Config
	outOfBounds atomic.Uint64
}

// New builds an engine, filling zero thresholds from the defaults.
func New(cfg Config) *Engine {
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = defaultTolerance
	}
	if cfg.ConflictMargin <= 0 {
		cfg.ConflictMargin = defaultConflictMargin
	}
	return &Engine{cfg: cfg}
}

// Stats returns a snapshot of the diagnostic counters.
func (e *Engine) Stats() Stats {
	return Stats{OutOfBounds: e.outOfBounds.Load()}
}

// Reconcile resolves every target field for one part number from the
// candidates gathered across all of its documents. Candidate order is the
// caller's collection order and breaks any remaining ties, so identical
// input yields identical output. An empty part number is the only input
// this rejects.
func (e *Engine) Reconcile(partNumber string, cands []model.CandidateMeasurement) (map[model.Field]model.FieldValue, error) {
	if strings.TrimSpace(partNumber) == "" {
		return nil, eris.New("reconcile: part number is required")
	}

	out := make(map[model.Field]model.FieldValue, len(model.TargetFields()))
	for _, f := range model.TargetFields() {
		var fieldCands []model.CandidateMeasurement
		for _, c := range cands {
			if c.Field != f {
				continue
			}
			if !e.plausible(c) {
				e.outOfBounds.Add(1)
				continue
			}
			fieldCands = append(fieldCands, c)
		}
		out[f] = e.reconcileField(f, fieldCands)
	}
	return out, nil
}

// bound is the physically plausible window for one quantity kind. Kinds
// with exclusiveMin reject the lower bound itself (a zero-second time or
// zero-rate cooling is noise, not a measurement).
type bound struct {
	min, max     float64
	exclusiveMin bool
}

func boundFor(field model.Field, kind model.Kind) bound {
	switch kind {
	case model.KindTemperature:
		if field == model.FieldPeak {
			return bound{min: 150, max: 300}
		}
		return bound{min: 20, max: 300}
	case model.KindTime:
		return bound{min: 0, max: 600, exclusiveMin: true}
	case model.KindRate:
		return bound{min: 0, max: 10, exclusiveMin: true}
	}
	return bound{min: math.Inf(-1), max: math.Inf(1)}
}

// plausible reports whether every quantity of the candidate sits inside
// its sanity bounds. Implausible candidates are discarded whole so they
// can neither join a consensus nor appear in provenance.
func (e *Engine) plausible(c model.CandidateMeasurement) bool {
	for _, q := range c.Quantities {
		b := boundFor(c.Field, q.Kind)
		if q.High > b.max || q.Low < b.min {
			return false
		}
		if b.exclusiveMin && q.Low <= b.min {
			return false
		}
	}
	return true
}

func (e *Engine) reconcileField(f model.Field, cands []model.CandidateMeasurement) model.FieldValue {
	if len(cands) == 0 {
		return model.FieldValue{Field: f, Status: model.FieldNotFound}
	}

	groups := e.group(cands)

	scored := make([]scoredGroup, len(groups))
	for i, g := range groups {
		scored[i] = scoredGroup{
			CandidateGroup: model.CandidateGroup{
				Representative: representative(f, g.members),
				Combined:       combined(g.members),
				Members:        g.members,
			},
			first: g.first,
			avg:   average(g.members),
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.Combined != b.Combined {
			return a.Combined > b.Combined
		}
		if sa, sb := a.SourceCount(), b.SourceCount(); sa != sb {
			return sa > sb
		}
		if a.avg != b.avg {
			return a.avg > b.avg
		}
		return a.first < b.first
	})

	status := model.FieldResolved
	if len(scored) > 1 && scored[0].Combined-scored[1].Combined < e.cfg.ConflictMargin {
		status = model.FieldConflicting
	}

	provenance := []model.CandidateGroup{scored[0].CandidateGroup}
	if status == model.FieldConflicting {
		provenance = make([]model.CandidateGroup, len(scored))
		for i, s := range scored {
			provenance[i] = s.CandidateGroup
		}
	}

	return model.FieldValue{
		Field:      f,
		Status:     status,
		Quantities: scored[0].Representative,
		Confidence: scored[0].Combined,
		Provenance: provenance,
	}
}

type group struct {
	members []model.CandidateMeasurement
	first   int
}

type scoredGroup struct {
	model.CandidateGroup
	first int
	avg   float64
}

// group partitions candidates into agreement groups. A candidate joins
// the first group it agrees with member-by-member, so grouping cannot
// drift beyond the tolerance through chained near-matches.
func (e *Engine) group(cands []model.CandidateMeasurement) []group {
	var groups []group
	for i, c := range cands {
		placed := false
		for gi := range groups {
			if e.agreesWithAll(groups[gi].members, c) {
				groups[gi].members = append(groups[gi].members, c)
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, group{members: []model.CandidateMeasurement{c}, first: i})
		}
	}
	return groups
}

func (e *Engine) agreesWithAll(members []model.CandidateMeasurement, c model.CandidateMeasurement) bool {
	for _, m := range members {
		if !e.agrees(m, c) {
			return false
		}
	}
	return true
}

// agrees reports whether two candidates measure the same thing: every
// kind they share must match, and they must share at least one kind.
func (e *Engine) agrees(a, b model.CandidateMeasurement) bool {
	shared := false
	for _, qa := range a.Quantities {
		qb, ok := b.QuantityOf(qa.Kind)
		if !ok {
			continue
		}
		shared = true
		if !e.quantitiesAgree(qa, qb) {
			return false
		}
	}
	return shared
}

// quantitiesAgree applies the equivalence rule: two singles within the
// relative tolerance, otherwise overlapping intervals (which also covers
// a single lying inside the other's range).
func (e *Engine) quantitiesAgree(a, b model.Quantity) bool {
	if a.IsSingle() && b.IsSingle() {
		scale := math.Max(math.Abs(a.Low), math.Abs(b.Low))
		return math.Abs(a.Low-b.Low) <= e.cfg.Tolerance*scale
	}
	return a.Overlaps(b)
}

// combined folds member confidences into the group confidence: each
// corroborating member shrinks the remaining doubt.
func combined(members []model.CandidateMeasurement) float64 {
	doubt := 1.0
	for _, m := range members {
		doubt *= 1 - m.Confidence
	}
	return 1 - doubt
}

func average(members []model.CandidateMeasurement) float64 {
	var sum float64
	for _, m := range members {
		sum += m.Confidence
	}
	return sum / float64(len(members))
}

// representative builds the group's reported quantity set: the kind set
// follows the highest-confidence member, and each kind's value is the
// widest hull over every member carrying that kind.
func representative(f model.Field, members []model.CandidateMeasurement) []model.Quantity {
	top := members[0]
	for _, m := range members[1:] {
		if m.Confidence > top.Confidence {
			top = m
		}
	}

	var out []model.Quantity
	for _, kind := range model.FieldKinds(f) {
		if _, ok := top.QuantityOf(kind); !ok {
			continue
		}
		var hull model.Quantity
		have := false
		for _, m := range members {
			q, ok := m.QuantityOf(kind)
			if !ok {
				continue
			}
			if !have {
				hull, have = q, true
			} else {
				hull = hull.Union(q)
			}
		}
		out = append(out, hull)
	}
	return out
}
