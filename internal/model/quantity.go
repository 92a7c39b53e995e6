package model

import (
	"fmt"
	"strconv"
)

// Kind identifies the physical unit of a Quantity.
type Kind string

const (
	KindTemperature Kind = "temperature_c"
	KindTime        Kind = "time_s"
	KindRate        Kind = "rate_c_per_s"
)

// Kinds returns all unit kinds in stable order.
func Kinds() []Kind {
	return []Kind{KindTemperature, KindTime, KindRate}
}

// Unit returns the display unit for a kind.
func (k Kind) Unit() string {
	switch k {
	case KindTemperature:
		return "°C"
	case KindTime:
		return "s"
	case KindRate:
		return "°C/s"
	default:
		return ""
	}
}

// Quantity is a physical value: either a single value (Low == High) or an
// inclusive [Low, High] range. Values are always normalized to the kind's
// base unit (°C, seconds, °C/s).
type Quantity struct {
	Kind Kind    `json:"kind"`
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// Single builds a single-valued Quantity.
func Single(kind Kind, v float64) Quantity {
	return Quantity{Kind: kind, Low: v, High: v}
}

// Range builds a range Quantity. Callers must ensure lo <= hi; Valid reports
// violations so parse-time misses can be dropped instead of raised.
func Range(kind Kind, lo, hi float64) Quantity {
	return Quantity{Kind: kind, Low: lo, High: hi}
}

// Valid reports whether the quantity has a known kind and Low <= High.
func (q Quantity) Valid() bool {
	switch q.Kind {
	case KindTemperature, KindTime, KindRate:
	default:
		return false
	}
	return q.Low <= q.High
}

// IsSingle reports whether the quantity is a single value rather than a range.
func (q Quantity) IsSingle() bool {
	return q.Low == q.High
}

// Contains reports whether v lies within the inclusive interval.
func (q Quantity) Contains(v float64) bool {
	return v >= q.Low && v <= q.High
}

// Overlaps reports whether two intervals of the same kind intersect.
func (q Quantity) Overlaps(o Quantity) bool {
	if q.Kind != o.Kind {
		return false
	}
	return q.Low <= o.High && o.Low <= q.High
}

// Union returns the widest interval covering both quantities. Kind follows
// the receiver.
func (q Quantity) Union(o Quantity) Quantity {
	u := q
	if o.Low < u.Low {
		u.Low = o.Low
	}
	if o.High > u.High {
		u.High = o.High
	}
	return u
}

// String renders the quantity for display, e.g. "150–180 °C" or "245 °C".
func (q Quantity) String() string {
	if q.IsSingle() {
		return fmt.Sprintf("%s %s", formatNum(q.Low), q.Kind.Unit())
	}
	return fmt.Sprintf("%s–%s %s", formatNum(q.Low), formatNum(q.High), q.Kind.Unit())
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
