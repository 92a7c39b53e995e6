package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuantity_Valid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		q    Quantity
		want bool
	}{
		{"single temperature", Single(KindTemperature, 245), true},
		{"ordered range", Range(KindTime, 60, 120), true},
		{"inverted range", Range(KindTime, 120, 60), false},
		{"unknown kind", Quantity{Kind: "volts", Low: 1, High: 2}, false},
		{"zero-width range", Range(KindRate, 3, 3), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.q.Valid())
		})
	}
}

func TestQuantity_Overlaps(t *testing.T) {
	t.Parallel()

	t.Run("overlapping ranges", func(t *testing.T) {
		t.Parallel()
		a := Range(KindTemperature, 150, 180)
		b := Range(KindTemperature, 170, 200)
		assert.True(t, a.Overlaps(b))
		assert.True(t, b.Overlaps(a))
	})

	t.Run("disjoint ranges", func(t *testing.T) {
		t.Parallel()
		a := Range(KindTemperature, 150, 180)
		b := Range(KindTemperature, 181, 200)
		assert.False(t, a.Overlaps(b))
	})

	t.Run("single inside range", func(t *testing.T) {
		t.Parallel()
		a := Range(KindTemperature, 240, 260)
		assert.True(t, a.Overlaps(Single(KindTemperature, 245)))
	})

	t.Run("kind mismatch never overlaps", func(t *testing.T) {
		t.Parallel()
		a := Range(KindTemperature, 150, 180)
		b := Range(KindTime, 150, 180)
		assert.False(t, a.Overlaps(b))
	})

	t.Run("shared endpoint overlaps", func(t *testing.T) {
		t.Parallel()
		a := Range(KindTime, 60, 90)
		b := Range(KindTime, 90, 120)
		assert.True(t, a.Overlaps(b))
	})
}

func TestQuantity_Union(t *testing.T) {
	t.Parallel()

	a := Range(KindTime, 60, 120)
	b := Range(KindTime, 90, 180)
	u := a.Union(b)
	assert.Equal(t, 60.0, u.Low)
	assert.Equal(t, 180.0, u.High)
	assert.Equal(t, KindTime, u.Kind)

	// Union with a contained single leaves the range unchanged.
	u2 := a.Union(Single(KindTime, 80))
	assert.Equal(t, a, u2)
}

func TestQuantity_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		q    Quantity
		want string
	}{
		{"single temperature", Single(KindTemperature, 245), "245 °C"},
		{"temperature range", Range(KindTemperature, 150, 180), "150–180 °C"},
		{"time range", Range(KindTime, 60, 120), "60–120 s"},
		{"rate", Single(KindRate, 4), "4 °C/s"},
		{"fractional rate", Single(KindRate, 1.5), "1.5 °C/s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.q.String())
		})
	}
}

func TestIsNAPartNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mpn  string
		want bool
	}{
		{"", true},
		{"   ", true},
		{"na", true},
		{"N/A", true},
		{"TBD", true},
		{"unknown", true},
		{"-", true},
		{"GRM188R71H104KA93D", false},
		{" LM358 ", false},
	}
	for _, tt := range tests {
		t.Run("mpn "+tt.mpn, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsNAPartNumber(tt.mpn))
		})
	}
}

func TestProfileRecord_Value(t *testing.T) {
	t.Parallel()

	rec := ProfileRecord{
		PartNumber: "LM358",
		Peak: FieldValue{
			Field:      FieldPeak,
			Status:     FieldResolved,
			Quantities: []Quantity{Single(KindTemperature, 245)},
		},
	}

	assert.Equal(t, FieldResolved, rec.Value(FieldPeak).Status)
	assert.Equal(t, FieldStatus(""), rec.Value(FieldCooling).Status)
	assert.True(t, rec.Resolved())

	empty := ProfileRecord{PartNumber: "X"}
	for _, f := range TargetFields() {
		fv := empty.Value(f)
		assert.NotEqual(t, FieldResolved, fv.Status)
	}
	assert.False(t, empty.Resolved())
}

func TestProfileRecord_Conflicts(t *testing.T) {
	t.Parallel()

	rec := ProfileRecord{
		Peak:    FieldValue{Field: FieldPeak, Status: FieldConflicting},
		Cooling: FieldValue{Field: FieldCooling, Status: FieldResolved},
	}
	assert.Equal(t, []Field{FieldPeak}, rec.Conflicts())
}
