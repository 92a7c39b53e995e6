package model

import "strings"

// naPartNumbers are placeholder values BOMs commonly carry in the MPN column.
var naPartNumbers = map[string]struct{}{
	"na":      {},
	"n/a":     {},
	"tbd":     {},
	"unknown": {},
	"-":       {},
}

// NormalizeMPN trims surrounding whitespace from a part number. Matching and
// cache keys use the normalized form.
func NormalizeMPN(mpn string) string {
	return strings.TrimSpace(mpn)
}

// IsNAPartNumber reports whether a part number is empty or a known
// placeholder; such parts are never searched.
func IsNAPartNumber(mpn string) bool {
	v := NormalizeMPN(mpn)
	if v == "" {
		return true
	}
	_, ok := naPartNumbers[strings.ToLower(v)]
	return ok
}
