package llmfmt

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ============================================================
// Scalar Formatting
// ============================================================

// formatFloat renders f with the shortest round-trip digits and always keeps
// a fractional marker or exponent, so a float never reads back as an int.
// Magnitudes in [1e-6, 1e21) use positional notation, the rest exponent
// notation. -0 becomes 0.0. Callers handle NaN and infinities.
func formatFloat(f float64) string {
	if f == 0 {
		return "0.0"
	}
	abs := math.Abs(f)
	if abs >= 1e-6 && abs < 1e21 {
		s := strconv.FormatFloat(f, 'f', -1, 64)
		if !strings.ContainsRune(s, '.') {
			s += ".0"
		}
		return s
	}
	return strconv.FormatFloat(f, 'e', -1, 64)
}

// isFinite reports whether f is neither NaN nor an infinity.
func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// ============================================================
// Placeholders
// ============================================================

// Marker texts used when a depth-filter placeholder is rendered.
const (
	elidedKey = "..."
)

// placeholder expands a KindElided value into the marker every encoder
// prints in its place: {"...": "N keys"} for objects, ["... N items"] for
// arrays.
func placeholder(v *Value) *Value {
	if v.elidedKind == KindArray {
		return Array(String(fmt.Sprintf("... %d items", v.elidedLen)))
	}
	return Object(Member{Key: elidedKey, Value: String(fmt.Sprintf("%d keys", v.elidedLen))})
}

// expand returns v with a placeholder replaced by its marker; other values
// are returned unchanged.
func expand(v *Value) *Value {
	if v.Kind() == KindElided {
		return placeholder(v)
	}
	if v == nil {
		return Null()
	}
	return v
}

// ============================================================
// Key Ordering
// ============================================================

// orderedMembers returns the members of obj in output order: insertion
// order, or ascending byte-wise key order when sortKeys is set. The input
// slice is never reordered in place.
func orderedMembers(obj *Value, sortKeys bool) []Member {
	ms := obj.Members()
	if !sortKeys || len(ms) < 2 {
		return ms
	}
	out := make([]Member, len(ms))
	copy(out, ms)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
