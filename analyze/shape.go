package analyze

import (
	"fmt"
	"sort"

	"github.com/Neumenon/llmfmt/llmfmt"
)

// DefaultSampleSize is how many array elements shape detection inspects.
const DefaultSampleSize = 100

// primitiveThreshold is the share of scalar values above which data
// counts as mostly primitive.
const primitiveThreshold = 0.7

// Shape summarizes the structure of a value.
type Shape struct {
	IsArray          bool     `json:"is_array"`
	IsUniformArray   bool     `json:"is_uniform_array"`
	ArrayLength      int      `json:"array_length"`
	FieldCount       int      `json:"field_count"`
	MaxDepth         int      `json:"max_depth"`
	MostlyPrimitives bool     `json:"is_mostly_primitives"`
	Description      string   `json:"description"`
	SampleKeys       []string `json:"sample_keys"`
}

// DetectShape inspects v. Arrays are sampled to their first sampleSize
// elements; sampleSize <= 0 means DefaultSampleSize.
//
// MaxDepth counts container levels: a flat object is 1, an array of flat
// objects is 2, a scalar is 0.
func DetectShape(v *llmfmt.Value, sampleSize int) Shape {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	s := Shape{SampleKeys: []string{}}

	switch v.Kind() {
	case llmfmt.KindArray:
		items := v.Items()
		sample := items
		if len(sample) > sampleSize {
			sample = sample[:sampleSize]
		}
		s.IsArray = true
		s.ArrayLength = len(items)

		if len(sample) > 0 && allObjects(sample) {
			first := keySet(sample[0])
			s.IsUniformArray = true
			for _, it := range sample[1:] {
				if !sameKeys(first, it) {
					s.IsUniformArray = false
					break
				}
			}
			s.FieldCount = len(first)
			s.SampleKeys = sortedKeys(sample[0], 10)
		}

		s.Description = describeArray(items, s)
		s.MaxDepth = 1
		for _, it := range sample {
			if d := levels(it) + 1; d > s.MaxDepth {
				s.MaxDepth = d
			}
		}
		s.MostlyPrimitives = sampleMostlyPrimitives(sample)

	case llmfmt.KindObject:
		s.FieldCount = v.Len()
		s.SampleKeys = sortedKeys(v, 10)
		s.Description = describeObject(v)
		s.MaxDepth = levels(v)
		prim, nested := countValues(v)
		s.MostlyPrimitives = mostly(prim, nested)

	default:
		s.Description = fmt.Sprintf("Primitive value (%s)", v.Kind())
		s.MostlyPrimitives = true
	}
	return s
}

// levels counts non-empty container levels along the deepest path.
func levels(v *llmfmt.Value) int {
	d := 0
	visit := func(c *llmfmt.Value) {
		if cd := levels(c); cd > d {
			d = cd
		}
	}
	switch v.Kind() {
	case llmfmt.KindArray:
		if v.Len() == 0 {
			return 0
		}
		for _, it := range v.Items() {
			visit(it)
		}
	case llmfmt.KindObject:
		if v.Len() == 0 {
			return 0
		}
		for _, m := range v.Members() {
			visit(m.Value)
		}
	default:
		return 0
	}
	return d + 1
}

func describeArray(items []*llmfmt.Value, s Shape) string {
	switch {
	case len(items) == 0:
		return "Empty array"
	case s.IsUniformArray:
		return fmt.Sprintf("Uniform array of %d objects with %d fields", s.ArrayLength, s.FieldCount)
	case allObjects(items):
		return fmt.Sprintf("Array of %d objects with varying schemas", s.ArrayLength)
	case allScalars(items):
		return fmt.Sprintf("Array of %d primitives", s.ArrayLength)
	}
	return fmt.Sprintf("Mixed array of %d items", s.ArrayLength)
}

func describeObject(v *llmfmt.Value) string {
	if v.Len() == 0 {
		return "Empty object"
	}
	for _, m := range v.Members() {
		if !m.Value.IsScalar() {
			return fmt.Sprintf("Nested object with %d top-level fields", v.Len())
		}
	}
	return fmt.Sprintf("Flat object with %d fields", v.Len())
}

// countValues counts scalar and container values under v, recursively.
func countValues(v *llmfmt.Value) (prim, nested int) {
	var walk func(*llmfmt.Value)
	walk = func(c *llmfmt.Value) {
		var children []*llmfmt.Value
		switch c.Kind() {
		case llmfmt.KindArray:
			children = c.Items()
		case llmfmt.KindObject:
			for _, m := range c.Members() {
				children = append(children, m.Value)
			}
		default:
			if c.IsScalar() {
				prim++
			}
			return
		}
		for _, ch := range children {
			if ch.IsScalar() {
				prim++
				continue
			}
			nested++
			walk(ch)
		}
	}
	walk(v)
	return prim, nested
}

// sampleMostlyPrimitives looks one level into each sampled element.
func sampleMostlyPrimitives(sample []*llmfmt.Value) bool {
	if len(sample) == 0 || allScalars(sample) {
		return true
	}
	prim, nested := 0, 0
	for _, it := range sample {
		switch it.Kind() {
		case llmfmt.KindObject:
			for _, m := range it.Members() {
				if m.Value.IsScalar() {
					prim++
				} else {
					nested++
				}
			}
		case llmfmt.KindArray, llmfmt.KindElided:
			nested++
		default:
			prim++
		}
	}
	return mostly(prim, nested)
}

func mostly(prim, nested int) bool {
	total := prim + nested
	return total == 0 || float64(prim)/float64(total) >= primitiveThreshold
}

func allScalars(items []*llmfmt.Value) bool {
	for _, it := range items {
		if !it.IsScalar() {
			return false
		}
	}
	return true
}

func allObjects(items []*llmfmt.Value) bool {
	for _, it := range items {
		if it.Kind() != llmfmt.KindObject {
			return false
		}
	}
	return true
}

func keySet(v *llmfmt.Value) map[string]bool {
	set := make(map[string]bool, v.Len())
	for _, k := range v.Keys() {
		set[k] = true
	}
	return set
}

func sameKeys(set map[string]bool, v *llmfmt.Value) bool {
	if v.Len() != len(set) {
		return false
	}
	for _, k := range v.Keys() {
		if !set[k] {
			return false
		}
	}
	return true
}

func sortedKeys(v *llmfmt.Value, limit int) []string {
	keys := v.Keys()
	sort.Strings(keys)
	if len(keys) > limit {
		keys = keys[:limit]
	}
	return keys
}
