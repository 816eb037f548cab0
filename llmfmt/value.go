package llmfmt

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindObject
	KindElided // placeholder left by the depth filter
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindElided:
		return "elided"
	default:
		return "unknown"
	}
}

// Value is a node of the format-agnostic data tree every parser produces and
// every encoder consumes. Values are immutable once constructed; filters
// build new trees and may share untouched subtrees with their input.
type Value struct {
	kind Kind

	// Scalar values (only one valid based on kind)
	boolVal  bool
	intVal   int64
	floatVal float64
	strVal   string

	// Container values
	items   []*Value
	members []Member

	// Placeholder: what was cut and how many children it had
	elidedKind Kind
	elidedLen  int
}

// Member is one key/value pair of an object.
type Member struct {
	Key   string
	Value *Value
}

// ============================================================
// Constructors
// ============================================================

// Null creates a null value.
func Null() *Value {
	return &Value{kind: KindNull}
}

// Bool creates a boolean value.
func Bool(b bool) *Value {
	return &Value{kind: KindBool, boolVal: b}
}

// Int creates an integral number.
func Int(i int64) *Value {
	return &Value{kind: KindInt, intVal: i}
}

// Float creates a fractional number. Float(1) and Int(1) are distinct values.
func Float(f float64) *Value {
	return &Value{kind: KindFloat, floatVal: f}
}

// String creates a string value.
func String(s string) *Value {
	return &Value{kind: KindString, strVal: s}
}

// Array creates an array holding items in order. Nil items become Null.
func Array(items ...*Value) *Value {
	out := make([]*Value, len(items))
	for i, it := range items {
		if it == nil {
			it = Null()
		}
		out[i] = it
	}
	return &Value{kind: KindArray, items: out}
}

// Object creates an object from members, resolving duplicate keys the same
// way ObjectBuilder does.
func Object(members ...Member) *Value {
	b := NewObjectBuilder(len(members))
	for _, m := range members {
		b.Set(m.Key, m.Value)
	}
	return b.Build()
}

// Elided creates the placeholder for a container of the given kind that was
// cut away along with its count children. Kinds other than KindArray are
// treated as KindObject.
func Elided(kind Kind, count int) *Value {
	if kind != KindArray {
		kind = KindObject
	}
	if count < 0 {
		count = 0
	}
	return &Value{kind: KindElided, elidedKind: kind, elidedLen: count}
}

// ObjectBuilder accumulates object members in insertion order.
//
// Duplicate keys: the last value written wins, and the member keeps the
// position where the key first appeared. All parsers build objects through
// this type so the policy is the same for every input format.
type ObjectBuilder struct {
	members []Member
	index   map[string]int
}

// NewObjectBuilder returns a builder sized for n members.
func NewObjectBuilder(n int) *ObjectBuilder {
	return &ObjectBuilder{
		members: make([]Member, 0, n),
		index:   make(map[string]int, n),
	}
}

// Set adds or replaces the member named key.
func (b *ObjectBuilder) Set(key string, v *Value) *ObjectBuilder {
	if v == nil {
		v = Null()
	}
	if i, ok := b.index[key]; ok {
		b.members[i].Value = v
		return b
	}
	b.index[key] = len(b.members)
	b.members = append(b.members, Member{Key: key, Value: v})
	return b
}

// Has reports whether key has been set.
func (b *ObjectBuilder) Has(key string) bool {
	_, ok := b.index[key]
	return ok
}

// Len returns the number of distinct keys set so far.
func (b *ObjectBuilder) Len() int {
	return len(b.members)
}

// Build returns the object. The builder must not be used afterwards.
func (b *ObjectBuilder) Build() *Value {
	v := &Value{kind: KindObject, members: b.members}
	b.members = nil
	b.index = nil
	return v
}

// ============================================================
// Accessors
// ============================================================

// Kind returns the variant held by v. A nil *Value reports KindNull.
func (v *Value) Kind() Kind {
	if v == nil {
		return KindNull
	}
	return v.kind
}

// IsNull reports whether v is null.
func (v *Value) IsNull() bool {
	return v.Kind() == KindNull
}

// IsContainer reports whether v is an expanded array or object.
func (v *Value) IsContainer() bool {
	k := v.Kind()
	return k == KindArray || k == KindObject
}

// IsScalar reports whether v is null, bool, number or string.
func (v *Value) IsScalar() bool {
	switch v.Kind() {
	case KindNull, KindBool, KindInt, KindFloat, KindString:
		return true
	}
	return false
}

// AsBool returns the boolean value.
func (v *Value) AsBool() (bool, error) {
	if v.Kind() != KindBool {
		return false, fmt.Errorf("llmfmt: expected bool, got %s", v.Kind())
	}
	return v.boolVal, nil
}

// AsInt returns the integral value.
func (v *Value) AsInt() (int64, error) {
	if v.Kind() != KindInt {
		return 0, fmt.Errorf("llmfmt: expected int, got %s", v.Kind())
	}
	return v.intVal, nil
}

// AsFloat returns the numeric value as float64; integers are widened.
func (v *Value) AsFloat() (float64, error) {
	switch v.Kind() {
	case KindFloat:
		return v.floatVal, nil
	case KindInt:
		return float64(v.intVal), nil
	}
	return 0, fmt.Errorf("llmfmt: expected number, got %s", v.Kind())
}

// AsString returns the string value.
func (v *Value) AsString() (string, error) {
	if v.Kind() != KindString {
		return "", fmt.Errorf("llmfmt: expected string, got %s", v.Kind())
	}
	return v.strVal, nil
}

// Items returns the elements of an array, or nil. The slice is shared with
// v and must not be modified.
func (v *Value) Items() []*Value {
	if v.Kind() != KindArray {
		return nil
	}
	return v.items
}

// Members returns the members of an object in order, or nil. The slice is
// shared with v and must not be modified.
func (v *Value) Members() []Member {
	if v.Kind() != KindObject {
		return nil
	}
	return v.members
}

// Keys returns the object keys in order.
func (v *Value) Keys() []string {
	ms := v.Members()
	keys := make([]string, len(ms))
	for i, m := range ms {
		keys[i] = m.Key
	}
	return keys
}

// Len returns the number of children of a container, the recorded child
// count of a placeholder, and 0 for scalars.
func (v *Value) Len() int {
	switch v.Kind() {
	case KindArray:
		return len(v.items)
	case KindObject:
		return len(v.members)
	case KindElided:
		return v.elidedLen
	}
	return 0
}

// ElidedKind returns the container kind a placeholder stands for.
func (v *Value) ElidedKind() Kind {
	if v.Kind() != KindElided {
		return KindNull
	}
	return v.elidedKind
}

// Get returns the member named key. The boolean is false when v is not an
// object or has no such key; a present null member returns (Null, true).
func (v *Value) Get(key string) (*Value, bool) {
	for _, m := range v.Members() {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// Index returns the array element at i. Negative indices count from the end.
func (v *Value) Index(i int) (*Value, bool) {
	items := v.Items()
	if i < 0 {
		i += len(items)
	}
	if i < 0 || i >= len(items) {
		return nil, false
	}
	return items[i], true
}

// Depth returns the nesting depth of v: the level of its deepest expanded
// container, counting the root as level 0. Scalars and placeholders add no
// level, so both 1 and {"a":1} have depth 0 and {"a":{"b":1}} has depth 1.
func (v *Value) Depth() int {
	d := 0
	visit := func(c *Value) {
		if c.IsContainer() {
			if cd := 1 + c.Depth(); cd > d {
				d = cd
			}
		}
	}
	switch v.Kind() {
	case KindArray:
		for _, it := range v.items {
			visit(it)
		}
	case KindObject:
		for _, m := range v.members {
			visit(m.Value)
		}
	}
	return d
}

// ============================================================
// Equality
// ============================================================

// Equal reports whether a and b are structurally identical: same kinds,
// same scalars, same members in the same order. NaN equals NaN here so
// that round trips can be compared.
func Equal(a, b *Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case KindNull:
		return true
	case KindBool:
		return a.boolVal == b.boolVal
	case KindInt:
		return a.intVal == b.intVal
	case KindFloat:
		if math.IsNaN(a.floatVal) {
			return math.IsNaN(b.floatVal)
		}
		return a.floatVal == b.floatVal
	case KindString:
		return a.strVal == b.strVal
	case KindArray:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(a.members) != len(b.members) {
			return false
		}
		for i := range a.members {
			if a.members[i].Key != b.members[i].Key || !Equal(a.members[i].Value, b.members[i].Value) {
				return false
			}
		}
		return true
	case KindElided:
		return a.elidedKind == b.elidedKind && a.elidedLen == b.elidedLen
	}
	return false
}

// String returns a compact JSON-like debug rendering of v.
func (v *Value) String() string {
	var b strings.Builder
	v.debug(&b)
	return b.String()
}

func (v *Value) debug(b *strings.Builder) {
	switch v.Kind() {
	case KindNull:
		b.WriteString("null")
	case KindBool:
		b.WriteString(strconv.FormatBool(v.boolVal))
	case KindInt:
		b.WriteString(strconv.FormatInt(v.intVal, 10))
	case KindFloat:
		b.WriteString(formatFloat(v.floatVal))
	case KindString:
		b.WriteString(strconv.Quote(v.strVal))
	case KindArray:
		b.WriteByte('[')
		for i, it := range v.items {
			if i > 0 {
				b.WriteByte(',')
			}
			it.debug(b)
		}
		b.WriteByte(']')
	case KindObject:
		b.WriteByte('{')
		for i, m := range v.members {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Quote(m.Key))
			b.WriteByte(':')
			m.Value.debug(b)
		}
		b.WriteByte('}')
	case KindElided:
		placeholder(v).debug(b)
	}
}
