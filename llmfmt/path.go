package llmfmt

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ============================================================
// Path Expressions
// ============================================================
//
// Grammar used by the include and exclude filters:
//
//   path  := first ( '.' key | bracket )*
//   first := key | bracket
//   key   := '*' | run of characters other than '.', '[', ']', whitespace
//   bracket := '[' ( int | '*' | quoted ) ']'
//
// Examples: users[0].name, users[*].email, data["a.b"], items[-1], *.id
//
// A bare '*' key matches every member of an object; '[*]' matches every
// element of an array; negative indices count from the end.

// StepKind identifies one path step.
type StepKind uint8

const (
	StepKey StepKind = iota
	StepIndex
	StepEach    // [*]: every array element
	StepMembers // *: every object member
)

// String returns the step kind name.
func (k StepKind) String() string {
	switch k {
	case StepKey:
		return "key"
	case StepIndex:
		return "index"
	case StepEach:
		return "each"
	case StepMembers:
		return "members"
	default:
		return "unknown"
	}
}

// Step is one component of a parsed path.
type Step struct {
	Kind   StepKind
	Key    string
	Index  int
	Offset int // byte offset of the step in the expression
}

// String renders the step in expression syntax.
func (s Step) String() string {
	switch s.Kind {
	case StepKey:
		if isBarePathKey(s.Key) {
			return s.Key
		}
		return "[" + strconv.Quote(s.Key) + "]"
	case StepIndex:
		return "[" + strconv.Itoa(s.Index) + "]"
	case StepEach:
		return "[*]"
	case StepMembers:
		return "*"
	}
	return "?"
}

// Path is a parsed path expression.
type Path struct {
	expr  string
	steps []Step
}

// ParsePath parses expr. Syntax errors are *FilterConfigError with Filter
// set to "path" and Offset pointing at the offending byte.
func ParsePath(expr string) (*Path, error) {
	p := &pathParser{expr: expr}
	steps, err := p.parse()
	if err != nil {
		return nil, err
	}
	return &Path{expr: expr, steps: steps}, nil
}

// MustParsePath is like ParsePath but panics on error.
func MustParsePath(expr string) *Path {
	p, err := ParsePath(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// Expr returns the source expression.
func (p *Path) Expr() string { return p.expr }

// Steps returns the parsed steps.
func (p *Path) Steps() []Step { return p.steps }

// String returns the normalized expression.
func (p *Path) String() string {
	var b strings.Builder
	for i, s := range p.steps {
		if i > 0 && (s.Kind == StepKey && isBarePathKey(s.Key) || s.Kind == StepMembers) {
			b.WriteByte('.')
		}
		b.WriteString(s.String())
	}
	return b.String()
}

// ============================================================
// Parser
// ============================================================

type pathParser struct {
	expr string
	pos  int
}

func (p *pathParser) errorf(offset int, format string, args ...interface{}) *FilterConfigError {
	return &FilterConfigError{
		Filter:  "path",
		Expr:    p.expr,
		Offset:  offset,
		Message: fmt.Sprintf(format, args...),
	}
}

func (p *pathParser) parse() ([]Step, error) {
	if strings.TrimSpace(p.expr) == "" {
		return nil, p.errorf(0, "empty path expression")
	}

	var steps []Step
	first := true
	for p.pos < len(p.expr) {
		c := p.expr[p.pos]
		switch {
		case c == '[':
			s, err := p.bracket()
			if err != nil {
				return nil, err
			}
			steps = append(steps, s)
		case c == '.' && !first:
			p.pos++
			s, err := p.key()
			if err != nil {
				return nil, err
			}
			steps = append(steps, s)
		case first:
			s, err := p.key()
			if err != nil {
				return nil, err
			}
			steps = append(steps, s)
		default:
			return nil, p.errorf(p.pos, "unexpected %q", c)
		}
		first = false
	}
	return steps, nil
}

func (p *pathParser) key() (Step, error) {
	start := p.pos
	for p.pos < len(p.expr) {
		r, size := utf8.DecodeRuneInString(p.expr[p.pos:])
		if r == '.' || r == '[' || r == ']' {
			break
		}
		if unicode.IsSpace(r) {
			return Step{}, p.errorf(p.pos, "unexpected whitespace (quote the key as [\"...\"])")
		}
		p.pos += size
	}
	k := p.expr[start:p.pos]
	switch k {
	case "":
		if p.pos < len(p.expr) {
			return Step{}, p.errorf(p.pos, "expected key, found %q", p.expr[p.pos])
		}
		return Step{}, p.errorf(p.pos, "expected key at end of expression")
	case "*":
		return Step{Kind: StepMembers, Offset: start}, nil
	}
	return Step{Kind: StepKey, Key: k, Offset: start}, nil
}

func (p *pathParser) bracket() (Step, error) {
	start := p.pos
	p.pos++ // '['
	if p.pos >= len(p.expr) {
		return Step{}, p.errorf(p.pos, "unterminated '['")
	}

	var s Step
	switch c := p.expr[p.pos]; {
	case c == '*':
		p.pos++
		s = Step{Kind: StepEach, Offset: start}
	case c == '"' || c == '\'':
		k, err := p.quoted(c)
		if err != nil {
			return Step{}, err
		}
		s = Step{Kind: StepKey, Key: k, Offset: start}
	case c == '-' || (c >= '0' && c <= '9'):
		numStart := p.pos
		p.pos++
		for p.pos < len(p.expr) && p.expr[p.pos] >= '0' && p.expr[p.pos] <= '9' {
			p.pos++
		}
		n, err := strconv.Atoi(p.expr[numStart:p.pos])
		if err != nil {
			return Step{}, p.errorf(numStart, "invalid index %q", p.expr[numStart:p.pos])
		}
		s = Step{Kind: StepIndex, Index: n, Offset: start}
	default:
		return Step{}, p.errorf(p.pos, "expected index, '*' or quoted key after '['")
	}

	if p.pos >= len(p.expr) || p.expr[p.pos] != ']' {
		return Step{}, p.errorf(p.pos, "expected ']'")
	}
	p.pos++
	return s, nil
}

// quoted scans a quoted key; the opening quote is at p.pos.
func (p *pathParser) quoted(q byte) (string, error) {
	start := p.pos
	p.pos++
	var b strings.Builder
	for p.pos < len(p.expr) {
		c := p.expr[p.pos]
		switch c {
		case q:
			p.pos++
			return b.String(), nil
		case '\\':
			if p.pos+1 >= len(p.expr) {
				return "", p.errorf(p.pos, "unterminated escape")
			}
			p.pos++
			switch e := p.expr[p.pos]; e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(e)
			}
			p.pos++
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", p.errorf(start, "unterminated quoted key")
}

// isBarePathKey reports whether k can be written without brackets. Keys
// holding quote characters are bracketed so the rendered form never
// depends on how the key was written.
func isBarePathKey(k string) bool {
	if k == "" || k == "*" {
		return false
	}
	for _, r := range k {
		switch r {
		case '.', '[', ']', '"', '\'':
			return false
		}
		if unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// ============================================================
// Evaluation
// ============================================================

// Find returns every node of v the path selects, in traversal order. Steps
// that do not apply to a node's kind, missing keys and out-of-range
// indices select nothing.
func (p *Path) Find(v *Value) []*Value {
	var out []*Value
	p.find(v, 0, &out)
	return out
}

func (p *Path) find(v *Value, i int, out *[]*Value) {
	if i == len(p.steps) {
		*out = append(*out, v)
		return
	}
	s := p.steps[i]
	switch s.Kind {
	case StepKey:
		if c, ok := v.Get(s.Key); ok {
			p.find(c, i+1, out)
		}
	case StepIndex:
		if c, ok := v.Index(s.Index); ok {
			p.find(c, i+1, out)
		}
	case StepEach:
		for _, c := range v.Items() {
			p.find(c, i+1, out)
		}
	case StepMembers:
		for _, m := range v.Members() {
			p.find(m.Value, i+1, out)
		}
	}
}

// Remove returns a copy of v without the nodes the path selects, and
// whether anything was removed. Unchanged subtrees are shared with v.
func (p *Path) Remove(v *Value) (*Value, bool) {
	return p.remove(v, 0)
}

func (p *Path) remove(v *Value, i int) (*Value, bool) {
	s := p.steps[i]
	last := i == len(p.steps)-1

	switch v.Kind() {
	case KindObject:
		if s.Kind != StepKey && s.Kind != StepMembers {
			return v, false
		}
		changed := false
		b := NewObjectBuilder(len(v.members))
		for _, m := range v.members {
			if s.Kind == StepMembers || m.Key == s.Key {
				if last {
					changed = true
					continue
				}
				nv, ok := p.remove(m.Value, i+1)
				changed = changed || ok
				b.Set(m.Key, nv)
				continue
			}
			b.Set(m.Key, m.Value)
		}
		if !changed {
			return v, false
		}
		return b.Build(), true

	case KindArray:
		target := -1
		switch s.Kind {
		case StepIndex:
			target = s.Index
			if target < 0 {
				target += len(v.items)
			}
			if target < 0 || target >= len(v.items) {
				return v, false
			}
		case StepEach:
		default:
			return v, false
		}
		changed := false
		items := make([]*Value, 0, len(v.items))
		for j, it := range v.items {
			if s.Kind == StepEach || j == target {
				if last {
					changed = true
					continue
				}
				nv, ok := p.remove(it, i+1)
				changed = changed || ok
				items = append(items, nv)
				continue
			}
			items = append(items, it)
		}
		if !changed {
			return v, false
		}
		return &Value{kind: KindArray, items: items}, true
	}
	return v, false
}
