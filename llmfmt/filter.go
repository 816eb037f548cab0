package llmfmt

import (
	"fmt"
	"strings"
)

// Filter transforms a Value tree. Filters never modify their input; they
// return a new tree that may share unchanged subtrees with it. Construction
// validates configuration, so Apply only fails on the value itself, with a
// *FilterApplyError.
type Filter interface {
	// Name identifies the filter in errors and logs.
	Name() string
	Apply(v *Value) (*Value, error)
}

// Chain applies filters in order, each receiving the previous output.
type Chain []Filter

// Name lists the member filters.
func (c Chain) Name() string {
	names := make([]string, len(c))
	for i, f := range c {
		names[i] = f.Name()
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

// Apply runs every filter, stopping at the first failure.
func (c Chain) Apply(v *Value) (*Value, error) {
	for _, f := range c {
		var err error
		if v, err = f.Apply(v); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func applyError(filter, format string, args ...interface{}) *FilterApplyError {
	return &FilterApplyError{Filter: filter, Message: fmt.Sprintf(format, args...)}
}

// ============================================================
// Depth Filter
// ============================================================

// DepthFilter replaces every array or object nested deeper than a limit
// with a placeholder recording its kind and size. The root is level 0;
// with depth 0 the root keeps its members but each container member
// becomes a placeholder. Scalars are kept at every level.
type DepthFilter struct {
	depth int
}

// NewDepthFilter returns a filter limiting nesting to depth levels. A
// negative depth is a *FilterConfigError.
func NewDepthFilter(depth int) (*DepthFilter, error) {
	if depth < 0 {
		return nil, &FilterConfigError{
			Filter:  "depth",
			Offset:  -1,
			Message: fmt.Sprintf("depth must be non-negative, got %d", depth),
		}
	}
	return &DepthFilter{depth: depth}, nil
}

// Name returns "depth".
func (f *DepthFilter) Name() string { return "depth" }

// Depth returns the configured limit.
func (f *DepthFilter) Depth() int { return f.depth }

// Apply truncates v.
func (f *DepthFilter) Apply(v *Value) (*Value, error) {
	if v == nil {
		return nil, applyError(f.Name(), "nil value")
	}
	out, _, err := f.truncate(v, 0)
	return out, err
}

// truncate returns v with containers below level+depth elided and whether
// anything changed.
func (f *DepthFilter) truncate(v *Value, level int) (*Value, bool, error) {
	if level > MaxNesting {
		return nil, false, applyError(f.Name(), "value nested deeper than %d levels", MaxNesting)
	}
	child := func(c *Value) (*Value, bool, error) {
		if !c.IsContainer() {
			return c, false, nil
		}
		if level+1 > f.depth {
			return Elided(c.Kind(), c.Len()), true, nil
		}
		return f.truncate(c, level+1)
	}

	switch v.Kind() {
	case KindArray:
		items := make([]*Value, len(v.items))
		changed := false
		for i, it := range v.items {
			nv, ok, err := child(it)
			if err != nil {
				return nil, false, err
			}
			items[i] = nv
			changed = changed || ok
		}
		if !changed {
			return v, false, nil
		}
		return &Value{kind: KindArray, items: items}, true, nil

	case KindObject:
		ms := make([]Member, len(v.members))
		changed := false
		for i, m := range v.members {
			nv, ok, err := child(m.Value)
			if err != nil {
				return nil, false, err
			}
			ms[i] = Member{Key: m.Key, Value: nv}
			changed = changed || ok
		}
		if !changed {
			return v, false, nil
		}
		return &Value{kind: KindObject, members: ms}, true, nil
	}
	return v, false, nil
}

// ============================================================
// Include / Exclude Filters
// ============================================================

// IncludeFilter extracts the nodes selected by a path expression. One
// match yields that node itself, several yield an Array of them in
// traversal order, and none yields an empty Array.
type IncludeFilter struct {
	path *Path
}

// NewIncludeFilter parses expr eagerly; syntax errors are
// *FilterConfigError.
func NewIncludeFilter(expr string) (*IncludeFilter, error) {
	p, err := parseFilterPath("include", expr)
	if err != nil {
		return nil, err
	}
	return &IncludeFilter{path: p}, nil
}

// Name returns "include".
func (f *IncludeFilter) Name() string { return "include" }

// Path returns the parsed expression.
func (f *IncludeFilter) Path() *Path { return f.path }

// Apply extracts the matches from v.
func (f *IncludeFilter) Apply(v *Value) (*Value, error) {
	if v == nil {
		return nil, applyError(f.Name(), "nil value")
	}
	matches := f.path.Find(v)
	switch len(matches) {
	case 0:
		return Array(), nil
	case 1:
		return matches[0], nil
	default:
		return Array(matches...), nil
	}
}

// ExcludeFilter removes the nodes selected by a path expression: object
// members are deleted and array elements dropped. Input without a match
// is returned unchanged.
type ExcludeFilter struct {
	path *Path
}

// NewExcludeFilter parses expr eagerly; syntax errors are
// *FilterConfigError.
func NewExcludeFilter(expr string) (*ExcludeFilter, error) {
	p, err := parseFilterPath("exclude", expr)
	if err != nil {
		return nil, err
	}
	return &ExcludeFilter{path: p}, nil
}

// Name returns "exclude".
func (f *ExcludeFilter) Name() string { return "exclude" }

// Path returns the parsed expression.
func (f *ExcludeFilter) Path() *Path { return f.path }

// Apply removes the matches from v.
func (f *ExcludeFilter) Apply(v *Value) (*Value, error) {
	if v == nil {
		return nil, applyError(f.Name(), "nil value")
	}
	out, _ := f.path.Remove(v)
	return out, nil
}

func parseFilterPath(filter, expr string) (*Path, error) {
	p, err := ParsePath(expr)
	if err != nil {
		if fe, ok := err.(*FilterConfigError); ok {
			fe.Filter = filter
		}
		return nil, err
	}
	return p, nil
}
