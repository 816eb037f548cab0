package llmfmt

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func deepDoc() *Value {
	return Object(
		Member{"name", String("root")},
		Member{"a", Object(
			Member{"b", Object(
				Member{"c", Int(1)},
			)},
			Member{"list", Array(Int(1), Int(2), Int(3))},
		)},
	)
}

func TestDepthFilter(t *testing.T) {
	tests := []struct {
		depth int
		want  *Value
	}{
		{
			depth: 0,
			want: Object(
				Member{"name", String("root")},
				Member{"a", Elided(KindObject, 2)},
			),
		},
		{
			depth: 1,
			want: Object(
				Member{"name", String("root")},
				Member{"a", Object(
					Member{"b", Elided(KindObject, 1)},
					Member{"list", Elided(KindArray, 3)},
				)},
			),
		},
		{
			depth: 2,
			want:  deepDoc(),
		},
	}
	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			f, err := NewDepthFilter(tt.depth)
			require.NoError(t, err)
			got, err := f.Apply(deepDoc())
			require.NoError(t, err)
			assert.True(t, Equal(tt.want, got), "depth %d: got %s", tt.depth, got)
			assert.LessOrEqual(t, got.Depth(), tt.depth)
		})
	}
}

func TestDepthFilter_NoOpReturnsInput(t *testing.T) {
	doc := deepDoc()
	f, err := NewDepthFilter(doc.Depth())
	require.NoError(t, err)
	got, err := f.Apply(doc)
	require.NoError(t, err)
	assert.Same(t, doc, got)

	scalar := Int(5)
	f0, _ := NewDepthFilter(0)
	got, err = f0.Apply(scalar)
	require.NoError(t, err)
	assert.Same(t, scalar, got)
}

func TestDepthFilter_DoesNotModifyInput(t *testing.T) {
	doc := deepDoc()
	f, _ := NewDepthFilter(0)
	_, err := f.Apply(doc)
	require.NoError(t, err)
	assert.True(t, Equal(deepDoc(), doc))
}

func TestDepthFilter_Negative(t *testing.T) {
	_, err := NewDepthFilter(-1)
	require.Error(t, err)
	var fe *FilterConfigError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "depth", fe.Filter)
	assert.Equal(t, "depth filter: depth must be non-negative, got -1", err.Error())
}

func TestDepthFilter_NilValue(t *testing.T) {
	f, _ := NewDepthFilter(1)
	_, err := f.Apply(nil)
	var fa *FilterApplyError
	require.True(t, errors.As(err, &fa))
	assert.Equal(t, "depth", fa.Filter)
}

func TestIncludeFilter(t *testing.T) {
	doc := Object(
		Member{"users", Array(
			Object(Member{"name", String("A")}),
			Object(Member{"name", String("B")}),
		)},
		Member{"a", Object(Member{"b", Int(1)})},
	)
	tests := []struct {
		expr string
		want *Value
	}{
		{"users[*].name", Array(String("A"), String("B"))},
		{"users[0].name", String("A")},
		{"a", Object(Member{"b", Int(1)})},
		{"b.c", Array()},
		{"users[9]", Array()},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			f, err := NewIncludeFilter(tt.expr)
			require.NoError(t, err)
			got, err := f.Apply(doc)
			require.NoError(t, err)
			assert.True(t, Equal(tt.want, got), "got %s", got)
		})
	}
}

func TestIncludeFilter_InvalidExpression(t *testing.T) {
	_, err := NewIncludeFilter("users[")
	require.Error(t, err)
	var fe *FilterConfigError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "include", fe.Filter)
	assert.Equal(t, "users[", fe.Expr)
	assert.Contains(t, err.Error(), "include filter:")
}

func TestExcludeFilter(t *testing.T) {
	doc := Object(
		Member{"id", Int(1)},
		Member{"secret", String("x")},
		Member{"items", Array(Int(1), Int(2), Int(3))},
	)

	f, err := NewExcludeFilter("secret")
	require.NoError(t, err)
	got, err := f.Apply(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "items"}, got.Keys())

	f, err = NewExcludeFilter("items[-1]")
	require.NoError(t, err)
	got, err = f.Apply(doc)
	require.NoError(t, err)
	items, _ := got.Get("items")
	assert.True(t, Equal(Array(Int(1), Int(2)), items))

	_, err = NewExcludeFilter("a b")
	var fe *FilterConfigError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "exclude", fe.Filter)
}

func TestChain(t *testing.T) {
	inc, _ := NewIncludeFilter("a")
	depth, _ := NewDepthFilter(0)
	c := Chain{inc, depth}
	assert.Equal(t, "chain(include,depth)", c.Name())

	got, err := c.Apply(deepDoc())
	require.NoError(t, err)
	want := Object(
		Member{"b", Elided(KindObject, 1)},
		Member{"list", Elided(KindArray, 3)},
	)
	assert.True(t, Equal(want, got), "got %s", got)
}
