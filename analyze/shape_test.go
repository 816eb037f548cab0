package analyze

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Neumenon/llmfmt/llmfmt"
)

func mustJSON(t *testing.T, s string) *llmfmt.Value {
	t.Helper()
	v, err := llmfmt.JSONParser{}.Parse([]byte(s))
	require.NoError(t, err)
	return v
}

func TestDetectShape(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Shape
	}{
		{
			name:  "uniform_array",
			input: `[{"id":1,"name":"a"},{"name":"b","id":2}]`,
			want: Shape{
				IsArray: true, IsUniformArray: true, ArrayLength: 2, FieldCount: 2,
				MaxDepth: 2, MostlyPrimitives: true,
				Description: "Uniform array of 2 objects with 2 fields",
				SampleKeys:  []string{"id", "name"},
			},
		},
		{
			name:  "varying_schemas",
			input: `[{"a":1},{"b":2}]`,
			want: Shape{
				IsArray: true, ArrayLength: 2, FieldCount: 1,
				MaxDepth: 2, MostlyPrimitives: true,
				Description: "Array of 2 objects with varying schemas",
				SampleKeys:  []string{"a"},
			},
		},
		{
			name:  "primitives",
			input: `[1,"two",3.5]`,
			want: Shape{
				IsArray: true, ArrayLength: 3, MaxDepth: 1, MostlyPrimitives: true,
				Description: "Array of 3 primitives",
				SampleKeys:  []string{},
			},
		},
		{
			name:  "mixed",
			input: `[1,{"a":[1,2]}]`,
			want: Shape{
				IsArray: true, ArrayLength: 2, MaxDepth: 3,
				Description: "Mixed array of 2 items",
				SampleKeys:  []string{},
			},
		},
		{
			name:  "flat_object",
			input: `{"b":"x","a":1}`,
			want: Shape{
				FieldCount: 2, MaxDepth: 1, MostlyPrimitives: true,
				Description: "Flat object with 2 fields",
				SampleKeys:  []string{"a", "b"},
			},
		},
		{
			name:  "nested_object",
			input: `{"a":{"b":{"c":1}}}`,
			want: Shape{
				FieldCount: 1, MaxDepth: 3,
				Description: "Nested object with 1 top-level fields",
				SampleKeys:  []string{"a"},
			},
		},
		{
			name:  "empty_object",
			input: `{}`,
			want: Shape{
				MostlyPrimitives: true,
				Description:      "Empty object",
				SampleKeys:       []string{},
			},
		},
		{
			name:  "scalar",
			input: `"hello"`,
			want: Shape{
				MostlyPrimitives: true,
				Description:      "Primitive value (string)",
				SampleKeys:       []string{},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectShape(mustJSON(t, tt.input), 0))
		})
	}
}

func TestDetectShape_EmptyArray(t *testing.T) {
	s := DetectShape(llmfmt.Array(), 0)
	assert.True(t, s.IsArray)
	assert.False(t, s.IsUniformArray)
	assert.Equal(t, "Empty array", s.Description)
}

func TestDetectShape_SampleSize(t *testing.T) {
	v := mustJSON(t, `[{"a":1},{"a":2},{"b":3}]`)

	s := DetectShape(v, 2)
	assert.True(t, s.IsUniformArray)
	assert.Equal(t, 3, s.ArrayLength)
	assert.Equal(t, "Uniform array of 3 objects with 1 fields", s.Description)

	s = DetectShape(v, 0)
	assert.False(t, s.IsUniformArray)
}

func TestDetectShape_SampleKeysLimit(t *testing.T) {
	b := llmfmt.NewObjectBuilder(12)
	for i := 11; i >= 0; i-- {
		b.Set(fmt.Sprintf("k%02d", i), llmfmt.Int(int64(i)))
	}
	s := DetectShape(b.Build(), 0)
	assert.Equal(t, 12, s.FieldCount)
	require.Len(t, s.SampleKeys, 10)
	assert.Equal(t, "k00", s.SampleKeys[0])
	assert.Equal(t, "k09", s.SampleKeys[9])
}

func TestDetectShape_MostlyPrimitivesThreshold(t *testing.T) {
	// 2 scalars, 1 container: 0.67 is below the threshold.
	s := DetectShape(mustJSON(t, `{"a":1,"b":2,"c":{}}`), 0)
	assert.False(t, s.MostlyPrimitives)

	// 3 scalars, 1 container: 0.75.
	s = DetectShape(mustJSON(t, `{"a":1,"b":2,"c":3,"d":{}}`), 0)
	assert.True(t, s.MostlyPrimitives)
}
