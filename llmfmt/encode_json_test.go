package llmfmt

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONEncoder(t *testing.T) {
	tests := []struct {
		name string
		v    *Value
		opts EncodeOptions
		want string
	}{
		{
			name: "compact",
			v: Object(
				Member{"b", Int(1)},
				Member{"a", Array(Float(1), Bool(false), Null())},
			),
			want: `{"b":1,"a":[1.0,false,null]}`,
		},
		{
			name: "sort_keys_every_level",
			v: Object(
				Member{"b", Object(Member{"y", Int(1)}, Member{"x", Int(2)})},
				Member{"a", Int(3)},
			),
			opts: EncodeOptions{SortKeys: true},
			want: `{"a":3,"b":{"x":2,"y":1}}`,
		},
		{
			name: "empty_containers",
			v:    Object(Member{"a", Array()}, Member{"o", Object()}),
			want: `{"a":[],"o":{}}`,
		},
		{
			name: "no_html_escaping",
			v:    String("<a&b>"),
			want: `"<a&b>"`,
		},
		{
			name: "string_escapes",
			v:    String("line\n\"q\""),
			want: `"line\n\"q\""`,
		},
		{
			name: "float_exponent",
			v:    Array(Float(1e21), Float(2.5), Float(-0.001)),
			want: `[1e+21,2.5,-0.001]`,
		},
		{
			name: "placeholders",
			v:    Object(Member{"o", Elided(KindObject, 2)}, Member{"l", Elided(KindArray, 7)}),
			want: `{"o":{"...":"2 keys"},"l":["... 7 items"]}`,
		},
		{
			name: "indented",
			v:    Object(Member{"a", Int(1)}, Member{"b", Array(Int(1), Int(2))}),
			opts: EncodeOptions{Indent: 2},
			want: "{\n  \"a\": 1,\n  \"b\": [\n    1,\n    2\n  ]\n}",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := JSONEncoder{}.Encode(tt.v, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJSONEncoder_NonFinite(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := JSONEncoder{}.Encode(Array(Float(f)), EncodeOptions{})
		require.Error(t, err)
		var ee *EncodeError
		require.True(t, errors.As(err, &ee))
		assert.Equal(t, FormatJSON, ee.Format)
		assert.Contains(t, ee.Reason, formatNonFinite(f))
	}
}

func TestCompactJSON_SanitizesFloats(t *testing.T) {
	v := Object(Member{"x", Float(math.NaN())}, Member{"y", Array(Float(math.Inf(1)), Int(1))})
	assert.Equal(t, `{"x":null,"y":[null,1]}`, compactJSON(v, false))
}
