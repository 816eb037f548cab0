package llmfmt

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTSVEncoder(t *testing.T) {
	tests := []struct {
		name string
		v    *Value
		opts EncodeOptions
		want string
	}{
		{
			name: "rows",
			v: Array(
				Object(Member{"id", Int(1)}, Member{"name", String("A")}),
				Object(Member{"id", Int(2)}, Member{"name", String("B")}),
			),
			want: "id\tname\n1\tA\n2\tB\n",
		},
		{
			name: "union_of_columns",
			v: Array(
				Object(Member{"a", Int(1)}),
				Object(Member{"b", Int(2)}, Member{"a", Int(3)}),
			),
			want: "a\tb\n1\t\n3\t2\n",
		},
		{
			name: "sorted_columns",
			v:    Array(Object(Member{"b", Int(1)}, Member{"a", Int(2)})),
			opts: EncodeOptions{SortKeys: true},
			want: "a\tb\n2\t1\n",
		},
		{
			name: "cells",
			v: Array(Object(
				Member{"null", Null()},
				Member{"float", Float(2)},
				Member{"nan", Float(math.NaN())},
				Member{"nested", Object(Member{"x", Array(Int(1))})},
				Member{"escaped", String("a\tb\nc\\d")},
			)),
			want: "null\tfloat\tnan\tnested\tescaped\n\t2.0\tnan\t{\"x\":[1]}\ta\\tb\\nc\\\\d\n",
		},
		{
			name: "empty_array",
			v:    Array(),
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TSVEncoder{}.Encode(tt.v, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCSVEncoder(t *testing.T) {
	v := Array(
		Object(Member{"name", String("Lovelace, Ada")}, Member{"quote", String(`said "hi"`)}),
		Object(Member{"name", String("Linus")}, Member{"quote", Null()}),
	)
	got, err := CSVEncoder{}.Encode(v, EncodeOptions{})
	require.NoError(t, err)
	assert.Equal(t, "name,quote\n\"Lovelace, Ada\",\"said \"\"hi\"\"\"\nLinus,\n", got)

	back, err := CSVParser{}.Parse([]byte(got))
	require.NoError(t, err)
	assert.True(t, Equal(Array(
		row("name", "Lovelace, Ada", "quote", `said "hi"`),
		row("name", "Linus", "quote", ""),
	), back), "got %s", back)
}

func TestTableEncoders_RejectNonTables(t *testing.T) {
	tests := []struct {
		name   string
		v      *Value
		reason string
	}{
		{"scalar", Int(1), "requires an array of objects, got int"},
		{"lone_object", Object(Member{"k", String("v")}), "requires an array of objects, got object"},
		{"elided_object", Elided(KindObject, 2), "requires an array of objects, got object"},
		{"scalar_array", Array(Int(1)), "row 0 is int, expected an object"},
		{"mixed_array", Array(Object(Member{"a", Int(1)}), String("x")), "row 1 is string, expected an object"},
	}
	for _, enc := range []Encoder{TSVEncoder{}, CSVEncoder{}} {
		for _, tt := range tests {
			t.Run(string(enc.Format())+"/"+tt.name, func(t *testing.T) {
				_, err := enc.Encode(tt.v, EncodeOptions{})
				require.Error(t, err)
				var ee *EncodeError
				require.True(t, errors.As(err, &ee))
				assert.Equal(t, enc.Format(), ee.Format)
				assert.Equal(t, tt.reason, ee.Reason)
			})
		}
	}
}
