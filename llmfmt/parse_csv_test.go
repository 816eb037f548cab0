package llmfmt

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(kv ...string) *Value {
	b := NewObjectBuilder(len(kv) / 2)
	for i := 0; i+1 < len(kv); i += 2 {
		b.Set(kv[i], String(kv[i+1]))
	}
	return b.Build()
}

func TestCSVParser(t *testing.T) {
	tests := []struct {
		name   string
		parser CSVParser
		input  string
		want   *Value
	}{
		{
			name:  "header_and_rows",
			input: "name,age\nAda,36\nLinus,54\n",
			want:  Array(row("name", "Ada", "age", "36"), row("name", "Linus", "age", "54")),
		},
		{
			name:  "quoted_fields",
			input: "name,quote\n\"Lovelace, Ada\",\"said \"\"hi\"\"\"\n",
			want:  Array(row("name", "Lovelace, Ada", "quote", `said "hi"`)),
		},
		{
			name:  "short_row_zips",
			input: "a,b,c\n1,2\n",
			want:  Array(row("a", "1", "b", "2")),
		},
		{
			name:  "long_row_zips",
			input: "a,b\n1,2,3\n",
			want:  Array(row("a", "1", "b", "2")),
		},
		{
			name:  "header_only",
			input: "a,b\n",
			want:  Array(),
		},
		{
			name:  "empty",
			input: "",
			want:  Array(),
		},
		{
			name:   "no_header",
			parser: CSVParser{NoHeader: true},
			input:  "1,2\n3,4\n",
			want:   Array(Array(String("1"), String("2")), Array(String("3"), String("4"))),
		},
		{
			name:   "semicolon",
			parser: CSVParser{Comma: ';'},
			input:  "a;b\n1;2\n",
			want:   Array(row("a", "1", "b", "2")),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.parser.Parse([]byte(tt.input))
			require.NoError(t, err)
			assert.True(t, Equal(tt.want, got), "got %s, want %s", got, tt.want)
		})
	}
}

func TestCSVParser_Error(t *testing.T) {
	_, err := CSVParser{}.Parse([]byte("a,b\n\"x,1\n"))
	require.Error(t, err)
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, FormatCSV, pe.Format)
	assert.Greater(t, pe.Pos.Line, 0)
}

func TestTSVParser(t *testing.T) {
	tests := []struct {
		name   string
		parser TSVParser
		input  string
		want   *Value
	}{
		{
			name:  "header_and_rows",
			input: "name\tage\nAda\t36\n",
			want:  Array(row("name", "Ada", "age", "36")),
		},
		{
			name:  "escapes",
			input: "text\nx\\ty\\nz\\\\\n",
			want:  Array(row("text", "x\ty\nz\\")),
		},
		{
			name:  "unknown_escape_kept",
			input: "text\na\\qb\n",
			want:  Array(row("text", "a\\qb")),
		},
		{
			name:  "crlf",
			input: "a\tb\r\n1\t2\r\n",
			want:  Array(row("a", "1", "b", "2")),
		},
		{
			name:  "blank_lines_skipped",
			input: "a\tb\n1\t2\n\n3\t4\n",
			want:  Array(row("a", "1", "b", "2"), row("a", "3", "b", "4")),
		},
		{
			name:  "single_column_blank_is_empty_cell",
			input: "a\n1\n\n2\n",
			want:  Array(row("a", "1"), row("a", ""), row("a", "2")),
		},
		{
			name:  "empty_cells",
			input: "a\tb\n\t\n",
			want:  Array(row("a", "", "b", "")),
		},
		{
			name:  "blank_input",
			input: "\n",
			want:  Array(),
		},
		{
			name:  "empty_column_name_and_cell",
			input: "\n\n",
			want:  Array(row("", "")),
		},
		{
			name:  "empty_column_name_many_rows",
			input: "\n\n\n",
			want:  Array(row("", ""), row("", "")),
		},
		{
			name:  "whitespace_header_only",
			input: " \n",
			want:  Array(),
		},
		{
			name:   "no_header",
			parser: TSVParser{NoHeader: true},
			input:  "1\t2\n",
			want:   Array(Array(String("1"), String("2"))),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.parser.Parse([]byte(tt.input))
			require.NoError(t, err)
			assert.True(t, Equal(tt.want, got), "got %s, want %s", got, tt.want)
		})
	}
}
