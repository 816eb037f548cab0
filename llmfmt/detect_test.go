package llmfmt

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Format
	}{
		{"json_object", `{"a":1}`, FormatJSON},
		{"json_array_with_space", "  \n[1, 2]", FormatJSON},
		{"xml", `<root/>`, FormatXML},
		{"xml_with_prolog", "<?xml version=\"1.0\"?><a>1</a>", FormatXML},
		{"yaml_mapping", "name: Ada\nage: 36\n", FormatYAML},
		{"yaml_list", "- a\n- b\n", FormatYAML},
		{"yaml_flow_not_json", "{a: 1}", FormatYAML},
		{"csv", "name,age\nAda,36\nLinus,54\n", FormatCSV},
		{"tsv", "name\tage\nAda\t36\n", FormatTSV},
		{"bare_word_is_yaml_string", "hello", FormatYAML},
		{"empty_is_yaml_null", "", FormatYAML},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, v, err := Detect([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NotNil(t, v)
		})
	}
}

func TestDetect_CSVValue(t *testing.T) {
	_, v, err := Detect([]byte("name,age\nAda,36\n"))
	require.NoError(t, err)
	assert.True(t, Equal(Array(row("name", "Ada", "age", "36")), v), "got %s", v)
}

func TestDetect_Failure(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Format
	}{
		{"broken_json", `{"a": [1, 2}`, []Format{FormatJSON, FormatYAML}},
		{"broken_array", `[1 2`, []Format{FormatJSON, FormatYAML}},
		{"unclosed_array_with_comma", `[1,2`, []Format{FormatJSON, FormatYAML, FormatCSV}},
		{"broken_xml_with_comma", `<a,b`, []Format{FormatXML, FormatYAML, FormatCSV}},
		{"broken_json_with_tab", "{\"a\":\t1", []Format{FormatJSON, FormatYAML, FormatTSV}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Detect([]byte(tt.input))
			require.Error(t, err)
			var ad *AutoDetectError
			require.True(t, errors.As(err, &ad), "want *AutoDetectError, got %T", err)
			assert.Equal(t, tt.want, ad.Formats())
			assert.Contains(t, err.Error(), "auto-detect")
		})
	}
}

func TestAutoParser(t *testing.T) {
	p := AutoParser{}
	assert.Equal(t, FormatAuto, p.Format())
	v, err := p.Parse([]byte(`{"a":1}`))
	require.NoError(t, err)
	assert.True(t, Equal(Object(Member{"a", Int(1)}), v))
}

func TestLooksTabular(t *testing.T) {
	assert.True(t, looksTabular([]byte("a,b\n1,2\n"), ','))
	assert.False(t, looksTabular([]byte("a,b\n1,2,3\n"), ','))
	assert.False(t, looksTabular([]byte("a\n1\n"), ','))
	assert.True(t, looksTabular([]byte("a\tb\n\n1\t2\n"), '\t'))
	assert.False(t, looksTabular([]byte("a\tb\n1\n"), '\t'))
}

func TestDetect_BrokenDocumentNeverBecomesTable(t *testing.T) {
	for _, input := range []string{"[1,2", "[1, 2, 3]]", "<a,b", "{a:1,b:2"} {
		f, v, err := Detect([]byte(input))
		require.Error(t, err, "%q detected as %s: %s", input, f, v)
		var ad *AutoDetectError
		require.True(t, errors.As(err, &ad))
		assert.Contains(t, err.Error(), "opens like a JSON or XML document", input)
	}
}
