package llmfmt

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXMLParser_Mapping(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *Value
	}{
		{
			name:  "empty_element",
			input: `<root/>`,
			want:  Object(Member{"root", Null()}),
		},
		{
			name:  "text_only",
			input: `<name> Ada </name>`,
			want:  Object(Member{"name", String("Ada")}),
		},
		{
			name:  "attributes_and_text",
			input: `<price currency="EUR">10</price>`,
			want: Object(Member{"price", Object(
				Member{"@currency", String("EUR")},
				Member{"#text", String("10")},
			)}),
		},
		{
			name:  "repeated_children_become_array",
			input: `<root a="1"><x>hi</x><x>yo</x><y/>text</root>`,
			want: Object(Member{"root", Object(
				Member{"@a", String("1")},
				Member{"x", Array(String("hi"), String("yo"))},
				Member{"y", Null()},
				Member{"#text", String("text")},
			)}),
		},
		{
			name:  "namespaces_stripped",
			input: `<ns:root xmlns:ns="urn:x" xmlns="urn:y"><ns:item>1</ns:item></ns:root>`,
			want:  Object(Member{"root", Object(Member{"item", String("1")})}),
		},
		{
			name:  "prolog_and_comments_ignored",
			input: "<?xml version=\"1.0\"?>\n<!-- note -->\n<a><b>2</b></a>\n",
			want:  Object(Member{"a", Object(Member{"b", String("2")})}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := XMLParser{}.Parse([]byte(tt.input))
			require.NoError(t, err)
			assert.True(t, Equal(tt.want, got), "got %s, want %s", got, tt.want)
		})
	}
}

func TestXMLParser_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
	}{
		{"multiple_roots", `<a/><b/>`, "multiple root elements"},
		{"no_root", `<!-- only a comment -->`, "no root element"},
		{"text_outside_root", `<a/>junk`, "text outside the root element"},
		{"mismatched_tag", `<a></b>`, ""},
		{"unclosed", `<a><b></b>`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := XMLParser{}.Parse([]byte(tt.input))
			require.Error(t, err)
			var pe *ParseError
			require.True(t, errors.As(err, &pe), "want *ParseError, got %T", err)
			assert.Equal(t, FormatXML, pe.Format)
			if tt.message != "" {
				assert.Equal(t, tt.message, pe.Message)
			}
			assert.Equal(t, 1, pe.Pos.Line)
		})
	}
}
