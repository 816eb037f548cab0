package llmfmt

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// YAMLEncoder writes a single block-style YAML document. Every scalar is
// given its tag, so the emitter quotes strings such as "true" or "1.5"
// that would otherwise resolve to another type. Multi-line strings and the
// merge key "<<" are always double-quoted.
type YAMLEncoder struct{}

// Format returns FormatYAML.
func (YAMLEncoder) Format() Format { return FormatYAML }

// Encode renders v. The trailing newline the emitter adds is removed.
func (YAMLEncoder) Encode(v *Value, opts EncodeOptions) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(opts.indentOr(2))
	if err := enc.Encode(yamlNode(v, opts.SortKeys)); err != nil {
		return "", &EncodeError{Format: FormatYAML, Reason: errors.Wrap(err, "emit yaml").Error()}
	}
	if err := enc.Close(); err != nil {
		return "", &EncodeError{Format: FormatYAML, Reason: errors.Wrap(err, "emit yaml").Error()}
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func yamlNode(v *Value, sortKeys bool) *yaml.Node {
	v = expand(v)
	switch v.Kind() {
	case KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v.boolVal)}
	case KindInt:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(v.intVal, 10)}
	case KindFloat:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: yamlFloat(v.floatVal)}
	case KindString:
		return yamlString(v.strVal)
	case KindArray:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		if len(v.items) == 0 {
			n.Style = yaml.FlowStyle
		}
		for _, it := range v.items {
			n.Content = append(n.Content, yamlNode(it, sortKeys))
		}
		return n
	case KindObject:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		if len(v.members) == 0 {
			n.Style = yaml.FlowStyle
		}
		for _, m := range orderedMembers(v, sortKeys) {
			n.Content = append(n.Content,
				yamlString(m.Key),
				yamlNode(m.Value, sortKeys))
		}
		return n
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}

// yamlString returns a string scalar. Block literals lose their final line
// break when the document ends on them, and a plain "<<" key reads back as
// a merge, so both are written double-quoted.
func yamlString(s string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
	if s == "<<" || strings.ContainsAny(s, "\n\r") {
		n.Style = yaml.DoubleQuotedStyle
	}
	return n
}

func yamlFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	return formatFloat(f)
}
