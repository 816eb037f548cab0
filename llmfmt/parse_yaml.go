package llmfmt

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ============================================================
// YAML Parser
// ============================================================
//
// Walks the yaml.v3 node graph rather than decoding into interface{} so
// mapping order survives. Scalars map by resolved tag:
//
//   !!null -> Null      !!bool -> Bool     !!int -> Int (Float on overflow)
//   !!float -> Float    anything else -> String with the source text
//
// Aliases are expanded and "<<" merge keys are applied; explicit keys of
// the mapping always win over merged ones.

// YAMLParser parses YAML streams. A stream with several documents yields
// an Array of the documents; an empty stream yields Null.
type YAMLParser struct{}

// Format returns FormatYAML.
func (YAMLParser) Format() Format { return FormatYAML }

// maxAliasExpansion caps the values produced by expanding aliases, so a
// small document of nested anchors cannot expand into billions of nodes.
const maxAliasExpansion = 1_000_000

var yamlLineRegex = regexp.MustCompile(`^(?:yaml: )?line (\d+): `)

// Parse reads every document in data.
func (YAMLParser) Parse(data []byte) (*Value, error) {
	data = trimBOM(data)
	dec := yaml.NewDecoder(bytes.NewReader(data))

	var docs []*Value
	for {
		var node yaml.Node
		err := dec.Decode(&node)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, yamlParseError(err)
		}
		r := &yamlReader{}
		v, err := r.convert(&node, 0, false)
		if err != nil {
			return nil, err
		}
		docs = append(docs, v)
	}

	switch len(docs) {
	case 0:
		return Null(), nil
	case 1:
		return docs[0], nil
	default:
		return Array(docs...), nil
	}
}

// yamlParseError converts a yaml.v3 error ("yaml: line 3: did not find
// expected key") into a *ParseError carrying the line.
func yamlParseError(err error) *ParseError {
	msg := strings.TrimPrefix(err.Error(), "yaml: ")
	pe := &ParseError{Format: FormatYAML, Message: msg, Err: err}
	if m := yamlLineRegex.FindStringSubmatch(err.Error()); m != nil {
		if line, convErr := strconv.Atoi(m[1]); convErr == nil {
			pe.Pos = Position{Line: line}
			pe.Message = strings.TrimPrefix(msg, "line "+m[1]+": ")
		}
	}
	return pe
}

type yamlReader struct {
	expanded int
}

func nodeError(n *yaml.Node, format string, args ...interface{}) *ParseError {
	return &ParseError{
		Format:  FormatYAML,
		Pos:     Position{Line: n.Line, Column: n.Column},
		Message: fmt.Sprintf(format, args...),
	}
}

func (r *yamlReader) convert(n *yaml.Node, depth int, viaAlias bool) (*Value, error) {
	if depth > MaxNesting {
		return nil, nodeError(n, "nesting too deep")
	}
	if viaAlias {
		r.expanded++
		if r.expanded > maxAliasExpansion {
			return nil, nodeError(n, "document expands too many aliases")
		}
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null(), nil
		}
		return r.convert(n.Content[0], depth, viaAlias)

	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, nodeError(n, "unknown anchor %q", n.Value)
		}
		return r.convert(n.Alias, depth, true)

	case yaml.ScalarNode:
		return scalarFromYAML(n)

	case yaml.SequenceNode:
		items := make([]*Value, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := r.convert(c, depth+1, viaAlias)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return Array(items...), nil

	case yaml.MappingNode:
		return r.mapping(n, depth, viaAlias)
	}
	return nil, nodeError(n, "unsupported node kind %d", n.Kind)
}

func (r *yamlReader) mapping(n *yaml.Node, depth int, viaAlias bool) (*Value, error) {
	if len(n.Content)%2 != 0 {
		return nil, nodeError(n, "mapping has a key without a value")
	}

	explicit := make(map[string]bool, len(n.Content)/2)
	for i := 0; i < len(n.Content); i += 2 {
		k := resolveAlias(n.Content[i])
		if !isMergeKey(k) {
			explicit[k.Value] = true
		}
	}

	b := NewObjectBuilder(len(n.Content) / 2)
	for i := 0; i < len(n.Content); i += 2 {
		k, vn := resolveAlias(n.Content[i]), n.Content[i+1]
		if isMergeKey(k) {
			if err := r.merge(b, vn, explicit, depth, viaAlias); err != nil {
				return nil, err
			}
			continue
		}
		if k.Kind != yaml.ScalarNode {
			return nil, nodeError(k, "mapping keys must be scalars")
		}
		v, err := r.convert(vn, depth+1, viaAlias)
		if err != nil {
			return nil, err
		}
		b.Set(k.Value, v)
	}
	return b.Build(), nil
}

// merge applies a "<<" value: a mapping, or a sequence of mappings where
// earlier entries take precedence over later ones.
func (r *yamlReader) merge(b *ObjectBuilder, src *yaml.Node, explicit map[string]bool, depth int, viaAlias bool) error {
	if src.Kind == yaml.AliasNode {
		viaAlias = true
	}
	src = resolveAlias(src)
	var sources []*yaml.Node
	switch src.Kind {
	case yaml.MappingNode:
		sources = []*yaml.Node{src}
	case yaml.SequenceNode:
		sources = src.Content
	default:
		return nodeError(src, "merge value must be a mapping or a sequence of mappings")
	}

	for _, s := range sources {
		if s.Kind == yaml.AliasNode {
			viaAlias = true
		}
		s = resolveAlias(s)
		if s.Kind != yaml.MappingNode {
			return nodeError(s, "merge value must be a mapping or a sequence of mappings")
		}
		merged, err := r.mapping(s, depth, viaAlias)
		if err != nil {
			return err
		}
		for _, m := range merged.Members() {
			if explicit[m.Key] || b.Has(m.Key) {
				continue
			}
			b.Set(m.Key, m.Value)
		}
	}
	return nil
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func isMergeKey(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!merge"
}

func scalarFromYAML(n *yaml.Node) (*Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, scalarDecodeError(n, err)
		}
		return Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return Int(i), nil
		}
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, scalarDecodeError(n, err)
		}
		return Float(f), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, scalarDecodeError(n, err)
		}
		return Float(f), nil
	default:
		// !!str, !!timestamp, !!binary and application tags keep their text.
		return String(n.Value), nil
	}
}

func scalarDecodeError(n *yaml.Node, err error) *ParseError {
	pe := nodeError(n, "invalid %s scalar %q", strings.TrimPrefix(n.ShortTag(), "!!"), n.Value)
	pe.Err = errors.Wrap(err, "decode scalar")
	return pe
}
