package llmfmt

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"
)

// ============================================================
// XML Parser
// ============================================================
//
// Maps a document onto the value model the way xmltodict does:
//
//   <root a="1"><x>hi</x><x>yo</x><y/>text</root>
//   -> {"root": {"@a": "1", "x": ["hi", "yo"], "y": null, "#text": "text"}}
//
// Namespace prefixes are stripped and xmlns declarations dropped. All
// leaves are strings; XML has no typed scalars.

const (
	xmlAttrPrefix = "@"
	xmlTextKey    = "#text"
)

// XMLParser parses a single-rooted XML document.
type XMLParser struct{}

// Format returns FormatXML.
func (XMLParser) Format() Format { return FormatXML }

type xmlFrame struct {
	name     string
	attrs    []Member
	order    []string
	children map[string][]*Value
	text     strings.Builder
}

func (f *xmlFrame) addChild(name string, v *Value) {
	if f.children == nil {
		f.children = make(map[string][]*Value)
	}
	if _, ok := f.children[name]; !ok {
		f.order = append(f.order, name)
	}
	f.children[name] = append(f.children[name], v)
}

func (f *xmlFrame) value() *Value {
	text := strings.TrimSpace(f.text.String())
	if len(f.attrs) == 0 && len(f.order) == 0 {
		if text == "" {
			return Null()
		}
		return String(text)
	}

	b := NewObjectBuilder(len(f.attrs) + len(f.order) + 1)
	for _, a := range f.attrs {
		b.Set(a.Key, a.Value)
	}
	for _, name := range f.order {
		vs := f.children[name]
		if len(vs) == 1 {
			b.Set(name, vs[0])
		} else {
			b.Set(name, Array(vs...))
		}
	}
	if text != "" {
		b.Set(xmlTextKey, String(text))
	}
	return b.Build()
}

// Parse reads one XML document.
func (XMLParser) Parse(data []byte) (*Value, error) {
	data = trimBOM(data)
	d := xml.NewDecoder(bytes.NewReader(data))

	fail := func(msg string, err error) (*Value, error) {
		line, col := d.InputPos()
		return nil, &ParseError{
			Format:  FormatXML,
			Pos:     Position{Line: line, Column: col, Offset: int(d.InputOffset())},
			Message: msg,
			Err:     err,
		}
	}

	var (
		stack []*xmlFrame
		root  *Value
	)
	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			msg := err.Error()
			if se, ok := err.(*xml.SyntaxError); ok {
				msg = se.Msg
			}
			return fail(msg, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) == 0 && root != nil {
				return fail("multiple root elements", nil)
			}
			if len(stack) >= MaxNesting {
				return fail("nesting too deep", nil)
			}
			f := &xmlFrame{name: t.Name.Local}
			for _, a := range t.Attr {
				if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
					continue
				}
				f.attrs = append(f.attrs, Member{Key: xmlAttrPrefix + a.Name.Local, Value: String(a.Value)})
			}
			stack = append(stack, f)

		case xml.EndElement:
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			v := f.value()
			if len(stack) == 0 {
				root = Object(Member{Key: f.name, Value: v})
			} else {
				stack[len(stack)-1].addChild(f.name, v)
			}

		case xml.CharData:
			if len(stack) == 0 {
				if len(bytes.TrimSpace(t)) != 0 {
					return fail("text outside the root element", nil)
				}
				continue
			}
			stack[len(stack)-1].text.Write(t)
		}
	}

	if root == nil {
		return fail("no root element", nil)
	}
	return root, nil
}
