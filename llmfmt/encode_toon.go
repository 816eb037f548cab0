package llmfmt

import (
	"regexp"
	"strconv"
	"strings"
)

// ============================================================
// TOON Encoder
// ============================================================
//
// TOON is an indentation-based notation that spends as few tokens as it
// can on structure:
//
//   user:
//     name: Ada
//     tags[2]: math,code
//   rows[2]{id,name}:
//     1,A
//     2,B
//   mixed[2]:
//     - 1
//     - id: 3
//       ok: true
//
// Arrays carry their length. Arrays of objects that share one key set and
// hold only scalars collapse into a header plus one row per element;
// scalar arrays are written inline; everything else becomes a "- " list.
// Strings are quoted only when they would otherwise read as something
// else.

// TOONEncoder writes TOON.
type TOONEncoder struct{}

// Format returns FormatTOON.
func (TOONEncoder) Format() Format { return FormatTOON }

var (
	toonNumericRegex     = regexp.MustCompile(`^-?\d+(?:\.\d+)?(?:e[+-]?\d+)?$`)
	toonLeadingZeroRegex = regexp.MustCompile(`^0\d+$`)
	toonIdentifierRegex  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)
)

// Encode renders v. An empty root object encodes as an empty string.
func (TOONEncoder) Encode(v *Value, opts EncodeOptions) (string, error) {
	e := &toonEmitter{
		sortKeys: opts.SortKeys,
		unit:     opts.indentOr(2),
		delim:    opts.delimiter(),
	}
	v = expand(v)
	switch v.Kind() {
	case KindObject:
		e.object(v, 0)
	case KindArray:
		e.array("", v, 0)
	default:
		e.sb.WriteString(e.scalar(v))
	}
	return e.sb.String(), nil
}

type toonEmitter struct {
	sb       strings.Builder
	sortKeys bool
	unit     int
	delim    string
	lines    int
}

// newline starts a new output line; the first line needs no separator.
func (e *toonEmitter) newline() {
	if e.lines > 0 {
		e.sb.WriteByte('\n')
	}
	e.lines++
}

func (e *toonEmitter) indent(depth int) string {
	return strings.Repeat(" ", depth*e.unit)
}

func (e *toonEmitter) object(obj *Value, depth int) {
	for _, m := range orderedMembers(obj, e.sortKeys) {
		e.field(e.indent(depth), m.Key, m.Value, depth)
	}
}

// field writes one key/value pair. lead is the text before the key on the
// first line; children are written at depth+1.
func (e *toonEmitter) field(lead, key string, v *Value, depth int) {
	v = expand(v)
	k := e.key(key)
	switch v.Kind() {
	case KindObject:
		e.newline()
		e.sb.WriteString(lead)
		e.sb.WriteString(k)
		e.sb.WriteByte(':')
		e.object(v, depth+1)
	case KindArray:
		e.array(lead+k, v, depth)
	default:
		e.newline()
		e.sb.WriteString(lead)
		e.sb.WriteString(k)
		e.sb.WriteString(": ")
		e.sb.WriteString(e.scalar(v))
	}
}

// array writes an array whose header line starts with lead (indentation
// plus key, if any). Rows and list items go at depth+1.
func (e *toonEmitter) array(lead string, arr *Value, depth int) {
	items := arr.Items()
	e.newline()
	e.sb.WriteString(lead)
	e.sb.WriteString(e.lengthMarker(len(items)))

	if len(items) == 0 {
		e.sb.WriteByte(':')
		return
	}

	if cols, ok := e.tabularColumns(items); ok {
		e.sb.WriteByte('{')
		for i, c := range cols {
			if i > 0 {
				e.sb.WriteString(e.delim)
			}
			e.sb.WriteString(e.key(c))
		}
		e.sb.WriteString("}:")
		for _, it := range items {
			e.newline()
			e.sb.WriteString(e.indent(depth + 1))
			for i, c := range cols {
				if i > 0 {
					e.sb.WriteString(e.delim)
				}
				cell, _ := it.Get(c)
				e.sb.WriteString(e.scalar(cell))
			}
		}
		return
	}

	if allScalars(items) {
		e.sb.WriteString(": ")
		for i, it := range items {
			if i > 0 {
				e.sb.WriteString(e.delim)
			}
			e.sb.WriteString(e.scalar(it))
		}
		return
	}

	e.sb.WriteByte(':')
	for _, it := range items {
		e.listItem(it, depth+1)
	}
}

// listItem writes one "- " entry at depth. An object puts its first field
// on the hyphen line and the rest one level deeper.
func (e *toonEmitter) listItem(v *Value, depth int) {
	v = expand(v)
	hyphen := e.indent(depth) + "- "
	switch v.Kind() {
	case KindObject:
		ms := orderedMembers(v, e.sortKeys)
		if len(ms) == 0 {
			e.newline()
			e.sb.WriteString(e.indent(depth))
			e.sb.WriteByte('-')
			return
		}
		e.field(hyphen, ms[0].Key, ms[0].Value, depth+1)
		for _, m := range ms[1:] {
			e.field(e.indent(depth+1), m.Key, m.Value, depth+1)
		}
	case KindArray:
		e.array(hyphen, v, depth)
	default:
		e.newline()
		e.sb.WriteString(hyphen)
		e.sb.WriteString(e.scalar(v))
	}
}

func (e *toonEmitter) lengthMarker(n int) string {
	s := "[" + strconv.Itoa(n)
	if e.delim != "," {
		s += e.delim
	}
	return s + "]"
}

// tabularColumns reports whether items can be written as a table: every
// item a non-empty object with the same key set and only scalar values.
// Columns follow the first object's (possibly sorted) key order.
func (e *toonEmitter) tabularColumns(items []*Value) ([]string, bool) {
	first := items[0]
	if first.Kind() != KindObject || first.Len() == 0 {
		return nil, false
	}
	ms := orderedMembers(first, e.sortKeys)
	cols := make([]string, len(ms))
	for i, m := range ms {
		cols[i] = m.Key
	}
	for _, it := range items {
		if it.Kind() != KindObject || it.Len() != len(cols) {
			return nil, false
		}
		for _, c := range cols {
			cell, ok := it.Get(c)
			if !ok || !cell.IsScalar() {
				return nil, false
			}
		}
	}
	return cols, true
}

func allScalars(items []*Value) bool {
	for _, it := range items {
		if !it.IsScalar() {
			return false
		}
	}
	return true
}

func (e *toonEmitter) key(k string) string {
	if toonIdentifierRegex.MatchString(k) {
		return k
	}
	return quoteString(k)
}

func (e *toonEmitter) scalar(v *Value) string {
	switch v.Kind() {
	case KindBool:
		return strconv.FormatBool(v.boolVal)
	case KindInt:
		return strconv.FormatInt(v.intVal, 10)
	case KindFloat:
		if !isFinite(v.floatVal) {
			return "null"
		}
		return formatFloat(v.floatVal)
	case KindString:
		if e.needsQuoting(v.strVal) {
			return quoteString(v.strVal)
		}
		return v.strVal
	default:
		return "null"
	}
}

// needsQuoting reports whether s would be misread if written bare.
func (e *toonEmitter) needsQuoting(s string) bool {
	if s == "" {
		return true
	}
	switch s {
	case "true", "false", "null":
		return true
	}
	if s[0] == ' ' || s[len(s)-1] == ' ' || s[0] == '-' {
		return true
	}
	if strings.Contains(s, e.delim) {
		return true
	}
	for _, c := range s {
		switch c {
		case ':', '"', '\\', '[', ']', '{', '}', ',', '\n', '\r', '\t':
			return true
		}
		if c < 0x20 {
			return true
		}
	}
	return toonNumericRegex.MatchString(strings.ToLower(s)) || toonLeadingZeroRegex.MatchString(s)
}

// toonEscaper maps the quote, the backslash and every C0 control to its
// escape; \n \r \t keep their short form and the rest use \u00XX.
var toonEscaper = func() *strings.Replacer {
	const hex = "0123456789abcdef"
	pairs := []string{`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`, "\t", `\t`}
	for c := byte(0); c < 0x20; c++ {
		if c == '\n' || c == '\r' || c == '\t' {
			continue
		}
		pairs = append(pairs, string(rune(c)), `\u00`+string(hex[c>>4])+string(hex[c&0xf]))
	}
	return strings.NewReplacer(pairs...)
}()

func quoteString(s string) string {
	return `"` + toonEscaper.Replace(s) + `"`
}
