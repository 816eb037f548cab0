package llmfmt

import (
	"encoding/json"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/jsonc"
)

// ============================================================
// JSON Parser
// ============================================================
//
// Reads JSON with a hand-driven jsoniter Iterator so that object keys keep
// their source order and number literals keep their text until we decide
// between Int and Float:
//
//   - literals without '.', 'e' or 'E' become Int
//   - everything else becomes Float
//   - integers outside the int64 range fall back to Float and lose
//     precision beyond 2^53
//
// Strings and keys must be valid UTF-8; jsoniter passes invalid bytes
// through, so they are checked here.

// JSONParser parses JSON documents.
type JSONParser struct {
	// AllowComments accepts // and /* */ comments and trailing commas.
	AllowComments bool
}

// Format returns FormatJSON.
func (JSONParser) Format() Format { return FormatJSON }

var jsonNumberRegex = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?(?:[eE][+-]?\d+)?$`)

// Parse reads exactly one JSON value; anything but whitespace after it is
// an error.
func (p JSONParser) Parse(data []byte) (*Value, error) {
	data = trimBOM(data)
	if p.AllowComments {
		data = jsonc.ToJSON(data)
	}
	if isBlank(data) {
		return nil, &ParseError{Format: FormatJSON, Pos: Position{Line: 1, Column: 1}, Message: "empty input"}
	}

	r := &jsonReader{data: data, iter: jsoniter.ParseBytes(jsoniter.ConfigDefault, data)}
	v := r.readValue(0)
	if r.err == nil && r.iter.Error != nil && r.iter.Error != io.EOF {
		r.err = r.iter.Error
	}
	if r.err == nil && r.iter.Error == nil {
		// Anything left but whitespace means a second top-level value.
		if r.iter.WhatIsNext(); r.iter.Error == nil {
			r.fail("unexpected data after top-level value")
		}
	}
	if r.err != nil {
		return nil, jsonParseError(data, r.err)
	}
	return v, nil
}

type jsonReader struct {
	data []byte
	iter *jsoniter.Iterator
	err  error
}

// checkUTF8 fails the read when s holds invalid UTF-8. The position is
// the first invalid byte in the input.
func (r *jsonReader) checkUTF8(s, what string) bool {
	if utf8.ValidString(s) {
		return true
	}
	if r.err == nil {
		r.err = &ParseError{
			Format:  FormatJSON,
			Pos:     positionAt(r.data, invalidUTF8Offset(r.data)),
			Message: "invalid UTF-8 in " + what,
		}
	}
	return false
}

func invalidUTF8Offset(data []byte) int {
	for i := 0; i < len(data); {
		c, size := utf8.DecodeRune(data[i:])
		if c == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(data)
}

func (r *jsonReader) fail(msg string) {
	if r.err == nil {
		r.err = &ParseError{Format: FormatJSON, Message: msg}
	}
}

func (r *jsonReader) failed() bool {
	if r.err != nil {
		return true
	}
	if r.iter.Error != nil && r.iter.Error != io.EOF {
		r.err = r.iter.Error
		return true
	}
	return false
}

func (r *jsonReader) readValue(depth int) *Value {
	if depth > MaxNesting {
		r.fail("nesting too deep")
		return nil
	}
	iter := r.iter
	switch iter.WhatIsNext() {
	case jsoniter.NilValue:
		iter.ReadNil()
		return Null()
	case jsoniter.BoolValue:
		return Bool(iter.ReadBool())
	case jsoniter.StringValue:
		str := iter.ReadString()
		if r.failed() || !r.checkUTF8(str, "string") {
			return nil
		}
		return String(str)
	case jsoniter.NumberValue:
		return r.readNumber(string(iter.ReadNumber()))
	case jsoniter.ArrayValue:
		var items []*Value
		iter.ReadArrayCB(func(iter *jsoniter.Iterator) bool {
			it := r.readValue(depth + 1)
			if r.failed() {
				return false
			}
			items = append(items, it)
			return true
		})
		if r.failed() {
			return nil
		}
		return Array(items...)
	case jsoniter.ObjectValue:
		b := NewObjectBuilder(4)
		iter.ReadObjectCB(func(iter *jsoniter.Iterator, key string) bool {
			if !r.checkUTF8(key, "object key") {
				return false
			}
			v := r.readValue(depth + 1)
			if r.failed() {
				return false
			}
			b.Set(key, v)
			return true
		})
		if r.failed() {
			return nil
		}
		return b.Build()
	default:
		if iter.Error == io.EOF {
			r.fail("unexpected end of input")
			return nil
		}
		iter.ReportError("readValue", "unexpected character")
		r.failed()
		return nil
	}
}

func (r *jsonReader) readNumber(lit string) *Value {
	if r.failed() {
		return nil
	}
	if !jsonNumberRegex.MatchString(lit) {
		r.fail("invalid number literal " + strconv.Quote(lit))
		return nil
	}
	if !strings.ContainsAny(lit, ".eE") {
		if i, err := strconv.ParseInt(lit, 10, 64); err == nil {
			return Int(i)
		}
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		r.fail("number out of range " + strconv.Quote(lit))
		return nil
	}
	return Float(f)
}

// jsonParseError converts a reader failure into a *ParseError. jsoniter
// does not expose the failing offset, so the position comes from the
// standard library syntax checker when it agrees the input is invalid.
func jsonParseError(data []byte, err error) *ParseError {
	pe, ok := err.(*ParseError)
	if !ok {
		pe = &ParseError{Format: FormatJSON, Message: err.Error(), Err: err}
	}
	if pe.Pos.IsValid() {
		return pe
	}
	var raw json.RawMessage
	if serr, ok := json.Unmarshal(data, &raw).(*json.SyntaxError); ok {
		pe.Pos = positionAt(data, int(serr.Offset))
		if pe.Err == nil {
			pe.Err = serr
		}
	}
	return pe
}
