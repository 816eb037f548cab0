package llmfmt

import (
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

// JSONEncoder writes JSON. Output is compact unless EncodeOptions.Indent
// is set. Floats always carry a fraction or exponent so they read back as
// floats; NaN and infinities cannot be written.
type JSONEncoder struct{}

// Format returns FormatJSON.
func (JSONEncoder) Format() Format { return FormatJSON }

var jsonAPIs sync.Map // indent -> jsoniter.API

func jsonAPI(indent int) jsoniter.API {
	if api, ok := jsonAPIs.Load(indent); ok {
		return api.(jsoniter.API)
	}
	api := jsoniter.Config{IndentionStep: indent, EscapeHTML: false}.Froze()
	actual, _ := jsonAPIs.LoadOrStore(indent, api)
	return actual.(jsoniter.API)
}

// Encode renders v as a single JSON document without a trailing newline.
func (JSONEncoder) Encode(v *Value, opts EncodeOptions) (string, error) {
	api := jsonAPI(opts.Indent)
	stream := api.BorrowStream(nil)
	defer api.ReturnStream(stream)

	if err := writeJSON(stream, v, opts.SortKeys); err != nil {
		return "", err
	}
	if stream.Error != nil {
		return "", &EncodeError{Format: FormatJSON, Reason: errors.Wrap(stream.Error, "write json").Error()}
	}
	return string(stream.Buffer()), nil
}

func writeJSON(stream *jsoniter.Stream, v *Value, sortKeys bool) error {
	v = expand(v)
	switch v.Kind() {
	case KindNull:
		stream.WriteNil()
	case KindBool:
		stream.WriteBool(v.boolVal)
	case KindInt:
		stream.WriteInt64(v.intVal)
	case KindFloat:
		if !isFinite(v.floatVal) {
			return &EncodeError{Format: FormatJSON, Reason: "cannot represent " + formatNonFinite(v.floatVal)}
		}
		stream.WriteRaw(formatFloat(v.floatVal))
	case KindString:
		stream.WriteString(v.strVal)
	case KindArray:
		if len(v.items) == 0 {
			stream.WriteEmptyArray()
			return nil
		}
		stream.WriteArrayStart()
		for i, it := range v.items {
			if i > 0 {
				stream.WriteMore()
			}
			if err := writeJSON(stream, it, sortKeys); err != nil {
				return err
			}
		}
		stream.WriteArrayEnd()
	case KindObject:
		if len(v.members) == 0 {
			stream.WriteEmptyObject()
			return nil
		}
		stream.WriteObjectStart()
		for i, m := range orderedMembers(v, sortKeys) {
			if i > 0 {
				stream.WriteMore()
			}
			stream.WriteObjectField(m.Key)
			if err := writeJSON(stream, m.Value, sortKeys); err != nil {
				return err
			}
		}
		stream.WriteObjectEnd()
	}
	return nil
}

func formatNonFinite(f float64) string {
	switch {
	case f != f:
		return "NaN"
	case f > 0:
		return "+Inf"
	default:
		return "-Inf"
	}
}

// compactJSON renders v as compact JSON, used for nested cells in tabular
// output. Non-finite floats become null there.
func compactJSON(v *Value, sortKeys bool) string {
	out, err := JSONEncoder{}.Encode(sanitizeFloats(v), EncodeOptions{SortKeys: sortKeys})
	if err != nil {
		return ""
	}
	return out
}

// sanitizeFloats replaces NaN and infinities with null.
func sanitizeFloats(v *Value) *Value {
	switch v.Kind() {
	case KindFloat:
		if !isFinite(v.floatVal) {
			return Null()
		}
	case KindArray:
		items := make([]*Value, len(v.items))
		for i, it := range v.items {
			items[i] = sanitizeFloats(it)
		}
		return &Value{kind: KindArray, items: items}
	case KindObject:
		ms := make([]Member, len(v.members))
		for i, m := range v.members {
			ms[i] = Member{Key: m.Key, Value: sanitizeFloats(m.Value)}
		}
		return &Value{kind: KindObject, members: ms}
	}
	return v
}
