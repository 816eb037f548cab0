package llmfmt

import (
	"encoding/csv"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ============================================================
// Tabular Encoders (TSV, CSV)
// ============================================================
//
// Both accept only an Array of Objects; any other root is an EncodeError.
// Columns are the union of all keys in order of first appearance (sorted
// with SortKeys); a row missing a column gets an empty cell. Null is an
// empty cell and nested arrays or objects are written as compact JSON.

// TSVEncoder writes tab-separated values with a header row. Backslash,
// tab, newline and carriage return inside cells are escaped as \\ \t \n \r.
type TSVEncoder struct{}

// Format returns FormatTSV.
func (TSVEncoder) Format() Format { return FormatTSV }

// Encode renders v; every line, the last included, ends in "\n". An empty
// array encodes as an empty string.
func (TSVEncoder) Encode(v *Value, opts EncodeOptions) (string, error) {
	cols, rows, err := tableShape(v, FormatTSV, opts.SortKeys)
	if err != nil || len(cols) == 0 {
		return "", err
	}

	var b strings.Builder
	writeLine := func(cells []string) {
		for i, c := range cells {
			if i > 0 {
				b.WriteByte('\t')
			}
			b.WriteString(escapeTSV(c))
		}
		b.WriteByte('\n')
	}
	writeLine(cols)
	for _, row := range rows {
		writeLine(rowCells(row, cols, opts.SortKeys))
	}
	return b.String(), nil
}

// CSVEncoder writes RFC 4180 comma-separated values with a header row.
type CSVEncoder struct{}

// Format returns FormatCSV.
func (CSVEncoder) Format() Format { return FormatCSV }

// Encode renders v with "\n" line endings. An empty array encodes as an
// empty string.
func (CSVEncoder) Encode(v *Value, opts EncodeOptions) (string, error) {
	cols, rows, err := tableShape(v, FormatCSV, opts.SortKeys)
	if err != nil || len(cols) == 0 {
		return "", err
	}

	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.Write(cols); err != nil {
		return "", &EncodeError{Format: FormatCSV, Reason: errors.Wrap(err, "write header").Error()}
	}
	for _, row := range rows {
		if err := w.Write(rowCells(row, cols, opts.SortKeys)); err != nil {
			return "", &EncodeError{Format: FormatCSV, Reason: errors.Wrap(err, "write row").Error()}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", &EncodeError{Format: FormatCSV, Reason: errors.Wrap(err, "flush").Error()}
	}
	return b.String(), nil
}

// tableShape validates v as a table and returns its columns and rows.
func tableShape(v *Value, format Format, sortKeys bool) ([]string, []*Value, error) {
	v = expand(v)
	var rows []*Value
	switch v.Kind() {
	case KindArray:
		rows = make([]*Value, len(v.items))
		for i, it := range v.items {
			it = expand(it)
			if it.Kind() != KindObject {
				return nil, nil, &EncodeError{
					Format: format,
					Reason: "row " + strconv.Itoa(i) + " is " + it.Kind().String() + ", expected an object",
				}
			}
			rows[i] = it
		}
	default:
		return nil, nil, &EncodeError{
			Format: format,
			Reason: "requires an array of objects, got " + v.Kind().String(),
		}
	}

	seen := make(map[string]bool)
	var cols []string
	for _, row := range rows {
		for _, m := range row.members {
			if !seen[m.Key] {
				seen[m.Key] = true
				cols = append(cols, m.Key)
			}
		}
	}
	if sortKeys {
		sort.Strings(cols)
	}
	return cols, rows, nil
}

func rowCells(row *Value, cols []string, sortKeys bool) []string {
	cells := make([]string, len(cols))
	for i, c := range cols {
		if v, ok := row.Get(c); ok {
			cells[i] = cellText(v, sortKeys)
		}
	}
	return cells
}

func cellText(v *Value, sortKeys bool) string {
	v = expand(v)
	switch v.Kind() {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.boolVal)
	case KindInt:
		return strconv.FormatInt(v.intVal, 10)
	case KindFloat:
		switch {
		case math.IsNaN(v.floatVal):
			return "nan"
		case math.IsInf(v.floatVal, 1):
			return "inf"
		case math.IsInf(v.floatVal, -1):
			return "-inf"
		}
		return formatFloat(v.floatVal)
	case KindString:
		return v.strVal
	default:
		return compactJSON(v, sortKeys)
	}
}

func escapeTSV(s string) string {
	if !strings.ContainsAny(s, "\\\t\n\r") {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, "\t", `\t`, "\n", `\n`, "\r", `\r`)
	return r.Replace(s)
}
