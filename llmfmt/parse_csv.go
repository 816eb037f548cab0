package llmfmt

import (
	"bytes"
	"encoding/csv"
	"strings"

	"github.com/pkg/errors"
)

// ============================================================
// CSV / TSV Parsers
// ============================================================
//
// Both produce an Array of Objects keyed by the header row, with every cell
// as a String. A row shorter or longer than the header is zipped to the
// shorter of the two. With NoHeader the result is an Array of Arrays.

// CSVParser parses RFC 4180 comma-separated values.
type CSVParser struct {
	// Comma is the field delimiter; zero means ','.
	Comma rune
	// NoHeader treats the first row as data.
	NoHeader bool
}

// Format returns FormatCSV.
func (CSVParser) Format() Format { return FormatCSV }

// Parse reads all records in data.
func (p CSVParser) Parse(data []byte) (*Value, error) {
	r := csv.NewReader(bytes.NewReader(trimBOM(data)))
	if p.Comma != 0 {
		r.Comma = p.Comma
	}
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		pe := &ParseError{Format: FormatCSV, Message: err.Error(), Err: errors.Wrap(err, "read csv")}
		var cerr *csv.ParseError
		if errors.As(err, &cerr) {
			pe.Pos = Position{Line: cerr.Line, Column: cerr.Column}
			pe.Message = cerr.Err.Error()
		}
		return nil, pe
	}
	return tableValue(records, p.NoHeader), nil
}

// TSVParser parses tab-separated values. There is no quoting; the escapes
// \\ \t \n \r written by TSVEncoder are decoded in every cell.
type TSVParser struct {
	// NoHeader treats the first row as data.
	NoHeader bool
}

// Format returns FormatTSV.
func (TSVParser) Format() Format { return FormatTSV }

// Parse reads all rows in data. One trailing newline is ignored. Blank
// lines are skipped unless the table has a single column, where a blank
// line is an empty cell; "\n\n" is one row with an empty "" column.
func (p TSVParser) Parse(data []byte) (*Value, error) {
	text := string(trimBOM(data))
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return Array(), nil
	}

	lines := strings.Split(text, "\n")
	records := make([][]string, 0, len(lines))
	width := 0
	for i, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		if line == "" && i > 0 && width > 1 {
			continue
		}
		cells := strings.Split(line, "\t")
		for j, c := range cells {
			cells[j] = unescapeTSV(c)
		}
		if i == 0 {
			width = len(cells)
		}
		records = append(records, cells)
	}
	return tableValue(records, p.NoHeader), nil
}

func tableValue(records [][]string, noHeader bool) *Value {
	if len(records) == 0 {
		return Array()
	}
	if noHeader {
		rows := make([]*Value, len(records))
		for i, rec := range records {
			cells := make([]*Value, len(rec))
			for j, c := range rec {
				cells[j] = String(c)
			}
			rows[i] = Array(cells...)
		}
		return Array(rows...)
	}

	header := records[0]
	rows := make([]*Value, 0, len(records)-1)
	for _, rec := range records[1:] {
		n := min(len(header), len(rec))
		b := NewObjectBuilder(n)
		for j := 0; j < n; j++ {
			b.Set(header[j], String(rec[j]))
		}
		rows = append(rows, b.Build())
	}
	return Array(rows...)
}

func unescapeTSV(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		switch s[i+1] {
		case '\\':
			b.WriteByte('\\')
		case 't':
			b.WriteByte('\t')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		default:
			b.WriteByte(c)
			continue
		}
		i++
	}
	return b.String()
}
