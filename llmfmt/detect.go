package llmfmt

import (
	"bytes"
	"encoding/csv"
	"io"

	"github.com/pkg/errors"
)

// ============================================================
// Format Auto-Detection
// ============================================================
//
// Candidates are tried in order; a candidate whose predicate matches but
// whose parser fails is recorded and the chain moves on:
//
//   1. leading '{' or '['           -> JSON
//   2. leading '<'                   -> XML
//   3. always                        -> YAML
//   4. delimiter on first line and a
//      consistent column count       -> TSV (tab) / CSV (comma)
//
// YAML accepts almost any text as a plain scalar. A YAML result that is a
// bare string is therefore only kept when nothing later in the chain
// parses the input. Input that opened like JSON or XML is never taken as a
// bare YAML string or as a table: a broken document fails instead of
// turning into a header-only CSV.

// tabularSampleLines is how many non-blank lines the CSV/TSV check reads.
const tabularSampleLines = 10

type detectCandidate struct {
	format Format
	match  func(data []byte) bool
	parser Parser
}

var detectChain = []detectCandidate{
	{FormatJSON, func(data []byte) bool { c := leadingByte(data); return c == '{' || c == '[' }, JSONParser{}},
	{FormatXML, func(data []byte) bool { return leadingByte(data) == '<' }, XMLParser{}},
	{FormatYAML, func([]byte) bool { return true }, YAMLParser{}},
	{FormatTSV, func(data []byte) bool { return looksTabular(data, '\t') }, TSVParser{}},
	{FormatCSV, func(data []byte) bool { return !firstLineHas(data, '\t') && looksTabular(data, ',') }, CSVParser{}},
}

var (
	errBareScalar     = errors.New("input is a bare scalar, not a document")
	errStructuredLead = errors.New("input opens like a JSON or XML document, not a table")
)

// Detect selects the input format of data and returns it together with the
// parsed value. When no candidate succeeds the error is an
// *AutoDetectError listing every attempt.
func Detect(data []byte) (Format, *Value, error) {
	var (
		attempts []DetectAttempt
		scalar   *Value
	)
	lead := leadingByte(data)
	structured := lead == '{' || lead == '[' || lead == '<'
	for _, c := range detectChain {
		if !c.match(data) {
			continue
		}
		if structured && (c.format == FormatTSV || c.format == FormatCSV) {
			attempts = append(attempts, DetectAttempt{Format: c.format, Err: errStructuredLead})
			continue
		}
		v, err := c.parser.Parse(data)
		if err != nil {
			attempts = append(attempts, DetectAttempt{Format: c.format, Err: err})
			continue
		}
		if c.format == FormatYAML && v.Kind() == KindString {
			if structured {
				attempts = append(attempts, DetectAttempt{Format: c.format, Err: errBareScalar})
				continue
			}
			scalar = v
			continue
		}
		return c.format, v, nil
	}
	if scalar != nil {
		return FormatYAML, scalar, nil
	}
	return "", nil, &AutoDetectError{Attempts: attempts}
}

// AutoParser detects the format of each input it is given.
type AutoParser struct{}

// Format returns FormatAuto.
func (AutoParser) Format() Format { return FormatAuto }

// Parse runs Detect and discards the detected format.
func (AutoParser) Parse(data []byte) (*Value, error) {
	_, v, err := Detect(data)
	return v, err
}

func leadingByte(data []byte) byte {
	data = bytes.TrimLeft(trimBOM(data), " \t\r\n")
	if len(data) == 0 {
		return 0
	}
	return data[0]
}

// sampleLines returns up to n non-blank lines of data.
func sampleLines(data []byte, n int) [][]byte {
	var out [][]byte
	for _, line := range bytes.Split(trimBOM(data), []byte{'\n'}) {
		line = bytes.TrimRight(line, "\r")
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		out = append(out, line)
		if len(out) == n {
			break
		}
	}
	return out
}

func firstLineHas(data []byte, sep byte) bool {
	lines := sampleLines(data, 1)
	return len(lines) == 1 && bytes.IndexByte(lines[0], sep) >= 0
}

// looksTabular reports whether the first non-blank line contains sep and
// the sampled rows all have the same number of columns.
func looksTabular(data []byte, sep byte) bool {
	if !firstLineHas(data, sep) {
		return false
	}
	if sep == '\t' {
		lines := sampleLines(data, tabularSampleLines)
		want := bytes.Count(lines[0], []byte{sep})
		for _, l := range lines[1:] {
			if bytes.Count(l, []byte{sep}) != want {
				return false
			}
		}
		return true
	}

	r := csv.NewReader(bytes.NewReader(trimBOM(data)))
	r.FieldsPerRecord = -1
	want := -1
	for i := 0; i < tabularSampleLines; i++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return false
		}
		if want == -1 {
			want = len(rec)
		} else if len(rec) != want {
			return false
		}
	}
	return want > 1
}
