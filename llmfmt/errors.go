package llmfmt

import (
	"fmt"
	"strings"
)

// Position is a location in parser input. Line and Column are 1-based;
// zero means the parser could not tell.
type Position struct {
	Line   int
	Column int
	Offset int
}

// String returns position as "line:column", or "line N" when the column is
// unknown.
func (p Position) String() string {
	if p.Column == 0 {
		return fmt.Sprintf("line %d", p.Line)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// IsValid reports whether the position carries a line.
func (p Position) IsValid() bool {
	return p.Line > 0
}

// positionAt converts a byte offset in data into a Position.
func positionAt(data []byte, offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(data) {
		offset = len(data)
	}
	line, col := 1, 1
	for _, c := range data[:offset] {
		if c == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return Position{Line: line, Column: col, Offset: offset}
}

// ============================================================
// Error Taxonomy
// ============================================================

// ConfigError reports an invalid pipeline configuration detected when the
// pipeline is built: a missing or unknown format, a nil filter.
type ConfigError struct {
	Field   string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	msg := "llmfmt: invalid configuration"
	if e.Field != "" {
		msg += " (" + e.Field + ")"
	}
	msg += ": " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ParseError reports input that is not valid in the chosen format.
type ParseError struct {
	Format  Format
	Pos     Position
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Format))
	b.WriteString(" parse error")
	if e.Pos.IsValid() {
		b.WriteString(" at ")
		b.WriteString(e.Pos.String())
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// DetectAttempt records one format tried during auto-detection.
type DetectAttempt struct {
	Format Format
	Err    error
}

// AutoDetectError reports that no candidate format could parse the input.
// Attempts lists every format that was tried, in order, with its failure.
type AutoDetectError struct {
	Attempts []DetectAttempt
}

func (e *AutoDetectError) Error() string {
	if len(e.Attempts) == 0 {
		return "auto-detect: no candidate format matched the input"
	}
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = fmt.Sprintf("%s: %v", a.Format, a.Err)
	}
	return "auto-detect: could not parse input as any known format (" + strings.Join(parts, "; ") + ")"
}

// Formats returns the formats that were attempted.
func (e *AutoDetectError) Formats() []Format {
	out := make([]Format, len(e.Attempts))
	for i, a := range e.Attempts {
		out[i] = a.Format
	}
	return out
}

// FilterConfigError reports a filter that cannot be constructed, such as a
// malformed path expression or a negative depth. Offset is the byte offset
// into Expr where the problem was found, or -1.
type FilterConfigError struct {
	Filter  string
	Expr    string
	Offset  int
	Message string
}

func (e *FilterConfigError) Error() string {
	if e.Offset >= 0 && e.Expr != "" {
		return fmt.Sprintf("%s filter: %s at offset %d in %q", e.Filter, e.Message, e.Offset, e.Expr)
	}
	return fmt.Sprintf("%s filter: %s", e.Filter, e.Message)
}

// FilterApplyError reports a filter that failed on a particular value.
type FilterApplyError struct {
	Filter  string
	Message string
}

func (e *FilterApplyError) Error() string {
	return fmt.Sprintf("%s filter: %s", e.Filter, e.Message)
}

// EncodeError reports a value whose shape the target format cannot express.
type EncodeError struct {
	Format Format
	Reason string
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("%s encode error: %s", e.Format, e.Reason)
}

// Stage names a step of a pipeline run.
type Stage string

const (
	StageConfig Stage = "config"
	StageParse  Stage = "parse"
	StageFilter Stage = "filter"
	StageEncode Stage = "encode"
)

// StageError annotates a failure with the pipeline stage that produced it.
// Filter is set for filter-stage failures.
type StageError struct {
	Stage  Stage
	Filter string
	Err    error
}

func (e *StageError) Error() string {
	if e.Filter != "" {
		return fmt.Sprintf("%s stage (%s): %v", e.Stage, e.Filter, e.Err)
	}
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
