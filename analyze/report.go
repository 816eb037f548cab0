package analyze

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"
)

var reportJSON = jsoniter.Config{
	IndentionStep: 2,
	EscapeHTML:    false,
	SortMapKeys:   true,
}.Froze()

func formatCount(n int) string {
	return humanize.Comma(int64(n))
}

// Format renders the report as a table followed by the data shape and the
// recommendation. Colors are only emitted when useColor is set.
func (r *Report) Format(useColor bool) string {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	dim := color.New(color.Faint)
	for _, c := range []*color.Color{bold, green, dim} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	var b strings.Builder
	title := "Token Analysis"
	if r.Estimated {
		title += " (estimated)"
	} else if r.Tokenizer != "" {
		title += fmt.Sprintf(" (%s)", r.Tokenizer)
	}
	b.WriteString(bold.Sprint(title))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "%-16s %10s %9s\n", "Format", "Tokens", "Savings")
	b.WriteString(strings.Repeat("-", 37))
	b.WriteByte('\n')
	for _, f := range r.Formats {
		line := fmt.Sprintf("%-16s %10s %8.1f%%", f.Name, formatCount(f.Tokens), f.Savings)
		if f.Recommended {
			b.WriteString(green.Sprint(line + "  *"))
		} else {
			b.WriteString(line)
		}
		b.WriteByte('\n')
	}

	b.WriteString("\n")
	b.WriteString(bold.Sprint("Data shape:"))
	fmt.Fprintf(&b, " %s\n", r.Shape.Description)
	if len(r.Shape.SampleKeys) > 0 {
		b.WriteString(dim.Sprintf("Sample keys: %s", strings.Join(r.Shape.SampleKeys, ", ")))
		b.WriteByte('\n')
	}

	if best, ok := r.Recommended(); ok {
		saved := r.OriginalTokens - best.Tokens
		b.WriteString("\n")
		b.WriteString(bold.Sprint("Recommendation:"))
		fmt.Fprintf(&b, " %s saves %s tokens (%.1f%%) per request\n", best.Name, formatCount(saved), best.Savings)
		fmt.Fprintf(&b, "Reason: %s\n", r.Reason)
		fmt.Fprintf(&b, "Use: llmfmt <input> --format %s\n", best.Format)
	}
	return b.String()
}

// JSON renders the report for machine consumption.
func (r *Report) JSON() ([]byte, error) {
	return reportJSON.Marshal(r)
}
