// Package analyze compares how many tokens a value costs in each output
// format and recommends the cheapest one for its shape.
package analyze

import (
	"fmt"
	"math"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/Neumenon/llmfmt/llmfmt"
)

// EstimateTokens approximates the token count of s for GPT-style BPE
// tokenizers (about four bytes per token).
func EstimateTokens(s string) int {
	return (len(s) + 3) / 4
}

// Counter counts the tokens in a text.
type Counter func(string) int

// Format names used in reports.
const (
	NamePrettyJSON  = "JSON (pretty)"
	NameCompactJSON = "Compact JSON"
	NameYAML        = "YAML"
	NameTOON        = "TOON"
	NameTSV         = "TSV"
)

// FormatResult is the cost of one output format.
type FormatResult struct {
	Name        string        `json:"name"`
	Format      llmfmt.Format `json:"format"`
	Tokens      int           `json:"tokens"`
	Savings     float64       `json:"savings_percent"`
	Recommended bool          `json:"recommended"`
	Output      string        `json:"-"`
}

// Report compares every format that could encode the value.
type Report struct {
	OriginalTokens int            `json:"original_tokens"`
	Tokenizer      string         `json:"tokenizer"`
	Estimated      bool           `json:"is_estimated"`
	Formats        []FormatResult `json:"formats"`
	Shape          Shape          `json:"data_shape"`
	Recommendation string         `json:"recommendation"`
	Reason         string         `json:"recommendation_reason"`
}

// Recommended returns the recommended format result, if any.
func (r *Report) Recommended() (FormatResult, bool) {
	for _, f := range r.Formats {
		if f.Recommended {
			return f, true
		}
	}
	return FormatResult{}, false
}

// Options configures Analyze.
type Options struct {
	// Counter counts tokens; nil uses EstimateTokens.
	Counter Counter
	// Tokenizer names the counter in the report. Defaults to "estimate".
	Tokenizer string
	// SortKeys is passed to every encoder.
	SortKeys bool
	// SampleSize bounds shape detection on large arrays.
	SampleSize int
}

type candidate struct {
	name    string
	format  llmfmt.Format
	encoder llmfmt.Encoder
	opts    llmfmt.EncodeOptions
}

// Analyze encodes v in every candidate format concurrently, counts tokens
// against pretty-printed JSON as the baseline and recommends a format.
// Formats that cannot encode v are left out of the report; failing to
// produce the baseline is an error.
func Analyze(v *llmfmt.Value, opts Options) (*Report, error) {
	count := opts.Counter
	tokenizer := opts.Tokenizer
	if count == nil {
		count = EstimateTokens
		if tokenizer == "" {
			tokenizer = "estimate"
		}
	}

	base := llmfmt.EncodeOptions{SortKeys: opts.SortKeys}
	pretty := base
	pretty.Indent = 2
	candidates := []candidate{
		{NamePrettyJSON, llmfmt.FormatJSON, llmfmt.JSONEncoder{}, pretty},
		{NameCompactJSON, llmfmt.FormatJSON, llmfmt.JSONEncoder{}, base},
		{NameYAML, llmfmt.FormatYAML, llmfmt.YAMLEncoder{}, base},
		{NameTOON, llmfmt.FormatTOON, llmfmt.TOONEncoder{}, base},
		{NameTSV, llmfmt.FormatTSV, llmfmt.TSVEncoder{}, base},
	}

	outputs := make([]*string, len(candidates))
	var g errgroup.Group
	for i, c := range candidates {
		g.Go(func() error {
			out, err := c.encoder.Encode(v, c.opts)
			if err != nil {
				if i == 0 {
					return errors.Wrap(err, "encode baseline")
				}
				return nil
			}
			if out == "" && c.format == llmfmt.FormatTSV {
				return nil
			}
			outputs[i] = &out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	baseline := count(*outputs[0])
	report := &Report{
		OriginalTokens: baseline,
		Tokenizer:      tokenizer,
		Estimated:      opts.Counter == nil,
		Shape:          DetectShape(v, opts.SampleSize),
	}
	for i, c := range candidates {
		if outputs[i] == nil {
			continue
		}
		tokens := count(*outputs[i])
		savings := 0.0
		if baseline > 0 {
			savings = math.Round(float64(baseline-tokens)/float64(baseline)*1000) / 10
		}
		report.Formats = append(report.Formats, FormatResult{
			Name:    c.name,
			Format:  c.format,
			Tokens:  tokens,
			Savings: savings,
			Output:  *outputs[i],
		})
	}

	report.Recommendation, report.Reason = recommend(report.Shape, report.Formats)
	for i := range report.Formats {
		report.Formats[i].Recommended = report.Formats[i].Name == report.Recommendation
	}
	sort.SliceStable(report.Formats, func(i, j int) bool {
		return report.Formats[i].Tokens < report.Formats[j].Tokens
	})
	return report, nil
}

// recommend picks a format by shape first and token count second:
// uniform arrays of several objects go to TOON, shallow mostly-scalar data
// to YAML, and anything else to the cheapest non-baseline format.
func recommend(shape Shape, formats []FormatResult) (string, string) {
	has := func(name string) bool {
		for _, f := range formats {
			if f.Name == name {
				return true
			}
		}
		return false
	}

	if shape.IsUniformArray && shape.ArrayLength > 1 && has(NameTOON) {
		return NameTOON, fmt.Sprintf("Uniform array of %d objects with %d fields", shape.ArrayLength, shape.FieldCount)
	}
	if shape.MaxDepth <= 2 && shape.MostlyPrimitives && has(NameYAML) {
		return NameYAML, "Shallow structure with mostly primitive values"
	}

	var best *FormatResult
	for i := range formats {
		f := &formats[i]
		if f.Name == NamePrettyJSON {
			continue
		}
		if best == nil || f.Tokens < best.Tokens {
			best = f
		}
	}
	if best != nil {
		return best.Name, fmt.Sprintf("Lowest token count (%s tokens)", formatCount(best.Tokens))
	}
	return NameCompactJSON, "Default efficient format"
}

// Recommend returns the output format Analyze would pick for v.
func Recommend(v *llmfmt.Value, opts Options) (llmfmt.Format, error) {
	r, err := Analyze(v, opts)
	if err != nil {
		return "", err
	}
	if f, ok := r.Recommended(); ok {
		return f.Format, nil
	}
	return llmfmt.FormatJSON, nil
}
