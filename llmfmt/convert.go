package llmfmt

import (
	"github.com/go-kit/log"
)

// Options configures a one-shot Convert call.
type Options struct {
	// InputFormat is json, yaml, xml, csv, tsv or auto. Empty means auto.
	InputFormat string
	// OutputFormat is toon, json, yaml, tsv or csv. Empty means toon.
	OutputFormat string
	// MaxDepth installs a depth filter when non-nil.
	MaxDepth *int
	// SortKeys orders object keys in the output.
	SortKeys bool
	// Include installs an include filter when non-empty.
	Include string
	// Exclude installs one exclude filter per expression.
	Exclude []string
	// AllowComments lets the JSON parser accept comments and trailing
	// commas. Only applies when InputFormat is json.
	AllowComments bool

	Logger  log.Logger
	Metrics *Metrics
}

// Builder returns a Builder configured from o. Filters are installed in
// the order include, exclude, depth.
func (o Options) Builder() *Builder {
	in, out := o.InputFormat, o.OutputFormat
	if in == "" {
		in = string(FormatAuto)
	}
	if out == "" {
		out = string(FormatTOON)
	}

	b := NewBuilder().
		WithInputFormat(in).
		WithOutputFormat(out).
		WithSortKeys(o.SortKeys).
		WithLogger(o.Logger).
		WithMetrics(o.Metrics)
	if o.AllowComments {
		if f, err := ParseInputFormat(in); err == nil && f == FormatJSON {
			b.WithParser(JSONParser{AllowComments: true})
		}
	}
	if o.Include != "" {
		b.WithInclude(o.Include)
	}
	for _, expr := range o.Exclude {
		b.WithExclude(expr)
	}
	if o.MaxDepth != nil {
		b.WithMaxDepth(*o.MaxDepth)
	}
	return b
}

// Convert parses data, applies the configured filters and encodes the
// result. Every failure, configuration included, is a *StageError whose
// Err is the typed cause.
func Convert(data []byte, o Options) (string, error) {
	p, err := o.Builder().Build()
	if err != nil {
		return "", &StageError{Stage: StageConfig, Err: err}
	}
	return p.Run(data)
}
