package llmfmt

import (
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// ============================================================
// Builder
// ============================================================

// Builder accumulates pipeline configuration. Mistakes made while
// configuring (an unknown format name, a negative depth, a malformed path)
// are remembered and reported by Build, so calls can be chained freely.
// A Builder is not safe for concurrent use.
type Builder struct {
	parser       Parser
	inputFormat  Format
	sample       []byte
	encoder      Encoder
	outputFormat Format
	opts         EncodeOptions
	filters      []Filter
	errs         []error
	logger       log.Logger
	metrics      *Metrics
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		opts:   DefaultEncodeOptions(),
		logger: log.NewNopLogger(),
	}
}

func (b *Builder) record(err error) *Builder {
	b.errs = append(b.errs, err)
	return b
}

// WithParser selects the parser, overriding any input format name.
func (b *Builder) WithParser(p Parser) *Builder {
	if p == nil {
		return b.record(&ConfigError{Field: "parser", Message: "nil parser"})
	}
	b.parser = p
	b.inputFormat = ""
	return b
}

// WithInputFormat selects the parser by name: json, yaml, yml, xml, csv,
// tsv or auto.
func (b *Builder) WithInputFormat(name string) *Builder {
	f, err := ParseInputFormat(name)
	if err != nil {
		return b.record(err)
	}
	b.inputFormat = f
	b.parser = nil
	return b
}

// WithSample supplies representative input. When no parser is selected, or
// the input format is auto, Build detects the format from the sample and
// pins the matching parser.
func (b *Builder) WithSample(data []byte) *Builder {
	b.sample = data
	return b
}

// WithEncoder selects the encoder, overriding any output format name.
func (b *Builder) WithEncoder(e Encoder) *Builder {
	if e == nil {
		return b.record(&ConfigError{Field: "encoder", Message: "nil encoder"})
	}
	b.encoder = e
	b.outputFormat = ""
	return b
}

// WithOutputFormat selects the encoder by name: toon, json, yaml, yml, tsv
// or csv.
func (b *Builder) WithOutputFormat(name string) *Builder {
	f, err := ParseOutputFormat(name)
	if err != nil {
		return b.record(err)
	}
	b.outputFormat = f
	b.encoder = nil
	return b
}

// WithSortKeys enables lexicographic key order in the output.
func (b *Builder) WithSortKeys(sort bool) *Builder {
	b.opts.SortKeys = sort
	return b
}

// WithEncodeOptions replaces all encoder options.
func (b *Builder) WithEncodeOptions(opts EncodeOptions) *Builder {
	b.opts = opts
	return b
}

// AddFilter appends an already constructed filter.
func (b *Builder) AddFilter(f Filter) *Builder {
	if f == nil {
		return b.record(&ConfigError{Field: "filters", Message: "nil filter"})
	}
	b.filters = append(b.filters, f)
	return b
}

// WithMaxDepth appends a depth filter.
func (b *Builder) WithMaxDepth(depth int) *Builder {
	f, err := NewDepthFilter(depth)
	if err != nil {
		return b.record(err)
	}
	return b.AddFilter(f)
}

// WithInclude appends an include filter.
func (b *Builder) WithInclude(expr string) *Builder {
	f, err := NewIncludeFilter(expr)
	if err != nil {
		return b.record(err)
	}
	return b.AddFilter(f)
}

// WithExclude appends an exclude filter.
func (b *Builder) WithExclude(expr string) *Builder {
	f, err := NewExcludeFilter(expr)
	if err != nil {
		return b.record(err)
	}
	return b.AddFilter(f)
}

// WithLogger sets the logger stages report to. Defaults to a no-op logger.
func (b *Builder) WithLogger(l log.Logger) *Builder {
	if l == nil {
		l = log.NewNopLogger()
	}
	b.logger = l
	return b
}

// WithMetrics sets the collectors runs are recorded in.
func (b *Builder) WithMetrics(m *Metrics) *Builder {
	b.metrics = m
	return b
}

// Build validates the configuration and returns an immutable Pipeline.
// It fails with the first recorded configuration error (*ConfigError or
// *FilterConfigError), or with a *ConfigError when no parser or no encoder
// can be resolved. Nothing is parsed or encoded on failure.
func (b *Builder) Build() (*Pipeline, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}

	// The encoder is settled first: a sample is only parsed once the rest
	// of the configuration is known to be valid.
	encoder := b.encoder
	if encoder == nil {
		if b.outputFormat == "" {
			return nil, &ConfigError{Field: "output_format", Message: "no encoder or output format selected"}
		}
		var err error
		if encoder, err = NewEncoder(b.outputFormat); err != nil {
			return nil, err
		}
	}

	parser, err := b.resolveParser()
	if err != nil {
		return nil, err
	}

	filters := make([]Filter, len(b.filters))
	copy(filters, b.filters)

	return &Pipeline{
		parser:  parser,
		encoder: encoder,
		filters: filters,
		opts:    b.opts,
		logger:  b.logger,
		metrics: b.metrics,
	}, nil
}

func (b *Builder) resolveParser() (Parser, error) {
	if b.parser != nil {
		return b.parser, nil
	}
	if b.sample != nil && (b.inputFormat == "" || b.inputFormat == FormatAuto) {
		f, _, err := Detect(b.sample)
		if err != nil {
			return nil, &ConfigError{Field: "input_format", Message: "cannot detect format of sample", Err: err}
		}
		level.Debug(b.logger).Log("msg", "detected input format from sample", "format", f)
		return NewParser(f)
	}
	if b.inputFormat == "" {
		return nil, &ConfigError{Field: "input_format", Message: "no parser, input format or sample selected"}
	}
	return NewParser(b.inputFormat)
}

// ============================================================
// Pipeline
// ============================================================

// Pipeline runs parse, filters and encode over input buffers. It holds no
// per-run state and is safe for concurrent use.
type Pipeline struct {
	parser  Parser
	encoder Encoder
	filters []Filter
	opts    EncodeOptions
	logger  log.Logger
	metrics *Metrics
}

// Parser returns the configured parser.
func (p *Pipeline) Parser() Parser { return p.parser }

// Encoder returns the configured encoder.
func (p *Pipeline) Encoder() Encoder { return p.encoder }

// Filters returns a copy of the filter chain.
func (p *Pipeline) Filters() []Filter {
	out := make([]Filter, len(p.filters))
	copy(out, p.filters)
	return out
}

// Options returns the encoder options.
func (p *Pipeline) Options() EncodeOptions { return p.opts }

// Run converts data. The first failing stage stops the run; its error is
// returned as a *StageError and no output is produced.
func (p *Pipeline) Run(data []byte) (string, error) {
	v, err := p.Transform(data)
	if err != nil {
		return "", err
	}

	start := time.Now()
	out, err := p.encoder.Encode(v, p.opts)
	if err != nil {
		return "", p.fail(StageEncode, "", len(data), err)
	}
	p.observe(StageEncode, start, "format", p.encoder.Format(), "bytes", len(out))
	p.metrics.observeSuccess(len(data), len(out))
	return out, nil
}

// Transform runs the parse and filter stages only and returns the filtered
// value.
func (p *Pipeline) Transform(data []byte) (*Value, error) {
	start := time.Now()
	v, format, err := p.parse(data)
	if err != nil {
		return nil, p.fail(StageParse, "", len(data), err)
	}
	p.observe(StageParse, start, "format", format, "bytes", len(data))

	for _, f := range p.filters {
		start = time.Now()
		if v, err = f.Apply(v); err != nil {
			return nil, p.fail(StageFilter, f.Name(), len(data), err)
		}
		p.observe(StageFilter, start, "filter", f.Name())
	}
	return v, nil
}

func (p *Pipeline) parse(data []byte) (*Value, Format, error) {
	if _, ok := p.parser.(AutoParser); ok {
		return detectAndParse(data)
	}
	v, err := p.parser.Parse(data)
	return v, p.parser.Format(), err
}

func detectAndParse(data []byte) (*Value, Format, error) {
	f, v, err := Detect(data)
	if err != nil {
		return nil, FormatAuto, err
	}
	return v, f, nil
}

func (p *Pipeline) observe(stage Stage, start time.Time, keyvals ...interface{}) {
	elapsed := time.Since(start)
	p.metrics.observeStage(stage, elapsed.Seconds())
	kv := append([]interface{}{"msg", "stage complete", "stage", stage, "duration", elapsed}, keyvals...)
	level.Debug(p.logger).Log(kv...)
}

func (p *Pipeline) fail(stage Stage, filter string, inputLen int, err error) error {
	p.metrics.observeFailure(stage, inputLen)
	kv := []interface{}{"msg", "stage failed", "stage", stage, "err", err}
	if filter != "" {
		kv = append(kv, "filter", filter)
	}
	level.Debug(p.logger).Log(kv...)
	return &StageError{Stage: stage, Filter: filter, Err: err}
}
