// llmfmt converts JSON, YAML, XML, CSV and TSV into token-efficient formats
// for language model prompts.
//
// Usage:
//
//	llmfmt [flags] [file]
//
// If no file is given, reads from stdin.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/Neumenon/llmfmt/analyze"
	"github.com/Neumenon/llmfmt/llmfmt"
)

const version = "0.3.0"

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// exitError carries the process exit code for an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageError(err error) error   { return &exitError{code: exitUsage, err: err} }
func failureError(err error) error { return &exitError{code: exitFailure, err: err} }

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type options struct {
	configPath    string
	format        string
	inputFormat   string
	include       []string
	exclude       []string
	maxDepth      int
	depthSet      bool
	output        string
	sortKeys      bool
	allowComments bool
	countTokens   bool
	analyze       bool
	jsonReport    bool
	noColor       bool
	logLevel      string
	version       bool
}

func newFlagSet(o *options) *pflag.FlagSet {
	fs := pflag.NewFlagSet("llmfmt", pflag.ContinueOnError)
	fs.StringVarP(&o.configPath, "config", "c", "", "config file (default: $LLMFMT_CONFIG, ./.llm-fmt.yaml, ~/.llm-fmt.yaml)")
	fs.StringVarP(&o.format, "format", "f", "", "output format: toon, json, yaml, tsv, csv or auto")
	fs.StringVarP(&o.inputFormat, "input-format", "F", "", "input format: json, yaml, xml, csv, tsv or auto")
	fs.StringArrayVarP(&o.include, "include", "i", nil, "keep only values matching a path expression (repeatable)")
	fs.StringArrayVarP(&o.exclude, "exclude", "e", nil, "remove values matching a path expression (repeatable)")
	fs.IntVarP(&o.maxDepth, "max-depth", "d", -1, "elide containers nested deeper than this (unset: no limit)")
	fs.StringVarP(&o.output, "output", "o", "", "write output to a file instead of stdout")
	fs.BoolVar(&o.sortKeys, "sort-keys", false, "sort object keys")
	fs.BoolVar(&o.allowComments, "allow-comments", false, "accept comments and trailing commas in JSON input")
	fs.BoolVar(&o.countTokens, "count-tokens", false, "print the estimated token count of the output to stderr")
	fs.BoolVar(&o.analyze, "analyze", false, "compare token counts across formats instead of converting")
	fs.BoolVar(&o.jsonReport, "json", false, "print the analysis report as JSON")
	fs.BoolVar(&o.noColor, "no-color", false, "disable colored output")
	fs.StringVar(&o.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	fs.BoolVarP(&o.version, "version", "v", false, "print version and exit")
	return fs
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	err := runE(args, stdin, stdout, stderr)
	if err == nil {
		return exitOK
	}
	if errors.Is(err, pflag.ErrHelp) {
		return exitOK
	}
	fmt.Fprintf(stderr, "llmfmt: %v\n", err)
	return exitCode(err)
}

// exitCode maps an error to the process exit code: 2 for bad input,
// configuration or parse failures, 1 for everything else.
func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	var se *llmfmt.StageError
	if errors.As(err, &se) {
		switch se.Stage {
		case llmfmt.StageConfig, llmfmt.StageParse:
			return exitUsage
		}
		return exitFailure
	}
	var ce *llmfmt.ConfigError
	var fe *llmfmt.FilterConfigError
	var pe *llmfmt.ParseError
	var ae *llmfmt.AutoDetectError
	if errors.As(err, &ce) || errors.As(err, &fe) || errors.As(err, &pe) || errors.As(err, &ae) {
		return exitUsage
	}
	return exitFailure
}

func runE(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var o options
	fs := newFlagSet(&o)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return err
		}
		return usageError(err)
	}
	if o.version {
		fmt.Fprintf(stdout, "llmfmt %s\n", version)
		return nil
	}
	if fs.NArg() > 1 {
		return usageError(errors.Errorf("unexpected argument: %s", fs.Arg(1)))
	}

	logger, err := newLogger(stderr, o.logLevel)
	if err != nil {
		return usageError(err)
	}

	cfg, err := LoadConfig(o.configPath)
	if err != nil {
		return usageError(err)
	}
	applyConfig(fs, &o, cfg)

	filename := fs.Arg(0)
	data, err := readInput(filename, stdin)
	if err != nil {
		return usageError(err)
	}
	level.Debug(logger).Log("msg", "read input", "file", filename, "bytes", len(data))

	inputFormat := o.inputFormat
	if inputFormat == string(llmfmt.FormatAuto) && filename != "" {
		if f, ok := llmfmt.FormatFromPath(filename); ok {
			inputFormat = string(f)
		}
	}

	useColor := !o.noColor && cfg.Output.Color && !color.NoColor
	if o.analyze {
		return runAnalyze(data, inputFormat, &o, logger, stdout, useColor)
	}

	outputFormat := o.format
	if outputFormat == string(llmfmt.FormatAuto) {
		p, err := buildPipeline(&o, inputFormat, string(llmfmt.FormatJSON), logger)
		if err != nil {
			return err
		}
		v, err := p.Transform(data)
		if err != nil {
			return err
		}
		f, err := analyze.Recommend(v, analyze.Options{SortKeys: o.sortKeys})
		if err != nil {
			return failureError(err)
		}
		fmt.Fprintf(stderr, "Auto-selected format: %s\n", f)
		outputFormat = string(f)
	}

	p, err := buildPipeline(&o, inputFormat, outputFormat, logger)
	if err != nil {
		return err
	}
	out, err := p.Run(data)
	if err != nil {
		return err
	}

	if err := writeOutput(o.output, out, stdout); err != nil {
		return failureError(err)
	}
	if o.output != "" {
		fmt.Fprintf(stderr, "Written to %s\n", o.output)
	}
	if o.countTokens {
		fmt.Fprintf(stderr, "Tokens (estimated): ~%d\n", analyze.EstimateTokens(out))
	}
	return nil
}

// buildPipeline installs filters in flag order: includes, excludes, then
// the depth limit.
func buildPipeline(o *options, inputFormat, outputFormat string, logger log.Logger) (*llmfmt.Pipeline, error) {
	b := llmfmt.Options{
		InputFormat:   inputFormat,
		OutputFormat:  outputFormat,
		SortKeys:      o.sortKeys,
		AllowComments: o.allowComments,
		Logger:        logger,
	}.Builder()
	for _, expr := range o.include {
		b.WithInclude(expr)
	}
	for _, expr := range o.exclude {
		b.WithExclude(expr)
	}
	if o.depthSet {
		b.WithMaxDepth(o.maxDepth)
	}
	p, err := b.Build()
	if err != nil {
		return nil, &llmfmt.StageError{Stage: llmfmt.StageConfig, Err: err}
	}
	return p, nil
}

func runAnalyze(data []byte, inputFormat string, o *options, logger log.Logger, stdout io.Writer, useColor bool) error {
	p, err := buildPipeline(o, inputFormat, string(llmfmt.FormatJSON), logger)
	if err != nil {
		return err
	}
	v, err := p.Transform(data)
	if err != nil {
		return err
	}

	report, err := analyze.Analyze(v, analyze.Options{SortKeys: o.sortKeys})
	if err != nil {
		return failureError(err)
	}
	if o.jsonReport {
		b, err := report.JSON()
		if err != nil {
			return failureError(errors.Wrap(err, "marshal report"))
		}
		_, err = fmt.Fprintf(stdout, "%s\n", b)
		return err
	}
	_, err = io.WriteString(stdout, report.Format(useColor))
	return err
}

// applyConfig fills every flag the user did not set from the config file.
func applyConfig(fs *pflag.FlagSet, o *options, cfg *Config) {
	if !fs.Changed("format") {
		o.format = cfg.Defaults.Format
	}
	if !fs.Changed("input-format") {
		o.inputFormat = cfg.Defaults.InputFormat
	}
	if !fs.Changed("sort-keys") {
		o.sortKeys = cfg.Defaults.SortKeys
	}
	o.depthSet = fs.Changed("max-depth")
	if !o.depthSet && cfg.Filter.DefaultMaxDepth != nil {
		o.maxDepth = *cfg.Filter.DefaultMaxDepth
		o.depthSet = true
	}
	if !fs.Changed("exclude") {
		o.exclude = cfg.Filter.DefaultExclude
	}
}

func newLogger(w io.Writer, lvl string) (log.Logger, error) {
	var allow level.Option
	switch strings.ToLower(lvl) {
	case "debug":
		allow = level.AllowDebug()
	case "info":
		allow = level.AllowInfo()
	case "warn", "warning":
		allow = level.AllowWarn()
	case "error":
		allow = level.AllowError()
	default:
		return nil, &llmfmt.ConfigError{Field: "log-level", Message: fmt.Sprintf("unknown level %q", lvl)}
	}
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
	return level.NewFilter(logger, allow), nil
}

func readInput(filename string, stdin io.Reader) ([]byte, error) {
	if filename == "" || filename == "-" {
		if f, ok := stdin.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			return nil, errors.New("no input file given and stdin is a terminal")
		}
		data, err := io.ReadAll(stdin)
		return data, errors.Wrap(err, "read stdin")
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Errorf("file not found: %s", filename)
		}
		return nil, errors.Wrap(err, "read input")
	}
	return data, nil
}

// writeOutput ends stdout output with a newline; files get the encoded
// text as is.
func writeOutput(path, out string, stdout io.Writer) error {
	if path == "" {
		if !strings.HasSuffix(out, "\n") {
			out += "\n"
		}
		_, err := io.WriteString(stdout, out)
		return err
	}
	return errors.Wrapf(os.WriteFile(path, []byte(out), 0o644), "write %s", path)
}
