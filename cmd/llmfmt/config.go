package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/Neumenon/llmfmt/llmfmt"
)

const (
	configEnv      = "LLMFMT_CONFIG"
	configFileName = ".llm-fmt.yaml"
)

// Config holds defaults for flags the user did not set.
type Config struct {
	Defaults DefaultsConfig `yaml:"defaults"`
	Filter   FilterConfig   `yaml:"filter"`
	Output   OutputConfig   `yaml:"output"`
}

// DefaultsConfig selects formats.
type DefaultsConfig struct {
	// Format is the output format, or auto. Default: toon
	Format string `yaml:"format"`
	// InputFormat is the input format. Default: auto
	InputFormat string `yaml:"input_format"`
	SortKeys    bool   `yaml:"sort_keys"`
}

// FilterConfig supplies filters applied when no flag overrides them.
type FilterConfig struct {
	// DefaultMaxDepth is unset when nil.
	DefaultMaxDepth *int     `yaml:"default_max_depth"`
	DefaultExclude  []string `yaml:"default_exclude"`
}

// OutputConfig controls terminal output.
type OutputConfig struct {
	// Color enables colored analysis reports. Default: true
	Color bool `yaml:"color"`
}

// DefaultConfig returns the configuration used when no file is found.
func DefaultConfig() *Config {
	return &Config{
		Defaults: DefaultsConfig{
			Format:      string(llmfmt.FormatTOON),
			InputFormat: string(llmfmt.FormatAuto),
		},
		Output: OutputConfig{Color: true},
	}
}

// FindConfig returns the config file to load: the explicit path, else
// $LLMFMT_CONFIG, else .llm-fmt.yaml in the working directory, else in the
// home directory. It returns "" when there is none.
func FindConfig(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv(configEnv); p != "" {
		return p
	}
	candidates := []string{configFileName}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, configFileName))
	}
	for _, p := range candidates {
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p
		}
	}
	return ""
}

// LoadConfig loads and validates the file FindConfig selects. An explicit
// or environment path that does not exist is an error; a missing
// discovered file yields DefaultConfig.
func LoadConfig(explicit string) (*Config, error) {
	path := FindConfig(explicit)
	if path == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &llmfmt.ConfigError{Field: "config", Message: "cannot read " + path, Err: err}
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// ParseConfig decodes YAML on top of DefaultConfig and validates it.
// Unknown keys are rejected.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, &llmfmt.ConfigError{Field: "config", Message: "invalid YAML", Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every value; errors name the offending key.
func (c *Config) Validate() error {
	if c.Defaults.Format != string(llmfmt.FormatAuto) {
		if _, err := llmfmt.ParseOutputFormat(c.Defaults.Format); err != nil {
			return &llmfmt.ConfigError{Field: "defaults.format", Message: "unknown output format " + quote(c.Defaults.Format)}
		}
	}
	if _, err := llmfmt.ParseInputFormat(c.Defaults.InputFormat); err != nil {
		return &llmfmt.ConfigError{Field: "defaults.input_format", Message: "unsupported input format " + quote(c.Defaults.InputFormat)}
	}
	if d := c.Filter.DefaultMaxDepth; d != nil && *d < 0 {
		return &llmfmt.ConfigError{Field: "filter.default_max_depth", Message: "must be non-negative"}
	}
	for _, expr := range c.Filter.DefaultExclude {
		if _, err := llmfmt.ParsePath(expr); err != nil {
			return &llmfmt.ConfigError{Field: "filter.default_exclude", Message: "invalid path " + quote(expr), Err: err}
		}
	}
	return nil
}

func quote(s string) string {
	return `"` + s + `"`
}
