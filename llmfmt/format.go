package llmfmt

import (
	"path/filepath"
	"strings"
)

// Format names a textual data format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatXML  Format = "xml"
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatTOON Format = "toon"
	FormatAuto Format = "auto" // detect the input format from its content
)

// String returns the format name.
func (f Format) String() string {
	return string(f)
}

// InputFormats lists the formats a pipeline can read, auto included.
func InputFormats() []Format {
	return []Format{FormatJSON, FormatYAML, FormatXML, FormatCSV, FormatTSV, FormatAuto}
}

// OutputFormats lists the formats a pipeline can write.
func OutputFormats() []Format {
	return []Format{FormatTOON, FormatJSON, FormatYAML, FormatTSV, FormatCSV}
}

func normalizeFormatName(name string) Format {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "yml" {
		return FormatYAML
	}
	return Format(name)
}

// ParseInputFormat resolves an input format name ("yml" is accepted for
// yaml). Unknown names yield a *ConfigError.
func ParseInputFormat(name string) (Format, error) {
	f := normalizeFormatName(name)
	switch f {
	case FormatJSON, FormatYAML, FormatXML, FormatCSV, FormatTSV, FormatAuto:
		return f, nil
	}
	return "", &ConfigError{Field: "input_format", Message: "unsupported input format " + quoteName(name)}
}

// ParseOutputFormat resolves an output format name. Unknown names yield a
// *ConfigError.
func ParseOutputFormat(name string) (Format, error) {
	f := normalizeFormatName(name)
	switch f {
	case FormatTOON, FormatJSON, FormatYAML, FormatTSV, FormatCSV:
		return f, nil
	}
	return "", &ConfigError{Field: "output_format", Message: "unknown output format " + quoteName(name)}
}

// NewParser returns the parser for an input format.
func NewParser(f Format) (Parser, error) {
	switch f {
	case FormatJSON:
		return JSONParser{}, nil
	case FormatYAML:
		return YAMLParser{}, nil
	case FormatXML:
		return XMLParser{}, nil
	case FormatCSV:
		return CSVParser{}, nil
	case FormatTSV:
		return TSVParser{}, nil
	case FormatAuto:
		return AutoParser{}, nil
	}
	return nil, &ConfigError{Field: "input_format", Message: "unsupported input format " + quoteName(string(f))}
}

// NewEncoder returns the encoder for an output format.
func NewEncoder(f Format) (Encoder, error) {
	switch f {
	case FormatTOON:
		return TOONEncoder{}, nil
	case FormatJSON:
		return JSONEncoder{}, nil
	case FormatYAML:
		return YAMLEncoder{}, nil
	case FormatTSV:
		return TSVEncoder{}, nil
	case FormatCSV:
		return CSVEncoder{}, nil
	}
	return nil, &ConfigError{Field: "output_format", Message: "unknown output format " + quoteName(string(f))}
}

// FormatFromPath guesses the input format from a file extension.
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".xml":
		return FormatXML, true
	case ".csv":
		return FormatCSV, true
	case ".tsv", ".tab":
		return FormatTSV, true
	}
	return "", false
}

func quoteName(name string) string {
	return `"` + name + `"`
}
