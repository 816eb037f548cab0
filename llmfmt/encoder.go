package llmfmt

// Encoder renders a Value as text. Implementations hold no mutable state
// and are safe for concurrent use.
type Encoder interface {
	// Format returns the output format produced by the encoder.
	Format() Format
	// Encode renders v. It fails with *EncodeError only when v has a shape
	// the format cannot express.
	Encode(v *Value, opts EncodeOptions) (string, error)
}

// EncodeOptions configures an encoder run.
type EncodeOptions struct {
	// SortKeys orders object members by ascending key at every level;
	// otherwise insertion order is kept.
	SortKeys bool
	// Indent is the indentation width. JSON is compact when Indent is 0;
	// TOON and YAML use 2 when it is 0.
	Indent int
	// Delimiter separates values in TOON inline arrays and rows. Defaults
	// to ",".
	Delimiter string
}

// DefaultEncodeOptions returns the options used when none are given.
func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{Delimiter: ","}
}

func (o EncodeOptions) indentOr(def int) int {
	if o.Indent > 0 {
		return o.Indent
	}
	return def
}

func (o EncodeOptions) delimiter() string {
	if o.Delimiter == "" {
		return ","
	}
	return o.Delimiter
}
