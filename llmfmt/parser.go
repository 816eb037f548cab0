package llmfmt

import "bytes"

// Parser turns raw input into a Value tree. Implementations hold no mutable
// state and are safe for concurrent use.
type Parser interface {
	// Format returns the input format handled by the parser.
	Format() Format
	// Parse reads one complete document. Failures are *ParseError, or
	// *AutoDetectError for the auto parser.
	Parse(data []byte) (*Value, error)
}

// MaxNesting bounds how deeply parsers and filters descend into a tree.
const MaxNesting = 10000

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func trimBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, utf8BOM)
}

func isBlank(data []byte) bool {
	return len(bytes.TrimSpace(data)) == 0
}
