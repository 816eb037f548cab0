// Package llmfmt converts structured data between text formats, aiming for
// output that costs a language model as few tokens as possible.
//
// Inputs: JSON, YAML, XML, CSV, TSV, or auto-detected.
// Outputs: TOON, JSON, YAML, TSV, CSV.
//
// # Data Model
//
// Every parser produces a tree of *Value:
//
//	Scalars:     null, bool, int, float, string
//	Containers:  array (ordered), object (ordered, unique keys)
//	Special:     elided placeholder left by the depth filter
//
// Integers and floats stay distinct (1 vs 1.0) and object members keep
// their source order unless SortKeys is requested.
//
// # Pipeline
//
//	p, err := llmfmt.NewBuilder().
//		WithInputFormat("json").
//		WithOutputFormat("toon").
//		WithInclude("users[*].name").
//		WithMaxDepth(2).
//		Build()
//	out, err := p.Run(data)
//
// Build reports configuration mistakes before any input is read. A built
// Pipeline is immutable and may be shared between goroutines.
//
// # TOON
//
//	users[2]{id,name}:
//	  1,Ada
//	  2,Linus
//	meta:
//	  total: 2
//
// # Path Expressions
//
//	users[0].name    key and index steps
//	users[*].email   every element of an array
//	items[-1]        counted from the end
//	data["a.b"]      quoted keys
//	*.password       every member of an object
package llmfmt
