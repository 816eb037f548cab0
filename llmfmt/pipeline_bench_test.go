package llmfmt

import (
	"fmt"
	"strings"
	"testing"
)

// ============================================================
// Pipeline Benchmarks
// ============================================================
//
// Run with:
//   go test -bench=. -benchmem ./llmfmt/

func benchUsers(n int) []byte {
	var b strings.Builder
	b.WriteByte('[')
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, `{"id":%d,"name":"user%d","email":"user%d@example.com","active":%t,"score":%d.5}`, i, i, i, i%2 == 0, i)
	}
	b.WriteByte(']')
	return []byte(b.String())
}

func benchmarkRun(b *testing.B, output string, n int) {
	data := benchUsers(n)
	p, err := NewBuilder().WithInputFormat("json").WithOutputFormat(output).Build()
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := p.Run(data); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRun_JSONToTOON_100(b *testing.B)  { benchmarkRun(b, "toon", 100) }
func BenchmarkRun_JSONToTOON_1000(b *testing.B) { benchmarkRun(b, "toon", 1000) }
func BenchmarkRun_JSONToJSON_1000(b *testing.B) { benchmarkRun(b, "json", 1000) }
func BenchmarkRun_JSONToYAML_1000(b *testing.B) { benchmarkRun(b, "yaml", 1000) }
func BenchmarkRun_JSONToTSV_1000(b *testing.B)  { benchmarkRun(b, "tsv", 1000) }

func BenchmarkDepthFilter(b *testing.B) {
	v, err := JSONParser{}.Parse(benchUsers(1000))
	if err != nil {
		b.Fatal(err)
	}
	f, _ := NewDepthFilter(0)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := f.Apply(v); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDetect(b *testing.B) {
	inputs := map[string][]byte{
		"json": benchUsers(100),
		"yaml": []byte(strings.Repeat("key: value\n", 100)),
		"csv":  []byte("a,b,c\n" + strings.Repeat("1,2,3\n", 100)),
	}
	for name, data := range inputs {
		b.Run(name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, _, err := Detect(data); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
