package output

import (
	"bytes"
	"testing"
)

// Benchmark rendering performance

func BenchmarkTextRenderer_RenderReport(b *testing.B) {
	rep := failingReport()
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		var buf bytes.Buffer
		r := &TextRenderer{w: &buf}
		r.RenderReport(rep)
	}
}

func BenchmarkPlainRenderer_RenderReport(b *testing.B) {
	rep := failingReport()
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		var buf bytes.Buffer
		r := &PlainRenderer{w: &buf}
		r.RenderReport(rep)
	}
}

func BenchmarkJSONRenderer_RenderReport(b *testing.B) {
	rep := failingReport()
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		var buf bytes.Buffer
		r := &JSONRenderer{w: &buf}
		r.RenderReport(rep)
	}
}

func BenchmarkMarkdownRenderer_RenderReport(b *testing.B) {
	rep := failingReport()
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		var buf bytes.Buffer
		r := &MarkdownRenderer{w: &buf}
		r.RenderReport(rep)
	}
}
