// Package output renders diagnostic reports for terminals, CI logs, JSON
// consumers and markdown docs.
package output

import (
	"io"

	"github.com/querylens/querylens/internal/report"
)

// Renderer defines the output interface.
type Renderer interface {
	RenderReport(r *report.DiagnosticReport)
	RenderFailure(f *report.ValidationFailureReport)
}

// NewRenderer creates a renderer for the given format.
func NewRenderer(format string, w io.Writer) Renderer {
	switch format {
	case "json":
		return &JSONRenderer{w: w}
	case "markdown":
		return &MarkdownRenderer{w: w}
	case "plain":
		return &PlainRenderer{w: w}
	default:
		return &TextRenderer{w: w}
	}
}
