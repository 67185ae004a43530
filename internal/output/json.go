package output

import (
	"encoding/json"
	"io"

	"github.com/querylens/querylens/internal/report"
)

// JSONRenderer produces machine-readable JSON output. The DTOs carry their
// own serialization tags, so rendering is a single encode.
type JSONRenderer struct {
	w io.Writer
}

func (r *JSONRenderer) RenderReport(rep *report.DiagnosticReport) {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	enc.Encode(rep)
}

func (r *JSONRenderer) RenderFailure(f *report.ValidationFailureReport) {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	enc.Encode(f)
}
