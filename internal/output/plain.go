package output

import (
	"fmt"
	"io"

	"github.com/querylens/querylens/internal/report"
)

// PlainRenderer produces unformatted text output safe for piping.
type PlainRenderer struct {
	w io.Writer
}

func (r *PlainRenderer) RenderReport(rep *report.DiagnosticReport) {
	fmt.Fprintf(r.w, "=== querylens — Query Diagnosis ===\n\n")

	verdict := "PASSED"
	if !rep.Passed {
		verdict = "FAILED"
	}
	fmt.Fprintf(r.w, "Grade:          %s (score %.1f)\n", rep.Grade, rep.CompositeScore)
	fmt.Fprintf(r.w, "Adjusted grade: %s (score %.1f)\n", rep.AdjustedGrade, rep.AdjustedScore)
	fmt.Fprintf(r.w, "Verdict:        %s\n", verdict)
	if rep.Diagnostic != nil && rep.Diagnostic.Confidence != nil {
		c := rep.Diagnostic.Confidence
		fmt.Fprintf(r.w, "Confidence:     %.2f (%s)\n", c.Score, c.Label)
	}
	fmt.Fprintln(r.w)

	if rep.Result != nil && rep.Result.Metrics != nil {
		m := rep.Result.Metrics
		fmt.Fprintf(r.w, "--- Metrics ---\n")
		fmt.Fprintf(r.w, "Execution time: %.2f ms\n", m.ExecutionTimeMs)
		fmt.Fprintf(r.w, "Rows examined:  %.0f\n", m.RowsExamined)
		fmt.Fprintf(r.w, "Rows returned:  %.0f\n", m.RowsReturned)
		fmt.Fprintf(r.w, "Access type:    %s\n", m.PrimaryAccessType)
		fmt.Fprintf(r.w, "Complexity:     %s\n", m.ComplexityLabel)
		fmt.Fprintln(r.w)
	}

	findings := rep.AllFindings()
	if len(findings) > 0 {
		fmt.Fprintf(r.w, "--- Findings ---\n")
		for _, f := range findings {
			fmt.Fprintf(r.w, "[%s] %s: %s\n", f.Severity, f.Title, f.Description)
			if f.Recommendation != "" {
				fmt.Fprintf(r.w, "  -> %s\n", f.Recommendation)
			}
		}
		fmt.Fprintln(r.w)
	}

	if rep.Scalability != nil && len(rep.Scalability.Projections) > 0 {
		fmt.Fprintf(r.w, "--- Scalability (%s) ---\n", rep.Scalability.Complexity)
		for _, p := range rep.Scalability.Projections {
			fmt.Fprintf(r.w, "At %.0e rows: ~%.1f ms (x%.1f)\n", p.TargetRows, p.ProjectedTimeMs, p.Factor)
		}
		fmt.Fprintln(r.w)
	}

	if rep.Result != nil && rep.Result.PlanText != "" {
		fmt.Fprintf(r.w, "--- Execution Plan ---\n%s\n", rep.Result.PlanText)
	}
}

func (r *PlainRenderer) RenderFailure(f *report.ValidationFailureReport) {
	fmt.Fprintf(r.w, "=== querylens — Validation Failed ===\n\n")
	fmt.Fprintf(r.w, "Status: %s\n", f.Status)
	fmt.Fprintf(r.w, "Stage:  %s\n", f.FailureStage)
	fmt.Fprintf(r.w, "Error:  %s\n", f.DetailedError)
	if f.SQLState != "" {
		fmt.Fprintf(r.w, "SQLSTATE: %s\n", f.SQLState)
	}
	if f.Line > 0 {
		fmt.Fprintf(r.w, "Line:   %d\n", f.Line)
	}
	if f.Suggestion != "" {
		fmt.Fprintf(r.w, "Did you mean: %s\n", f.Suggestion)
	}
	for _, rec := range f.Recommendations {
		fmt.Fprintf(r.w, "- %s\n", rec)
	}
}
