package output

import (
	"fmt"
	"io"

	"github.com/querylens/querylens/internal/report"
)

// MarkdownRenderer produces markdown output for documentation/tickets.
type MarkdownRenderer struct {
	w io.Writer
}

func (r *MarkdownRenderer) RenderReport(rep *report.DiagnosticReport) {
	fmt.Fprintf(r.w, "# querylens — Query Diagnosis\n\n")
	if rep.Result != nil {
		fmt.Fprintf(r.w, "**Statement:** `%s`\n\n", rep.Result.SQL)
	}

	verdict := "PASSED"
	if !rep.Passed {
		verdict = "FAILED"
	}
	fmt.Fprintf(r.w, "## Verdict\n\n")
	fmt.Fprintf(r.w, "| Property | Value |\n|---|---|\n")
	fmt.Fprintf(r.w, "| Grade | **%s** (%.1f) |\n", rep.Grade, rep.CompositeScore)
	fmt.Fprintf(r.w, "| Adjusted grade | **%s** (%.1f) |\n", rep.AdjustedGrade, rep.AdjustedScore)
	fmt.Fprintf(r.w, "| Verdict | %s |\n", verdict)
	if rep.Diagnostic != nil && rep.Diagnostic.Confidence != nil {
		c := rep.Diagnostic.Confidence
		fmt.Fprintf(r.w, "| Confidence | %.2f (%s) |\n", c.Score, c.Label)
	}
	fmt.Fprintln(r.w)

	if rep.Result != nil && rep.Result.Metrics != nil {
		m := rep.Result.Metrics
		fmt.Fprintf(r.w, "## Metrics\n\n")
		fmt.Fprintf(r.w, "| Metric | Value |\n|---|---|\n")
		fmt.Fprintf(r.w, "| Execution time | %.2f ms |\n", m.ExecutionTimeMs)
		fmt.Fprintf(r.w, "| Rows examined | %.0f |\n", m.RowsExamined)
		fmt.Fprintf(r.w, "| Rows returned | %.0f |\n", m.RowsReturned)
		fmt.Fprintf(r.w, "| Primary access | %s |\n", m.PrimaryAccessType)
		fmt.Fprintf(r.w, "| Complexity | %s |\n", m.ComplexityLabel)
		fmt.Fprintf(r.w, "| Selectivity ratio | %.1f |\n\n", m.SelectivityRatio)
	}

	if rep.Result != nil && rep.Result.Scores != nil {
		s := rep.Result.Scores
		fmt.Fprintf(r.w, "## Score Breakdown\n\n")
		fmt.Fprintf(r.w, "| Component | Score |\n|---|---|\n")
		fmt.Fprintf(r.w, "| Execution time | %.0f |\n", s.ExecutionTime)
		fmt.Fprintf(r.w, "| Scan efficiency | %.0f |\n", s.ScanEfficiency)
		fmt.Fprintf(r.w, "| Index quality | %.0f |\n", s.IndexQuality)
		fmt.Fprintf(r.w, "| Join efficiency | %.0f |\n", s.JoinEfficiency)
		fmt.Fprintf(r.w, "| Scalability | %.0f |\n\n", s.Scalability)
	}

	findings := rep.AllFindings()
	if len(findings) > 0 {
		fmt.Fprintf(r.w, "## Findings\n\n")
		for _, f := range findings {
			fmt.Fprintf(r.w, "### %s %s\n\n", f.Severity.Icon(), f.Title)
			fmt.Fprintf(r.w, "**Severity:** %s\n\n%s\n\n", f.Severity, f.Description)
			if f.Recommendation != "" {
				fmt.Fprintf(r.w, "```sql\n%s\n```\n\n", f.Recommendation)
			}
		}
	}

	if rep.Scalability != nil && len(rep.Scalability.Projections) > 0 {
		fmt.Fprintf(r.w, "## Scalability — %s\n\n", rep.Scalability.Complexity)
		fmt.Fprintf(r.w, "| Target rows | Growth factor | Projected time |\n|---|---|---|\n")
		for _, p := range rep.Scalability.Projections {
			fmt.Fprintf(r.w, "| %.0e | ×%.1f | %.1f ms |\n", p.TargetRows, p.Factor, p.ProjectedTimeMs)
		}
		fmt.Fprintln(r.w)
	}

	if rep.Result != nil && rep.Result.PlanText != "" {
		fmt.Fprintf(r.w, "## Execution Plan\n\n```\n%s\n```\n", rep.Result.PlanText)
	}
}

func (r *MarkdownRenderer) RenderFailure(f *report.ValidationFailureReport) {
	fmt.Fprintf(r.w, "# querylens — Validation Failed\n\n")
	fmt.Fprintf(r.w, "| Property | Value |\n|---|---|\n")
	fmt.Fprintf(r.w, "| Status | %s |\n", f.Status)
	fmt.Fprintf(r.w, "| Stage | %s |\n", f.FailureStage)
	fmt.Fprintf(r.w, "| Error | %s |\n", f.DetailedError)
	if f.SQLState != "" {
		fmt.Fprintf(r.w, "| SQLSTATE | %s |\n", f.SQLState)
	}
	if f.Line > 0 {
		fmt.Fprintf(r.w, "| Line | %d |\n", f.Line)
	}
	if f.Suggestion != "" {
		fmt.Fprintf(r.w, "| Suggestion | `%s` |\n", f.Suggestion)
	}
	fmt.Fprintln(r.w)
	for _, rec := range f.Recommendations {
		fmt.Fprintf(r.w, "- %s\n", rec)
	}
}
