package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/querylens/querylens/internal/report"
)

// TextRenderer produces Lip Gloss styled terminal output.
type TextRenderer struct {
	w io.Writer
}

func (r *TextRenderer) RenderReport(rep *report.DiagnosticReport) {
	width := 60
	fmt.Fprintln(r.w)

	// Verdict box
	verdict := "PASSED"
	verdictStyle := GoodText
	if !rep.Passed {
		verdict = "FAILED"
		verdictStyle = DangerText
	}
	header := TitleStyle.Render("querylens — Query Diagnosis")
	lines := []string{
		r.labelValue("Grade:", gradeStyle(rep.Grade).Render(rep.Grade)+
			MutedText.Render(fmt.Sprintf("  (score %.1f)", rep.CompositeScore))),
		r.labelValue("Adjusted:", gradeStyle(rep.AdjustedGrade).Render(rep.AdjustedGrade)+
			MutedText.Render(fmt.Sprintf("  (score %.1f)", rep.AdjustedScore))),
		r.labelValue("Verdict:", verdictStyle.Render(verdict)),
	}
	if rep.Diagnostic != nil && rep.Diagnostic.Confidence != nil {
		c := rep.Diagnostic.Confidence
		lines = append(lines, r.labelValue("Confidence:", fmt.Sprintf("%.2f (%s)", c.Score, c.Label)))
	}
	fmt.Fprintln(r.w, gradeBoxStyle(rep.AdjustedGrade).Width(width).Render(header+"\n"+strings.Join(lines, "\n")))

	// Metrics box
	if rep.Result != nil && rep.Result.Metrics != nil {
		m := rep.Result.Metrics
		metricLines := []string{
			r.labelValue("Execution time:", fmt.Sprintf("%.2f ms", m.ExecutionTimeMs)),
			r.labelValue("Rows examined:", fmt.Sprintf("%.0f", m.RowsExamined)),
			r.labelValue("Rows returned:", fmt.Sprintf("%.0f", m.RowsReturned)),
			r.labelValue("Access type:", string(m.PrimaryAccessType)),
			r.labelValue("Complexity:", m.ComplexityLabel),
			r.labelValue("Selectivity:", fmt.Sprintf("%.1f", m.SelectivityRatio)),
		}
		if len(m.IndexesUsed) > 0 {
			metricLines = append(metricLines, r.labelValue("Indexes:", strings.Join(m.IndexesUsed, ", ")))
		}
		title := TitleStyle.Render("Metrics")
		fmt.Fprintln(r.w, BoxStyle.Width(width).Render(title+"\n"+strings.Join(metricLines, "\n")))
	}

	// Component scores box
	if rep.Result != nil && rep.Result.Scores != nil {
		s := rep.Result.Scores
		scoreLines := []string{
			r.labelValue("Execution time:", fmt.Sprintf("%.0f", s.ExecutionTime)),
			r.labelValue("Scan efficiency:", fmt.Sprintf("%.0f", s.ScanEfficiency)),
			r.labelValue("Index quality:", fmt.Sprintf("%.0f", s.IndexQuality)),
			r.labelValue("Join efficiency:", fmt.Sprintf("%.0f", s.JoinEfficiency)),
			r.labelValue("Scalability:", fmt.Sprintf("%.0f", s.Scalability)),
		}
		if s.ContextOverride {
			scoreLines = append(scoreLines, MutedText.Render("Context override applied: fast covering-index read"))
		}
		title := TitleStyle.Render("Score Breakdown")
		fmt.Fprintln(r.w, BoxStyle.Width(width).Render(title+"\n"+strings.Join(scoreLines, "\n")))
	}

	// Findings
	for _, f := range rep.AllFindings() {
		style := severityStyle(f.Severity)
		box := BoxStyle
		switch f.Severity {
		case report.SeverityCritical:
			box = DangerBoxStyle
		case report.SeverityWarning:
			box = WarningBoxStyle
		}
		var content strings.Builder
		content.WriteString(style.Render(f.Severity.Icon() + " " + f.Title))
		content.WriteString("\n" + f.Description)
		if f.Recommendation != "" {
			content.WriteString("\n\n" + CodeStyle.Render(f.Recommendation))
		}
		fmt.Fprintln(r.w, box.Width(width).Render(content.String()))
	}

	// Scalability box
	if rep.Scalability != nil && len(rep.Scalability.Projections) > 0 {
		var projLines []string
		for _, p := range rep.Scalability.Projections {
			projLines = append(projLines, r.labelValue(
				fmt.Sprintf("At %.0e rows:", p.TargetRows),
				fmt.Sprintf("≈%.1f ms (×%.1f)", p.ProjectedTimeMs, p.Factor)))
		}
		if rep.Scalability.LimitSensitivity != "" {
			projLines = append(projLines, MutedText.Render(rep.Scalability.LimitSensitivity))
		}
		title := TitleStyle.Render("Scalability — " + rep.Scalability.Complexity)
		fmt.Fprintln(r.w, BoxStyle.Width(width).Render(title+"\n"+strings.Join(projLines, "\n")))
	}

	// Plan box
	if rep.Result != nil && rep.Result.PlanText != "" {
		title := TitleStyle.Render("Execution Plan")
		fmt.Fprintln(r.w, BoxStyle.Width(width).Render(title+"\n"+CodeStyle.Render(rep.Result.PlanText)))
	}

	fmt.Fprintln(r.w)
}

func (r *TextRenderer) RenderFailure(f *report.ValidationFailureReport) {
	width := 60
	fmt.Fprintln(r.w)

	var content strings.Builder
	content.WriteString(DangerText.Render("✗ " + f.Status))
	content.WriteString("\n" + r.labelValue("Stage:", f.FailureStage))
	content.WriteString("\n" + r.labelValue("Error:", f.DetailedError))
	if f.SQLState != "" {
		content.WriteString("\n" + r.labelValue("SQLSTATE:", f.SQLState))
	}
	if f.Line > 0 {
		content.WriteString("\n" + r.labelValue("Line:", fmt.Sprintf("%d", f.Line)))
	}
	if f.Suggestion != "" {
		content.WriteString("\n" + r.labelValue("Did you mean:", GoodText.Render(f.Suggestion)))
	}
	for _, rec := range f.Recommendations {
		content.WriteString("\n" + MutedText.Render("• "+rec))
	}
	fmt.Fprintln(r.w, DangerBoxStyle.Width(width).Render(content.String()))
	fmt.Fprintln(r.w)
}

func (r *TextRenderer) labelValue(label, value string) string {
	return LabelStyle.Render(label) + " " + ValueStyle.Render(value)
}
