// Package report holds the DTOs the pipeline produces: findings, results,
// reports, and validation failures.
package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/querylens/querylens/internal/driver"
	"github.com/querylens/querylens/internal/metrics"
	"github.com/querylens/querylens/internal/scoring"
)

// AnalysisMode says where the analyzed SQL came from.
type AnalysisMode string

const (
	ModeSQL      AnalysisMode = "sql"
	ModeBuilder  AnalysisMode = "builder"
	ModeProfiler AnalysisMode = "profiler"
)

// Result bundles the raw pipeline outputs for one query.
type Result struct {
	SQL             string              `json:"sql"`
	Driver          string              `json:"driver"`
	PlanText        string              `json:"plan_text"`
	ExplainRows     []driver.ExplainRow `json:"explain_rows,omitempty"`
	Metrics         *metrics.Metrics    `json:"metrics"`
	Scores          *scoring.Scores     `json:"scores"`
	Findings        []Finding           `json:"findings"`
	ExecutionTimeMs float64             `json:"execution_time_ms"`
}

// Report is the shallow analysis output: scored result plus grade and
// pass/fail verdict.
type Report struct {
	Mode            AnalysisMode   `json:"mode"`
	Result          *Result        `json:"result"`
	Grade           string         `json:"grade"`
	Passed          bool           `json:"passed"`
	CompositeScore  float64        `json:"composite_score"`
	Recommendations []string       `json:"recommendations"`
	Scalability     *Scalability   `json:"scalability,omitempty"`
	AnalyzedAt      time.Time      `json:"analyzed_at"`
}

// Summary is a one-line human description of the verdict.
func (r *Report) Summary() string {
	var critical, warning int
	if r.Result != nil {
		counts := CountBySeverity(r.Result.Findings)
		critical = counts[SeverityCritical]
		warning = counts[SeverityWarning]
	}
	verdict := "passed"
	if !r.Passed {
		verdict = "failed"
	}
	return fmt.Sprintf("grade %s (%.1f) %s: %d critical, %d warning",
		r.Grade, r.CompositeScore, verdict, critical, warning)
}

// MarshalJSON adds the computed summary field to the serialized form.
func (r *Report) MarshalJSON() ([]byte, error) {
	type alias Report
	return json.Marshal(struct {
		*alias
		Summary string `json:"summary"`
	}{(*alias)(r), r.Summary()})
}

// Diagnostic carries the deep-analysis layer on top of a Report: the merged
// finding list, counts, and each analyzer's output. Absent analyzers (soft
// failure or disabled) serialize as null.
type Diagnostic struct {
	Findings      []Finding           `json:"findings"`
	FindingCounts map[Severity]int    `json:"finding_counts"`
	WorstSeverity Severity            `json:"worst_severity"`
	Cardinality   *CardinalityDrift   `json:"cardinality_drift,omitempty"`
	AntiPatterns  *AntiPatterns       `json:"anti_patterns,omitempty"`
	Indexes       *IndexSynthesis     `json:"index_synthesis,omitempty"`
	Hypothetical  *HypotheticalIndex  `json:"hypothetical_index,omitempty"`
	Regression    *Regression         `json:"regression,omitempty"`
	Concurrency   *Concurrency        `json:"concurrency,omitempty"`
	Memory        *MemoryPressure     `json:"memory_pressure,omitempty"`
	Confidence    *Confidence         `json:"confidence,omitempty"`
}

// DiagnosticReport is the full engine output: the report plus diagnostics
// and the confidence-adjusted grade.
type DiagnosticReport struct {
	*Report
	Diagnostic    *Diagnostic `json:"diagnostic"`
	AdjustedGrade string      `json:"adjusted_grade"`
	AdjustedScore float64     `json:"adjusted_score"`
}

// AllFindings returns the merged finding list, falling back to the rule
// findings when no diagnostics ran.
func (d *DiagnosticReport) AllFindings() []Finding {
	if d.Diagnostic == nil {
		if d.Result == nil {
			return nil
		}
		return d.Result.Findings
	}
	return d.Diagnostic.Findings
}

// gradeOrder maps grades to their rank for cap comparison.
var gradeOrder = map[string]int{"A": 5, "B": 4, "C": 3, "D": 2, "F": 1}

// AdjustForConfidence caps the grade and score when the result cannot be
// fully trusted: any critical finding caps at B/75, confidence below 0.5
// caps at C/50, confidence in [0.5, 0.7) caps at B/75.
func AdjustForConfidence(grade string, score float64, criticalCount int, confidence float64) (string, float64) {
	if criticalCount > 0 {
		grade, score = capGrade(grade, score, "B", 75)
	}
	switch {
	case confidence < 0.5:
		grade, score = capGrade(grade, score, "C", 50)
	case confidence < 0.7:
		grade, score = capGrade(grade, score, "B", 75)
	}
	return grade, score
}

func capGrade(grade string, score float64, maxGrade string, maxScore float64) (string, float64) {
	if gradeOrder[grade] > gradeOrder[maxGrade] {
		grade = maxGrade
	}
	if score > maxScore {
		score = maxScore
	}
	return grade, score
}

// ValidationFailureReport replaces a performance report whenever validation
// or EXPLAIN aborts the pipeline.
type ValidationFailureReport struct {
	Status          string   `json:"status"`
	FailureStage    string   `json:"failure_stage"`
	DetailedError   string   `json:"detailed_error"`
	SQLState        string   `json:"sqlstate,omitempty"`
	Line            int      `json:"line,omitempty"`
	Recommendations []string `json:"recommendations"`
	Suggestion      string   `json:"suggestion,omitempty"`
	MissingTable    string   `json:"missing_table,omitempty"`
	MissingColumn   string   `json:"missing_column,omitempty"`
	Database        string   `json:"database,omitempty"`
}
