package analyzers

import (
	"math"
	"testing"

	"github.com/querylens/querylens/internal/driver"
	"github.com/querylens/querylens/internal/metrics"
	"github.com/querylens/querylens/internal/plan"
	"github.com/querylens/querylens/internal/report"
)

func fullCaps() driver.Capabilities {
	return driver.Capabilities{
		Histograms:        true,
		ExplainAnalyze:    true,
		JSONExplain:       true,
		CoveringIndexInfo: true,
		ParallelQuery:     true,
	}
}

func TestConfidence_TrustedConstRead(t *testing.T) {
	c := NewConfidenceScorer(nil)
	m := &metrics.Metrics{
		PrimaryAccessType: plan.AccessConstRow,
		ParsingValid:      true,
		RowsExamined:      1,
		ExecutionTimeMs:   0, // instantaneous reads imply a warm cache
		NodeCount:         1,
		PerTableEstimates: map[string]metrics.PerTableEstimate{
			"orders": {EstimatedRows: 1, ActualRows: 1, Loops: 1},
		},
	}

	out := c.Analyze(m, fullCaps())
	if out.Score < 0.9 {
		t.Errorf("score = %v, want >= 0.9 (%v)", out.Score, out.Factors)
	}
	if out.Label != "high" {
		t.Errorf("label = %q", out.Label)
	}
	if len(out.Findings) != 0 {
		t.Errorf("trusted analysis should carry no findings: %+v", out.Findings)
	}
	if out.Factors["sample_size"] != 1.0 {
		t.Errorf("const reads are deterministic: sample_size = %v", out.Factors["sample_size"])
	}
}

func TestConfidence_UnparsedPlanIsWeak(t *testing.T) {
	c := NewConfidenceScorer(nil)
	m := &metrics.Metrics{
		PrimaryAccessType: plan.AccessTableScan,
		ParsingValid:      false,
		RowsExamined:      5,
		NodeCount:         15,
		PerTableEstimates: map[string]metrics.PerTableEstimate{
			"orders": {EstimatedRows: 10, ActualRows: 5000, Loops: 1},
		},
	}

	out := c.Analyze(m, driver.Capabilities{})
	if out.Score >= 0.5 {
		t.Errorf("score = %v, want < 0.5 (%v)", out.Score, out.Factors)
	}
	if out.Label != "unreliable" {
		t.Errorf("label = %q", out.Label)
	}
	if len(out.Findings) != 1 || out.Findings[0].Severity != report.SeverityWarning {
		t.Errorf("findings = %+v", out.Findings)
	}
	if out.Factors["explain_analyze"] != 0 {
		t.Errorf("explain_analyze = %v", out.Factors["explain_analyze"])
	}
}

func TestConfidenceLabel(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0.95, "high"}, {0.9, "high"}, {0.89, "moderate"}, {0.7, "moderate"},
		{0.69, "low"}, {0.5, "low"}, {0.49, "unreliable"},
	}
	for _, tt := range tests {
		if got := confidenceLabel(tt.score); got != tt.want {
			t.Errorf("confidenceLabel(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestSampleSize(t *testing.T) {
	tests := []struct {
		m    metrics.Metrics
		want float64
	}{
		{metrics.Metrics{PrimaryAccessType: plan.AccessConstRow}, 1.0},
		{metrics.Metrics{PrimaryAccessType: plan.AccessSingleRowLookup}, 1.0},
		{metrics.Metrics{PrimaryAccessType: plan.AccessTableScan, RowsExamined: 50000}, 1.0},
		{metrics.Metrics{PrimaryAccessType: plan.AccessTableScan, RowsExamined: 5000}, 0.9},
		{metrics.Metrics{PrimaryAccessType: plan.AccessTableScan, RowsExamined: 500}, 0.7},
		{metrics.Metrics{PrimaryAccessType: plan.AccessTableScan, RowsExamined: 50}, 0.5},
		{metrics.Metrics{PrimaryAccessType: plan.AccessTableScan, RowsExamined: 5}, 0.3},
	}
	for _, tt := range tests {
		if got := sampleSize(&tt.m); got != tt.want {
			t.Errorf("sampleSize(%v rows, %s) = %v, want %v",
				tt.m.RowsExamined, tt.m.PrimaryAccessType, got, tt.want)
		}
	}
}

func TestEstimationAccuracy(t *testing.T) {
	m := &metrics.Metrics{}
	if got := estimationAccuracy(m); got != 0.5 {
		t.Errorf("no estimates = %v, want neutral 0.5", got)
	}

	m.PerTableEstimates = map[string]metrics.PerTableEstimate{
		"perfect": {EstimatedRows: 100, ActualRows: 100, Loops: 1},
		"half":    {EstimatedRows: 100, ActualRows: 200, Loops: 1},
	}
	if got := estimationAccuracy(m); math.Abs(got-0.75) > 1e-9 {
		t.Errorf("accuracy = %v, want 0.75", got)
	}
}

func TestPlanStability(t *testing.T) {
	if got := planStability(&metrics.Metrics{}); got != 1.0 {
		t.Errorf("stable plan = %v", got)
	}
	if got := planStability(&metrics.Metrics{HasIndexMerge: true}); math.Abs(got-0.6) > 1e-9 {
		t.Errorf("index merge = %v, want 0.6", got)
	}
	if got := planStability(&metrics.Metrics{HasIndexMerge: true, HasMaterialization: true}); math.Abs(got-0.4) > 1e-9 {
		t.Errorf("merge + materialization = %v, want 0.4", got)
	}
}

func TestCapabilityFactor(t *testing.T) {
	if got := capabilityFactor(fullCaps()); got != 1.0 {
		t.Errorf("full caps = %v", got)
	}
	if got := capabilityFactor(driver.Capabilities{}); got != 0 {
		t.Errorf("no caps = %v", got)
	}
	if got := capabilityFactor(driver.Capabilities{ExplainAnalyze: true}); got != 0.2 {
		t.Errorf("one cap = %v", got)
	}
}
