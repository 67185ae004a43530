package analyzers

import (
	"fmt"

	"github.com/querylens/querylens/internal/driver"
	"github.com/querylens/querylens/internal/logger"
	"github.com/querylens/querylens/internal/metrics"
	"github.com/querylens/querylens/internal/plan"
	"github.com/querylens/querylens/internal/report"
)

// Confidence factor weights. They sum to 1.0.
const (
	weightEstimationAccuracy = 0.25
	weightSampleSize         = 0.20
	weightExplainAnalyze     = 0.15
	weightCacheWarmth        = 0.10
	weightStatsFreshness     = 0.10
	weightPlanStability      = 0.10
	weightQueryComplexity    = 0.05
	weightDriverCapabilities = 0.05
)

// ConfidenceScorer rates how much the rest of the report can be trusted,
// from the quality of the inputs it was derived from.
type ConfidenceScorer struct {
	log logger.Interface
}

// NewConfidenceScorer builds the scorer.
func NewConfidenceScorer(log logger.Interface) *ConfidenceScorer {
	if log == nil {
		log = logger.Nop{}
	}
	return &ConfidenceScorer{log: log}
}

// Analyze combines eight weighted factors into one 0..1 score.
func (c *ConfidenceScorer) Analyze(m *metrics.Metrics, caps driver.Capabilities) *report.Confidence {
	factors := map[string]float64{
		"estimation_accuracy": estimationAccuracy(m),
		"sample_size":         sampleSize(m),
		"explain_analyze":     boolFactor(m.ParsingValid),
		"cache_warmth":        cacheWarmth(m),
		"stats_freshness":     statsFreshness(m),
		"plan_stability":      planStability(m),
		"query_complexity":    queryComplexity(m),
		"driver_capabilities": capabilityFactor(caps),
	}

	score := factors["estimation_accuracy"]*weightEstimationAccuracy +
		factors["sample_size"]*weightSampleSize +
		factors["explain_analyze"]*weightExplainAnalyze +
		factors["cache_warmth"]*weightCacheWarmth +
		factors["stats_freshness"]*weightStatsFreshness +
		factors["plan_stability"]*weightPlanStability +
		factors["query_complexity"]*weightQueryComplexity +
		factors["driver_capabilities"]*weightDriverCapabilities

	out := &report.Confidence{
		Score:   score,
		Label:   confidenceLabel(score),
		Factors: factors,
	}

	switch {
	case score < 0.5:
		out.Findings = append(out.Findings, report.Finding{
			Severity: report.SeverityWarning,
			Category: "confidence",
			Title:    fmt.Sprintf("Analysis confidence %s (%.2f)", out.Label, score),
			Description: "The inputs behind this report are weak; treat grades and " +
				"projections as indicative only.",
			Recommendation: "Re-run against a server with EXPLAIN ANALYZE support and fresh statistics.",
		})
	case score < 0.7:
		out.Findings = append(out.Findings, report.Finding{
			Severity:       report.SeverityOptimization,
			Category:       "confidence",
			Title:          fmt.Sprintf("Analysis confidence %s (%.2f)", out.Label, score),
			Description:    "Some inputs behind this report are uncertain.",
			Recommendation: "Refresh optimizer statistics to tighten the estimates.",
		})
	}
	return out
}

func confidenceLabel(score float64) string {
	switch {
	case score >= 0.9:
		return "high"
	case score >= 0.7:
		return "moderate"
	case score >= 0.5:
		return "low"
	default:
		return "unreliable"
	}
}

// estimationAccuracy inverts the average per-table drift.
func estimationAccuracy(m *metrics.Metrics) float64 {
	if len(m.PerTableEstimates) == 0 {
		return 0.5
	}
	var total float64
	for _, est := range m.PerTableEstimates {
		total += 1 - driftScore(est.EstimatedRows, est.ActualRows*est.Loops)
	}
	return total / float64(len(m.PerTableEstimates))
}

// sampleSize trusts results derived from more rows. Const and single-row
// lookups are deterministic, so they get full marks regardless.
func sampleSize(m *metrics.Metrics) float64 {
	switch m.PrimaryAccessType {
	case plan.AccessZeroRowConst, plan.AccessConstRow, plan.AccessSingleRowLookup:
		return 1.0
	}
	switch {
	case m.RowsExamined >= 10000:
		return 1.0
	case m.RowsExamined >= 1000:
		return 0.9
	case m.RowsExamined >= 100:
		return 0.7
	case m.RowsExamined >= 10:
		return 0.5
	default:
		return 0.3
	}
}

// cacheWarmth guesses buffer-pool residency from throughput: many rows in
// very little time means the pages were already hot.
func cacheWarmth(m *metrics.Metrics) float64 {
	if !m.ParsingValid || m.RowsExamined == 0 {
		return 0.5
	}
	if m.ExecutionTimeMs <= 0 {
		return 1.0
	}
	rowsPerMs := m.RowsExamined / m.ExecutionTimeMs
	switch {
	case rowsPerMs >= 1000:
		return 1.0
	case rowsPerMs >= 100:
		return 0.8
	default:
		return 0.5
	}
}

// statsFreshness decays with the worst per-table deviation.
func statsFreshness(m *metrics.Metrics) float64 {
	worst := 0.0
	for _, est := range m.PerTableEstimates {
		if d := driftScore(est.EstimatedRows, est.ActualRows*est.Loops); d > worst {
			worst = d
		}
	}
	return 1 - worst
}

// planStability drops when the optimizer shows signs of being on the fence
// between strategies.
func planStability(m *metrics.Metrics) float64 {
	score := 1.0
	if m.HasIndexMerge {
		score -= 0.4
	}
	if m.HasMaterialization {
		score -= 0.2
	}
	if score < 0 {
		score = 0
	}
	return score
}

// queryComplexity: simpler plans are easier to measure faithfully.
func queryComplexity(m *metrics.Metrics) float64 {
	f := 1 - float64(m.NodeCount)/20
	if f < 0 {
		return 0
	}
	return f
}

func capabilityFactor(caps driver.Capabilities) float64 {
	total, have := 5.0, 0.0
	for _, b := range []bool{caps.Histograms, caps.ExplainAnalyze, caps.JSONExplain, caps.CoveringIndexInfo, caps.ParallelQuery} {
		if b {
			have++
		}
	}
	return have / total
}

func boolFactor(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
