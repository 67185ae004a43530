// Package analyzers holds the deep-analysis layer that runs after scoring:
// drift, anti-patterns, index work, regression, concurrency, memory,
// confidence and scalability.
package analyzers

import (
	"fmt"
	"sort"

	"github.com/querylens/querylens/internal/logger"
	"github.com/querylens/querylens/internal/metrics"
	"github.com/querylens/querylens/internal/report"
)

// CardinalityConfig holds the drift alert thresholds on the 0..1 drift
// scale.
type CardinalityConfig struct {
	WarningThreshold  float64
	CriticalThreshold float64
}

// DefaultCardinalityConfig returns the shipped thresholds.
func DefaultCardinalityConfig() CardinalityConfig {
	return CardinalityConfig{WarningThreshold: 0.5, CriticalThreshold: 0.9}
}

// CardinalityAnalyzer measures how far optimizer estimates drifted from
// observed row counts, per table.
type CardinalityAnalyzer struct {
	cfg CardinalityConfig
	log logger.Interface
}

// NewCardinalityAnalyzer builds the analyzer.
func NewCardinalityAnalyzer(cfg CardinalityConfig, log logger.Interface) *CardinalityAnalyzer {
	if log == nil {
		log = logger.Nop{}
	}
	return &CardinalityAnalyzer{cfg: cfg, log: log}
}

// Analyze computes per-table drift and the composite drift score (the worst
// table wins).
func (a *CardinalityAnalyzer) Analyze(m *metrics.Metrics) *report.CardinalityDrift {
	out := &report.CardinalityDrift{PerTable: map[string]report.TableDrift{}}
	if len(m.PerTableEstimates) == 0 {
		return out
	}

	tables := make([]string, 0, len(m.PerTableEstimates))
	for t := range m.PerTableEstimates {
		tables = append(tables, t)
	}
	sort.Strings(tables)

	for _, table := range tables {
		est := m.PerTableEstimates[table]
		observed := est.ActualRows * est.Loops
		drift := driftScore(est.EstimatedRows, observed)

		sev := report.SeverityInfo
		switch {
		case drift > a.cfg.CriticalThreshold:
			sev = report.SeverityCritical
		case drift > a.cfg.WarningThreshold:
			sev = report.SeverityWarning
		}

		out.PerTable[table] = report.TableDrift{
			EstimatedRows: est.EstimatedRows,
			ActualRows:    est.ActualRows,
			Loops:         est.Loops,
			DriftRatio:    drift,
			Severity:      sev,
		}
		if drift > out.DriftScore {
			out.DriftScore = drift
		}

		if sev == report.SeverityInfo {
			continue
		}
		out.Findings = append(out.Findings, report.Finding{
			Severity: sev,
			Category: "cardinality_drift",
			Title:    fmt.Sprintf("Cardinality drift on %s", table),
			Description: fmt.Sprintf(
				"Optimizer estimated %.0f rows for %s but the execution observed %.0f (drift %.2f).",
				est.EstimatedRows, table, observed, drift),
			Recommendation: fmt.Sprintf("Run ANALYZE TABLE `%s` so the optimizer plans with current statistics.", table),
			Metadata: map[string]any{
				"table":       table,
				"drift_ratio": drift,
			},
		})
	}
	return out
}

// driftScore maps estimate-versus-observed divergence to [0,1): 0 is a
// perfect estimate, values near 1 mean the estimate was off by orders of
// magnitude.
func driftScore(estimated, observed float64) float64 {
	if estimated <= 0 && observed <= 0 {
		return 0
	}
	if estimated <= 0 || observed <= 0 {
		return 1
	}
	lo, hi := estimated, observed
	if lo > hi {
		lo, hi = hi, lo
	}
	return 1 - lo/hi
}
