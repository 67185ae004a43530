package analyzers

import (
	"fmt"
	"time"

	"github.com/querylens/querylens/internal/baseline"
	"github.com/querylens/querylens/internal/logger"
	"github.com/querylens/querylens/internal/metrics"
	"github.com/querylens/querylens/internal/report"
)

// RegressionConfig tunes baseline comparison. A regression fires only when
// the percent delta, the absolute delta, and the minimum-measurable floor
// all agree, which keeps sub-millisecond jitter out of the findings.
type RegressionConfig struct {
	Enabled             bool
	TimeWarningPct      float64
	TimeCriticalPct     float64
	ScoreWarningPct     float64
	ScoreCriticalPct    float64
	NoiseFloorMs        float64
	MinimumMeasurableMs float64
}

// DefaultRegressionConfig returns the shipped thresholds.
func DefaultRegressionConfig() RegressionConfig {
	return RegressionConfig{
		Enabled:             true,
		TimeWarningPct:      50,
		TimeCriticalPct:     200,
		ScoreWarningPct:     15,
		ScoreCriticalPct:    30,
		NoiseFloorMs:        1,
		MinimumMeasurableMs: 5,
	}
}

// RegressionAnalyzer compares the current run against the most recent
// stored snapshot and then records the current run.
type RegressionAnalyzer struct {
	cfg   RegressionConfig
	store *baseline.Store
	log   logger.Interface
}

// NewRegressionAnalyzer builds the analyzer.
func NewRegressionAnalyzer(cfg RegressionConfig, store *baseline.Store, log logger.Interface) *RegressionAnalyzer {
	if log == nil {
		log = logger.Nop{}
	}
	return &RegressionAnalyzer{cfg: cfg, store: store, log: log}
}

// Analyze loads the latest baseline for the normalized query, diffs it, and
// appends the current snapshot. Returns nil when disabled or storage-less.
func (a *RegressionAnalyzer) Analyze(sql string, m *metrics.Metrics, compositeScore float64, grade string) *report.Regression {
	if !a.cfg.Enabled || a.store == nil {
		return nil
	}

	hash := baseline.QueryHash(sql)
	out := &report.Regression{QueryHash: hash}

	prev, err := a.store.Load(hash)
	if err != nil {
		a.log.Warn("loading baseline failed", logger.Err(err), "hash", hash)
	}
	if prev != nil {
		out.HasBaseline = true
		out.BaselineTime = prev.Timestamp.Format(time.RFC3339)
		a.compare(out, prev, m, compositeScore)
	}

	entry := baseline.Entry{
		Timestamp:      time.Now(),
		Grade:          grade,
		CompositeScore: compositeScore,
		Metrics: map[string]float64{
			"execution_time_ms": m.ExecutionTimeMs,
			"rows_examined":     m.RowsExamined,
			"rows_returned":     m.RowsReturned,
		},
	}
	if err := a.store.Save(hash, entry); err != nil {
		a.log.Warn("saving baseline failed", logger.Err(err), "hash", hash)
	}
	return out
}

func (a *RegressionAnalyzer) compare(out *report.Regression, prev *baseline.Entry, m *metrics.Metrics, compositeScore float64) {
	baseTime := prev.Metrics["execution_time_ms"]
	if baseTime >= a.cfg.MinimumMeasurableMs {
		pct := percentChange(baseTime, m.ExecutionTimeMs)
		abs := m.ExecutionTimeMs - baseTime
		if pct >= a.cfg.TimeWarningPct && abs >= a.cfg.NoiseFloorMs {
			sev := report.SeverityWarning
			if pct >= a.cfg.TimeCriticalPct {
				sev = report.SeverityCritical
			}
			out.Deltas = append(out.Deltas, report.RegressionDelta{
				Metric:        "execution_time_ms",
				Baseline:      baseTime,
				Current:       m.ExecutionTimeMs,
				PercentChange: pct,
				Severity:      sev,
			})
			out.Findings = append(out.Findings, report.Finding{
				Severity: sev,
				Category: "regression",
				Title:    "Execution time regressed",
				Description: fmt.Sprintf(
					"Execution time went from %.1f ms to %.1f ms (+%.0f%%) against the stored baseline.",
					baseTime, m.ExecutionTimeMs, pct),
				Recommendation: "Compare the current plan against the baseline run; look for lost index usage or stale statistics.",
				Metadata:       map[string]any{"baseline_ms": baseTime, "current_ms": m.ExecutionTimeMs},
			})
		}
	}

	if prev.CompositeScore > 0 {
		drop := percentChange(compositeScore, prev.CompositeScore)
		if compositeScore < prev.CompositeScore && drop >= a.cfg.ScoreWarningPct {
			sev := report.SeverityWarning
			if drop >= a.cfg.ScoreCriticalPct {
				sev = report.SeverityCritical
			}
			out.Deltas = append(out.Deltas, report.RegressionDelta{
				Metric:        "composite_score",
				Baseline:      prev.CompositeScore,
				Current:       compositeScore,
				PercentChange: -drop,
				Severity:      sev,
			})
			out.Findings = append(out.Findings, report.Finding{
				Severity: sev,
				Category: "regression",
				Title:    "Composite score regressed",
				Description: fmt.Sprintf(
					"Score dropped from %.1f to %.1f against the stored baseline.",
					prev.CompositeScore, compositeScore),
				Recommendation: "Re-run with the previous schema or data volume to isolate what changed.",
			})
		}
	}
}

// percentChange returns how much current exceeds base, in percent of base.
func percentChange(base, current float64) float64 {
	if base == 0 {
		return 0
	}
	return (current - base) / base * 100
}
