package analyzers

import (
	"fmt"

	"github.com/querylens/querylens/internal/logger"
	"github.com/querylens/querylens/internal/metrics"
	"github.com/querylens/querylens/internal/plan"
	"github.com/querylens/querylens/internal/report"
	"github.com/querylens/querylens/internal/sqltext"
)

// ConcurrencyAnalyzer assesses lock footprint and contention potential.
// Plain SELECTs under MVCC take no locks at all; everything here only
// matters for locking reads.
type ConcurrencyAnalyzer struct {
	guard *sqltext.Guard
	log   logger.Interface
}

// NewConcurrencyAnalyzer builds the analyzer.
func NewConcurrencyAnalyzer(log logger.Interface) *ConcurrencyAnalyzer {
	if log == nil {
		log = logger.Nop{}
	}
	return &ConcurrencyAnalyzer{guard: sqltext.NewGuard(), log: log}
}

// Analyze derives lock scope, deadlock risk and a contention score.
func (a *ConcurrencyAnalyzer) Analyze(sqlText string, m *metrics.Metrics) *report.Concurrency {
	out := &report.Concurrency{}

	if !a.guard.IsLockingRead(sqlText) {
		out.LockScope = "none"
		out.RiskLabel = "low"
		return out
	}

	out.LockScope = lockScope(m.PrimaryAccessType)
	out.DeadlockRisk = deadlockRisk(sqlText, m)
	out.ContentionScore = m.ExecutionTimeMs *
		(1 + float64(m.NestedLoopDepth)*0.5) * m.RowsExamined / 10000

	switch {
	case out.DeadlockRisk >= 0.75 || out.ContentionScore > 100:
		out.RiskLabel = "high"
	case out.DeadlockRisk >= 0.5 || out.ContentionScore > 10:
		out.RiskLabel = "moderate"
	default:
		out.RiskLabel = "low"
	}

	if out.RiskLabel != "low" {
		sev := report.SeverityWarning
		if out.RiskLabel == "high" {
			sev = report.SeverityCritical
		}
		out.Findings = append(out.Findings, report.Finding{
			Severity: sev,
			Category: "concurrency",
			Title:    fmt.Sprintf("Locking read with %s lock scope", out.LockScope),
			Description: fmt.Sprintf(
				"This locking read holds %s-level locks for %.1f ms over %.0f examined rows; deadlock risk %.2f.",
				out.LockScope, m.ExecutionTimeMs, m.RowsExamined, out.DeadlockRisk),
			Recommendation: "Narrow the locked row set with a tighter index, or drop the locking clause if callers only read.",
			Metadata: map[string]any{
				"lock_scope":    out.LockScope,
				"deadlock_risk": out.DeadlockRisk,
			},
		})
	}
	return out
}

// lockScope maps the access pattern to the widest lock class it takes.
func lockScope(access plan.AccessType) string {
	switch access {
	case plan.AccessTableScan, plan.AccessIndexScan:
		return "table"
	case plan.AccessIndexRangeScan:
		return "gap"
	case plan.AccessIndexLookup, plan.AccessCoveringIndex, plan.AccessFulltextIndex:
		return "range"
	default:
		return "row"
	}
}

// deadlockRisk accumulates 0.25 per aggravating factor.
func deadlockRisk(sqlText string, m *metrics.Metrics) float64 {
	risk := 0.0
	if len(m.TablesAccessed) > 1 {
		risk += 0.25
	}
	if sqltext.HasExists(sqlText) || sqltext.HasCorrelatedSubquery(sqlText) {
		risk += 0.25
	}
	if !m.IsIndexBacked && m.PrimaryAccessType != plan.AccessConstRow &&
		m.PrimaryAccessType != plan.AccessZeroRowConst {
		risk += 0.25
	}
	if m.NestedLoopDepth > 2 {
		risk += 0.25
	}
	return risk
}
