package rules

import (
	"fmt"
	"sort"

	"github.com/querylens/querylens/internal/metrics"
	"github.com/querylens/querylens/internal/plan"
	"github.com/querylens/querylens/internal/report"
)

// Thresholds parameterizes the built-in rules.
type Thresholds struct {
	FullScanCriticalRows    float64
	DeepNestedLoopThreshold int
	StaleStatsDeviation     float64
	LimitIneffectiveFactor  float64
}

// DefaultThresholds returns the shipped rule thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		FullScanCriticalRows:    10000,
		DeepNestedLoopThreshold: 4,
		StaleStatsDeviation:     10,
		LimitIneffectiveFactor:  50,
	}
}

// Default returns a registry with the built-in rules registered in their
// canonical order.
func Default(t Thresholds) *Registry {
	r := NewRegistry()
	r.Register(fullTableScanRule(t))
	r.Register(tempTableRule())
	r.Register(weedoutRule())
	r.Register(deepNestedLoopRule(t))
	r.Register(indexMergeRule())
	r.Register(staleStatsRule(t))
	r.Register(limitIneffectiveRule(t))
	r.Register(quadraticComplexityRule())
	r.Register(noIndexRule())
	return r
}

func fullTableScanRule(t Thresholds) Rule {
	return Rule{
		Key:  "full_table_scan",
		Name: "Full Table Scan",
		Evaluate: func(m *metrics.Metrics) *report.Finding {
			if !m.HasTableScan || m.IsIntentionalScan {
				return nil
			}
			sev := report.SeverityWarning
			if m.RowsExamined > t.FullScanCriticalRows {
				sev = report.SeverityCritical
			}
			return &report.Finding{
				Severity: sev,
				Category: "full_table_scan",
				Title:    "Full table scan detected",
				Description: fmt.Sprintf(
					"The query reads every row of at least one table (%.0f rows examined).",
					m.RowsExamined),
				Recommendation: "Add an index matching the WHERE or JOIN predicates so the engine can seek instead of scan.",
				Metadata: map[string]any{
					"rows_examined": m.RowsExamined,
					"tables":        m.TablesAccessed,
				},
			}
		},
	}
}

func tempTableRule() Rule {
	return Rule{
		Key:  "temp_table",
		Name: "Temporary Table",
		Evaluate: func(m *metrics.Metrics) *report.Finding {
			if !m.HasTempTable {
				return nil
			}
			sev := report.SeverityWarning
			desc := "The plan materializes an in-memory temporary table."
			if m.HasDiskTemp {
				sev = report.SeverityCritical
				desc = "The plan materializes a temporary table that spills to disk."
			}
			return &report.Finding{
				Severity:       sev,
				Category:       "temp_table",
				Title:          "Temporary table in plan",
				Description:    desc,
				Recommendation: "Rework GROUP BY / ORDER BY so an index can satisfy the ordering, or reduce the sorted column set.",
			}
		},
	}
}

func weedoutRule() Rule {
	return Rule{
		Key:  "weedout",
		Name: "Semi-join Weedout",
		Evaluate: func(m *metrics.Metrics) *report.Finding {
			if !m.HasWeedout {
				return nil
			}
			return &report.Finding{
				Severity:       report.SeverityWarning,
				Category:       "weedout",
				Title:          "Semi-join weedout strategy",
				Description:    "The optimizer deduplicates join output through weedout materialization, which buffers rows.",
				Recommendation: "Consider rewriting IN (SELECT ...) as a JOIN with DISTINCT, or EXISTS, so the optimizer can pick a cheaper semi-join strategy.",
			}
		},
	}
}

func deepNestedLoopRule(t Thresholds) Rule {
	return Rule{
		Key:  "deep_nested_loop",
		Name: "Deep Nested Loop",
		Evaluate: func(m *metrics.Metrics) *report.Finding {
			if m.NestedLoopDepth < t.DeepNestedLoopThreshold {
				return nil
			}
			sev := report.SeverityWarning
			if m.NestedLoopDepth >= 6 {
				sev = report.SeverityCritical
			}
			return &report.Finding{
				Severity: sev,
				Category: "deep_nested_loop",
				Title:    fmt.Sprintf("Nested loop depth %d", m.NestedLoopDepth),
				Description: fmt.Sprintf(
					"The plan nests %d loop joins; cost multiplies at every level.",
					m.NestedLoopDepth),
				Recommendation: "Reduce the number of joined tables or ensure every join level is driven by an index.",
				Metadata:       map[string]any{"depth": m.NestedLoopDepth},
			}
		},
	}
}

func indexMergeRule() Rule {
	return Rule{
		Key:  "index_merge",
		Name: "Index Merge",
		Evaluate: func(m *metrics.Metrics) *report.Finding {
			if !m.HasIndexMerge {
				return nil
			}
			return &report.Finding{
				Severity:       report.SeverityOptimization,
				Category:       "index_merge",
				Title:          "Index merge in plan",
				Description:    "The optimizer combines multiple single-column indexes instead of using one composite index.",
				Recommendation: "Create a composite index covering the merged predicates to avoid the merge step.",
			}
		},
	}
}

func staleStatsRule(t Thresholds) Rule {
	return Rule{
		Key:  "stale_stats",
		Name: "Stale Statistics",
		Evaluate: func(m *metrics.Metrics) *report.Finding {
			tables := make([]string, 0, len(m.PerTableEstimates))
			for table := range m.PerTableEstimates {
				tables = append(tables, table)
			}
			sort.Strings(tables)
			for _, table := range tables {
				est := m.PerTableEstimates[table]
				deviation := deviationRatio(est.EstimatedRows, est.ActualRows)
				if deviation <= t.StaleStatsDeviation {
					continue
				}
				return &report.Finding{
					Severity: report.SeverityWarning,
					Category: "stale_stats",
					Title:    fmt.Sprintf("Optimizer statistics stale for %s", table),
					Description: fmt.Sprintf(
						"Estimated %.0f rows but observed %.0f (×%.1f deviation); the optimizer is planning against stale statistics.",
						est.EstimatedRows, est.ActualRows*est.Loops, deviation),
					Recommendation: fmt.Sprintf("Run ANALYZE TABLE `%s` to refresh optimizer statistics.", table),
					Metadata: map[string]any{
						"table":          table,
						"estimated_rows": est.EstimatedRows,
						"actual_rows":    est.ActualRows,
						"deviation":      deviation,
					},
				}
			}
			return nil
		},
	}
}

// deviationRatio compares estimate and observation symmetrically: 10 means
// one side is 10× the other. Loops are intentionally excluded so repeated
// inner lookups do not masquerade as stale statistics.
func deviationRatio(estimated, actual float64) float64 {
	if estimated <= 0 || actual <= 0 {
		if estimated == actual {
			return 1
		}
		return maxf(estimated, actual)
	}
	if actual > estimated {
		return actual / estimated
	}
	return estimated / actual
}

func limitIneffectiveRule(t Thresholds) Rule {
	return Rule{
		Key:  "limit_ineffective",
		Name: "Ineffective LIMIT",
		Evaluate: func(m *metrics.Metrics) *report.Finding {
			if m.HasEarlyTermination || m.RowsReturned <= 0 {
				return nil
			}
			if m.RowsExamined <= t.LimitIneffectiveFactor*m.RowsReturned {
				return nil
			}
			return &report.Finding{
				Severity: report.SeverityWarning,
				Category: "limit_ineffective",
				Title:    "LIMIT did not stop the scan early",
				Description: fmt.Sprintf(
					"The engine examined %.0f rows to return %.0f; the LIMIT never allowed early termination.",
					m.RowsExamined, m.RowsReturned),
				Recommendation: "Add an index matching the ORDER BY so the engine can stream rows in order and stop at the limit.",
			}
		},
	}
}

func quadraticComplexityRule() Rule {
	return Rule{
		Key:  "quadratic_complexity",
		Name: "Quadratic Complexity",
		Evaluate: func(m *metrics.Metrics) *report.Finding {
			if m.Complexity != metrics.ComplexityQuadratic {
				return nil
			}
			return &report.Finding{
				Severity:       report.SeverityCritical,
				Category:       "quadratic_complexity",
				Title:          "Quadratic growth pattern",
				Description:    "Table scans inside nested loops make this query cost grow with the square of the data set.",
				Recommendation: "Index the inner-table join columns; a scan repeated per outer row is the single most expensive plan shape.",
			}
		},
	}
}

func noIndexRule() Rule {
	return Rule{
		Key:  "no_index",
		Name: "No Index Used",
		Evaluate: func(m *metrics.Metrics) *report.Finding {
			if m.IsIndexBacked || m.IsZeroRowConst || m.IsIntentionalScan {
				return nil
			}
			switch m.PrimaryAccessType {
			case plan.AccessConstRow, plan.AccessSingleRowLookup:
				return nil
			}
			return &report.Finding{
				Severity:       report.SeverityCritical,
				Category:       "no_index",
				Title:          "No index used",
				Description:    "No plan node located rows through an index.",
				Recommendation: "Create an index on the columns in the WHERE clause.",
				Metadata:       map[string]any{"primary_access_type": string(m.PrimaryAccessType)},
			}
		},
	}
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
