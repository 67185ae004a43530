// Package consistency cross-checks the finished analysis for internal
// contradictions. Violations are reported, never fatal: a contradictory
// report is still more useful than no report.
package consistency

import (
	"fmt"

	"github.com/querylens/querylens/internal/logger"
	"github.com/querylens/querylens/internal/metrics"
	"github.com/querylens/querylens/internal/plan"
	"github.com/querylens/querylens/internal/report"
	"github.com/querylens/querylens/internal/sqltext"
)

// minimumMeasurableMs mirrors the regression analyzer's noise floor.
const minimumMeasurableMs = 5

// Violation is one broken invariant.
type Violation struct {
	Rule        int    `json:"rule"`
	Description string `json:"description"`
}

// Input is everything the validator inspects.
type Input struct {
	SQL         string
	Metrics     *metrics.Metrics
	Findings    []report.Finding
	Concurrency *report.Concurrency
	Regression  *report.Regression
}

// Validator checks metric-versus-finding invariants after analysis. It is
// pure: validating the same input twice yields the same violations.
type Validator struct {
	guard *sqltext.Guard
	log   logger.Interface
}

// New builds the validator.
func New(log logger.Interface) *Validator {
	if log == nil {
		log = logger.Nop{}
	}
	return &Validator{guard: sqltext.NewGuard(), log: log}
}

// Validate returns every broken invariant and logs each one.
func (v *Validator) Validate(in Input) []Violation {
	var out []Violation
	add := func(rule int, format string, args ...any) {
		out = append(out, Violation{Rule: rule, Description: fmt.Sprintf(format, args...)})
	}
	m := in.Metrics
	if m == nil {
		return nil
	}

	// 1. Any non-scan primary access implies index backing.
	if m.PrimaryAccessType != "" && m.PrimaryAccessType != plan.AccessTableScan && !m.IsIndexBacked {
		add(1, "primary access %s but is_index_backed is false", m.PrimaryAccessType)
	}

	// 2/6. has_table_scan and primary_access_type=table_scan imply each other.
	if m.HasTableScan && m.PrimaryAccessType != plan.AccessTableScan {
		add(2, "has_table_scan set but primary access is %s", m.PrimaryAccessType)
	}
	if m.PrimaryAccessType == plan.AccessTableScan && !m.HasTableScan {
		add(6, "primary access is table_scan but has_table_scan is false")
	}

	// 3. A low-risk large scan is only consistent when it is intentional.
	if m.ComplexityRisk == metrics.RiskLow && m.HasTableScan &&
		m.RowsExamined > 1000 && !m.IsIntentionalScan {
		add(3, "low-risk classification with a %.0f-row table scan that is not intentional", m.RowsExamined)
	}

	// 4. Duplicate findings by category|title|recommendation.
	seen := map[string]bool{}
	for _, f := range in.Findings {
		key := f.Key()
		if seen[key] {
			add(4, "duplicate finding %q", key)
		}
		seen[key] = true
	}

	// 5. Plain SELECTs take no locks under MVCC.
	if in.Concurrency != nil && v.guard.IsSelect(in.SQL) &&
		!v.guard.IsLockingRead(in.SQL) && in.Concurrency.LockScope != "none" {
		add(5, "plain SELECT reported lock scope %q", in.Concurrency.LockScope)
	}

	// 7. Intentional scans must not carry scan-related critical/warning
	// findings.
	if m.IsIntentionalScan {
		for _, f := range in.Findings {
			if (f.Category == "no_index" || f.Category == "full_table_scan") &&
				(f.Severity == report.SeverityCritical || f.Severity == report.SeverityWarning) {
				add(7, "intentional full scan carries %s finding in %s", f.Severity, f.Category)
			}
		}
	}

	// 8. Time-regression findings require a measurable baseline.
	if in.Regression != nil {
		for _, d := range in.Regression.Deltas {
			if d.Metric == "execution_time_ms" && d.Baseline < minimumMeasurableMs {
				add(8, "execution-time regression reported against a %.1f ms baseline (below the %d ms floor)",
					d.Baseline, minimumMeasurableMs)
			}
		}
	}

	// 9. An unparsed plan cannot carry a measured execution time.
	if !m.ParsingValid && m.ExecutionTimeMs != 0 {
		add(9, "parsing_valid is false but execution_time_ms is %.2f", m.ExecutionTimeMs)
	}

	for _, violation := range out {
		v.log.Warn("consistency violation", "rule", violation.Rule, "detail", violation.Description)
	}
	return out
}
