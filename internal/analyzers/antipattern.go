package analyzers

import (
	"fmt"
	"strings"

	"github.com/querylens/querylens/internal/logger"
	"github.com/querylens/querylens/internal/metrics"
	"github.com/querylens/querylens/internal/report"
	"github.com/querylens/querylens/internal/sqltext"
)

// AntiPatternConfig tunes the lexical anti-pattern checks.
type AntiPatternConfig struct {
	OrChainThreshold         int
	MissingLimitRowThreshold float64
}

// DefaultAntiPatternConfig returns the shipped thresholds.
func DefaultAntiPatternConfig() AntiPatternConfig {
	return AntiPatternConfig{OrChainThreshold: 3, MissingLimitRowThreshold: 1000}
}

// AntiPatternAnalyzer flags SQL shapes that defeat index usage or waste
// work, independent of what the plan says.
type AntiPatternAnalyzer struct {
	cfg AntiPatternConfig
	log logger.Interface
}

// NewAntiPatternAnalyzer builds the analyzer.
func NewAntiPatternAnalyzer(cfg AntiPatternConfig, log logger.Interface) *AntiPatternAnalyzer {
	if log == nil {
		log = logger.Nop{}
	}
	return &AntiPatternAnalyzer{cfg: cfg, log: log}
}

// Analyze scans the SQL text for known anti-patterns.
func (a *AntiPatternAnalyzer) Analyze(sql string, m *metrics.Metrics) *report.AntiPatterns {
	out := &report.AntiPatterns{}
	add := func(name string, f report.Finding) {
		out.Detected = append(out.Detected, name)
		out.Findings = append(out.Findings, f)
	}

	if sqltext.HasSelectStar(sql) {
		add("select_star", report.Finding{
			Severity:       report.SeverityOptimization,
			Category:       "anti_pattern",
			Title:          "SELECT * fetches every column",
			Description:    "Selecting all columns blocks covering-index reads and moves unneeded bytes.",
			Recommendation: "List only the columns the caller consumes.",
		})
	}

	if n := sqltext.OrChainCount(sql); n >= a.cfg.OrChainThreshold {
		add("or_chain", report.Finding{
			Severity: report.SeverityWarning,
			Category: "anti_pattern",
			Title:    fmt.Sprintf("OR chain with %d branches", n),
			Description: "Long OR chains usually prevent a single index from covering the predicate " +
				"and push the optimizer toward scans or index merges.",
			Recommendation: "Rewrite the chain as IN (...) for one column, or UNION ALL of indexed branches.",
			Metadata:       map[string]any{"or_count": n},
		})
	}

	if sqltext.HasCorrelatedSubquery(sql) {
		add("correlated_subquery", report.Finding{
			Severity:       report.SeverityWarning,
			Category:       "anti_pattern",
			Title:          "Correlated subquery",
			Description:    "The subquery references the outer row, so it re-executes per outer row.",
			Recommendation: "Rewrite as a JOIN or a derived table evaluated once.",
		})
	}

	if cols := sqltext.FunctionWrappedColumns(sql); len(cols) > 0 {
		add("function_on_column", report.Finding{
			Severity: report.SeverityWarning,
			Category: "anti_pattern",
			Title:    "Function call wraps a predicate column",
			Description: fmt.Sprintf(
				"Wrapping %s in a function in WHERE makes any index on the column unusable.",
				strings.Join(cols, ", ")),
			Recommendation: "Move the computation to the literal side of the comparison, or add a generated column with an index.",
			Metadata:       map[string]any{"columns": cols},
		})
	}

	if sqltext.HasLeadingWildcard(sql) {
		add("leading_wildcard", report.Finding{
			Severity:       report.SeverityWarning,
			Category:       "anti_pattern",
			Title:          "LIKE pattern with leading %",
			Description:    "A leading wildcard forces a scan; B-tree indexes match prefixes only.",
			Recommendation: "Anchor the pattern, or use a full-text index for substring search.",
		})
	}

	if !sqltext.HasLimit(sql) && m.RowsExamined > a.cfg.MissingLimitRowThreshold {
		add("missing_limit", report.Finding{
			Severity: report.SeverityOptimization,
			Category: "anti_pattern",
			Title:    "Large read without LIMIT",
			Description: fmt.Sprintf(
				"The query examined %.0f rows with no LIMIT; unbounded result sets grow with the table.",
				m.RowsExamined),
			Recommendation: "Add LIMIT with keyset pagination if the caller only needs a page.",
		})
	}

	return out
}
