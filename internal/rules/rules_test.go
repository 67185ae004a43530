package rules

import (
	"strings"
	"testing"

	"github.com/querylens/querylens/internal/metrics"
	"github.com/querylens/querylens/internal/plan"
	"github.com/querylens/querylens/internal/report"
)

func defaultRegistry() *Registry {
	return Default(DefaultThresholds())
}

func evalOne(t *testing.T, r *Registry, key string, m *metrics.Metrics) *report.Finding {
	t.Helper()
	for _, rule := range r.Rules() {
		if rule.Key == key {
			return rule.Evaluate(m)
		}
	}
	t.Fatalf("rule %q not registered", key)
	return nil
}

func TestRegistry_Order(t *testing.T) {
	r := defaultRegistry()
	want := []string{
		"full_table_scan", "temp_table", "weedout", "deep_nested_loop",
		"index_merge", "stale_stats", "limit_ineffective",
		"quadratic_complexity", "no_index",
	}
	rules := r.Rules()
	if len(rules) != len(want) {
		t.Fatalf("registered %d rules, want %d", len(rules), len(want))
	}
	for i, key := range want {
		if rules[i].Key != key {
			t.Errorf("rules[%d] = %q, want %q", i, rules[i].Key, key)
		}
	}
}

func TestRegistry_ReplaceKeepsPosition(t *testing.T) {
	r := NewRegistry()
	r.Register(Rule{Key: "a", Name: "first"})
	r.Register(Rule{Key: "b", Name: "second"})
	r.Register(Rule{Key: "a", Name: "replaced"})

	rules := r.Rules()
	if len(rules) != 2 {
		t.Fatalf("len = %d, want 2", len(rules))
	}
	if rules[0].Name != "replaced" {
		t.Errorf("rules[0].Name = %q, want replaced", rules[0].Name)
	}
}

func TestFullTableScan(t *testing.T) {
	r := defaultRegistry()

	m := &metrics.Metrics{HasTableScan: true, RowsExamined: 500}
	f := evalOne(t, r, "full_table_scan", m)
	if f == nil {
		t.Fatal("expected finding")
	}
	if f.Severity != report.SeverityWarning {
		t.Errorf("severity = %v, want warning below the critical row count", f.Severity)
	}

	m.RowsExamined = 50000
	f = evalOne(t, r, "full_table_scan", m)
	if f == nil || f.Severity != report.SeverityCritical {
		t.Errorf("large scan should be critical, got %+v", f)
	}

	m.IsIntentionalScan = true
	if f := evalOne(t, r, "full_table_scan", m); f != nil {
		t.Error("intentional scans are exempt")
	}

	if f := evalOne(t, r, "full_table_scan", &metrics.Metrics{}); f != nil {
		t.Error("no scan, no finding")
	}
}

func TestTempTable(t *testing.T) {
	r := defaultRegistry()

	f := evalOne(t, r, "temp_table", &metrics.Metrics{HasTempTable: true})
	if f == nil || f.Severity != report.SeverityWarning {
		t.Fatalf("in-memory temp should warn, got %+v", f)
	}

	f = evalOne(t, r, "temp_table", &metrics.Metrics{HasTempTable: true, HasDiskTemp: true})
	if f == nil || f.Severity != report.SeverityCritical {
		t.Fatalf("disk spill should be critical, got %+v", f)
	}
	if !strings.Contains(f.Description, "disk") {
		t.Errorf("description should mention the spill: %q", f.Description)
	}
}

func TestDeepNestedLoop(t *testing.T) {
	r := defaultRegistry()

	if f := evalOne(t, r, "deep_nested_loop", &metrics.Metrics{NestedLoopDepth: 3}); f != nil {
		t.Error("depth 3 is under the default threshold")
	}

	f := evalOne(t, r, "deep_nested_loop", &metrics.Metrics{NestedLoopDepth: 4})
	if f == nil || f.Severity != report.SeverityWarning {
		t.Fatalf("depth 4 should warn, got %+v", f)
	}

	f = evalOne(t, r, "deep_nested_loop", &metrics.Metrics{NestedLoopDepth: 6})
	if f == nil || f.Severity != report.SeverityCritical {
		t.Fatalf("depth 6 should be critical, got %+v", f)
	}
}

func TestStaleStats(t *testing.T) {
	r := defaultRegistry()

	m := &metrics.Metrics{
		PerTableEstimates: map[string]metrics.PerTableEstimate{
			"orders": {EstimatedRows: 100, ActualRows: 5000, Loops: 1},
		},
	}
	f := evalOne(t, r, "stale_stats", m)
	if f == nil {
		t.Fatal("50x deviation should fire")
	}
	if !strings.Contains(f.Recommendation, "ANALYZE TABLE `orders`") {
		t.Errorf("recommendation = %q", f.Recommendation)
	}

	// Symmetric: over-estimation fires too.
	m.PerTableEstimates["orders"] = metrics.PerTableEstimate{EstimatedRows: 5000, ActualRows: 100, Loops: 1}
	if f := evalOne(t, r, "stale_stats", m); f == nil {
		t.Error("over-estimation should fire as well")
	}

	m.PerTableEstimates["orders"] = metrics.PerTableEstimate{EstimatedRows: 100, ActualRows: 120, Loops: 1}
	if f := evalOne(t, r, "stale_stats", m); f != nil {
		t.Error("1.2x deviation is within tolerance")
	}
}

func TestStaleStats_TwoStaleTables(t *testing.T) {
	r := defaultRegistry()
	m := &metrics.Metrics{
		PerTableEstimates: map[string]metrics.PerTableEstimate{
			"users":  {EstimatedRows: 10, ActualRows: 2000, Loops: 1},
			"orders": {EstimatedRows: 100, ActualRows: 5000, Loops: 1},
		},
	}

	// Both tables exceed the deviation threshold; the finding must name the
	// same one on every evaluation regardless of map iteration order.
	for i := 0; i < 50; i++ {
		f := evalOne(t, r, "stale_stats", m)
		if f == nil {
			t.Fatal("expected finding")
		}
		if f.Metadata["table"] != "orders" {
			t.Fatalf("run %d reported %v, want the first stale table in name order", i, f.Metadata["table"])
		}
	}
}

func TestDeviationRatio(t *testing.T) {
	tests := []struct {
		estimated, actual, want float64
	}{
		{100, 100, 1},
		{100, 1000, 10},
		{1000, 100, 10},
		{0, 0, 1},
		{0, 50, 50},
	}
	for _, tt := range tests {
		if got := deviationRatio(tt.estimated, tt.actual); got != tt.want {
			t.Errorf("deviationRatio(%v, %v) = %v, want %v", tt.estimated, tt.actual, got, tt.want)
		}
	}
}

func TestLimitIneffective(t *testing.T) {
	r := defaultRegistry()

	m := &metrics.Metrics{RowsExamined: 100000, RowsReturned: 10}
	if f := evalOne(t, r, "limit_ineffective", m); f == nil {
		t.Error("10000x read amplification should fire")
	}

	m.HasEarlyTermination = true
	if f := evalOne(t, r, "limit_ineffective", m); f != nil {
		t.Error("early termination means the LIMIT worked")
	}

	m = &metrics.Metrics{RowsExamined: 100, RowsReturned: 10}
	if f := evalOne(t, r, "limit_ineffective", m); f != nil {
		t.Error("10x amplification is under the default factor")
	}

	m = &metrics.Metrics{RowsExamined: 100000, RowsReturned: 0}
	if f := evalOne(t, r, "limit_ineffective", m); f != nil {
		t.Error("zero rows returned cannot be judged")
	}
}

func TestQuadraticComplexity(t *testing.T) {
	r := defaultRegistry()

	f := evalOne(t, r, "quadratic_complexity", &metrics.Metrics{Complexity: metrics.ComplexityQuadratic})
	if f == nil || f.Severity != report.SeverityCritical {
		t.Fatalf("quadratic should be critical, got %+v", f)
	}
	if f := evalOne(t, r, "quadratic_complexity", &metrics.Metrics{Complexity: metrics.ComplexityLinear}); f != nil {
		t.Error("linear plans should not fire")
	}
}

func TestNoIndex(t *testing.T) {
	r := defaultRegistry()

	f := evalOne(t, r, "no_index", &metrics.Metrics{PrimaryAccessType: plan.AccessTableScan})
	if f == nil || f.Severity != report.SeverityCritical {
		t.Fatalf("unindexed scan should be critical, got %+v", f)
	}

	exempt := []*metrics.Metrics{
		{IsIndexBacked: true, PrimaryAccessType: plan.AccessIndexLookup},
		{IsZeroRowConst: true},
		{IsIntentionalScan: true, PrimaryAccessType: plan.AccessTableScan},
		{PrimaryAccessType: plan.AccessConstRow},
		{PrimaryAccessType: plan.AccessSingleRowLookup},
	}
	for i, m := range exempt {
		if f := evalOne(t, r, "no_index", m); f != nil {
			t.Errorf("exempt case %d fired: %+v", i, f)
		}
	}
}

func TestEvaluateAll_Filter(t *testing.T) {
	r := defaultRegistry()
	m := &metrics.Metrics{
		HasTableScan:      true,
		HasTempTable:      true,
		RowsExamined:      50000,
		PrimaryAccessType: plan.AccessTableScan,
	}

	all := r.EvaluateAll(m, nil)
	if len(all) < 3 {
		t.Fatalf("expected at least scan, temp table and no-index findings, got %d", len(all))
	}

	only := r.EvaluateAll(m, []string{"temp_table"})
	if len(only) != 1 || only[0].Category != "temp_table" {
		t.Errorf("filtered evaluation = %+v", only)
	}
}
