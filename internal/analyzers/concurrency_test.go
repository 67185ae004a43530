package analyzers

import (
	"testing"

	"github.com/querylens/querylens/internal/metrics"
	"github.com/querylens/querylens/internal/plan"
	"github.com/querylens/querylens/internal/report"
)

func TestConcurrency_PlainSelect(t *testing.T) {
	a := NewConcurrencyAnalyzer(nil)
	out := a.Analyze("SELECT * FROM orders WHERE id = 1", &metrics.Metrics{
		PrimaryAccessType: plan.AccessTableScan,
		ExecutionTimeMs:   500,
		RowsExamined:      100000,
	})

	// MVCC reads take no locks no matter how expensive the query is.
	if out.LockScope != "none" {
		t.Errorf("lock scope = %q, want none", out.LockScope)
	}
	if out.RiskLabel != "low" {
		t.Errorf("risk = %q, want low", out.RiskLabel)
	}
	if len(out.Findings) != 0 {
		t.Errorf("findings = %+v", out.Findings)
	}
}

func TestConcurrency_LockingReadScopes(t *testing.T) {
	a := NewConcurrencyAnalyzer(nil)
	tests := []struct {
		access plan.AccessType
		want   string
	}{
		{plan.AccessTableScan, "table"},
		{plan.AccessIndexScan, "table"},
		{plan.AccessIndexRangeScan, "gap"},
		{plan.AccessIndexLookup, "range"},
		{plan.AccessCoveringIndex, "range"},
		{plan.AccessConstRow, "row"},
		{plan.AccessSingleRowLookup, "row"},
	}
	for _, tt := range tests {
		out := a.Analyze("SELECT * FROM orders WHERE id = 1 FOR UPDATE", &metrics.Metrics{
			PrimaryAccessType: tt.access,
			IsIndexBacked:     true,
		})
		if out.LockScope != tt.want {
			t.Errorf("lock scope for %s = %q, want %q", tt.access, out.LockScope, tt.want)
		}
	}
}

func TestConcurrency_LowRiskLockingRead(t *testing.T) {
	a := NewConcurrencyAnalyzer(nil)
	out := a.Analyze("SELECT * FROM orders WHERE id = 1 FOR UPDATE", &metrics.Metrics{
		PrimaryAccessType: plan.AccessConstRow,
		IsIndexBacked:     true,
		ExecutionTimeMs:   0.5,
		RowsExamined:      1,
		TablesAccessed:    []string{"orders"},
	})
	if out.RiskLabel != "low" {
		t.Errorf("risk = %q, want low", out.RiskLabel)
	}
	if out.DeadlockRisk != 0 {
		t.Errorf("deadlock risk = %v, want 0", out.DeadlockRisk)
	}
	if len(out.Findings) != 0 {
		t.Errorf("single-row locking read should not warn: %+v", out.Findings)
	}
}

func TestConcurrency_HighRiskLockingScan(t *testing.T) {
	a := NewConcurrencyAnalyzer(nil)
	out := a.Analyze(
		"SELECT * FROM orders o JOIN items i ON i.order_id = o.id WHERE o.status = 'new' FOR UPDATE",
		&metrics.Metrics{
			PrimaryAccessType: plan.AccessTableScan,
			ExecutionTimeMs:   120,
			RowsExamined:      50000,
			NestedLoopDepth:   3,
			TablesAccessed:    []string{"orders", "items"},
		})

	if out.LockScope != "table" {
		t.Errorf("lock scope = %q", out.LockScope)
	}
	// Multi-table + unindexed + deep nesting.
	if out.DeadlockRisk != 0.75 {
		t.Errorf("deadlock risk = %v, want 0.75", out.DeadlockRisk)
	}
	if out.RiskLabel != "high" {
		t.Errorf("risk = %q, want high", out.RiskLabel)
	}
	if len(out.Findings) != 1 || out.Findings[0].Severity != report.SeverityCritical {
		t.Errorf("findings = %+v", out.Findings)
	}
}

func TestDeadlockRisk_ExistsFactor(t *testing.T) {
	m := &metrics.Metrics{
		PrimaryAccessType: plan.AccessConstRow,
		IsIndexBacked:     true,
		TablesAccessed:    []string{"orders"},
	}
	withExists := deadlockRisk(
		"SELECT * FROM orders o WHERE EXISTS (SELECT 1 FROM items i WHERE i.order_id = o.id) FOR UPDATE", m)
	without := deadlockRisk("SELECT * FROM orders WHERE id = 1 FOR UPDATE", m)
	if withExists != without+0.25 {
		t.Errorf("EXISTS should add 0.25: %v vs %v", withExists, without)
	}
}
