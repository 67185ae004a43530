package analyzers

import (
	"strings"
	"testing"

	"github.com/querylens/querylens/internal/metrics"
	"github.com/querylens/querylens/internal/report"
)

func proposalFor(out *report.IndexSynthesis, table string) *report.IndexProposal {
	for i := range out.Proposals {
		if out.Proposals[i].Table == table {
			return &out.Proposals[i]
		}
	}
	return nil
}

func TestIndexSynthesis_CompositeOrdering(t *testing.T) {
	a := NewIndexSynthesisAnalyzer(DefaultIndexSynthesisConfig(), nil)
	sql := "SELECT o.id FROM orders o JOIN customers c ON o.customer_id = c.id " +
		"WHERE o.status = 'paid' AND o.created_at > '2024-01-01'"
	m := &metrics.Metrics{
		PerTableEstimates: map[string]metrics.PerTableEstimate{
			"orders":    {EstimatedRows: 5000, ActualRows: 5000, Loops: 1},
			"customers": {EstimatedRows: 1, ActualRows: 1, Loops: 2000},
		},
	}

	out := a.Analyze(sql, m)
	p := proposalFor(out, "orders")
	if p == nil {
		t.Fatalf("no proposal for orders: %+v", out.Proposals)
	}

	// Equality column leads, join column follows, range column trails.
	want := []string{"status", "customer_id", "created_at"}
	if len(p.Columns) != len(want) {
		t.Fatalf("columns = %v, want %v", p.Columns, want)
	}
	for i, col := range want {
		if p.Columns[i] != col {
			t.Errorf("columns[%d] = %q, want %q", i, p.Columns[i], col)
		}
	}

	if !strings.HasPrefix(p.DDL, "CREATE INDEX `idx_orders_") {
		t.Errorf("DDL = %q", p.DDL)
	}
	if !strings.Contains(p.DDL, "ON `orders` (`status`, `customer_id`, `created_at`)") {
		t.Errorf("DDL = %q", p.DDL)
	}
	if len(out.Findings) != len(out.Proposals) {
		t.Errorf("findings = %d, proposals = %d", len(out.Findings), len(out.Proposals))
	}
}

func TestIndexSynthesis_ColumnCap(t *testing.T) {
	cfg := DefaultIndexSynthesisConfig()
	cfg.MaxColumnsPerIndex = 2
	a := NewIndexSynthesisAnalyzer(cfg, nil)
	sql := "SELECT id FROM orders WHERE status = 'paid' AND region = 'eu' AND created_at > '2024-01-01'"
	m := &metrics.Metrics{
		PerTableEstimates: map[string]metrics.PerTableEstimate{
			"orders": {EstimatedRows: 5000, ActualRows: 5000, Loops: 1},
		},
	}

	out := a.Analyze(sql, m)
	p := proposalFor(out, "orders")
	if p == nil {
		t.Fatal("no proposal")
	}
	if len(p.Columns) != 2 {
		t.Errorf("columns = %v, want cap of 2", p.Columns)
	}
}

func TestIndexSynthesis_CapKeepsDrivingTable(t *testing.T) {
	cfg := DefaultIndexSynthesisConfig()
	cfg.MaxRecommendations = 1
	a := NewIndexSynthesisAnalyzer(cfg, nil)
	sql := "SELECT o.id FROM orders o JOIN users u ON o.user_id = u.id " +
		"WHERE o.status = 'paid'"
	m := &metrics.Metrics{
		PerTableEstimates: map[string]metrics.PerTableEstimate{
			"orders": {EstimatedRows: 5000, ActualRows: 5000, Loops: 1},
			"users":  {EstimatedRows: 1, ActualRows: 1, Loops: 2000},
		},
	}

	// Candidates exist for both orders and users; under the cap the driving
	// table's proposal must survive on every run.
	for i := 0; i < 50; i++ {
		out := a.Analyze(sql, m)
		if len(out.Proposals) != 1 {
			t.Fatalf("run %d: proposals = %+v", i, out.Proposals)
		}
		if out.Proposals[0].Table != "orders" {
			t.Fatalf("run %d: kept %q, want the driving table", i, out.Proposals[0].Table)
		}
	}
}

func TestIndexSynthesis_ProposalOrder(t *testing.T) {
	a := NewIndexSynthesisAnalyzer(DefaultIndexSynthesisConfig(), nil)
	sql := "SELECT o.id FROM orders o " +
		"JOIN users u ON o.user_id = u.id " +
		"JOIN accounts a ON o.account_id = a.id " +
		"WHERE o.status = 'paid'"
	m := &metrics.Metrics{
		PerTableEstimates: map[string]metrics.PerTableEstimate{
			"orders":   {EstimatedRows: 5000, ActualRows: 5000, Loops: 1},
			"users":    {EstimatedRows: 1, ActualRows: 1, Loops: 2000},
			"accounts": {EstimatedRows: 1, ActualRows: 1, Loops: 2000},
		},
	}

	out := a.Analyze(sql, m)
	want := []string{"orders", "accounts", "users"}
	if len(out.Proposals) != len(want) {
		t.Fatalf("proposals = %+v, want %d tables", out.Proposals, len(want))
	}
	for i, table := range want {
		if out.Proposals[i].Table != table {
			t.Errorf("proposals[%d].Table = %q, want %q", i, out.Proposals[i].Table, table)
		}
	}
}

func TestIndexSynthesis_NoDrivingTable(t *testing.T) {
	a := NewIndexSynthesisAnalyzer(DefaultIndexSynthesisConfig(), nil)
	out := a.Analyze("SELECT 1", &metrics.Metrics{})
	if len(out.Proposals) != 0 {
		t.Errorf("proposals = %+v", out.Proposals)
	}
}

func TestIndexSynthesis_OverlapsReported(t *testing.T) {
	a := NewIndexSynthesisAnalyzer(DefaultIndexSynthesisConfig(), nil)
	m := &metrics.Metrics{
		IndexesUsed: []string{"idx_status"},
		PerTableEstimates: map[string]metrics.PerTableEstimate{
			"orders": {EstimatedRows: 5000, ActualRows: 5000, Loops: 1},
		},
	}

	out := a.Analyze("SELECT id FROM orders WHERE status = 'paid'", m)
	p := proposalFor(out, "orders")
	if p == nil {
		t.Fatal("no proposal")
	}
	if len(p.Overlaps) != 1 || p.Overlaps[0] != "idx_status" {
		t.Errorf("overlaps = %v", p.Overlaps)
	}
}

func TestClassifyWhereColumns(t *testing.T) {
	eq, ranged := classifyWhereColumns(
		"SELECT id FROM t WHERE a = 1 AND b > 2 AND c IN (1,2) AND d != 3 AND e LIKE 'x%'")
	if len(eq) != 2 || eq[0] != "a" || eq[1] != "c" {
		t.Errorf("equality = %v, want [a c]", eq)
	}
	// Inequality is skipped entirely; LIKE and > are range-shaped.
	if len(ranged) != 2 || ranged[0] != "b" || ranged[1] != "e" {
		t.Errorf("ranged = %v, want [b e]", ranged)
	}
}
