package plan

import (
	"strings"
	"testing"
)

const nestedLoopPlan = `-> Nested loop inner join  (cost=1241 rows=2932) (actual time=0.0846..13.1 rows=2844 loops=1)
    -> Filter: (o.customer_id is not null)  (cost=215 rows=2117) (actual time=0.0485..2.88 rows=2117 loops=1)
        -> Table scan on o  (cost=215 rows=2117) (actual time=0.0468..2.42 rows=2117 loops=1)
    -> Single-row index lookup on c using PRIMARY (id=o.customer_id)  (cost=0.385 rows=1) (actual time=0.00455..0.00459 rows=1 loops=2117)
`

func TestParse_NestedLoop(t *testing.T) {
	root := Parse(nestedLoopPlan)
	if root == nil {
		t.Fatal("Parse returned nil")
	}

	if !strings.HasPrefix(root.Operation, "Nested loop") {
		t.Errorf("root operation = %q", root.Operation)
	}
	if root.AccessType != "" {
		t.Errorf("control-flow node should have no access type, got %q", root.AccessType)
	}
	if root.ActualTimeEnd == nil || *root.ActualTimeEnd != 13.1 {
		t.Errorf("root actual end time = %v, want 13.1", root.ActualTimeEnd)
	}
	if root.EstimatedRows == nil || *root.EstimatedRows != 2932 {
		t.Errorf("root estimated rows = %v, want 2932", root.EstimatedRows)
	}

	if len(root.Children) != 2 {
		t.Fatalf("root children = %d, want 2", len(root.Children))
	}

	filter := root.Children[0]
	if !strings.HasPrefix(filter.Operation, "Filter:") {
		t.Errorf("first child = %q, want Filter", filter.Operation)
	}
	if len(filter.Children) != 1 {
		t.Fatalf("filter children = %d, want 1", len(filter.Children))
	}

	scan := filter.Children[0]
	if scan.AccessType != AccessTableScan {
		t.Errorf("scan access = %q, want table_scan", scan.AccessType)
	}
	if scan.Table != "o" {
		t.Errorf("scan table = %q, want o", scan.Table)
	}

	lookup := root.Children[1]
	if lookup.AccessType != AccessSingleRowLookup {
		t.Errorf("lookup access = %q, want single_row_lookup", lookup.AccessType)
	}
	if lookup.Table != "c" {
		t.Errorf("lookup table = %q, want c", lookup.Table)
	}
	if lookup.Index != "PRIMARY" {
		t.Errorf("lookup index = %q, want PRIMARY", lookup.Index)
	}
	if lookup.Loops == nil || *lookup.Loops != 2117 {
		t.Errorf("lookup loops = %v, want 2117", lookup.Loops)
	}
	if got := lookup.RowsProcessed(); got != 2117 {
		t.Errorf("lookup RowsProcessed = %v, want 2117", got)
	}
}

func TestParse_Empty(t *testing.T) {
	if Parse("") != nil {
		t.Error("empty plan should parse to nil")
	}
	if Parse("\n  \n") != nil {
		t.Error("whitespace plan should parse to nil")
	}
}

func TestParse_SingleNode(t *testing.T) {
	root := Parse("-> Rows fetched before execution  (cost=0..0 rows=1) (actual time=250e-6..291e-6 rows=1 loops=1)")
	if root == nil {
		t.Fatal("Parse returned nil")
	}
	if root.AccessType != AccessConstRow {
		t.Errorf("access = %q, want const_row", root.AccessType)
	}
	if len(root.Children) != 0 {
		t.Errorf("children = %d, want 0", len(root.Children))
	}
}

func TestParse_ContinuationLineFolded(t *testing.T) {
	plan := "-> Filter: ((o.status = 'paid') and\n     (o.total > 100))  (cost=215 rows=212) (actual time=0.05..2.9 rows=200 loops=1)\n    -> Table scan on o  (cost=215 rows=2117) (actual time=0.04..2.4 rows=2117 loops=1)"
	root := Parse(plan)
	if root == nil {
		t.Fatal("Parse returned nil")
	}
	if !strings.Contains(root.Operation, "o.total > 100") {
		t.Errorf("continuation not folded into filter: %q", root.Operation)
	}
	if len(root.Children) != 1 {
		t.Fatalf("children = %d, want 1", len(root.Children))
	}
}

func TestParse_PostgresStyleRoot(t *testing.T) {
	plan := "Seq Scan on orders  (cost=0.00..155.00 rows=5000)\n"
	root := Parse(plan)
	if root == nil {
		t.Fatal("Parse returned nil")
	}
	if !strings.HasPrefix(root.Operation, "Seq Scan") {
		t.Errorf("operation = %q", root.Operation)
	}
}

func TestParse_NeverExecuted(t *testing.T) {
	root := Parse("-> Index lookup on t using idx_a (a=5)  (cost=1.1 rows=1) (never executed)")
	if root == nil {
		t.Fatal("Parse returned nil")
	}
	if !root.NeverExecuted {
		t.Error("NeverExecuted should be true")
	}
	if root.ActualRows != nil {
		t.Error("never-executed node has no actual rows")
	}
	if root.AccessType != AccessIndexLookup {
		t.Errorf("access = %q, want index_lookup", root.AccessType)
	}
}

func TestClassifyAccess_PrefixPriority(t *testing.T) {
	tests := []struct {
		operation string
		want      AccessType
	}{
		{"Single-row covering index lookup on t using PRIMARY", AccessSingleRowLookup},
		{"Single-row index lookup on t using PRIMARY", AccessSingleRowLookup},
		{"Covering index lookup on t using idx_a", AccessCoveringIndex},
		{"Covering index range scan on t using idx_a", AccessIndexRangeScan},
		{"Covering index scan on t using idx_a", AccessIndexScan},
		{"Index lookup on t using idx_a", AccessIndexLookup},
		{"Index range scan on t using idx_a", AccessIndexRangeScan},
		{"Index scan on t using idx_a", AccessIndexScan},
		{"Table scan on t", AccessTableScan},
		{"Full-text index search on t using ft_idx", AccessFulltextIndex},
		{"Constant row from t", AccessConstRow},
		{"Rows fetched before execution", AccessConstRow},
		{"Zero rows (no matching row in const table)", AccessZeroRowConst},
		{"Nested loop inner join", ""},
		{"Sort: o.created_at DESC", ""},
		{"Aggregate: count(0)", ""},
		{"Limit: 10 row(s)", ""},
	}

	for _, tt := range tests {
		if got := classifyAccess(tt.operation); got != tt.want {
			t.Errorf("classifyAccess(%q) = %q, want %q", tt.operation, got, tt.want)
		}
	}
}

func TestIndexName_SkipsNoiseTokens(t *testing.T) {
	tests := []struct {
		operation string
		want      string
	}{
		{"Index lookup on t using idx_customer (customer_id=7)", "idx_customer"},
		{"Sort: t.a, using temporary table", ""},
		{"Table scan on t", ""},
		{"Covering index scan on t using idx_ab", "idx_ab"},
	}
	for _, tt := range tests {
		if got := indexName(tt.operation); got != tt.want {
			t.Errorf("indexName(%q) = %q, want %q", tt.operation, got, tt.want)
		}
	}
}

func TestAccessTypeSeverity(t *testing.T) {
	ordered := []AccessType{
		AccessZeroRowConst, AccessConstRow, AccessSingleRowLookup,
		AccessCoveringIndex, AccessIndexLookup, AccessIndexRangeScan,
		AccessIndexScan, AccessTableScan,
	}
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1].Severity() >= ordered[i].Severity() {
			t.Errorf("severity(%s)=%d should be < severity(%s)=%d",
				ordered[i-1], ordered[i-1].Severity(), ordered[i], ordered[i].Severity())
		}
	}
	if AccessType("bogus").Severity() != -1 {
		t.Error("unknown access type should rank below everything")
	}
	if AccessFulltextIndex.Severity() != AccessCoveringIndex.Severity() {
		t.Error("fulltext ranks with covering index lookups")
	}
}

func TestAccessTypeMySQLName(t *testing.T) {
	tests := []struct {
		access AccessType
		want   string
	}{
		{AccessConstRow, "const"},
		{AccessZeroRowConst, "const"},
		{AccessSingleRowLookup, "eq_ref"},
		{AccessIndexLookup, "ref"},
		{AccessCoveringIndex, "ref"},
		{AccessIndexRangeScan, "range"},
		{AccessIndexScan, "index"},
		{AccessFulltextIndex, "fulltext"},
		{AccessTableScan, "ALL"},
		{AccessType(""), ""},
	}
	for _, tt := range tests {
		if got := tt.access.MySQLName(); got != tt.want {
			t.Errorf("MySQLName(%s) = %q, want %q", tt.access, got, tt.want)
		}
	}
}

func TestFlatten(t *testing.T) {
	root := Parse(nestedLoopPlan)
	nodes := root.Flatten()
	if len(nodes) != 4 {
		t.Fatalf("Flatten() = %d nodes, want 4", len(nodes))
	}
	// depth-first: nested loop, filter, table scan, lookup
	if nodes[0] != root {
		t.Error("first node should be root")
	}
	if nodes[2].AccessType != AccessTableScan {
		t.Errorf("third node access = %q, want table_scan", nodes[2].AccessType)
	}
}

func TestIsIO(t *testing.T) {
	if !(&Node{AccessType: AccessTableScan}).IsIO() {
		t.Error("table scan is I/O")
	}
	if !(&Node{AccessType: AccessConstRow}).IsIO() {
		t.Error("const row reads one row")
	}
	if (&Node{AccessType: AccessZeroRowConst}).IsIO() {
		t.Error("zero-row const never touches storage")
	}
	if (&Node{}).IsIO() {
		t.Error("control-flow node is not I/O")
	}
}
