// Package plan parses TREE-format EXPLAIN ANALYZE output into a node tree
// and wraps plan execution behind a success-or-failure result.
package plan

// AccessType tags how a plan node locates rows.
type AccessType string

const (
	AccessZeroRowConst    AccessType = "zero_row_const"
	AccessConstRow        AccessType = "const_row"
	AccessSingleRowLookup AccessType = "single_row_lookup"
	AccessCoveringIndex   AccessType = "covering_index_lookup"
	AccessFulltextIndex   AccessType = "fulltext_index"
	AccessIndexLookup     AccessType = "index_lookup"
	AccessIndexRangeScan  AccessType = "index_range_scan"
	AccessIndexScan       AccessType = "index_scan"
	AccessTableScan       AccessType = "table_scan"
)

// Severity orders access types from cheapest to most expensive. Unknown
// access types rank below everything.
func (a AccessType) Severity() int {
	switch a {
	case AccessZeroRowConst:
		return 0
	case AccessConstRow:
		return 1
	case AccessSingleRowLookup:
		return 2
	case AccessCoveringIndex, AccessFulltextIndex:
		return 3
	case AccessIndexLookup:
		return 4
	case AccessIndexRangeScan:
		return 5
	case AccessIndexScan:
		return 6
	case AccessTableScan:
		return 7
	default:
		return -1
	}
}

// ioAccessTypes is the read set: node types that actually fetch rows.
// zero_row_const is resolved at plan time and never performs I/O.
var ioAccessTypes = map[AccessType]bool{
	AccessTableScan:       true,
	AccessIndexLookup:     true,
	AccessIndexRangeScan:  true,
	AccessCoveringIndex:   true,
	AccessSingleRowLookup: true,
	AccessIndexScan:       true,
	AccessFulltextIndex:   true,
	AccessConstRow:        true,
}

// indexBackedTypes are access types that go through an index structure.
var indexBackedTypes = map[AccessType]bool{
	AccessConstRow:        true,
	AccessSingleRowLookup: true,
	AccessCoveringIndex:   true,
	AccessFulltextIndex:   true,
	AccessIndexLookup:     true,
	AccessIndexRangeScan:  true,
	AccessIndexScan:       true,
}

// IsIndexBacked reports whether rows are located through an index.
func (a AccessType) IsIndexBacked() bool {
	return indexBackedTypes[a]
}

// MySQLName maps the canonical access type back to the tabular-EXPLAIN
// vocabulary DBAs recognize.
func (a AccessType) MySQLName() string {
	switch a {
	case AccessZeroRowConst, AccessConstRow:
		return "const"
	case AccessSingleRowLookup:
		return "eq_ref"
	case AccessIndexLookup, AccessCoveringIndex:
		return "ref"
	case AccessIndexRangeScan:
		return "range"
	case AccessIndexScan:
		return "index"
	case AccessFulltextIndex:
		return "fulltext"
	case AccessTableScan:
		return "ALL"
	default:
		return ""
	}
}

// Node is one operation in the execution plan tree.
type Node struct {
	Operation       string
	Raw             string
	Depth           int
	ActualTimeStart *float64
	ActualTimeEnd   *float64
	ActualRows      *float64
	Loops           *float64
	EstimatedCost   *float64
	EstimatedRows   *float64
	Table           string
	Index           string
	AccessType      AccessType
	NeverExecuted   bool
	Children        []*Node
}

// IsIO reports whether the node reads rows from a table or index.
func (n *Node) IsIO() bool {
	return ioAccessTypes[n.AccessType]
}

// RowsProcessed returns actualRows × loops when both are present, else 0.
func (n *Node) RowsProcessed() float64 {
	if n.ActualRows == nil || n.Loops == nil {
		return 0
	}
	return *n.ActualRows * *n.Loops
}

// Flatten returns the node and all descendants in depth-first order.
func (n *Node) Flatten() []*Node {
	out := []*Node{n}
	for _, c := range n.Children {
		out = append(out, c.Flatten()...)
	}
	return out
}
