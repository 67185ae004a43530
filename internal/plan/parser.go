package plan

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reNodeStart  = regexp.MustCompile(`^\s*->`)
	reCostRows   = regexp.MustCompile(`\(cost=([\d.eE+]+) rows=([\d.eE+]+)\)`)
	reActual     = regexp.MustCompile(`\(actual time=([\d.]+)\.\.([\d.]+) rows=([\d.eE+]+) loops=([\d.eE+]+)\)`)
	reTableScan  = regexp.MustCompile(`(?i)scan on (\S+)`)
	reLookup     = regexp.MustCompile(`(?i)lookup on (\S+)`)
	reSearch     = regexp.MustCompile(`(?i)search on (\S+)`)
	reConstRow   = regexp.MustCompile(`(?i)Constant row from (\S+)`)
	reUsingIndex = regexp.MustCompile(`(?i)using (\S+)`)
)

// indexNoiseTokens are "using X" matches that name optimizer features, not
// indexes.
var indexNoiseTokens = map[string]bool{
	"index":     true,
	"temporary": true,
	"where":     true,
}

// accessPrefix maps an operation-label prefix to its access type. Order
// matters: more specific prefixes come first so "covering index lookup"
// never matches as plain "index lookup".
type accessPrefix struct {
	prefix string
	access AccessType
}

var accessPrefixes = []accessPrefix{
	{"single-row covering index lookup", AccessSingleRowLookup},
	{"single-row index lookup", AccessSingleRowLookup},
	{"covering index range scan", AccessIndexRangeScan},
	{"covering index lookup", AccessCoveringIndex},
	{"covering index scan", AccessIndexScan},
	{"index range scan", AccessIndexRangeScan},
	{"index lookup", AccessIndexLookup},
	{"index scan", AccessIndexScan},
	{"table scan", AccessTableScan},
	{"full-text index", AccessFulltextIndex},
	{"constant row", AccessConstRow},
	{"rows fetched before execution", AccessConstRow},
	{"zero rows", AccessZeroRowConst},
	{"search using", AccessIndexRangeScan},
	{"search table", AccessIndexRangeScan},
	{"scan table", AccessTableScan},
}

// controlFlowPrefixes never carry an access type.
var controlFlowPrefixes = []string{
	"nested loop", "sort", "filter", "limit", "materialize",
	"stream results", "group", "hash join", "hash", "aggregate",
	"temporary table", "window",
}

// Parse turns TREE-format plan text into a node tree. Returns nil for
// empty input.
func Parse(planText string) *Node {
	lines := foldLines(planText)
	if len(lines) == 0 {
		return nil
	}

	var root *Node
	var stack []*Node
	for _, line := range lines {
		node := parseLine(line)
		for len(stack) > 0 && stack[len(stack)-1].Depth >= node.Depth {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			if root == nil {
				root = node
			} else {
				// Sibling at root depth; keep the tree rooted.
				root.Children = append(root.Children, node)
			}
		} else {
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, node)
		}
		stack = append(stack, node)
	}
	return root
}

// foldLines splits plan text into one string per node. A node starts at a
// line matching `^\s*->`; any other line is a continuation appended with a
// space.
func foldLines(planText string) []string {
	var out []string
	for _, line := range strings.Split(planText, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if reNodeStart.MatchString(line) {
			out = append(out, line)
		} else if len(out) > 0 {
			out[len(out)-1] += " " + strings.TrimSpace(line)
		} else {
			// Plan text that does not open with "->" (PostgreSQL roots).
			out = append(out, "-> "+strings.TrimSpace(line))
		}
	}
	return out
}

func parseLine(line string) *Node {
	depth := 0
	for depth < len(line) && line[depth] == ' ' {
		depth++
	}

	body := strings.TrimSpace(line)
	body = strings.TrimSpace(strings.TrimPrefix(body, "->"))

	node := &Node{
		Raw:   strings.TrimSpace(line),
		Depth: depth,
	}
	node.Operation = operationLabel(body)
	node.NeverExecuted = strings.Contains(body, "never executed")

	if m := reCostRows.FindStringSubmatch(body); m != nil {
		node.EstimatedCost = parseFloat(m[1])
		node.EstimatedRows = parseFloat(m[2])
	}
	if m := reActual.FindStringSubmatch(body); m != nil {
		node.ActualTimeStart = parseFloat(m[1])
		node.ActualTimeEnd = parseFloat(m[2])
		node.ActualRows = parseFloat(m[3])
		node.Loops = parseFloat(m[4])
	}
	node.Table = tableName(node.Operation)
	node.Index = indexName(node.Operation)
	node.AccessType = classifyAccess(node.Operation)
	return node
}

// operationLabel keeps the part of the line before cost/timing annotations.
func operationLabel(body string) string {
	cut := len(body)
	for _, marker := range []string{"(cost=", "(actual ", "(never executed"} {
		if i := strings.Index(body, marker); i >= 0 && i < cut {
			cut = i
		}
	}
	if i := strings.Index(body, "never executed"); i >= 0 && i < cut {
		cut = i
	}
	return strings.TrimSpace(body[:cut])
}

func tableName(operation string) string {
	for _, re := range []*regexp.Regexp{reTableScan, reLookup, reSearch, reConstRow} {
		if m := re.FindStringSubmatch(operation); m != nil {
			return m[1]
		}
	}
	return ""
}

func indexName(operation string) string {
	for _, m := range reUsingIndex.FindAllStringSubmatch(operation, -1) {
		candidate := strings.Trim(m[1], "()")
		if !indexNoiseTokens[strings.ToLower(candidate)] {
			return candidate
		}
	}
	return ""
}

func classifyAccess(operation string) AccessType {
	lower := strings.ToLower(operation)
	for _, p := range accessPrefixes {
		if strings.HasPrefix(lower, p.prefix) {
			return p.access
		}
	}
	for _, p := range controlFlowPrefixes {
		if strings.HasPrefix(lower, p) {
			return ""
		}
	}
	return ""
}

func parseFloat(s string) *float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}
