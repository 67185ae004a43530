package metrics

import (
	"regexp"
	"sort"
	"strings"

	"github.com/querylens/querylens/internal/plan"
)

var (
	reTempTable   = regexp.MustCompile(`(?i)temporary table`)
	reWeedout     = regexp.MustCompile(`(?i)weedout`)
	reFilesort    = regexp.MustCompile(`(?i)(using filesort|->\s*sort)`)
	reIndexMerge  = regexp.MustCompile(`(?i)(index merge|sort_union\(|union\(|intersect\()`)
	reDiskTemp    = regexp.MustCompile(`(?i)(on disk|disk temporary)`)
	reMaterialize = regexp.MustCompile(`(?i)materializ`)
	reCovering    = regexp.MustCompile(`(?i)covering index`)
	reLimitOp     = regexp.MustCompile(`(?i)\blimit\b`)
)

// derivedTableMarkers identify optimizer-generated tables that should not
// count as real table scans.
var derivedTableMarkers = []string{"<subquery", "<temporary>", "drv"}

// Input carries what the extractor needs beyond the plan itself.
type Input struct {
	Root            *plan.Node
	PlanText        string
	IntentionalScan bool
	HasLimitInSQL   bool
}

// Extract walks the plan tree and computes every metric in one pass over
// the flattened node list.
func Extract(in Input) *Metrics {
	m := &Metrics{
		IsIntentionalScan: in.IntentionalScan,
		PerTableEstimates: map[string]PerTableEstimate{},
	}
	if in.Root == nil {
		m.Complexity = ComplexityLinear
		m.ComplexityLabel = m.Complexity.Label()
		m.ComplexityRisk = m.Complexity.Risk()
		return m
	}

	nodes := in.Root.Flatten()
	m.NodeCount = len(nodes)
	m.ParsingValid = in.Root.ActualTimeEnd != nil
	if in.Root.ActualTimeEnd != nil {
		m.ExecutionTimeMs = *in.Root.ActualTimeEnd
	}
	if in.Root.ActualRows != nil {
		m.RowsReturned = *in.Root.ActualRows
	}

	indexSeen := map[string]bool{}
	tableSeen := map[string]bool{}
	worst := plan.AccessType("")
	for _, n := range nodes {
		lowerOp := strings.ToLower(n.Operation)

		if strings.Contains(lowerOp, "nested loop") {
			m.NestedLoopDepth++
		}
		if strings.Contains(lowerOp, "nested loop") || strings.Contains(lowerOp, "hash join") {
			m.JoinCount++
		}
		if n.Loops != nil && *n.Loops > m.MaxLoops {
			m.MaxLoops = *n.Loops
		}
		if n.EstimatedCost != nil && *n.EstimatedCost > m.MaxCost {
			m.MaxCost = *n.EstimatedCost
		}

		if n.IsIO() {
			processed := n.RowsProcessed()
			m.RowsExamined += processed
			if processed > m.FanoutFactor {
				m.FanoutFactor = processed
			}
		}

		if n.AccessType != "" && n.AccessType.Severity() > worst.Severity() {
			worst = n.AccessType
		}
		if n.AccessType.IsIndexBacked() {
			m.IsIndexBacked = true
		}
		if n.AccessType == plan.AccessZeroRowConst {
			m.IsZeroRowConst = true
		}
		if n.AccessType == plan.AccessTableScan && !isDerivedTable(n.Table) {
			m.HasTableScan = true
		}
		if n.AccessType == plan.AccessCoveringIndex {
			m.HasCoveringIndex = true
		}

		if n.Index != "" {
			indexSeen[n.Index] = true
		}
		if n.Table != "" && !isDerivedTable(n.Table) {
			tableSeen[n.Table] = true
		}

		recordTableEstimate(m, n)
	}

	m.PrimaryAccessType = worst
	m.MySQLAccessType = worst.MySQLName()
	m.IndexesUsed = sortedKeys(indexSeen)
	m.TablesAccessed = sortedKeys(tableSeen)

	m.HasTempTable = reTempTable.MatchString(in.PlanText)
	m.HasWeedout = reWeedout.MatchString(in.PlanText)
	m.HasFilesort = reFilesort.MatchString(in.PlanText)
	m.HasIndexMerge = reIndexMerge.MatchString(in.PlanText)
	m.HasDiskTemp = reDiskTemp.MatchString(in.PlanText)
	m.HasMaterialization = reMaterialize.MatchString(in.PlanText)
	if reCovering.MatchString(in.PlanText) {
		m.HasCoveringIndex = true
	}
	m.HasEarlyTermination = detectEarlyTermination(in, nodes)

	m.SelectivityRatio = selectivity(m.RowsExamined, m.RowsReturned)
	m.Complexity = classifyComplexity(m)
	m.ComplexityLabel = m.Complexity.Label()
	m.ComplexityRisk = m.Complexity.Risk()
	return m
}

// detectEarlyTermination checks whether the LIMIT let the engine stop early:
// the plan mentions LIMIT and a single-pass node read far fewer rows than
// estimated.
func detectEarlyTermination(in Input, nodes []*plan.Node) bool {
	if !reLimitOp.MatchString(in.PlanText) && !in.HasLimitInSQL {
		return false
	}
	for _, n := range nodes {
		if n.Loops == nil || *n.Loops != 1 {
			continue
		}
		if n.EstimatedRows == nil || n.ActualRows == nil {
			continue
		}
		if *n.EstimatedRows > 5**n.ActualRows {
			return true
		}
	}
	return false
}

func selectivity(examined, returned float64) float64 {
	if examined == 0 && returned == 0 {
		return 0
	}
	if returned == 0 {
		return examined
	}
	denom := returned
	if denom < 1 {
		denom = 1
	}
	return examined / denom
}

// classifyComplexity assigns the asymptotic class. Quadratic triggers win
// outright; otherwise the primary access type sets the base and anti-pattern
// flags lift it.
func classifyComplexity(m *Metrics) ComplexityClass {
	if (m.HasTableScan && m.NestedLoopDepth > 0) ||
		(m.HasTableScan && m.MaxLoops > 10000) ||
		(m.NestedLoopDepth > 3 && m.MaxLoops > 1000) {
		return ComplexityQuadratic
	}

	var c ComplexityClass
	switch m.PrimaryAccessType {
	case plan.AccessZeroRowConst, plan.AccessConstRow, plan.AccessSingleRowLookup:
		c = ComplexityConstant
	case plan.AccessIndexLookup, plan.AccessCoveringIndex, plan.AccessFulltextIndex:
		c = ComplexityLogarithmic
	case plan.AccessIndexRangeScan:
		c = ComplexityLogRange
	default:
		c = ComplexityLinear
	}

	if m.HasFilesort {
		c = c.atLeast(ComplexityLinearithmic)
	}
	if m.HasTempTable {
		c = c.atLeast(ComplexityLinear)
	}
	if m.NestedLoopDepth >= 2 && c.Ordinal() <= ComplexityLogarithmic.Ordinal() {
		c = ComplexityLinearithmic
	}
	return c
}

func recordTableEstimate(m *Metrics, n *plan.Node) {
	if n.Table == "" || isDerivedTable(n.Table) {
		return
	}
	est := PerTableEstimate{Loops: 1}
	if n.EstimatedRows != nil {
		est.EstimatedRows = *n.EstimatedRows
	}
	if n.ActualRows != nil {
		est.ActualRows = *n.ActualRows
	}
	if n.Loops != nil {
		est.Loops = *n.Loops
	}
	prev, ok := m.PerTableEstimates[n.Table]
	if !ok || est.ActualRows*est.Loops > prev.ActualRows*prev.Loops {
		m.PerTableEstimates[n.Table] = est
	}
}

func isDerivedTable(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range derivedTableMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
