package analyzers

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/querylens/querylens/internal/logger"
	"github.com/querylens/querylens/internal/metrics"
	"github.com/querylens/querylens/internal/report"
	"github.com/querylens/querylens/internal/sqltext"
)

// IndexSynthesisConfig bounds proposal output.
type IndexSynthesisConfig struct {
	MaxRecommendations int
	MaxColumnsPerIndex int
}

// DefaultIndexSynthesisConfig returns the shipped limits.
func DefaultIndexSynthesisConfig() IndexSynthesisConfig {
	return IndexSynthesisConfig{MaxRecommendations: 3, MaxColumnsPerIndex: 4}
}

// IndexSynthesisAnalyzer builds composite-index proposals from the WHERE
// and JOIN predicates: equality columns first, range columns last, so the
// index prefix stays seekable.
type IndexSynthesisAnalyzer struct {
	cfg IndexSynthesisConfig
	log logger.Interface
}

// NewIndexSynthesisAnalyzer builds the analyzer.
func NewIndexSynthesisAnalyzer(cfg IndexSynthesisConfig, log logger.Interface) *IndexSynthesisAnalyzer {
	if log == nil {
		log = logger.Nop{}
	}
	return &IndexSynthesisAnalyzer{cfg: cfg, log: log}
}

// Analyze synthesizes index DDL proposals. Nothing is executed here; the
// hypothetical-index analyzer consumes the proposals when simulation is
// enabled.
func (a *IndexSynthesisAnalyzer) Analyze(sql string, m *metrics.Metrics) *report.IndexSynthesis {
	out := &report.IndexSynthesis{}

	equality, ranged := classifyWhereColumns(sql)
	joins := joinColumnsByTable(sql)
	table := drivingTable(m)
	if table == "" {
		return out
	}

	// Per-table column ordering: equality predicates, then join columns,
	// then range predicates.
	perTable := map[string][]string{}
	appendCols := func(t string, cols []string) {
		for _, c := range cols {
			if !containsFold(perTable[t], c) {
				perTable[t] = append(perTable[t], c)
			}
		}
	}
	appendCols(table, equality)
	joined := make([]string, 0, len(joins))
	for t := range joins {
		joined = append(joined, t)
	}
	sort.Strings(joined)
	for _, t := range joined {
		appendCols(t, joins[t])
	}
	appendCols(table, ranged)

	// Emit the driving table's proposal first, then the rest in name order,
	// so the recommendation cap always keeps the same candidates.
	order := make([]string, 0, len(perTable))
	for t := range perTable {
		if t != table {
			order = append(order, t)
		}
	}
	sort.Strings(order)
	if _, ok := perTable[table]; ok {
		order = append([]string{table}, order...)
	}

	for _, t := range order {
		cols := perTable[t]
		if len(cols) == 0 || len(out.Proposals) >= a.cfg.MaxRecommendations {
			continue
		}
		if len(cols) > a.cfg.MaxColumnsPerIndex {
			cols = cols[:a.cfg.MaxColumnsPerIndex]
		}
		name := fmt.Sprintf("idx_%s_%s", t, strings.Join(cols, "_"))
		quoted := make([]string, len(cols))
		for i, c := range cols {
			quoted[i] = "`" + c + "`"
		}
		p := report.IndexProposal{
			Table:     t,
			Columns:   cols,
			IndexName: name,
			DDL:       fmt.Sprintf("CREATE INDEX `%s` ON `%s` (%s)", name, t, strings.Join(quoted, ", ")),
			Rationale: "Equality predicates lead the key so the engine can seek; range predicates trail so the remaining interval stays contiguous.",
		}
		if len(m.IndexesUsed) > 0 {
			p.Overlaps = m.IndexesUsed
		}
		out.Proposals = append(out.Proposals, p)
		out.Findings = append(out.Findings, report.Finding{
			Severity:       report.SeverityOptimization,
			Category:       "index_synthesis",
			Title:          fmt.Sprintf("Composite index candidate for %s", t),
			Description:    fmt.Sprintf("Predicates on %s could be served by one composite index.", strings.Join(cols, ", ")),
			Recommendation: p.DDL,
			Metadata:       map[string]any{"table": t, "columns": cols},
		})
	}
	return out
}

// classifyWhereColumns splits WHERE columns into equality-compared and
// range-compared sets by inspecting the operator that follows each column.
func classifyWhereColumns(sql string) (equality, ranged []string) {
	clean := sqltext.Sanitize(sql)
	for _, col := range sqltext.WhereColumns(sql) {
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(col) + "`?" + `\s*(=|!=|<>|<=|>=|<|>|\bLIKE\b|\bBETWEEN\b|\bIN\b)`)
		m := re.FindStringSubmatch(clean)
		if m == nil {
			continue
		}
		switch strings.ToUpper(strings.TrimSpace(m[1])) {
		case "=", "IN":
			equality = append(equality, col)
		case "!=", "<>":
			// Inequality rarely benefits from a key position; skip.
		default:
			ranged = append(ranged, col)
		}
	}
	return equality, ranged
}

// joinColumnsByTable resolves qualified join columns through the alias map.
func joinColumnsByTable(sql string) map[string][]string {
	aliases := sqltext.AliasMap(sql)
	out := map[string][]string{}
	for _, ref := range sqltext.JoinColumns(sql) {
		i := strings.IndexByte(ref, '.')
		if i < 0 {
			continue
		}
		table, ok := aliases[strings.ToLower(ref[:i])]
		if !ok || table == "" {
			continue
		}
		col := ref[i+1:]
		if !containsFold(out[table], col) {
			out[table] = append(out[table], col)
		}
	}
	return out
}

// drivingTable picks the table whose access is worth indexing: the scanned
// one if any, else the most expensive per-table instance.
func drivingTable(m *metrics.Metrics) string {
	var best string
	var bestRows float64 = -1
	tables := make([]string, 0, len(m.PerTableEstimates))
	for table := range m.PerTableEstimates {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	for _, table := range tables {
		rows := m.PerTableEstimates[table].ActualRows * m.PerTableEstimates[table].Loops
		if rows > bestRows {
			best, bestRows = table, rows
		}
	}
	if best == "" && len(m.TablesAccessed) > 0 {
		best = m.TablesAccessed[0]
	}
	return best
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
