package analyzers

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/querylens/querylens/internal/driver"
	"github.com/querylens/querylens/internal/logger"
	"github.com/querylens/querylens/internal/plan"
	"github.com/querylens/querylens/internal/report"
)

// HypotheticalIndexConfig gates and bounds index simulation. Simulation
// mutates the schema, so it only runs in explicitly allowed environments.
type HypotheticalIndexConfig struct {
	Enabled             bool
	Environment         string
	AllowedEnvironments []string
	MaxSimulations      int
	Timeout             time.Duration
}

// DefaultHypotheticalIndexConfig returns the shipped gate: local and
// testing environments only, three simulations, five seconds each.
func DefaultHypotheticalIndexConfig() HypotheticalIndexConfig {
	return HypotheticalIndexConfig{
		Enabled:             true,
		Environment:         "local",
		AllowedEnvironments: []string{"local", "testing"},
		MaxSimulations:      3,
		Timeout:             5 * time.Second,
	}
}

// Allowed reports whether simulation may run at all.
func (c HypotheticalIndexConfig) Allowed() bool {
	if !c.Enabled {
		return false
	}
	for _, env := range c.AllowedEnvironments {
		if strings.EqualFold(env, c.Environment) {
			return true
		}
	}
	return false
}

// Improvement classes, best first.
const (
	ImprovementSignificant = "significant"
	ImprovementModerate    = "moderate"
	ImprovementMarginal    = "marginal"
	ImprovementNone        = "none"
)

var improvementRank = map[string]int{
	ImprovementSignificant: 3,
	ImprovementModerate:    2,
	ImprovementMarginal:    1,
	ImprovementNone:        0,
}

// HypotheticalIndexAnalyzer creates each proposed index transiently,
// re-runs EXPLAIN, and measures the plan change. The DROP DDL runs exactly
// once per simulation on every exit path.
type HypotheticalIndexAnalyzer struct {
	cfg HypotheticalIndexConfig
	drv driver.Driver
	ddl driver.DDLExecutor
	log logger.Interface
}

// NewHypotheticalIndexAnalyzer builds the analyzer. The DDL executor is
// injected separately from the driver so tests can record executions.
func NewHypotheticalIndexAnalyzer(cfg HypotheticalIndexConfig, drv driver.Driver, ddl driver.DDLExecutor, log logger.Interface) *HypotheticalIndexAnalyzer {
	if log == nil {
		log = logger.Nop{}
	}
	if ddl == nil && drv != nil {
		ddl = drv.DDL()
	}
	return &HypotheticalIndexAnalyzer{cfg: cfg, drv: drv, ddl: ddl, log: log}
}

// Analyze simulates up to MaxSimulations proposals. Returns nil when the
// environment gate rejects simulation.
func (a *HypotheticalIndexAnalyzer) Analyze(ctx context.Context, sqlText string, proposals []report.IndexProposal) *report.HypotheticalIndex {
	if !a.cfg.Allowed() || a.drv == nil || a.ddl == nil {
		return nil
	}

	out := &report.HypotheticalIndex{}
	bestRank := 0
	for i, p := range proposals {
		if i >= a.cfg.MaxSimulations {
			break
		}
		sim := a.simulate(ctx, sqlText, p)
		out.Simulations = append(out.Simulations, sim)

		if f := simulationFinding(sim); f != nil {
			out.Findings = append(out.Findings, *f)
		}
		if sim.Validated && improvementRank[sim.Improvement] > bestRank {
			bestRank = improvementRank[sim.Improvement]
			out.BestRecommendation = sim.DDL
		}
	}
	return out
}

func (a *HypotheticalIndexAnalyzer) simulate(ctx context.Context, sqlText string, p report.IndexProposal) report.IndexSimulation {
	indexName, table := parseIndexDDL(p.DDL)
	if indexName == "" {
		indexName, table = p.IndexName, p.Table
	}
	sim := report.IndexSimulation{
		DDL:       p.DDL,
		DropDDL:   a.dropDDL(indexName, table),
		Table:     table,
		IndexName: indexName,
	}

	simCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	before, err := a.explainAccess(simCtx, sqlText, table)
	if err != nil {
		sim.Error = fmt.Sprintf("baseline EXPLAIN: %v", err)
		sim.Improvement = ImprovementNone
		return sim
	}
	sim.BeforeAccess = before.access
	sim.BeforeRows = before.rows

	if err := a.ddl(simCtx, sim.DDL); err != nil {
		sim.Error = fmt.Sprintf("CREATE INDEX: %v", err)
		sim.Improvement = ImprovementNone
		return sim
	}

	// The index now exists. Drop it on every exit path, with a fresh
	// context so a tripped simulation deadline cannot strand the index.
	defer func() {
		dropCtx, dropCancel := context.WithTimeout(context.Background(), a.cfg.Timeout)
		defer dropCancel()
		if err := a.ddl(dropCtx, sim.DropDDL); err != nil {
			a.log.Error("dropping hypothetical index failed, manual cleanup required",
				logger.Err(err), "ddl", sim.DropDDL)
		}
	}()

	after, err := a.explainAccess(simCtx, sqlText, table)
	if err != nil {
		sim.Error = fmt.Sprintf("post-index EXPLAIN: %v", err)
		sim.Improvement = ImprovementNone
		return sim
	}
	sim.AfterAccess = after.access
	sim.AfterRows = after.rows

	sim.Improvement, sim.Validated = classifyImprovement(a.drv, before, after)
	return sim
}

type accessSnapshot struct {
	access string
	rows   float64
}

// explainAccess runs tabular EXPLAIN and returns the access type and row
// estimate for the target table (or the worst row when the table is not
// named).
func (a *HypotheticalIndexAnalyzer) explainAccess(ctx context.Context, sqlText, table string) (accessSnapshot, error) {
	rows, err := a.drv.RunExplain(ctx, sqlText)
	if err != nil {
		return accessSnapshot{}, err
	}
	snap := accessSnapshot{}
	worst := -1
	for _, r := range rows {
		if table != "" && r.Table != "" && !strings.EqualFold(r.Table, table) {
			continue
		}
		sev := accessSeverity(a.drv, r.Type)
		if sev > worst {
			worst = sev
			snap.access = r.Type
			snap.rows = float64(r.Rows)
		}
	}
	return snap, nil
}

func accessSeverity(drv driver.Driver, raw string) int {
	return plan.AccessType(drv.NormalizeAccessType(raw)).Severity()
}

// classifyImprovement grades the before/after plan change. validated is
// true only when the access-type severity strictly decreased.
func classifyImprovement(drv driver.Driver, before, after accessSnapshot) (string, bool) {
	sevBefore := accessSeverity(drv, before.access)
	sevAfter := accessSeverity(drv, after.access)
	validated := sevAfter >= 0 && sevBefore >= 0 && sevAfter < sevBefore

	if validated {
		return ImprovementSignificant, true
	}
	if before.rows > 0 {
		reduction := (before.rows - after.rows) / before.rows
		if reduction > 0.5 {
			return ImprovementModerate, false
		}
		if reduction > 0.1 {
			return ImprovementMarginal, false
		}
	}
	return ImprovementNone, false
}

func simulationFinding(sim report.IndexSimulation) *report.Finding {
	var sev report.Severity
	switch sim.Improvement {
	case ImprovementSignificant:
		sev = report.SeverityWarning
	case ImprovementModerate:
		sev = report.SeverityOptimization
	case ImprovementMarginal:
		sev = report.SeverityInfo
	default:
		return nil
	}
	return &report.Finding{
		Severity: sev,
		Category: "hypothetical_index",
		Title:    fmt.Sprintf("Simulated index shows %s improvement", sim.Improvement),
		Description: fmt.Sprintf(
			"With %s in place, access changed %s -> %s and estimated rows %.0f -> %.0f.",
			sim.IndexName, orUnknown(sim.BeforeAccess), orUnknown(sim.AfterAccess),
			sim.BeforeRows, sim.AfterRows),
		Recommendation: sim.DDL,
		Metadata: map[string]any{
			"validated":   sim.Validated,
			"improvement": sim.Improvement,
			"table":       sim.Table,
		},
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

var reCreateIndex = regexp.MustCompile("(?i)CREATE\\s+(?:UNIQUE\\s+)?INDEX\\s+`?(\\w+)`?\\s+ON\\s+`?(\\w+)`?")

// parseIndexDDL extracts the index and table names from CREATE INDEX DDL,
// tolerating backticks.
func parseIndexDDL(ddl string) (index, table string) {
	m := reCreateIndex.FindStringSubmatch(ddl)
	if m == nil {
		return "", ""
	}
	return m[1], m[2]
}

// dropDDL synthesizes the engine-appropriate DROP statement.
func (a *HypotheticalIndexAnalyzer) dropDDL(index, table string) string {
	if a.drv != nil && a.drv.Name() == "mysql" {
		return fmt.Sprintf("DROP INDEX `%s` ON `%s`", index, table)
	}
	return fmt.Sprintf("DROP INDEX %s", index)
}
