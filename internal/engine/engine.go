// Package engine orchestrates the diagnostic pipeline: sanitize, guard,
// validate, explain, parse, measure, score, evaluate rules, run analyzers,
// cross-check consistency, and assemble the report.
package engine

import (
	"context"
	"time"

	"github.com/querylens/querylens/internal/analyzers"
	"github.com/querylens/querylens/internal/baseline"
	"github.com/querylens/querylens/internal/consistency"
	"github.com/querylens/querylens/internal/driver"
	"github.com/querylens/querylens/internal/logger"
	"github.com/querylens/querylens/internal/metrics"
	"github.com/querylens/querylens/internal/plan"
	"github.com/querylens/querylens/internal/report"
	"github.com/querylens/querylens/internal/rules"
	"github.com/querylens/querylens/internal/schema"
	"github.com/querylens/querylens/internal/scoring"
	"github.com/querylens/querylens/internal/sqltext"
	"github.com/querylens/querylens/internal/validate"
)

// Engine runs the full diagnostic pipeline. It is safe for concurrent use:
// all mutable state lives in the driver's version cache and the baseline
// store, both of which guard themselves.
type Engine struct {
	cfg      Config
	drv      driver.Driver
	guard    *sqltext.Guard
	pipeline *validate.Pipeline
	executor *plan.ExplainExecutor
	scorer   *scoring.Engine
	registry *rules.Registry
	store    *baseline.Store
	checker  *consistency.Validator
	log      logger.Interface

	cardinality  *analyzers.CardinalityAnalyzer
	antiPatterns *analyzers.AntiPatternAnalyzer
	indexSynth   *analyzers.IndexSynthesisAnalyzer
	hypoIndex    *analyzers.HypotheticalIndexAnalyzer
	regression   *analyzers.RegressionAnalyzer
	concurrency  *analyzers.ConcurrencyAnalyzer
	memory       *analyzers.MemoryPressureAnalyzer
	confidence   *analyzers.ConfidenceScorer
	scalability  *analyzers.ScalabilityEstimator
}

// New wires the pipeline from configuration. intr may be nil when no schema
// catalog is reachable; validation then starts at the syntax stage.
func New(cfg Config, drv driver.Driver, intr *schema.Introspector, log logger.Interface) *Engine {
	if log == nil {
		log = logger.Nop{}
	}

	var store *baseline.Store
	if cfg.Regression.Enabled && cfg.Regression.StoragePath != "" {
		store = baseline.NewStore(cfg.Regression.StoragePath, cfg.Regression.MaxHistory, log)
	}

	e := &Engine{
		cfg:      cfg,
		drv:      drv,
		guard:    sqltext.NewGuard(),
		executor: plan.NewExecutor(drv, log),
		scorer:   scoring.New(cfg.Scoring.Weights, cfg.Scoring.GradeThresholds, log),
		registry: rules.Default(cfg.RuleThresholds()),
		store:    store,
		checker:  consistency.New(log),
		log:      log,

		cardinality: analyzers.NewCardinalityAnalyzer(analyzers.CardinalityConfig{
			WarningThreshold:  cfg.CardinalityDrift.WarningThreshold,
			CriticalThreshold: cfg.CardinalityDrift.CriticalThreshold,
		}, log),
		antiPatterns: analyzers.NewAntiPatternAnalyzer(analyzers.AntiPatternConfig{
			OrChainThreshold:         cfg.AntiPatterns.OrChainThreshold,
			MissingLimitRowThreshold: cfg.AntiPatterns.MissingLimitRowThreshold,
		}, log),
		indexSynth: analyzers.NewIndexSynthesisAnalyzer(analyzers.IndexSynthesisConfig{
			MaxRecommendations: cfg.IndexSynthesis.MaxRecommendations,
			MaxColumnsPerIndex: cfg.IndexSynthesis.MaxColumnsPerIndex,
		}, log),
		hypoIndex:   analyzers.NewHypotheticalIndexAnalyzer(cfg.HypotheticalIndexConfig(), drv, nil, log),
		concurrency: analyzers.NewConcurrencyAnalyzer(log),
		memory: analyzers.NewMemoryPressureAnalyzer(analyzers.MemoryPressureConfig{
			HighThresholdBytes:     cfg.MemoryPressure.HighThresholdBytes,
			ModerateThresholdBytes: cfg.MemoryPressure.ModerateThresholdBytes,
			ConcurrentSessions:     cfg.MemoryPressure.ConcurrentSessions,
		}, log),
		confidence: analyzers.NewConfidenceScorer(log),
		scalability: analyzers.NewScalabilityEstimator(analyzers.ScalabilityConfig{
			Targets: cfg.Projection.Targets,
		}, log),
	}
	e.regression = analyzers.NewRegressionAnalyzer(cfg.RegressionConfig(), store, log)
	if intr != nil {
		e.pipeline = validate.New(intr, drv, log)
	}
	return e
}

// Guard exposes the safety guard for external interceptors.
func (e *Engine) Guard() *sqltext.Guard { return e.guard }

// Driver exposes the underlying driver.
func (e *Engine) Driver() driver.Driver { return e.drv }

// Rules exposes the rule registry.
func (e *Engine) Rules() *rules.Registry { return e.registry }

// Baselines exposes the baseline store; nil when regression is disabled.
func (e *Engine) Baselines() *baseline.Store { return e.store }

// Diagnose runs the full pipeline including deep analyzers. A non-nil
// error is always a *validate.Failure carrying the structured report.
func (e *Engine) Diagnose(ctx context.Context, sql string) (*report.DiagnosticReport, error) {
	base, clean, err := e.analyze(ctx, sql)
	if err != nil {
		return nil, err
	}
	m := base.Result.Metrics

	diag := &report.Diagnostic{Findings: base.Result.Findings}
	caps := e.drv.Capabilities(ctx)

	e.soft("cardinality_drift", func() {
		diag.Cardinality = e.cardinality.Analyze(m)
	})
	e.soft("anti_patterns", func() {
		diag.AntiPatterns = e.antiPatterns.Analyze(clean, m)
	})
	e.soft("index_synthesis", func() {
		diag.Indexes = e.indexSynth.Analyze(clean, m)
	})
	e.soft("hypothetical_index", func() {
		if diag.Indexes != nil {
			diag.Hypothetical = e.hypoIndex.Analyze(ctx, clean, diag.Indexes.Proposals)
		}
	})
	e.soft("regression", func() {
		diag.Regression = e.regression.Analyze(clean, m, base.CompositeScore, base.Grade)
	})
	e.soft("concurrency", func() {
		diag.Concurrency = e.concurrency.Analyze(clean, m)
	})
	e.soft("memory_pressure", func() {
		if vr, ok := e.drv.(driver.VariableReader); ok {
			e.memory.UseServerBuffers(ctx, vr)
		}
		diag.Memory = e.memory.Analyze(m)
	})
	e.soft("confidence", func() {
		diag.Confidence = e.confidence.Analyze(m, caps)
	})

	for _, out := range [][]report.Finding{
		analyzerFindings(diag.Cardinality), analyzerFindings(diag.AntiPatterns),
		analyzerFindings(diag.Indexes), analyzerFindings(diag.Hypothetical),
		analyzerFindings(diag.Regression), analyzerFindings(diag.Concurrency),
		analyzerFindings(diag.Memory), analyzerFindings(diag.Confidence),
	} {
		diag.Findings = append(diag.Findings, out...)
	}
	diag.FindingCounts = report.CountBySeverity(diag.Findings)
	diag.WorstSeverity = report.WorstSeverity(diag.Findings)

	confidenceScore := 1.0
	if diag.Confidence != nil {
		confidenceScore = diag.Confidence.Score
	}
	criticals := diag.FindingCounts[report.SeverityCritical]
	adjGrade, adjScore := report.AdjustForConfidence(base.Grade, base.CompositeScore, criticals, confidenceScore)

	base.Recommendations = recommendations(diag.Findings)
	base.Passed = e.passed(m, diag.Findings)

	out := &report.DiagnosticReport{
		Report:        base,
		Diagnostic:    diag,
		AdjustedGrade: adjGrade,
		AdjustedScore: adjScore,
	}

	e.checker.Validate(consistency.Input{
		SQL:         clean,
		Metrics:     m,
		Findings:    diag.Findings,
		Concurrency: diag.Concurrency,
		Regression:  diag.Regression,
	})
	return out, nil
}

// AnalyzeSQL is the shallow variant: metrics, scores and rule findings,
// no deep analyzers.
func (e *Engine) AnalyzeSQL(ctx context.Context, sql string) (*report.Report, error) {
	base, _, err := e.analyze(ctx, sql)
	if err != nil {
		return nil, err
	}
	return base, nil
}

// analyze runs the shared front half of the pipeline and returns the base
// report plus the sanitized SQL.
func (e *Engine) analyze(ctx context.Context, sql string) (*report.Report, string, error) {
	clean := sqltext.Sanitize(sql)

	if err := e.guard.Validate(clean); err != nil {
		return nil, "", &validate.Failure{Report: &report.ValidationFailureReport{
			Status:          "ERROR — Unsafe Query",
			FailureStage:    validate.StageExplain,
			DetailedError:   err.Error(),
			Recommendations: []string{"Only SELECT queries can be analyzed"},
		}}
	}

	if e.pipeline != nil {
		if err := e.pipeline.Validate(ctx, clean); err != nil {
			return nil, "", err
		}
	}

	res := e.executor.Execute(ctx, clean)
	if !res.OK {
		return nil, "", &validate.Failure{Report: &report.ValidationFailureReport{
			Status:          "ERROR — Explain Failed",
			FailureStage:    res.Failure.Stage,
			DetailedError:   res.Failure.Message,
			Recommendations: res.Failure.Recommendations,
		}}
	}

	m := metrics.Extract(metrics.Input{
		Root:            res.Root,
		PlanText:        res.PlanText,
		IntentionalScan: sqltext.IsIntentionalFullScan(clean),
		HasLimitInSQL:   sqltext.HasLimit(clean),
	})
	scores := e.scorer.Score(m)
	findings := e.registry.EvaluateAll(m, e.cfg.Rules.Enabled)

	var scal *report.Scalability
	e.soft("scalability", func() {
		scal = e.scalability.Analyze(clean, m)
	})

	base := &report.Report{
		Mode: report.ModeSQL,
		Result: &report.Result{
			SQL:             clean,
			Driver:          e.drv.Name(),
			PlanText:        res.PlanText,
			ExplainRows:     res.Rows,
			Metrics:         m,
			Scores:          scores,
			Findings:        findings,
			ExecutionTimeMs: m.ExecutionTimeMs,
		},
		Grade:           scores.Grade,
		CompositeScore:  scores.Composite,
		Recommendations: recommendations(findings),
		Scalability:     scal,
		AnalyzedAt:      time.Now(),
	}
	base.Passed = e.passed(m, findings)
	return base, clean, nil
}

// passed fails the report on any critical finding or any exceeded hard
// threshold.
func (e *Engine) passed(m *metrics.Metrics, findings []report.Finding) bool {
	for _, f := range findings {
		if f.Severity == report.SeverityCritical {
			return false
		}
	}
	t := e.cfg.Thresholds
	if t.MaxExecutionTimeMs > 0 && m.ExecutionTimeMs > t.MaxExecutionTimeMs {
		return false
	}
	if t.MaxRowsExamined > 0 && m.RowsExamined > t.MaxRowsExamined {
		return false
	}
	if t.MaxLoops > 0 && m.MaxLoops > t.MaxLoops {
		return false
	}
	if t.MaxCost > 0 && m.MaxCost > t.MaxCost {
		return false
	}
	if t.MaxNestedLoopDepth > 0 && m.NestedLoopDepth > t.MaxNestedLoopDepth {
		return false
	}
	return true
}

// soft contains one analyzer: a panic is logged and its output stays
// absent, never taking the report down with it.
func (e *Engine) soft(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("analyzer failed, output omitted", "analyzer", name, "panic", r)
		}
	}()
	fn()
}

// recommendations collects distinct non-empty recommendations in finding
// order.
func recommendations(findings []report.Finding) []string {
	seen := map[string]bool{}
	var out []string
	for _, f := range findings {
		if f.Recommendation == "" || seen[f.Recommendation] {
			continue
		}
		seen[f.Recommendation] = true
		out = append(out, f.Recommendation)
	}
	return out
}

// analyzerFindings pulls the finding slice out of any analyzer DTO.
func analyzerFindings(v any) []report.Finding {
	switch t := v.(type) {
	case *report.CardinalityDrift:
		if t != nil {
			return t.Findings
		}
	case *report.AntiPatterns:
		if t != nil {
			return t.Findings
		}
	case *report.IndexSynthesis:
		if t != nil {
			return t.Findings
		}
	case *report.HypotheticalIndex:
		if t != nil {
			return t.Findings
		}
	case *report.Regression:
		if t != nil {
			return t.Findings
		}
	case *report.Concurrency:
		if t != nil {
			return t.Findings
		}
	case *report.MemoryPressure:
		if t != nil {
			return t.Findings
		}
	case *report.Confidence:
		if t != nil {
			return t.Findings
		}
	}
	return nil
}
