package plan

import (
	"context"
	"strings"

	"github.com/querylens/querylens/internal/driver"
	"github.com/querylens/querylens/internal/logger"
)

// ExplainFailure describes why EXPLAIN could not produce a plan. The engine
// folds it into the full validation-failure report; keeping the type local
// avoids a dependency on the report package.
type ExplainFailure struct {
	Stage           string
	Message         string
	Recommendations []string
}

// ExplainResult is the outcome of running EXPLAIN ANALYZE: either a parsed
// plan with optional enrichment rows, or a structured failure. Exactly one
// of the two shapes is populated.
type ExplainResult struct {
	OK       bool
	PlanText string
	Root     *Node
	Rows     []driver.ExplainRow
	Failure  *ExplainFailure
}

// ExplainExecutor drives EXPLAIN ANALYZE and decodes both Go errors and the
// driver's in-band failure sentinel into one failure shape.
type ExplainExecutor struct {
	drv driver.Driver
	log logger.Interface
}

// NewExecutor builds an executor over a driver.
func NewExecutor(drv driver.Driver, log logger.Interface) *ExplainExecutor {
	if log == nil {
		log = logger.Nop{}
	}
	return &ExplainExecutor{drv: drv, log: log}
}

// Execute runs EXPLAIN ANALYZE and parses the plan. The tabular enrichment
// EXPLAIN is best-effort: its failure never downgrades a successful plan.
func (e *ExplainExecutor) Execute(ctx context.Context, sqlText string) *ExplainResult {
	planText, err := e.drv.RunExplainAnalyze(ctx, sqlText)
	if err != nil {
		return e.failure(err.Error())
	}
	if msg, failed := driver.IsExplainFailure(planText); failed {
		return e.failure(msg)
	}

	root := Parse(planText)
	if root == nil {
		return e.failure("EXPLAIN ANALYZE returned no plan")
	}

	rows, rowsErr := e.drv.RunExplain(ctx, sqlText)
	if rowsErr != nil {
		e.log.Debug("enrichment EXPLAIN failed, continuing without rows",
			logger.Err(rowsErr))
		rows = nil
	}

	return &ExplainResult{
		OK:       true,
		PlanText: planText,
		Root:     root,
		Rows:     rows,
	}
}

func (e *ExplainExecutor) failure(msg string) *ExplainResult {
	f := &ExplainFailure{
		Stage:   "Explain",
		Message: msg,
		Recommendations: []string{
			"Check that the statement is valid for the connected engine",
		},
	}
	if isUnsafeSignal(msg) {
		f.Recommendations = []string{"Only SELECT queries can be analyzed"}
	}
	return &ExplainResult{Failure: f}
}

// isUnsafeSignal recognizes guard rejections that leaked through as driver
// errors.
func isUnsafeSignal(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "only select") ||
		strings.Contains(lower, "not a read-only") ||
		strings.Contains(lower, "unsafe query")
}
