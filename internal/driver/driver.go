// Package driver abstracts EXPLAIN execution, capability probing and index
// DDL over the supported engines (MySQL primary, PostgreSQL, SQLite).
package driver

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// ExplainFailedPrefix marks an EXPLAIN ANALYZE error surfaced in-band.
// The explain executor decodes this sentinel into a structured failure.
const ExplainFailedPrefix = "-- EXPLAIN failed: "

// ExplainRow is one row of tabular EXPLAIN output. Engines that do not
// produce MySQL-shaped rows fill Extra with the raw line.
type ExplainRow struct {
	ID           string `json:"id,omitempty"`
	SelectType   string `json:"select_type,omitempty"`
	Table        string `json:"table,omitempty"`
	Partitions   string `json:"partitions,omitempty"`
	Type         string `json:"type,omitempty"`
	PossibleKeys string `json:"possible_keys,omitempty"`
	Key          string `json:"key,omitempty"`
	KeyLen       string `json:"key_len,omitempty"`
	Ref          string `json:"ref,omitempty"`
	Rows         int64  `json:"rows,omitempty"`
	Filtered     string `json:"filtered,omitempty"`
	Extra        string `json:"extra,omitempty"`
}

// Capabilities describes what the connected server can do. Analyzers use
// these to decide which probes are worth running and the confidence scorer
// folds them into its driver-capability factor.
type Capabilities struct {
	Histograms        bool `json:"histograms"`
	ExplainAnalyze    bool `json:"explain_analyze"`
	JSONExplain       bool `json:"json_explain"`
	CoveringIndexInfo bool `json:"covering_index_info"`
	ParallelQuery     bool `json:"parallel_query"`
}

// ColumnStats holds optimizer statistics for a single column.
type ColumnStats struct {
	Table       string
	Column      string
	Cardinality int64
	Histogram   bool
}

// DDLExecutor executes a single DDL statement. The hypothetical-index
// analyzer takes one of these so tests can inject a recording fake.
type DDLExecutor func(ctx context.Context, ddl string) error

// Driver is the engine-specific EXPLAIN surface.
type Driver interface {
	// Name returns the config name of the driver: mysql, pgsql or sqlite.
	Name() string

	// RunExplain executes tabular EXPLAIN (no ANALYZE) and returns its rows.
	RunExplain(ctx context.Context, sql string) ([]ExplainRow, error)

	// RunExplainAnalyze executes EXPLAIN ANALYZE (or the closest the engine
	// offers) and returns the plan text. Execution errors are surfaced as
	// ExplainFailedPrefix strings rather than Go errors so partial pipelines
	// can decode them uniformly.
	RunExplainAnalyze(ctx context.Context, sql string) (string, error)

	// SupportsAnalyze reports whether the connected server can produce
	// actual-timing plans.
	SupportsAnalyze(ctx context.Context) bool

	// Version probes and memoizes the server version.
	Version(ctx context.Context) (ServerVersion, error)

	// NormalizeAccessType maps an engine-native access tag to the canonical
	// access-type vocabulary (table_scan, index_lookup, ...).
	NormalizeAccessType(raw string) string

	// NormalizeJoinType maps an engine-native join label to the canonical
	// vocabulary (nested_loop, hash_join, merge_join).
	NormalizeJoinType(raw string) string

	// Capabilities reports the server's feature set.
	Capabilities(ctx context.Context) Capabilities

	// RunAnalyzeTable refreshes optimizer statistics for a table.
	RunAnalyzeTable(ctx context.Context, table string) error

	// ColumnStats returns optimizer statistics for one column, or nil when
	// the engine keeps none.
	ColumnStats(ctx context.Context, table, column string) (*ColumnStats, error)

	// DDL returns the executor used for hypothetical-index simulation.
	DDL() DDLExecutor
}

// explainFailure wraps an error into the in-band sentinel string.
func explainFailure(err error) string {
	return ExplainFailedPrefix + err.Error()
}

// IsExplainFailure decodes the sentinel, returning the embedded message.
func IsExplainFailure(planText string) (string, bool) {
	trimmed := strings.TrimSpace(planText)
	if strings.HasPrefix(trimmed, strings.TrimSpace(ExplainFailedPrefix)) {
		return strings.TrimSpace(strings.TrimPrefix(trimmed, strings.TrimSpace(ExplainFailedPrefix))), true
	}
	return "", false
}

// New returns a Driver for the given engine name over an open connection.
func New(name string, db *sql.DB, database string) (Driver, error) {
	switch name {
	case "mysql", "":
		return NewMySQL(db, database), nil
	case "pgsql", "postgres":
		return NewPostgres(db), nil
	case "sqlite":
		return NewSQLite(db), nil
	default:
		return nil, fmt.Errorf("unsupported driver %q: valid values are mysql, pgsql, sqlite", name)
	}
}
