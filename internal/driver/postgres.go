package driver

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
)

// Postgres executes EXPLAIN (ANALYZE) against a PostgreSQL server. Its text
// plans use the same "->" indentation convention the tree parser consumes.
type Postgres struct {
	db *sql.DB

	mu      sync.RWMutex
	version *ServerVersion
}

// NewPostgres creates the PostgreSQL driver over an open connection.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (d *Postgres) Name() string { return "pgsql" }

// Conn exposes the underlying connection for the schema introspector.
func (d *Postgres) Conn() *sql.DB { return d.db }

func (d *Postgres) Version(ctx context.Context) (ServerVersion, error) {
	d.mu.RLock()
	if d.version != nil {
		v := *d.version
		d.mu.RUnlock()
		return v, nil
	}
	d.mu.RUnlock()

	var raw string
	if err := d.db.QueryRowContext(ctx, "SHOW server_version").Scan(&raw); err != nil {
		return ServerVersion{}, fmt.Errorf("querying version: %w", err)
	}
	v, err := ParseVersion(raw + " postgres")
	if err != nil {
		// Two-component versions like "16.2" are common.
		v = ServerVersion{Raw: raw, Flavor: "postgres"}
		fmt.Sscanf(raw, "%d.%d", &v.Major, &v.Minor)
	}
	v.Flavor = "postgres"

	d.mu.Lock()
	d.version = &v
	d.mu.Unlock()
	return v, nil
}

// SupportsAnalyze is always true: every supported PostgreSQL version has
// EXPLAIN ANALYZE.
func (d *Postgres) SupportsAnalyze(context.Context) bool { return true }

func (d *Postgres) RunExplainAnalyze(ctx context.Context, sqlText string) (string, error) {
	rows, err := d.db.QueryContext(ctx, "EXPLAIN (ANALYZE, FORMAT TEXT) "+sqlText)
	if err != nil {
		return explainFailure(err), nil
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return explainFailure(err), nil
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return explainFailure(err), nil
	}
	return strings.Join(lines, "\n"), nil
}

// RunExplain executes plain EXPLAIN; each output line lands in Extra since
// PostgreSQL has no tabular EXPLAIN shape.
func (d *Postgres) RunExplain(ctx context.Context, sqlText string) ([]ExplainRow, error) {
	rows, err := d.db.QueryContext(ctx, "EXPLAIN "+sqlText)
	if err != nil {
		return nil, fmt.Errorf("EXPLAIN failed: %w", err)
	}
	defer rows.Close()

	var out []ExplainRow
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return nil, err
		}
		out = append(out, ExplainRow{Extra: line})
	}
	return out, rows.Err()
}

func (d *Postgres) NormalizeAccessType(raw string) string {
	lower := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(lower, "seq scan"):
		return "table_scan"
	case strings.Contains(lower, "index only scan"):
		return "covering_index_lookup"
	case strings.Contains(lower, "index scan"):
		return "index_lookup"
	case strings.Contains(lower, "bitmap"):
		return "index_range_scan"
	case strings.Contains(lower, "tid scan"):
		return "single_row_lookup"
	default:
		return ""
	}
}

func (d *Postgres) NormalizeJoinType(raw string) string {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "hash"):
		return "hash_join"
	case strings.Contains(lower, "merge"):
		return "merge_join"
	case strings.Contains(lower, "nested"):
		return "nested_loop"
	default:
		return lower
	}
}

func (d *Postgres) Capabilities(context.Context) Capabilities {
	return Capabilities{
		Histograms:        true,
		ExplainAnalyze:    true,
		JSONExplain:       true,
		CoveringIndexInfo: true,
		ParallelQuery:     true,
	}
}

func (d *Postgres) RunAnalyzeTable(ctx context.Context, table string) error {
	_, err := d.db.ExecContext(ctx, "ANALYZE "+quoteIdent(table))
	if err != nil {
		return fmt.Errorf("ANALYZE %s: %w", table, err)
	}
	return nil
}

func (d *Postgres) ColumnStats(ctx context.Context, table, column string) (*ColumnStats, error) {
	stats := &ColumnStats{Table: table, Column: column}
	var distinct sql.NullFloat64
	err := d.db.QueryRowContext(ctx, `
		SELECT n_distinct FROM pg_stats
		WHERE tablename = $1 AND attname = $2
	`, table, column).Scan(&distinct)
	if err == sql.ErrNoRows {
		return stats, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying pg_stats: %w", err)
	}
	if distinct.Valid && distinct.Float64 > 0 {
		stats.Cardinality = int64(distinct.Float64)
	}
	stats.Histogram = true
	return stats, nil
}

func (d *Postgres) DDL() DDLExecutor {
	return func(ctx context.Context, ddl string) error {
		_, err := d.db.ExecContext(ctx, ddl)
		return err
	}
}

func quoteIdent(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}
