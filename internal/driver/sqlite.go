package driver

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
)

// SQLite executes EXPLAIN QUERY PLAN. SQLite has no ANALYZE-style executed
// plan, so plans carry estimates only and the confidence scorer discounts
// results accordingly.
type SQLite struct {
	db *sql.DB

	mu      sync.RWMutex
	version *ServerVersion
}

// NewSQLite creates the SQLite driver over an open connection.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

func (d *SQLite) Name() string { return "sqlite" }

// Conn exposes the underlying connection for the schema introspector.
func (d *SQLite) Conn() *sql.DB { return d.db }

func (d *SQLite) Version(ctx context.Context) (ServerVersion, error) {
	d.mu.RLock()
	if d.version != nil {
		v := *d.version
		d.mu.RUnlock()
		return v, nil
	}
	d.mu.RUnlock()

	var raw string
	if err := d.db.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&raw); err != nil {
		return ServerVersion{}, fmt.Errorf("querying version: %w", err)
	}
	v, err := ParseVersion(raw)
	if err != nil {
		return ServerVersion{}, err
	}
	v.Flavor = "sqlite"

	d.mu.Lock()
	d.version = &v
	d.mu.Unlock()
	return v, nil
}

func (d *SQLite) SupportsAnalyze(context.Context) bool { return false }

// RunExplainAnalyze renders EXPLAIN QUERY PLAN output as indented tree text
// so the shared plan parser can consume it. Depth comes from the parent
// chain in the plan rows.
func (d *SQLite) RunExplainAnalyze(ctx context.Context, sqlText string) (string, error) {
	rows, err := d.db.QueryContext(ctx, "EXPLAIN QUERY PLAN "+sqlText)
	if err != nil {
		return explainFailure(err), nil
	}
	defer rows.Close()

	type planRow struct {
		id, parent int64
		detail     string
	}
	var plan []planRow
	for rows.Next() {
		var r planRow
		var notUsed int64
		if err := rows.Scan(&r.id, &r.parent, &notUsed, &r.detail); err != nil {
			return explainFailure(err), nil
		}
		plan = append(plan, r)
	}
	if err := rows.Err(); err != nil {
		return explainFailure(err), nil
	}

	depth := map[int64]int{0: -1}
	var b strings.Builder
	for _, r := range plan {
		dep := depth[r.parent] + 1
		depth[r.id] = dep
		b.WriteString(strings.Repeat("    ", dep))
		b.WriteString("-> ")
		b.WriteString(r.detail)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (d *SQLite) RunExplain(ctx context.Context, sqlText string) ([]ExplainRow, error) {
	rows, err := d.db.QueryContext(ctx, "EXPLAIN QUERY PLAN "+sqlText)
	if err != nil {
		return nil, fmt.Errorf("EXPLAIN QUERY PLAN failed: %w", err)
	}
	defer rows.Close()

	var out []ExplainRow
	for rows.Next() {
		var id, parent, notUsed int64
		var detail string
		if err := rows.Scan(&id, &parent, &notUsed, &detail); err != nil {
			return nil, err
		}
		out = append(out, ExplainRow{ID: fmt.Sprint(id), Extra: detail})
	}
	return out, rows.Err()
}

func (d *SQLite) NormalizeAccessType(raw string) string {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	switch {
	case strings.Contains(upper, "USING COVERING INDEX"):
		return "covering_index_lookup"
	case strings.Contains(upper, "USING INTEGER PRIMARY KEY"):
		return "single_row_lookup"
	case strings.Contains(upper, "USING INDEX"):
		return "index_lookup"
	case strings.HasPrefix(upper, "SEARCH"):
		return "index_range_scan"
	case strings.HasPrefix(upper, "SCAN"):
		return "table_scan"
	default:
		return ""
	}
}

func (d *SQLite) NormalizeJoinType(raw string) string {
	// SQLite always nests loops.
	return "nested_loop"
}

func (d *SQLite) Capabilities(context.Context) Capabilities {
	return Capabilities{
		Histograms:        false,
		ExplainAnalyze:    false,
		JSONExplain:       false,
		CoveringIndexInfo: true,
		ParallelQuery:     false,
	}
}

func (d *SQLite) RunAnalyzeTable(ctx context.Context, table string) error {
	_, err := d.db.ExecContext(ctx, "ANALYZE "+quoteIdent(table))
	if err != nil {
		return fmt.Errorf("ANALYZE %s: %w", table, err)
	}
	return nil
}

// ColumnStats reads sqlite_stat1 when ANALYZE has populated it.
func (d *SQLite) ColumnStats(ctx context.Context, table, column string) (*ColumnStats, error) {
	stats := &ColumnStats{Table: table, Column: column}
	var stat sql.NullString
	err := d.db.QueryRowContext(ctx,
		"SELECT stat FROM sqlite_stat1 WHERE tbl = ? LIMIT 1", table).Scan(&stat)
	if err != nil {
		// Missing sqlite_stat1 simply means ANALYZE never ran.
		return stats, nil
	}
	if stat.Valid {
		fmt.Sscanf(stat.String, "%d", &stats.Cardinality)
	}
	return stats, nil
}

func (d *SQLite) DDL() DDLExecutor {
	return func(ctx context.Context, ddl string) error {
		_, err := d.db.ExecContext(ctx, ddl)
		return err
	}
}
