package driver

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// MySQL executes EXPLAIN against a MySQL / Percona server. MariaDB is
// detected and treated as a pre-8.0.18 server (no EXPLAIN ANALYZE).
type MySQL struct {
	db       *sql.DB
	database string

	mu      sync.RWMutex
	version *ServerVersion
}

// NewMySQL creates the MySQL driver over an open connection.
func NewMySQL(db *sql.DB, database string) *MySQL {
	return &MySQL{db: db, database: database}
}

func (d *MySQL) Name() string { return "mysql" }

// Database returns the schema the driver operates in.
func (d *MySQL) Database() string { return d.database }

// Conn exposes the underlying connection for the schema introspector.
func (d *MySQL) Conn() *sql.DB { return d.db }

// Version probes SELECT VERSION() once and caches the parsed result.
func (d *MySQL) Version(ctx context.Context) (ServerVersion, error) {
	d.mu.RLock()
	if d.version != nil {
		v := *d.version
		d.mu.RUnlock()
		return v, nil
	}
	d.mu.RUnlock()

	var raw string
	if err := d.db.QueryRowContext(ctx, "SELECT VERSION()").Scan(&raw); err != nil {
		return ServerVersion{}, fmt.Errorf("querying version: %w", err)
	}
	v, err := ParseVersion(raw)
	if err != nil {
		return ServerVersion{}, err
	}

	d.mu.Lock()
	d.version = &v
	d.mu.Unlock()
	return v, nil
}

func (d *MySQL) SupportsAnalyze(ctx context.Context) bool {
	v, err := d.Version(ctx)
	if err != nil {
		return false
	}
	return v.SupportsExplainAnalyze()
}

// RunExplainAnalyze produces the TREE-format executed plan. Servers older
// than 8.0.18 fall back to EXPLAIN FORMAT=TREE (estimates only). Errors are
// surfaced as the in-band "-- EXPLAIN failed:" sentinel.
func (d *MySQL) RunExplainAnalyze(ctx context.Context, sqlText string) (string, error) {
	stmt := "EXPLAIN ANALYZE " + sqlText
	if !d.SupportsAnalyze(ctx) {
		stmt = "EXPLAIN FORMAT=TREE " + sqlText
	}

	rows, err := d.db.QueryContext(ctx, stmt)
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

// RunExplain executes tabular EXPLAIN and maps rows by column name, since
// the column set varies across server versions.
func (d *MySQL) RunExplain(ctx context.Context, sqlText string) ([]ExplainRow, error) {
	rows, err := d.db.QueryContext(ctx, "EXPLAIN "+sqlText)
	if err != nil {
		return nil, fmt.Errorf("EXPLAIN failed: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []ExplainRow
	for rows.Next() {
		values := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		var r ExplainRow
		for i, col := range cols {
			if !values[i].Valid {
				continue
			}
			val := values[i].String
			switch strings.ToLower(col) {
			case "id":
				r.ID = val
			case "select_type":
				r.SelectType = val
			case "table":
				r.Table = val
			case "partitions":
				r.Partitions = val
			case "type":
				r.Type = val
			case "possible_keys":
				r.PossibleKeys = val
			case "key":
				r.Key = val
			case "key_len":
				r.KeyLen = val
			case "ref":
				r.Ref = val
			case "rows":
				r.Rows, _ = strconv.ParseInt(val, 10, 64)
			case "filtered":
				r.Filtered = val
			case "extra":
				r.Extra = val
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// NormalizeAccessType maps MySQL tabular access types onto the canonical
// vocabulary used by the plan model.
func (d *MySQL) NormalizeAccessType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "system", "const":
		return "const_row"
	case "eq_ref":
		return "single_row_lookup"
	case "ref", "ref_or_null", "unique_subquery", "index_subquery":
		return "index_lookup"
	case "range":
		return "index_range_scan"
	case "index":
		return "index_scan"
	case "fulltext":
		return "fulltext_index"
	case "index_merge":
		return "index_range_scan"
	case "all":
		return "table_scan"
	default:
		return ""
	}
}

func (d *MySQL) NormalizeJoinType(raw string) string {
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "hash"):
		return "hash_join"
	case strings.Contains(lower, "nested"):
		return "nested_loop"
	case strings.Contains(lower, "merge"):
		return "merge_join"
	default:
		return lower
	}
}

func (d *MySQL) Capabilities(ctx context.Context) Capabilities {
	v, err := d.Version(ctx)
	if err != nil {
		return Capabilities{}
	}
	return Capabilities{
		Histograms:        v.SupportsHistograms(),
		ExplainAnalyze:    v.SupportsExplainAnalyze(),
		JSONExplain:       true,
		CoveringIndexInfo: true,
		ParallelQuery:     false,
	}
}

// RunAnalyzeTable refreshes optimizer statistics for a table.
func (d *MySQL) RunAnalyzeTable(ctx context.Context, table string) error {
	_, err := d.db.ExecContext(ctx, "ANALYZE TABLE "+escapeIdentifier(table))
	if err != nil {
		return fmt.Errorf("ANALYZE TABLE %s: %w", table, err)
	}
	return nil
}

// ColumnStats reads index cardinality and histogram presence for a column.
func (d *MySQL) ColumnStats(ctx context.Context, table, column string) (*ColumnStats, error) {
	stats := &ColumnStats{Table: table, Column: column}

	var cardinality sql.NullInt64
	err := d.db.QueryRowContext(ctx, `
		SELECT MAX(CARDINALITY)
		FROM information_schema.STATISTICS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? AND COLUMN_NAME = ?
	`, d.database, table, column).Scan(&cardinality)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("querying column stats: %w", err)
	}
	if cardinality.Valid {
		stats.Cardinality = cardinality.Int64
	}

	var histCount int
	err = d.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM information_schema.COLUMN_STATISTICS
		WHERE SCHEMA_NAME = ? AND TABLE_NAME = ? AND COLUMN_NAME = ?
	`, d.database, table, column).Scan(&histCount)
	if err == nil {
		stats.Histogram = histCount > 0
	}
	// COLUMN_STATISTICS is missing pre-8.0; the cardinality alone is usable.

	return stats, nil
}

// DDL returns an executor running raw DDL on this connection.
func (d *MySQL) DDL() DDLExecutor {
	return func(ctx context.Context, ddl string) error {
		_, err := d.db.ExecContext(ctx, ddl)
		return err
	}
}

// escapeIdentifier wraps an identifier in backticks, escaping embedded
// backticks, so dynamic statements cannot be injected through names.
func escapeIdentifier(identifier string) string {
	return "`" + strings.ReplaceAll(identifier, "`", "``") + "`"
}
