// Package schema looks up tables and columns in the database catalog and
// offers typo suggestions for names that almost match.
package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Record is the uniform catalog record shape shared by all engines.
type Record struct {
	TableName  string
	ColumnName string
}

// Introspector answers existence questions against the schema catalog of
// the configured engine. It is stateless and safe for concurrent use.
type Introspector struct {
	db       *sql.DB
	driver   string // mysql, pgsql, sqlite
	database string
}

// NewIntrospector creates an introspector for the given engine connection.
func NewIntrospector(db *sql.DB, driverName, database string) *Introspector {
	return &Introspector{db: db, driver: driverName, database: database}
}

// Database returns the schema name lookups run against.
func (in *Introspector) Database() string { return in.database }

// TableExists returns the catalog record for a table, or nil when absent.
// Comparison is case-insensitive.
func (in *Introspector) TableExists(ctx context.Context, name string) (*Record, error) {
	tables, err := in.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range tables {
		if strings.EqualFold(t.TableName, name) {
			rec := t
			return &rec, nil
		}
	}
	return nil, nil
}

// ListTables returns every table in the configured database.
func (in *Introspector) ListTables(ctx context.Context) ([]Record, error) {
	var rows *sql.Rows
	var err error
	switch in.driver {
	case "pgsql", "postgres":
		rows, err = in.db.QueryContext(ctx, `
			SELECT table_name FROM information_schema.tables
			WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
			ORDER BY table_name`)
	case "sqlite":
		rows, err = in.db.QueryContext(ctx, `
			SELECT name FROM sqlite_master
			WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
			ORDER BY name`)
	default:
		rows, err = in.db.QueryContext(ctx, `
			SELECT TABLE_NAME FROM information_schema.TABLES
			WHERE TABLE_SCHEMA = ?
			ORDER BY TABLE_NAME`, in.database)
	}
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.TableName); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ColumnExists returns the catalog record for a column, or nil when absent.
func (in *Introspector) ColumnExists(ctx context.Context, database, table, column string) (*Record, error) {
	cols, err := in.ListColumns(ctx, database, table)
	if err != nil {
		return nil, err
	}
	for _, c := range cols {
		if strings.EqualFold(c.ColumnName, column) {
			rec := c
			return &rec, nil
		}
	}
	return nil, nil
}

// ListColumns returns every column of a table.
func (in *Introspector) ListColumns(ctx context.Context, database, table string) ([]Record, error) {
	if database == "" {
		database = in.database
	}

	var rows *sql.Rows
	var err error
	switch in.driver {
	case "pgsql", "postgres":
		rows, err = in.db.QueryContext(ctx, `
			SELECT table_name, column_name FROM information_schema.columns
			WHERE table_name = $1
			ORDER BY ordinal_position`, table)
	case "sqlite":
		rows, err = in.db.QueryContext(ctx,
			"SELECT ?, name FROM pragma_table_info(?)", table, table)
	default:
		rows, err = in.db.QueryContext(ctx, `
			SELECT TABLE_NAME, COLUMN_NAME FROM information_schema.COLUMNS
			WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
			ORDER BY ORDINAL_POSITION`, database, table)
	}
	if err != nil {
		return nil, fmt.Errorf("listing columns of %s: %w", table, err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.TableName, &r.ColumnName); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
