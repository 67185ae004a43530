package driver

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// VariableReader is the optional probe surface for server variables and
// status counters. The memory-pressure analyzer type-asserts for it;
// drivers without the concept simply don't implement it.
type VariableReader interface {
	Variable(ctx context.Context, name string) (string, error)
	VariableInt(ctx context.Context, name string) (int64, error)
	Status(ctx context.Context, name string) (string, error)
}

// Variable reads a single MySQL server variable. Returns empty string when
// the variable does not exist.
func (d *MySQL) Variable(ctx context.Context, name string) (string, error) {
	var varName, value sql.NullString

	// Escape LIKE metacharacters; SHOW does not take prepared parameters in
	// all driver versions.
	escaped := strings.ReplaceAll(name, "_", "\\_")
	escaped = strings.ReplaceAll(escaped, "%", "\\%")

	query := fmt.Sprintf("SHOW GLOBAL VARIABLES LIKE '%s'", escaped)
	err := d.db.QueryRowContext(ctx, query).Scan(&varName, &value)
	if err == nil && value.Valid && value.String != "" {
		return value.String, nil
	}

	query = fmt.Sprintf("SHOW VARIABLES LIKE '%s'", escaped)
	err = d.db.QueryRowContext(ctx, query).Scan(&varName, &value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("query failed: %w", err)
	}
	if !value.Valid {
		return "", nil
	}
	return value.String, nil
}

// VariableInt reads a server variable as int64.
func (d *MySQL) VariableInt(ctx context.Context, name string) (int64, error) {
	val, err := d.Variable(ctx, name)
	if err != nil || val == "" {
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}

// Status reads a single global status counter.
func (d *MySQL) Status(ctx context.Context, name string) (string, error) {
	var varName, value string

	escaped := strings.ReplaceAll(name, "_", "\\_")
	escaped = strings.ReplaceAll(escaped, "%", "\\%")

	query := fmt.Sprintf("SHOW GLOBAL STATUS LIKE '%s'", escaped)
	err := d.db.QueryRowContext(ctx, query).Scan(&varName, &value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return value, nil
}
