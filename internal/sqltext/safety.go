package sqltext

import (
	"fmt"
	"regexp"
	"strings"
)

// allowedStarters is the set of tokens a read-only statement may begin with.
var allowedStarters = map[string]bool{
	"SELECT":   true,
	"EXPLAIN":  true,
	"WITH":     true,
	"SHOW":     true,
	"DESC":     true,
	"DESCRIBE": true,
}

// reDestructive matches word-bounded destructive keywords anywhere in the
// statement. Only applied to SELECT/WITH starters: SHOW CREATE TABLE and
// EXPLAIN <ddl> legitimately contain these words.
var reDestructive = regexp.MustCompile(`\b(INSERT|UPDATE|DELETE|DROP|ALTER|TRUNCATE|CREATE|RENAME|REPLACE|GRANT|REVOKE|LOCK|UNLOCK|CALL|LOAD)\b`)

// reLockingRead matches locking-read suffixes on a SELECT.
var reLockingRead = regexp.MustCompile(`(?i)\b(FOR\s+UPDATE|FOR\s+SHARE|LOCK\s+IN\s+SHARE\s+MODE)\b`)

// UnsafeQueryError reports a statement rejected by the safety guard.
type UnsafeQueryError struct {
	SQL    string
	Reason string
}

func (e *UnsafeQueryError) Error() string {
	return fmt.Sprintf("unsafe query rejected: %s", e.Reason)
}

// Guard validates that a statement is read-only before anything touches
// the database. The zero value is ready to use.
type Guard struct{}

// NewGuard returns a read-only safety guard.
func NewGuard() *Guard {
	return &Guard{}
}

// Validate succeeds iff the sanitized, uppercased SQL begins with an allowed
// starter and, for SELECT/WITH, contains no word-bounded destructive keyword.
func (g *Guard) Validate(sql string) error {
	clean := strings.ToUpper(Sanitize(sql))
	if clean == "" {
		return &UnsafeQueryError{SQL: sql, Reason: "empty statement"}
	}

	starter := firstToken(clean)
	if !allowedStarters[starter] {
		return &UnsafeQueryError{
			SQL:    sql,
			Reason: fmt.Sprintf("statement starts with %q; only SELECT, WITH, EXPLAIN, SHOW and DESC/DESCRIBE can be analyzed", starter),
		}
	}

	// SHOW/EXPLAIN/DESC skip destructive scanning: CREATE inside
	// SHOW CREATE TABLE is benign.
	if starter != "SELECT" && starter != "WITH" {
		return nil
	}

	// Locking-read suffixes are legal on a SELECT; strip them so UPDATE in
	// FOR UPDATE does not read as destructive.
	scan := reLockingRead.ReplaceAllString(clean, " ")
	if m := reDestructive.FindString(scan); m != "" {
		return &UnsafeQueryError{
			SQL:    sql,
			Reason: fmt.Sprintf("destructive keyword %s found in statement", m),
		}
	}
	return nil
}

// IsSafe reports whether Validate would succeed.
func (g *Guard) IsSafe(sql string) bool {
	return g.Validate(sql) == nil
}

// IsSelect reports whether the statement is a SELECT (or WITH ... SELECT).
func (g *Guard) IsSelect(sql string) bool {
	starter := firstToken(strings.ToUpper(Sanitize(sql)))
	return starter == "SELECT" || starter == "WITH"
}

// IsLockingRead reports whether a SELECT carries FOR UPDATE, FOR SHARE or
// LOCK IN SHARE MODE. Plain SELECTs under MVCC take no row locks.
func (g *Guard) IsLockingRead(sql string) bool {
	return reLockingRead.MatchString(Sanitize(sql))
}

func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	// Strip an opening parenthesis: "(SELECT ..." still starts a SELECT.
	return strings.TrimLeft(fields[0], "(")
}
