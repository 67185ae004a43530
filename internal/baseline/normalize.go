// Package baseline persists per-query metric snapshots for regression
// detection. Queries are keyed by a stable hash of their normalized SQL.
package baseline

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"sync"

	"vitess.io/vitess/go/vt/sqlparser"
)

var (
	parserOnce sync.Once
	parser     *sqlparser.Parser
	parserErr  error
)

func sqlParser() (*sqlparser.Parser, error) {
	parserOnce.Do(func() {
		parser, parserErr = sqlparser.New(sqlparser.Options{})
	})
	return parser, parserErr
}

var reSpaces = regexp.MustCompile(`\s+`)

// Normalize canonicalizes a statement so formatting differences do not
// fragment baseline history. Parse-and-print gives a stable rendering;
// statements the parser rejects fall back to lexical normalization.
func Normalize(sql string) string {
	p, err := sqlParser()
	if err != nil {
		return lexicalNormalize(sql)
	}
	stmt, err := p.Parse(sql)
	if err != nil {
		return lexicalNormalize(sql)
	}
	return sqlparser.String(stmt)
}

func lexicalNormalize(sql string) string {
	return strings.ToLower(strings.TrimSpace(reSpaces.ReplaceAllString(sql, " ")))
}

// QueryHash returns the stable identity of a statement: the first 16 hex
// chars of the SHA-256 of its normalized form.
func QueryHash(sql string) string {
	sum := sha256.Sum256([]byte(Normalize(sql)))
	return hex.EncodeToString(sum[:])[:16]
}
