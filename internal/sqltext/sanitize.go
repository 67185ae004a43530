// Package sqltext provides statement sanitization, read-only safety
// validation and best-effort lexical extraction over raw SQL text.
package sqltext

import (
	"regexp"
	"strings"
)

var (
	reBlockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	reLineComment  = regexp.MustCompile(`(?m)--[^\n]*`)
	reHashComment  = regexp.MustCompile(`(?m)#[^\n]*`)
	reWhitespace   = regexp.MustCompile(`\s+`)
)

// Sanitize normalizes a SQL statement for analysis. It removes block
// comments (preserving optimizer hints /*+ ... */), strips -- and # line
// comments, trims trailing semicolons and collapses whitespace runs to
// single spaces. Sanitize is idempotent.
func Sanitize(sql string) string {
	out := reBlockComment.ReplaceAllStringFunc(sql, func(m string) string {
		if strings.HasPrefix(m, "/*+") {
			return m
		}
		return " "
	})
	out = reLineComment.ReplaceAllString(out, " ")
	out = reHashComment.ReplaceAllString(out, " ")
	out = reWhitespace.ReplaceAllString(out, " ")
	out = strings.TrimSpace(out)
	out = strings.TrimRight(out, ";")
	return strings.TrimSpace(out)
}
