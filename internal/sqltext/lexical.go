package sqltext

import (
	"regexp"
	"strings"
)

// Lexical extraction is regex-based and deliberately best-effort: regex
// cannot perfectly parse nested SQL. Callers must treat every output here
// as a hint, never as ground truth. Functions return empty results on
// non-matches and never fail.

var (
	reFromTable = regexp.MustCompile(`(?is)\bFROM\s+` + "`?" + `([\w$]+(?:\.[\w$]+)?)` + "`?")
	reJoinTable = regexp.MustCompile(`(?is)\b(?:STRAIGHT_JOIN|(?:NATURAL\s+)?(?:INNER\s+|LEFT\s+(?:OUTER\s+)?|RIGHT\s+(?:OUTER\s+)?|FULL\s+(?:OUTER\s+)?|CROSS\s+)?JOIN)\s+` + "`?" + `([\w$]+(?:\.[\w$]+)?)` + "`?")

	reAliasedTable = regexp.MustCompile(`(?is)\b(?:FROM|JOIN)\s+` + "`?" + `([\w$]+(?:\.[\w$]+)?)` + "`?" + `\s+(?:AS\s+)?` + "`?" + `(\w+)` + "`?")

	reSelectList = regexp.MustCompile(`(?is)\bSELECT\s+(?:DISTINCT\s+)?(.*?)\s+FROM\b`)
	reColumnAs   = regexp.MustCompile(`(?i)\bAS\s+` + "`?" + `(\w+)` + "`?")

	reWhereClause   = regexp.MustCompile(`(?is)\bWHERE\s+(.*?)(?:\bGROUP\s+BY\b|\bHAVING\b|\bORDER\s+BY\b|\bLIMIT\b|\bFOR\s+UPDATE\b|$)`)
	reOrderByClause = regexp.MustCompile(`(?is)\bORDER\s+BY\s+(.*?)(?:\bLIMIT\b|\bFOR\s+UPDATE\b|$)`)
	reOnClause      = regexp.MustCompile(`(?is)\bON\s+(.*?)(?:\b(?:STRAIGHT_JOIN|INNER|LEFT|RIGHT|FULL|CROSS|NATURAL|JOIN|WHERE|GROUP|HAVING|ORDER|LIMIT)\b|$)`)

	reColumnRef = regexp.MustCompile(`(?i)(?:` + "`" + `?([\w$]+)` + "`" + `?\.)?` + "`" + `?([\w$]+)` + "`" + `?\s*(?:=|!=|<>|<=|>=|<|>|\bLIKE\b|\bIN\b|\bBETWEEN\b|\bIS\b|\bREGEXP\b)`)
	reBareColumn = regexp.MustCompile(`(?:` + "`" + `?([\w$]+)` + "`" + `?\.)?` + "`" + `?([\w$]+)` + "`" + `?`)

	reFuncOnColumn = regexp.MustCompile(`(?i)\b(\w+)\s*\(\s*` + "`?" + `([\w$]+(?:\.[\w$]+)?)` + "`?" + `\s*[,)]`)

	reLeadingWildcard = regexp.MustCompile(`(?i)\bLIKE\s+['"]%`)
	reLimit           = regexp.MustCompile(`(?i)\bLIMIT\s+\d+`)
	reExists          = regexp.MustCompile(`(?i)\bEXISTS\s*\(`)
	reAggregate       = regexp.MustCompile(`(?i)\b(COUNT|SUM|AVG|MIN|MAX|GROUP_CONCAT)\s*\(`)
	reGroupBy         = regexp.MustCompile(`(?i)\bGROUP\s+BY\b`)

	// SQL keywords that must never be mistaken for an alias or a column.
	lexicalKeywords = map[string]bool{
		"ON": true, "WHERE": true, "SET": true, "JOIN": true, "INNER": true,
		"LEFT": true, "RIGHT": true, "FULL": true, "CROSS": true, "NATURAL": true,
		"OUTER": true, "GROUP": true, "ORDER": true, "HAVING": true, "LIMIT": true,
		"UNION": true, "AND": true, "OR": true, "NOT": true, "AS": true,
		"USING": true, "USE": true, "FORCE": true, "IGNORE": true, "STRAIGHT_JOIN": true,
		"IN": true, "IS": true, "NULL": true, "LIKE": true, "BETWEEN": true,
		"EXISTS": true, "SELECT": true, "FROM": true, "BY": true, "ASC": true,
		"DESC": true, "FOR": true, "LOCK": true, "DISTINCT": true, "CASE": true,
		"WHEN": true, "THEN": true, "ELSE": true, "END": true, "INTERVAL": true,
		"TRUE": true, "FALSE": true,
	}
)

// Tables returns every physical table referenced in FROM and JOIN clauses.
// Derived subqueries are not included.
func Tables(sql string) []string {
	clean := Sanitize(sql)
	seen := make(map[string]bool)
	var out []string
	add := func(name string) {
		name = baseName(name)
		if name == "" || seen[strings.ToLower(name)] || lexicalKeywords[strings.ToUpper(name)] {
			return
		}
		seen[strings.ToLower(name)] = true
		out = append(out, name)
	}
	for _, m := range reFromTable.FindAllStringSubmatch(clean, -1) {
		add(m[1])
	}
	for _, m := range reJoinTable.FindAllStringSubmatch(clean, -1) {
		add(m[1])
	}
	return out
}

// AliasMap maps each table alias (and each bare table name) to its physical
// base name. Aliases of derived subqueries map to the empty string.
func AliasMap(sql string) map[string]string {
	clean := Sanitize(sql)
	aliases := make(map[string]string)

	for _, m := range reAliasedTable.FindAllStringSubmatch(clean, -1) {
		table, alias := baseName(m[1]), m[2]
		if lexicalKeywords[strings.ToUpper(alias)] {
			// "FROM users WHERE ..." — the second token is a keyword, so the
			// table has no alias; register it under its own name.
			aliases[strings.ToLower(table)] = table
			continue
		}
		aliases[strings.ToLower(alias)] = table
	}
	for _, t := range Tables(clean) {
		if _, ok := aliases[strings.ToLower(t)]; !ok {
			aliases[strings.ToLower(t)] = t
		}
	}
	for _, alias := range derivedAliases(clean) {
		aliases[strings.ToLower(alias)] = ""
	}
	return aliases
}

// derivedAliases scans for "FROM|JOIN ( SELECT ... ) [AS] alias" with
// balanced-paren matching, which a single regex cannot do.
func derivedAliases(sql string) []string {
	upper := strings.ToUpper(sql)
	var out []string
	for i := 0; i+1 < len(upper); i++ {
		if upper[i] != '(' {
			continue
		}
		rest := strings.TrimLeft(upper[i+1:], " ")
		if !strings.HasPrefix(rest, "SELECT") {
			continue
		}
		depth := 0
		end := -1
		for j := i; j < len(upper); j++ {
			switch upper[j] {
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					end = j
				}
			}
			if end >= 0 {
				break
			}
		}
		if end < 0 {
			continue
		}
		tail := strings.Fields(sql[end+1:])
		if len(tail) == 0 {
			continue
		}
		alias := tail[0]
		if strings.EqualFold(alias, "AS") && len(tail) > 1 {
			alias = tail[1]
		}
		alias = strings.Trim(alias, "`,)")
		if alias != "" && !lexicalKeywords[strings.ToUpper(alias)] {
			out = append(out, alias)
		}
	}
	return out
}

// VirtualColumnAliases returns the AS aliases declared in the SELECT list.
// These are computed columns that never exist in any schema catalog.
func VirtualColumnAliases(sql string) []string {
	m := reSelectList.FindStringSubmatch(Sanitize(sql))
	if m == nil {
		return nil
	}
	var out []string
	for _, am := range reColumnAs.FindAllStringSubmatch(m[1], -1) {
		out = append(out, am[1])
	}
	return out
}

// WhereColumns returns column references appearing in the WHERE clause.
func WhereColumns(sql string) []string {
	m := reWhereClause.FindStringSubmatch(Sanitize(sql))
	if m == nil {
		return nil
	}
	return columnRefs(m[1])
}

// JoinColumns returns column references appearing in JOIN ... ON clauses.
func JoinColumns(sql string) []string {
	clean := Sanitize(sql)
	var out []string
	for _, m := range reOnClause.FindAllStringSubmatch(clean, -1) {
		for _, ref := range splitComparisons(m[1]) {
			out = append(out, ref)
		}
	}
	return dedupe(out)
}

// OrderByColumns returns the columns listed in ORDER BY.
func OrderByColumns(sql string) []string {
	m := reOrderByClause.FindStringSubmatch(Sanitize(sql))
	if m == nil {
		return nil
	}
	var out []string
	for _, part := range strings.Split(m[1], ",") {
		fields := strings.Fields(strings.TrimSpace(part))
		if len(fields) == 0 {
			continue
		}
		col := strings.Trim(fields[0], "`")
		if col != "" && !lexicalKeywords[strings.ToUpper(col)] {
			out = append(out, col)
		}
	}
	return out
}

// SelectColumns returns the columns in the SELECT list (excluding * and
// expressions it cannot attribute).
func SelectColumns(sql string) []string {
	m := reSelectList.FindStringSubmatch(Sanitize(sql))
	if m == nil {
		return nil
	}
	var out []string
	for _, part := range strings.Split(m[1], ",") {
		part = strings.TrimSpace(part)
		if part == "*" || strings.Contains(part, "(") {
			continue
		}
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		col := strings.Trim(fields[0], "`")
		if col != "" && !lexicalKeywords[strings.ToUpper(col)] {
			out = append(out, col)
		}
	}
	return out
}

// HasSelectStar reports whether the statement selects * (bare or qualified).
func HasSelectStar(sql string) bool {
	m := reSelectList.FindStringSubmatch(Sanitize(sql))
	if m == nil {
		// SELECT * with no FROM still counts.
		return regexp.MustCompile(`(?i)^\s*SELECT\s+\*`).MatchString(Sanitize(sql))
	}
	for _, part := range strings.Split(m[1], ",") {
		part = strings.TrimSpace(part)
		if part == "*" || strings.HasSuffix(part, ".*") {
			return true
		}
	}
	return false
}

// HasLeadingWildcard reports whether any LIKE pattern starts with %.
func HasLeadingWildcard(sql string) bool {
	return reLeadingWildcard.MatchString(Sanitize(sql))
}

// FunctionWrappedColumns returns columns wrapped in function calls inside
// the WHERE clause, e.g. DATE(created_at) = ... . Such predicates defeat
// index usage on the wrapped column.
func FunctionWrappedColumns(sql string) []string {
	m := reWhereClause.FindStringSubmatch(Sanitize(sql))
	if m == nil {
		return nil
	}
	var out []string
	for _, fm := range reFuncOnColumn.FindAllStringSubmatch(m[1], -1) {
		fn, col := strings.ToUpper(fm[1]), baseName(fm[2])
		if lexicalKeywords[fn] || lexicalKeywords[strings.ToUpper(col)] {
			continue
		}
		out = append(out, col)
	}
	return dedupe(out)
}

// HasCorrelatedSubquery reports whether a subquery references an outer
// alias (qualified column inside a nested SELECT whose qualifier is not a
// table declared inside that subquery).
func HasCorrelatedSubquery(sql string) bool {
	clean := Sanitize(sql)
	upper := strings.ToUpper(clean)
	idx := strings.Index(upper, "(SELECT")
	if idx < 0 {
		idx = strings.Index(upper, "( SELECT")
	}
	if idx < 0 {
		return false
	}
	sub := clean[idx:]
	inner := AliasMap(sub)
	for _, m := range regexp.MustCompile(`(\w+)\.[\w$]+`).FindAllStringSubmatch(sub, -1) {
		qualifier := strings.ToLower(m[1])
		if _, ok := inner[qualifier]; !ok {
			return true
		}
	}
	return false
}

// OrChainCount counts OR operators in the outer query, with subqueries
// excised so nested predicates are not attributed to the outer chain.
func OrChainCount(sql string) int {
	clean := exciseSubqueries(Sanitize(sql))
	return len(regexp.MustCompile(`(?i)\bOR\b`).FindAllString(clean, -1))
}

// HasLimit reports whether the outer statement has a LIMIT clause.
func HasLimit(sql string) bool {
	return reLimit.MatchString(Sanitize(sql))
}

// HasExists reports whether the statement uses EXISTS (...).
func HasExists(sql string) bool {
	return reExists.MatchString(Sanitize(sql))
}

// HasAggregationWithoutGroupBy reports aggregate functions used with no
// GROUP BY clause (whole-table aggregation).
func HasAggregationWithoutGroupBy(sql string) bool {
	clean := Sanitize(sql)
	return reAggregate.MatchString(clean) && !reGroupBy.MatchString(clean)
}

// IsIntentionalFullScan reports a SELECT with no WHERE, JOIN, GROUP BY,
// HAVING or ORDER BY: reading the whole table is the point of the query.
func IsIntentionalFullScan(sql string) bool {
	clean := strings.ToUpper(Sanitize(sql))
	if !strings.HasPrefix(clean, "SELECT") {
		return false
	}
	for _, kw := range []string{" WHERE ", " JOIN ", " GROUP BY ", " HAVING ", " ORDER BY "} {
		if strings.Contains(clean, kw) {
			return false
		}
	}
	return strings.Contains(clean, " FROM ")
}

// exciseSubqueries blanks parenthesized SELECTs so outer-level scans do not
// see nested content.
func exciseSubqueries(sql string) string {
	out := []byte(sql)
	upper := strings.ToUpper(sql)
	for i := 0; i < len(upper); i++ {
		if upper[i] != '(' {
			continue
		}
		rest := strings.TrimLeft(upper[i+1:], " ")
		if !strings.HasPrefix(rest, "SELECT") {
			continue
		}
		depth := 0
		for j := i; j < len(upper); j++ {
			if upper[j] == '(' {
				depth++
			} else if upper[j] == ')' {
				depth--
			}
			out[j] = ' '
			if depth == 0 {
				i = j
				break
			}
		}
	}
	return string(out)
}

// columnRefs extracts column names from a predicate expression.
func columnRefs(expr string) []string {
	var out []string
	for _, m := range reColumnRef.FindAllStringSubmatch(expr, -1) {
		col := m[2]
		if lexicalKeywords[strings.ToUpper(col)] || isNumeric(col) {
			continue
		}
		out = append(out, col)
	}
	return dedupe(out)
}

// splitComparisons extracts both sides of "a.x = b.y" style join predicates.
func splitComparisons(expr string) []string {
	var out []string
	for _, part := range regexp.MustCompile(`(?i)\bAND\b|\bOR\b`).Split(expr, -1) {
		for _, side := range strings.Split(part, "=") {
			side = strings.TrimSpace(side)
			m := reBareColumn.FindStringSubmatch(side)
			if m == nil {
				continue
			}
			col := m[2]
			if col == "" || lexicalKeywords[strings.ToUpper(col)] || isNumeric(col) {
				continue
			}
			if m[1] != "" {
				out = append(out, m[1]+"."+col)
			} else {
				out = append(out, col)
			}
		}
	}
	return out
}

func baseName(name string) string {
	name = strings.Trim(name, "`")
	if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func dedupe(in []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range in {
		key := strings.ToLower(s)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
