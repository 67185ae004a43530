package validate

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/querylens/querylens/internal/driver"
	"github.com/querylens/querylens/internal/logger"
	"github.com/querylens/querylens/internal/report"
	"github.com/querylens/querylens/internal/schema"
	"github.com/querylens/querylens/internal/sqltext"
)

// Stage names as they appear in failure reports.
const (
	StageTable   = "Table Validation"
	StageColumn  = "Column Validation"
	StageJoin    = "Join Validation"
	StageSyntax  = "Syntax Validation"
	StageExplain = "Explain"
)

var (
	reSQLState   = regexp.MustCompile(`SQLSTATE\[(\w+)\]`)
	reErrState   = regexp.MustCompile(`Error \d+ \((\w+)\)`)
	reLineNumber = regexp.MustCompile(`(?i)at line (\d+)`)
	reWord       = regexp.MustCompile(`[A-Za-z_]+`)
)

// Pipeline validates a statement schema-first so a missing table surfaces
// as "table not found" instead of a raw engine error. The first failing
// stage aborts.
type Pipeline struct {
	intr *schema.Introspector
	drv  driver.Driver
	log  logger.Interface
}

// New builds the validation pipeline.
func New(intr *schema.Introspector, drv driver.Driver, log logger.Interface) *Pipeline {
	if log == nil {
		log = logger.Nop{}
	}
	return &Pipeline{intr: intr, drv: drv, log: log}
}

// Validate runs all stages in order. A non-nil error is always a *Failure.
func (p *Pipeline) Validate(ctx context.Context, sql string) error {
	if err := p.validateTables(ctx, sql); err != nil {
		return err
	}
	if err := p.validateColumns(ctx, sql); err != nil {
		return err
	}
	if err := p.validateJoins(ctx, sql); err != nil {
		return err
	}
	return p.validateSyntax(ctx, sql)
}

func (p *Pipeline) validateTables(ctx context.Context, sql string) error {
	tables := sqltext.Tables(sql)
	if len(tables) == 0 {
		return nil
	}

	known, err := p.intr.ListTables(ctx)
	if err != nil {
		return p.introspectionFailure(StageTable, err)
	}
	names := make([]string, len(known))
	lookup := make(map[string]bool, len(known))
	for i, rec := range known {
		names[i] = rec.TableName
		lookup[strings.ToLower(rec.TableName)] = true
	}

	for _, t := range tables {
		if lookup[strings.ToLower(t)] {
			continue
		}
		f := &report.ValidationFailureReport{
			Status:        "ERROR — Table Not Found",
			FailureStage:  StageTable,
			DetailedError: fmt.Sprintf("table %q does not exist in database %q", t, p.intr.Database()),
			MissingTable:  t,
			Database:      p.intr.Database(),
			Recommendations: []string{
				fmt.Sprintf("Verify the table name %q against the schema", t),
			},
		}
		if s := schema.Suggest(t, names); s != "" {
			f.Suggestion = s
			f.Recommendations = append(f.Recommendations,
				fmt.Sprintf("Did you mean %q?", s))
		}
		return &Failure{Report: f}
	}
	return nil
}

func (p *Pipeline) validateColumns(ctx context.Context, sql string) error {
	aliases := sqltext.AliasMap(sql)
	if len(aliases) == 0 {
		return nil
	}
	virtual := make(map[string]bool)
	for _, v := range sqltext.VirtualColumnAliases(sql) {
		virtual[strings.ToLower(v)] = true
	}

	// Column catalog per table, loaded lazily so queries with no column
	// references cost nothing.
	catalogs := make(map[string][]schema.Record)
	listColumns := func(table string) ([]schema.Record, error) {
		key := strings.ToLower(table)
		if cols, ok := catalogs[key]; ok {
			return cols, nil
		}
		cols, err := p.intr.ListColumns(ctx, "", table)
		if err != nil {
			return nil, err
		}
		catalogs[key] = cols
		return cols, nil
	}

	refs := append(sqltext.WhereColumns(sql), sqltext.OrderByColumns(sql)...)
	refs = append(refs, sqltext.SelectColumns(sql)...)

	for _, ref := range refs {
		qualifier, col := splitRef(ref)
		if virtual[strings.ToLower(col)] {
			continue
		}

		if qualifier != "" {
			table, known := aliases[strings.ToLower(qualifier)]
			if !known {
				continue // join validation owns unknown qualifiers
			}
			if table == "" {
				continue // derived subquery, no catalog to check
			}
			cols, err := listColumns(table)
			if err != nil {
				return p.introspectionFailure(StageColumn, err)
			}
			if f := p.missingColumn(cols, table, col); f != nil {
				return f
			}
			continue
		}

		// Unqualified: the column must exist in at least one referenced table.
		found, checked := false, false
		var names []string
		for _, table := range aliases {
			if table == "" {
				continue
			}
			cols, err := listColumns(table)
			if err != nil {
				return p.introspectionFailure(StageColumn, err)
			}
			checked = true
			for _, c := range cols {
				names = append(names, c.ColumnName)
				if strings.EqualFold(c.ColumnName, col) {
					found = true
				}
			}
			if found {
				break
			}
		}
		if checked && !found {
			f := &report.ValidationFailureReport{
				Status:        "ERROR — Column Not Found",
				FailureStage:  StageColumn,
				DetailedError: fmt.Sprintf("column %q does not exist in any referenced table", col),
				MissingColumn: col,
				Database:      p.intr.Database(),
				Recommendations: []string{
					fmt.Sprintf("Verify the column name %q against the schema", col),
				},
			}
			if s := schema.Suggest(col, names); s != "" {
				f.Suggestion = s
				f.Recommendations = append(f.Recommendations,
					fmt.Sprintf("Did you mean %q?", s))
			}
			return &Failure{Report: f}
		}
	}
	return nil
}

func (p *Pipeline) missingColumn(cols []schema.Record, table, col string) *Failure {
	var names []string
	for _, c := range cols {
		if strings.EqualFold(c.ColumnName, col) {
			return nil
		}
		names = append(names, c.ColumnName)
	}
	f := &report.ValidationFailureReport{
		Status:        "ERROR — Column Not Found",
		FailureStage:  StageColumn,
		DetailedError: fmt.Sprintf("column %q does not exist in table %q", col, table),
		MissingColumn: col,
		MissingTable:  table,
		Database:      p.intr.Database(),
		Recommendations: []string{
			fmt.Sprintf("Verify the column name %q against table %q", col, table),
		},
	}
	if s := schema.Suggest(col, names); s != "" {
		f.Suggestion = s
		f.Recommendations = append(f.Recommendations, fmt.Sprintf("Did you mean %q?", s))
	}
	return &Failure{Report: f}
}

func (p *Pipeline) validateJoins(ctx context.Context, sql string) error {
	joinCols := sqltext.JoinColumns(sql)
	if len(joinCols) == 0 {
		return nil
	}
	aliases := sqltext.AliasMap(sql)

	for _, ref := range joinCols {
		qualifier, _ := splitRef(ref)
		if qualifier == "" {
			continue
		}
		if _, ok := aliases[strings.ToLower(qualifier)]; ok {
			continue
		}
		return &Failure{Report: &report.ValidationFailureReport{
			Status:        "ERROR — Invalid Join",
			FailureStage:  StageJoin,
			DetailedError: fmt.Sprintf("join condition references %q, which is not a known table or alias", qualifier),
			Database:      p.intr.Database(),
			Recommendations: []string{
				fmt.Sprintf("Check the JOIN ... ON clause: %q must be declared in FROM or JOIN", qualifier),
			},
		}}
	}
	return nil
}

// validateSyntax asks the engine itself via plain EXPLAIN. Schema errors
// were ruled out by earlier stages, so any failure here is real syntax.
func (p *Pipeline) validateSyntax(ctx context.Context, sql string) error {
	_, err := p.drv.RunExplain(ctx, sql)
	if err == nil {
		return nil
	}

	msg := err.Error()
	f := &report.ValidationFailureReport{
		Status:        "ERROR — Invalid SQL Syntax",
		FailureStage:  StageSyntax,
		DetailedError: msg,
		Recommendations: []string{
			"Review the statement syntax near the reported position",
		},
	}
	if m := reSQLState.FindStringSubmatch(msg); m != nil {
		f.SQLState = m[1]
	} else if m := reErrState.FindStringSubmatch(msg); m != nil {
		f.SQLState = m[1]
	}
	if m := reLineNumber.FindStringSubmatch(msg); m != nil {
		if n, convErr := strconv.Atoi(m[1]); convErr == nil {
			f.Line = n
		}
	}
	if s := keywordTypo(sql); s != "" {
		f.Suggestion = s
		f.Recommendations = append(f.Recommendations,
			fmt.Sprintf("Possible keyword typo: did you mean %q?", s))
	}
	return &Failure{Report: f}
}

func (p *Pipeline) introspectionFailure(stage string, err error) *Failure {
	p.log.Warn("schema introspection failed", logger.Err(err), "stage", stage)
	return NewFailure(stage, "ERROR — Schema Introspection Failed", err.Error())
}

// keywordTypo scans the statement for well-known keyword misspellings.
func keywordTypo(sql string) string {
	for _, word := range reWord.FindAllString(sql, -1) {
		if fixed := schema.SuggestKeyword(word); fixed != "" {
			return fixed
		}
	}
	return ""
}

func splitRef(ref string) (qualifier, column string) {
	if i := strings.IndexByte(ref, '.'); i >= 0 {
		return ref[:i], ref[i+1:]
	}
	return "", ref
}
