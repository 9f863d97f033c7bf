// Package querysql compiles queryir queries to parameterized SQLite SQL
// over the run log schema.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/prodrule/internal/queryir"
)

// Column lists returned by compiled queries, in scan order.
const (
	RunColumns    = "id, plan_hash, seq, input, output, output_hash, error_code"
	FiringColumns = "run_id, ordinal, level, rule_index, fired, pairs"
)

// SQLCompiler compiles queryir queries to SQLite SQL.
//
// Every query has a deterministic ORDER BY. Values are always passed as
// parameters, never interpolated.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile converts a query to SQL and its parameters. The query is
// validated first.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if res := queryir.Validate(q); !res.IsValid {
		return "", nil, fmt.Errorf("invalid query: %s", strings.Join(res.Problems, "; "))
	}

	switch query := q.(type) {
	case queryir.Runs:
		return c.compileRuns(query)
	case *queryir.Runs:
		return c.compileRuns(*query)
	case queryir.Firings:
		return c.compileFirings(query)
	case *queryir.Firings:
		return c.compileFirings(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func (c *SQLCompiler) compileRuns(q queryir.Runs) (string, []any, error) {
	var where []string
	var params []any

	if q.Plan != "" {
		where = append(where, "plan_hash = ?")
		params = append(params, q.Plan)
	}
	if q.Filter != nil {
		sql, p, err := c.compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		where = append(where, sql)
		params = append(params, p...)
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + RunColumns + " FROM runs")
	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY seq ASC, id COLLATE BINARY ASC")
	if q.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		params = append(params, q.Limit)
	}
	return sb.String(), params, nil
}

func (c *SQLCompiler) compileFirings(q queryir.Firings) (string, []any, error) {
	where := "run_id = ?"
	params := []any{q.Run}
	if q.Filter != nil {
		sql, p, err := c.compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		where += " AND " + sql
		params = append(params, p...)
	}
	sql := "SELECT " + FiringColumns + " FROM firings WHERE " + where + " ORDER BY ordinal ASC"
	return sql, params, nil
}

// jsonPath builds the JSON path for a top-level key. It is passed as a
// parameter, so the key needs no escaping in SQL.
func jsonPath(key string) string {
	return `$."` + key + `"`
}

func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.InputEquals:
		return "json_extract(input, ?) = ?", []any{jsonPath(pred.Var), pred.Value}, nil
	case queryir.OutputEquals:
		return "json_extract(output, ?) = ?", []any{jsonPath(pred.Var), pred.Value}, nil
	case queryir.OutputUnset:
		// Unset outputs are stored as JSON null; json_type is NULL for absent keys.
		return "json_type(output, ?) = 'null'", []any{jsonPath(pred.Var)}, nil
	case queryir.RuleFired:
		return "EXISTS (SELECT 1 FROM firings f WHERE f.run_id = runs.id AND f.rule_index = ? AND f.fired = 1)",
			[]any{pred.Rule}, nil
	case queryir.FiredOnly:
		return "fired = 1", nil, nil
	case queryir.LevelEquals:
		return "level = ?", []any{pred.Level}, nil
	case queryir.RuleEquals:
		return "rule_index = ?", []any{pred.Rule}, nil
	case queryir.And:
		return c.compileAnd(pred)
	case *queryir.And:
		return c.compileAnd(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}

	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, pred := range and.Predicates {
		sql, p, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, "("+sql+")")
		params = append(params, p...)
	}
	return strings.Join(parts, " AND "), params, nil
}
