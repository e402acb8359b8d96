// Package querysql compiles run log queries to SQLite.
package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/morph/internal/ir"
	"github.com/roach88/morph/internal/queryir"
)

// Compile converts sel to parameterized SQL. The query is validated first.
//
// Columns come back in queryir schema order. Every query ends in
// ORDER BY <seq> ASC, id COLLATE BINARY ASC, and values are always bound
// as parameters, never written into the SQL text.
func Compile(sel queryir.Select) (string, []any, error) {
	if err := queryir.Validate(sel); err != nil {
		return "", nil, fmt.Errorf("invalid query: %w", err)
	}

	cols := sel.From.Columns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", strings.Join(names, ", "), sel.From)

	var params []any
	if sel.Filter != nil {
		where, p, err := compilePredicate(sel.From, sel.Filter)
		if err != nil {
			return "", nil, err
		}
		b.WriteString(" WHERE ")
		b.WriteString(where)
		params = p
	}

	fmt.Fprintf(&b, " ORDER BY %s ASC, id COLLATE BINARY ASC", sel.From.SeqColumn())
	return b.String(), params, nil
}

func compilePredicate(table queryir.Table, p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.Equals:
		return compileComparison(table, pred.Column, "=", pred.Value)
	case queryir.NotEquals:
		return compileComparison(table, pred.Column, "<>", pred.Value)
	case queryir.After:
		return pred.Column + " > ?", []any{pred.Seq}, nil
	case queryir.And:
		return compileAnd(table, pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate %T", p)
	}
}

func compileComparison(table queryir.Table, column, op string, v ir.Value) (string, []any, error) {
	col, _ := table.Column(column)
	param, err := toParam(col.Type, v)
	if err != nil {
		return "", nil, fmt.Errorf("%s.%s: %w", table, column, err)
	}
	return fmt.Sprintf("%s %s ?", column, op), []any{param}, nil
}

func compileAnd(table queryir.Table, and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}

	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, sub := range and.Predicates {
		sql, p, err := compilePredicate(table, sub)
		if err != nil {
			return "", nil, err
		}
		if _, nested := sub.(queryir.And); nested {
			sql = "(" + sql + ")"
		}
		parts = append(parts, sql)
		params = append(params, p...)
	}
	return strings.Join(parts, " AND "), params, nil
}

// toParam converts v to the form the column stores: JSON columns hold
// canonical JSON and bool columns hold 0 or 1.
func toParam(t queryir.ColumnType, v ir.Value) (any, error) {
	if t == queryir.ColumnJSON {
		data, err := ir.MarshalCanonical(v)
		if err != nil {
			return nil, err
		}
		return string(data), nil
	}

	switch val := v.(type) {
	case ir.String:
		return string(val), nil
	case ir.Int:
		return int64(val), nil
	case ir.Bool:
		if val {
			return int64(1), nil
		}
		return int64(0), nil
	default:
		return nil, fmt.Errorf("%s cannot be a SQL parameter", v.Kind())
	}
}
