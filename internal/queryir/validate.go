package queryir

import (
	"errors"
	"fmt"

	"github.com/roach88/morph/internal/ir"
)

// Validate checks that sel names a known table, that every predicate names
// one of its columns, and that every value fits its column's type. All
// problems are reported, joined.
func Validate(sel Select) error {
	if schema[sel.From] == nil {
		return fmt.Errorf("unknown table %q", sel.From)
	}
	v := &validator{table: sel.From}
	v.predicate(sel.Filter)
	return errors.Join(v.errs...)
}

type validator struct {
	table Table
	errs  []error
}

func (v *validator) fail(format string, args ...any) {
	v.errs = append(v.errs, fmt.Errorf(format, args...))
}

func (v *validator) predicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
	case Equals:
		v.compare("=", pred.Column, pred.Value)
	case NotEquals:
		v.compare("<>", pred.Column, pred.Value)
	case After:
		col, ok := v.column(pred.Column)
		if ok && col.Type != ColumnInt {
			v.fail("%s.%s: after needs an int column, got %s", v.table, col.Name, col.Type)
		}
	case And:
		for _, sub := range pred.Predicates {
			v.predicate(sub)
		}
	default:
		v.fail("unsupported predicate %T", p)
	}
}

func (v *validator) column(name string) (Column, bool) {
	col, ok := v.table.Column(name)
	if !ok {
		v.fail("%s has no column %q", v.table, name)
	}
	return col, ok
}

func (v *validator) compare(op, name string, value ir.Value) {
	col, ok := v.column(name)
	if !ok {
		return
	}
	if value == nil {
		v.fail("%s.%s %s: value is required", v.table, name, op)
		return
	}
	if !Accepts(col.Type, value) {
		v.fail("%s.%s %s: %s column cannot hold a %s", v.table, name, op, col.Type, value.Kind())
	}
}

// Accepts reports whether a column of type t can be compared with v.
func Accepts(t ColumnType, v ir.Value) bool {
	switch t {
	case ColumnText:
		return v.Kind() == ir.KindString
	case ColumnInt:
		return v.Kind() == ir.KindInt
	case ColumnBool:
		return v.Kind() == ir.KindBool
	case ColumnJSON:
		return true
	default:
		return false
	}
}
