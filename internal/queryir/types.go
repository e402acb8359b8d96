package queryir

import "github.com/roach88/morph/internal/ir"

// Table names a run log table.
type Table string

const (
	TableRuns        Table = "runs"
	TableEvaluations Table = "evaluations"
	TableChecks      Table = "checks"
)

// ColumnType is how a column's values are stored.
type ColumnType int

const (
	ColumnText ColumnType = iota
	ColumnInt
	ColumnBool
	ColumnJSON // canonical JSON of an ir.Value
)

func (t ColumnType) String() string {
	switch t {
	case ColumnText:
		return "text"
	case ColumnInt:
		return "int"
	case ColumnBool:
		return "bool"
	case ColumnJSON:
		return "json"
	default:
		return "unknown"
	}
}

// Column is one column of a run log table.
type Column struct {
	Name string
	Type ColumnType
}

// schema lists each table's columns in select order. The order matches the
// store's scan functions.
var schema = map[Table][]Column{
	TableRuns: {
		{"id", ColumnText},
		{"kind", ColumnText},
		{"subject", ColumnText},
		{"started_seq", ColumnInt},
		{"engine_version", ColumnText},
		{"ir_version", ColumnText},
	},
	TableEvaluations: {
		{"id", ColumnText},
		{"run_id", ColumnText},
		{"pipeline", ColumnText},
		{"input", ColumnJSON},
		{"output", ColumnJSON},
		{"error", ColumnText},
		{"seq", ColumnInt},
	},
	TableChecks: {
		{"id", ColumnText},
		{"run_id", ColumnText},
		{"law", ColumnText},
		{"subject", ColumnText},
		{"sample", ColumnJSON},
		{"left_result", ColumnText},
		{"right_result", ColumnText},
		{"pass", ColumnBool},
		{"seq", ColumnInt},
	},
}

// Columns returns t's columns in select order, or nil for an unknown table.
func (t Table) Columns() []Column {
	cols := schema[t]
	if cols == nil {
		return nil
	}
	out := make([]Column, len(cols))
	copy(out, cols)
	return out
}

// Column looks up a column of t by name.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range schema[t] {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// SeqColumn is the logical clock column rows are ordered by.
func (t Table) SeqColumn() string {
	if t == TableRuns {
		return "started_seq"
	}
	return "seq"
}

// Select reads the rows of From that satisfy Filter, in seq order.
type Select struct {
	From   Table
	Filter Predicate // nil means every row
}

// Predicate is a row filter.
type Predicate interface {
	predicateNode()
}

// Equals holds when Column = Value.
type Equals struct {
	Column string
	Value  ir.Value
}

// NotEquals holds when Column <> Value.
type NotEquals struct {
	Column string
	Value  ir.Value
}

// After holds when an integer column is strictly greater than Seq.
type After struct {
	Column string
	Seq    int64
}

// And holds when every predicate holds. An empty And always holds.
type And struct {
	Predicates []Predicate
}

func (Equals) predicateNode()    {}
func (NotEquals) predicateNode() {}
func (After) predicateNode()     {}
func (And) predicateNode()       {}

// All joins the non-nil predicates with And. It returns nil when none are
// left and the predicate itself when only one is.
func All(preds ...Predicate) Predicate {
	var kept []Predicate
	for _, p := range preds {
		if p != nil {
			kept = append(kept, p)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return And{Predicates: kept}
	}
}
