// Package queryir describes filters over the run log as data.
//
// A Select names one run log table and an optional predicate. The
// predicate language is deliberately small:
//
//   - Equals: column = value
//   - NotEquals: column <> value
//   - After: column > seq, for the integer seq columns
//   - And: every predicate holds (empty means always true)
//
// Predicate is a sealed interface: only types in this package implement
// it, so backends can switch over it exhaustively.
//
// Columns are checked against the table schema by Validate, and values
// against the column type. JSON columns (evaluation input and output,
// check sample) compare by canonical JSON, so
//
//	Equals{Column: "input", Value: ir.Int(3)}
//
// matches exactly the evaluations whose input was 3.
//
// The SQL backend lives in package querysql. Every query it produces is
// parameterized and has a total ORDER BY on (seq, id).
package queryir
