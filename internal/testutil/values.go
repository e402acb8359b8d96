package testutil

import "github.com/roach88/morph/internal/ir"

// Ints builds a sample list of ir.Int values.
func Ints(ns ...int64) []ir.Value {
	out := make([]ir.Value, len(ns))
	for i, n := range ns {
		out[i] = ir.Int(n)
	}
	return out
}

// Strs builds a sample list of ir.String values.
func Strs(ss ...string) []ir.Value {
	out := make([]ir.Value, len(ss))
	for i, s := range ss {
		out[i] = ir.String(s)
	}
	return out
}
