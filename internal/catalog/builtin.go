package catalog

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/morph/internal/arrows"
	"github.com/roach88/morph/internal/ir"
)

// Default returns a registry holding the standard primitives.
func Default() *Registry {
	r := NewRegistry()

	r.MustRegister(Primitive{
		Name: "id", From: ir.KindAny, To: ir.KindAny,
		Doc: "returns its input",
		Run: arrows.LiftEffect(arrows.Lift(arrows.Functions[ir.Value, ir.Value, ir.Value]{}.Identity())),
	})

	ints := []struct {
		name, doc string
		fn        func(int64) int64
	}{
		{"inc", "adds one", func(n int64) int64 { return n + 1 }},
		{"dec", "subtracts one", func(n int64) int64 { return n - 1 }},
		{"double", "multiplies by two", func(n int64) int64 { return n * 2 }},
		{"negate", "flips the sign", func(n int64) int64 { return -n }},
		{"square", "multiplies by itself", func(n int64) int64 { return n * n }},
	}
	for _, op := range ints {
		r.MustRegister(Primitive{Name: op.name, From: ir.KindInt, To: ir.KindInt, Doc: op.doc, Run: intOp(op.fn)})
	}

	strs := []struct {
		name, doc string
		fn        func(string) string
	}{
		{"upper", "upper-cases", strings.ToUpper},
		{"lower", "lower-cases", strings.ToLower},
		{"trim", "strips surrounding space", strings.TrimSpace},
		{"nfc", "normalizes to NFC", norm.NFC.String},
		// A Caser is stateful and must not be shared between goroutines.
		{"title", "title-cases words", func(s string) string { return cases.Title(language.Und).String(s) }},
	}
	for _, op := range strs {
		r.MustRegister(Primitive{Name: op.name, From: ir.KindString, To: ir.KindString, Doc: op.doc, Run: stringOp(op.fn)})
	}

	r.MustRegister(Primitive{
		Name: "to_string", From: ir.KindInt, To: ir.KindString,
		Doc: "renders in base 10",
		Run: pure(func(v ir.Value) ir.Value { return ir.String(strconv.FormatInt(int64(v.(ir.Int)), 10)) }),
	})
	r.MustRegister(Primitive{
		Name: "parse_int", From: ir.KindString, To: ir.KindInt,
		Doc: "parses base 10, fails on anything else",
		Run: func(_ context.Context, v ir.Value) (ir.Value, error) {
			n, err := strconv.ParseInt(strings.TrimSpace(string(v.(ir.String))), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("parse_int: %w", err)
			}
			return ir.Int(n), nil
		},
	})
	r.MustRegister(Primitive{
		Name: "length", From: ir.KindString, To: ir.KindInt,
		Doc: "counts runes",
		Run: pure(func(v ir.Value) ir.Value { return ir.Int(len([]rune(string(v.(ir.String))))) }),
	})
	r.MustRegister(Primitive{
		Name: "not", From: ir.KindBool, To: ir.KindBool,
		Doc: "negates",
		Run: pure(func(v ir.Value) ir.Value { return !v.(ir.Bool) }),
	})
	r.MustRegister(Primitive{
		Name: "is_zero", From: ir.KindInt, To: ir.KindBool,
		Doc: "reports whether the input is 0",
		Run: pure(func(v ir.Value) ir.Value { return ir.Bool(v.(ir.Int) == 0) }),
	})
	r.MustRegister(Primitive{
		Name: "size", From: ir.KindList, To: ir.KindInt,
		Doc: "counts elements",
		Run: pure(func(v ir.Value) ir.Value { return ir.Int(len(v.(ir.List))) }),
	})
	r.MustRegister(Primitive{
		Name: "reverse", From: ir.KindList, To: ir.KindList,
		Doc: "reverses element order",
		Run: pure(func(v ir.Value) ir.Value {
			out := slices.Clone(v.(ir.List))
			slices.Reverse(out)
			return out
		}),
	})
	r.MustRegister(Primitive{
		Name: "keys", From: ir.KindRecord, To: ir.KindList,
		Doc: "lists record keys in canonical order",
		Run: pure(func(v ir.Value) ir.Value {
			keys := v.(ir.Record).SortedKeys()
			out := make(ir.List, len(keys))
			for i, k := range keys {
				out[i] = ir.String(k)
			}
			return out
		}),
	})

	return r
}

func pure(f func(ir.Value) ir.Value) arrows.Effect[ir.Value, ir.Value] {
	return arrows.LiftEffect(arrows.Lift(arrows.Func[ir.Value, ir.Value](f)))
}

func intOp(f func(int64) int64) arrows.Effect[ir.Value, ir.Value] {
	return pure(func(v ir.Value) ir.Value { return ir.Int(f(int64(v.(ir.Int)))) })
}

func stringOp(f func(string) string) arrows.Effect[ir.Value, ir.Value] {
	return pure(func(v ir.Value) ir.Value { return ir.String(f(string(v.(ir.String)))) })
}
