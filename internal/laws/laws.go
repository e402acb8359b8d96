// Package laws checks the category laws against sample inputs.
//
// Morphisms are opaque values, usually functions, so the checkers observe
// them through a run function and compare observations with an eq predicate.
// Each checker returns nil when the law held for every sample, or a
// *Violation describing the first counterexample.
//
// The general checkers take compose functions rather than a witness because
// one law instance can span several witnesses: the identity law for
// f: A → B uses id_A on one side and id_B on the other. Method values such as
// arrows.Functions[int, int, string]{}.Compose fit directly. The Endo
// variants cover witnesses whose four morphism types coincide.
package laws

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/roach88/morph/internal/category"
)

// Law names used in violations and traces.
const (
	LawLeftIdentity  = "left_identity"
	LawRightIdentity = "right_identity"
	LawAssociativity = "associativity"
	LawAndThen       = "and_then_alias"
	LawComposeWith   = "compose_with_alias"
)

// Violation is a counterexample to a law.
type Violation struct {
	Law    string
	Sample any
	Left   any
	Right  any
}

func (v *Violation) Error() string {
	return fmt.Sprintf("%s violated at sample %v: left=%v right=%v", v.Law, v.Sample, v.Left, v.Right)
}

// IsViolation reports whether err is, or wraps, a *Violation.
func IsViolation(err error) bool {
	var v *Violation
	return errors.As(err, &v)
}

// Equal is the default observation comparison.
func Equal[T any](a, b T) bool {
	return reflect.DeepEqual(a, b)
}

// Outcome is an observation of a morphism that can fail or be undefined.
// Err is compared by message so distinct error values with the same text
// count as the same outcome.
type Outcome[T any] struct {
	Value T
	OK    bool
	Err   string
}

// Observe builds an Outcome from a value and an error.
func Observe[T any](v T, err error) Outcome[T] {
	if err != nil {
		return Outcome[T]{Err: err.Error()}
	}
	return Outcome[T]{Value: v, OK: true}
}

// ObserveOK builds an Outcome from a value and a presence flag.
func ObserveOK[T any](v T, ok bool) Outcome[T] {
	if !ok {
		return Outcome[T]{}
	}
	return Outcome[T]{Value: v, OK: true}
}

// compare runs two morphisms over every sample and reports the first
// disagreement.
func compare[M1, M2, In, Out any](law string, left M1, right M2, runL func(M1, In) Out, runR func(M2, In) Out, eq func(Out, Out) bool, samples []In) error {
	for _, s := range samples {
		l, r := runL(left, s), runR(right, s)
		if !eq(l, r) {
			return &Violation{Law: law, Sample: s, Left: l, Right: r}
		}
	}
	return nil
}

// IdentityLaw checks f ∘ id_A ≡ f and id_B ∘ f ≡ f.
//
// right composes f with the identity on its source, left composes the
// identity on its target with f.
func IdentityLaw[F, IA, IB, In, Out any](
	right func(outer F, inner IA) F,
	left func(outer IB, inner F) F,
	idA IA, idB IB, f F,
	run func(F, In) Out, eq func(Out, Out) bool, samples []In,
) error {
	if err := compare(LawRightIdentity, right(f, idA), f, run, run, eq, samples); err != nil {
		return err
	}
	return compare(LawLeftIdentity, left(idB, f), f, run, run, eq, samples)
}

// Associativity checks h ∘ (g ∘ f) ≡ (h ∘ g) ∘ f.
//
// gf and hgf build the left bracketing, hg and hgR the right one.
func Associativity[F, G, H, GF, HG, HGF, In, Out any](
	gf func(outer G, inner F) GF,
	hgf func(outer H, inner GF) HGF,
	hg func(outer H, inner G) HG,
	hgR func(outer HG, inner F) HGF,
	f F, g G, h H,
	run func(HGF, In) Out, eq func(Out, Out) bool, samples []In,
) error {
	left := hgf(h, gf(g, f))
	right := hgR(hg(h, g), f)
	return compare(LawAssociativity, left, right, run, run, eq, samples)
}

// Aliases checks that AndThen and ComposeWith agree with Compose on k.
func Aliases[Self, CAA, CBC, CAC, In, Out any](
	k category.Category[Self, CAA, CBC, CAC],
	f Self, g CBC,
	run func(CAC, In) Out, eq func(Out, Out) bool, samples []In,
) error {
	want := category.Compose(k, g, f)
	if err := compare(LawAndThen, category.AndThen(k, f, g), want, run, run, eq, samples); err != nil {
		return err
	}
	return compare(LawComposeWith, category.ComposeWith(k, g, f), want, run, run, eq, samples)
}

// EndoIdentity is IdentityLaw for a witness whose morphism types coincide.
func EndoIdentity[M, In, Out any](
	k category.Category[M, M, M, M], f M,
	run func(M, In) Out, eq func(Out, Out) bool, samples []In,
) error {
	id := k.Identity()
	return IdentityLaw(k.Compose, k.Compose, id, id, f, run, eq, samples)
}

// EndoAssociativity is Associativity for a witness whose morphism types
// coincide.
func EndoAssociativity[M, In, Out any](
	k category.Category[M, M, M, M], f, g, h M,
	run func(M, In) Out, eq func(Out, Out) bool, samples []In,
) error {
	return Associativity(k.Compose, k.Compose, k.Compose, k.Compose, f, g, h, run, eq, samples)
}
