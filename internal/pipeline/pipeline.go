// Package pipeline links compiled pipeline specs into runnable morphisms.
//
// The objects of this category are ir.Kind values and the morphisms are
// Morphism values. Dynamic is the witness: every pipeline is built by folding
// category.AndThen or category.ComposeWith over its stages, starting from
// Dynamic's identity.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/morph/internal/arrows"
	"github.com/roach88/morph/internal/category"
	"github.com/roach88/morph/internal/ir"
)

// IdentityName is the name of Dynamic's identity morphism.
const IdentityName = "id"

// Morphism is a kind-tagged stage.
type Morphism struct {
	Name string
	From ir.Kind
	To   ir.Kind
	Run  arrows.Effect[ir.Value, ir.Value]

	// Stages lists the primitive names in application order. Identities are
	// left out.
	Stages []string
}

// Apply runs m on v.
func (m Morphism) Apply(ctx context.Context, v ir.Value) (ir.Value, error) {
	return m.Run(ctx, v)
}

// IsIdentity reports whether m is Dynamic's identity.
func (m Morphism) IsIdentity() bool {
	return m.Name == IdentityName && len(m.Stages) == 0
}

// Signature renders m as "name: from -> to".
func (m Morphism) Signature() string {
	return fmt.Sprintf("%s: %s -> %s", m.Name, m.From, m.To)
}

// KindMismatch is the panic value of Dynamic.Compose when the stages do not
// line up.
type KindMismatch struct {
	Outer Morphism
	Inner Morphism
}

func (e *KindMismatch) Error() string {
	return fmt.Sprintf("cannot compose %s after %s: %s does not accept %s",
		e.Outer.Name, e.Inner.Name, e.Outer.From, e.Inner.To)
}

// Dynamic is the category witness for Morphism.
type Dynamic struct{}

var _ category.Category[Morphism, Morphism, Morphism, Morphism] = Dynamic{}

// Identity returns the polymorphic identity.
func (Dynamic) Identity() Morphism {
	return Morphism{
		Name: IdentityName,
		From: ir.KindAny,
		To:   ir.KindAny,
		Run:  arrows.Effects[ir.Value, ir.Value, ir.Value]{}.Identity(),
	}
}

// Compose returns outer ∘ inner. It panics with *KindMismatch if outer cannot
// accept what inner produces; Link checks kinds before composing, so a panic
// here is a programming error.
//
// Composing with the identity returns the other morphism unchanged, so the
// identity law holds on names and kinds as well as behavior.
func (Dynamic) Compose(outer, inner Morphism) Morphism {
	if !outer.From.Accepts(inner.To) {
		panic(&KindMismatch{Outer: outer, Inner: inner})
	}
	if outer.IsIdentity() {
		return inner
	}
	if inner.IsIdentity() {
		return outer
	}

	stages := make([]string, 0, len(inner.Stages)+len(outer.Stages))
	stages = append(stages, inner.Stages...)
	stages = append(stages, outer.Stages...)

	return Morphism{
		Name:   inner.Name + " >>> " + outer.Name,
		From:   narrow(inner.From, outer.From),
		To:     narrow(outer.To, inner.To),
		Run:    arrows.Effects[ir.Value, ir.Value, ir.Value]{}.Compose(outer.Run, inner.Run),
		Stages: stages,
	}
}

// narrow returns k unless it is any, in which case the neighbor's kind
// applies. Polymorphic stages pass values through unchanged.
func narrow(k, through ir.Kind) ir.Kind {
	if k == ir.KindAny {
		return through
	}
	return k
}

// Category returns the Dynamic witness typed as a category.Category.
func Category() category.Category[Morphism, Morphism, Morphism, Morphism] {
	return Dynamic{}
}

// FromPrimitive turns a catalog entry into a single-stage morphism.
func FromPrimitive(name string, from, to ir.Kind, run arrows.Effect[ir.Value, ir.Value]) Morphism {
	return Morphism{Name: name, From: from, To: to, Run: run, Stages: []string{name}}
}

// Rename returns m with a new name.
func (m Morphism) Rename(name string) Morphism {
	m.Name = name
	return m
}

// String renders the stage list.
func (m Morphism) String() string {
	if len(m.Stages) == 0 {
		return IdentityName
	}
	return strings.Join(m.Stages, " >>> ")
}
