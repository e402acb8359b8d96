package arrows

import "github.com/roach88/morph/internal/category"

// Partial is a morphism A → B that may have no result. ok is false when a is
// outside the morphism's domain.
type Partial[A, B any] func(A) (B, bool)

// Apply runs p on a.
func (p Partial[A, B]) Apply(a A) (B, bool) {
	return p(a)
}

// Partials is the witness for Partial. A composite has no result as soon as
// one stage has none; later stages do not run.
type Partials[A, B, C any] struct{}

// Identity returns the total identity on A.
func (Partials[A, B, C]) Identity() Partial[A, A] {
	return func(a A) (A, bool) { return a, true }
}

// Compose returns outer ∘ inner.
func (Partials[A, B, C]) Compose(outer Partial[B, C], inner Partial[A, B]) Partial[A, C] {
	return func(a A) (C, bool) {
		b, ok := inner(a)
		if !ok {
			var zero C
			return zero, false
		}
		return outer(b)
	}
}

// PartialCategory returns the Partial witness typed as a category.Category.
func PartialCategory[A, B, C any]() category.Category[Partial[A, B], Partial[A, A], Partial[B, C], Partial[A, C]] {
	return Partials[A, B, C]{}
}
