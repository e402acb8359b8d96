package arrows

import "github.com/roach88/morph/internal/category"

// Fallible is a morphism A → B that can fail with an error.
type Fallible[A, B any] func(A) (B, error)

// Apply runs f on a.
func (f Fallible[A, B]) Apply(a A) (B, error) {
	return f(a)
}

// Fallibles is the witness for Fallible. The composite returns the first
// error unchanged and skips the remaining stages.
type Fallibles[A, B, C any] struct{}

// Identity returns the identity on A, which never fails.
func (Fallibles[A, B, C]) Identity() Fallible[A, A] {
	return func(a A) (A, error) { return a, nil }
}

// Compose returns outer ∘ inner.
func (Fallibles[A, B, C]) Compose(outer Fallible[B, C], inner Fallible[A, B]) Fallible[A, C] {
	return func(a A) (C, error) {
		b, err := inner(a)
		if err != nil {
			var zero C
			return zero, err
		}
		return outer(b)
	}
}

// FallibleCategory returns the Fallible witness typed as a category.Category.
func FallibleCategory[A, B, C any]() category.Category[Fallible[A, B], Fallible[A, A], Fallible[B, C], Fallible[A, C]] {
	return Fallibles[A, B, C]{}
}
