package arrows

import "github.com/roach88/morph/internal/category"

// State is a morphism A → B that reads and replaces a state S.
type State[S, A, B any] func(S, A) (B, S)

// Apply runs st on a starting from state s. It returns the result and the
// final state.
func (st State[S, A, B]) Apply(s S, a A) (B, S) {
	return st(s, a)
}

// States is the witness for State. Inner sees the incoming state, outer sees
// the state inner left behind.
type States[S, A, B, C any] struct{}

// Identity returns the identity on A; it leaves the state untouched.
func (States[S, A, B, C]) Identity() State[S, A, A] {
	return func(s S, a A) (A, S) { return a, s }
}

// Compose returns outer ∘ inner.
func (States[S, A, B, C]) Compose(outer State[S, B, C], inner State[S, A, B]) State[S, A, C] {
	return func(s S, a A) (C, S) {
		b, s1 := inner(s, a)
		return outer(s1, b)
	}
}

// StateCategory returns the State witness typed as a category.Category.
func StateCategory[S, A, B, C any]() category.Category[State[S, A, B], State[S, A, A], State[S, B, C], State[S, A, C]] {
	return States[S, A, B, C]{}
}
