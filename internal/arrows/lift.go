package arrows

import "context"

// Lift turns a total function into a Fallible that never fails.
func Lift[A, B any](f Func[A, B]) Fallible[A, B] {
	return func(a A) (B, error) { return f(a), nil }
}

// LiftPartial turns a total function into a Partial defined everywhere.
func LiftPartial[A, B any](f Func[A, B]) Partial[A, B] {
	return func(a A) (B, bool) { return f(a), true }
}

// LiftEffect turns a Fallible into an Effect that ignores its context.
func LiftEffect[A, B any](f Fallible[A, B]) Effect[A, B] {
	return func(_ context.Context, a A) (B, error) { return f(a) }
}

// LiftState turns a total function into a State arrow that leaves S as is.
func LiftState[S, A, B any](f Func[A, B]) State[S, A, B] {
	return func(s S, a A) (B, S) { return f(a), s }
}

// Guard builds a Partial from a predicate and a function: the result is
// defined only where ok(a) holds.
func Guard[A, B any](ok func(A) bool, f Func[A, B]) Partial[A, B] {
	return func(a A) (B, bool) {
		if !ok(a) {
			var zero B
			return zero, false
		}
		return f(a), true
	}
}

// Chain folds endomorphisms left to right (first to last) with the Endo
// witness. An empty chain is the identity.
func Chain[A any](steps ...Func[A, A]) Func[A, A] {
	k := Functions[A, A, A]{}
	out := k.Identity()
	for _, step := range steps {
		out = k.Compose(step, out)
	}
	return out
}
