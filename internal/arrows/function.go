package arrows

import "github.com/roach88/morph/internal/category"

// Func is a plain function morphism A → B.
type Func[A, B any] func(A) B

// Apply runs f on a.
func (f Func[A, B]) Apply(a A) B {
	return f(a)
}

// Functions is the witness for Func. Composing Func[A, B] with Func[B, C]
// yields Func[A, C].
type Functions[A, B, C any] struct{}

var _ category.Category[Func[int, bool], Func[int, int], Func[bool, string], Func[int, string]] = Functions[int, bool, string]{}

// Identity returns the identity function on A.
func (Functions[A, B, C]) Identity() Func[A, A] {
	return func(a A) A { return a }
}

// Compose returns outer ∘ inner.
func (Functions[A, B, C]) Compose(outer Func[B, C], inner Func[A, B]) Func[A, C] {
	return func(a A) C { return outer(inner(a)) }
}

// FunctionCategory returns the Func witness typed as a category.Category.
func FunctionCategory[A, B, C any]() category.Category[Func[A, B], Func[A, A], Func[B, C], Func[A, C]] {
	return Functions[A, B, C]{}
}

// Endo returns the witness for functions A → A, where identity, inner, outer
// and composite all share one type.
func Endo[A any]() category.Category[Func[A, A], Func[A, A], Func[A, A], Func[A, A]] {
	return Functions[A, A, A]{}
}
