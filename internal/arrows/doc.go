// Package arrows provides concrete morphism representations and their
// category.Category witnesses.
//
// Every representation comes in three parts:
//
//   - a morphism type, e.g. Func[A, B] (func(A) B)
//   - a zero-size witness type, e.g. Functions[A, B, C]
//   - a constructor returning the witness as a category.Category, e.g.
//     FunctionCategory[A, B, C](), so generic code can infer the morphism
//     types from the interface instead of the struct
//
// Representations:
//
//	Func[A, B]       func(A) B                               plain functions
//	Partial[A, B]    func(A) (B, bool)                       stops at first false
//	Fallible[A, B]   func(A) (B, error)                      stops at first error
//	State[S, A, B]   func(S, A) (B, S)                       threads S inner to outer
//	Effect[A, B]     func(context.Context, A) (B, error)     Fallible with a context
//
// Composite morphisms return the failing stage's error as is. Wrapping it
// would make Compose(Identity(), f) observably different from f.
//
// Morphisms must not be nil; composition does not check.
package arrows
