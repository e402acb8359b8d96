// Package category defines the Category contract shared by every morphism
// representation in morph.
//
// A category is a collection of objects and morphisms between them. Each
// object has an identity morphism, and morphisms compose when the target of
// one is the source of the next. Here a representation of "arrows from A to B"
// takes part by providing a witness value that implements Category.
//
// # Type Parameters
//
// Go interfaces have no associated types, so the four morphism types of one
// composition step are explicit parameters:
//
//	Self  the inner morphism, A → B
//	CAA   the identity morphism on A
//	CBC   the outer morphism, B → C
//	CAC   the composite, A → C
//
// The object types A, B, C never appear on their own; they are encoded in the
// morphism types the witness chooses. Witnesses in internal/arrows use the
// conventional shape (Func[A, A], Func[B, C], Func[A, C], ...) and expose a
// constructor that returns the witness typed as this interface.
//
// # Spellings
//
// Composition has three spellings, all backed by Compose:
//
//	Compose(k, g, f)      g ∘ f   (right to left)
//	AndThen(k, f, g)      f >>> g (left to right, "f then g")
//	ComposeWith(k, g, f)  g <<< f (right to left)
//
// AndThen and ComposeWith are package functions rather than interface
// methods, so a witness cannot give them behavior that differs from Compose.
//
// # Laws
//
// Implementations must satisfy, for all morphisms f: A→B, g: B→C, h: C→D:
//
//	Compose(f, Identity())        ≡ f
//	Compose(Identity(), f)        ≡ f
//	Compose(h, Compose(g, f))     ≡ Compose(Compose(h, g), f)
//
// The type system cannot check these. internal/laws checks them against
// sample inputs.
//
// Witnesses carry no state. Identity and Compose must be pure and safe for
// concurrent use.
package category
