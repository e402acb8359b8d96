package category

// Category is implemented by the witness of a morphism representation.
//
// Self is the morphism A → B the witness composes on the inner side, CAA the
// identity on A, CBC a morphism B → C, and CAC their composite A → C.
type Category[Self, CAA, CBC, CAC any] interface {
	// Identity returns the identity morphism on the source object.
	Identity() CAA

	// Compose returns outer ∘ inner: inner runs first, then outer.
	Compose(outer CBC, inner Self) CAC
}

// Identity returns the identity morphism of k.
func Identity[Self, CAA, CBC, CAC any](k Category[Self, CAA, CBC, CAC]) CAA {
	return k.Identity()
}

// Compose returns outer ∘ inner using k.
func Compose[Self, CAA, CBC, CAC any](k Category[Self, CAA, CBC, CAC], outer CBC, inner Self) CAC {
	return k.Compose(outer, inner)
}

// AndThen is left-to-right composition (>>>): first runs inner, then outer.
// AndThen(k, f, g) is always k.Compose(g, f).
func AndThen[Self, CAA, CBC, CAC any](k Category[Self, CAA, CBC, CAC], inner Self, outer CBC) CAC {
	return k.Compose(outer, inner)
}

// ComposeWith is right-to-left composition (<<<). It is an alias of Compose
// kept for notational symmetry with AndThen.
func ComposeWith[Self, CAA, CBC, CAC any](k Category[Self, CAA, CBC, CAC], outer CBC, inner Self) CAC {
	return k.Compose(outer, inner)
}
