package arrows

import (
	"context"

	"github.com/roach88/morph/internal/category"
)

// Effect is a fallible morphism A → B that receives a context. Stages that
// block or do I/O should honor ctx.
type Effect[A, B any] func(context.Context, A) (B, error)

// Apply runs e on a.
func (e Effect[A, B]) Apply(ctx context.Context, a A) (B, error) {
	return e(ctx, a)
}

// Effects is the witness for Effect. The same context is handed to every
// stage; the first error is returned unchanged.
//
// Composition does not check ctx between stages. Cancellation is each stage's
// business, otherwise Compose(Identity(), f) could fail where f alone would
// not.
type Effects[A, B, C any] struct{}

// Identity returns the identity on A.
func (Effects[A, B, C]) Identity() Effect[A, A] {
	return func(_ context.Context, a A) (A, error) { return a, nil }
}

// Compose returns outer ∘ inner.
func (Effects[A, B, C]) Compose(outer Effect[B, C], inner Effect[A, B]) Effect[A, C] {
	return func(ctx context.Context, a A) (C, error) {
		b, err := inner(ctx, a)
		if err != nil {
			var zero C
			return zero, err
		}
		return outer(ctx, b)
	}
}

// EffectCategory returns the Effect witness typed as a category.Category.
func EffectCategory[A, B, C any]() category.Category[Effect[A, B], Effect[A, A], Effect[B, C], Effect[A, C]] {
	return Effects[A, B, C]{}
}
