// Package catalog holds the primitive morphisms pipelines are built from.
//
// A primitive is a named Effect over ir.Value with a declared source and
// target kind. The compiler checks kinds between adjacent stages, so a
// primitive only sees values of its source kind unless it is called
// directly.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/roach88/morph/internal/arrows"
	"github.com/roach88/morph/internal/ir"
)

// ErrUnknownPrimitive is returned by Lookup for names not in the registry.
var ErrUnknownPrimitive = errors.New("unknown primitive")

// ErrDuplicatePrimitive is returned by Register for a name already taken.
var ErrDuplicatePrimitive = errors.New("duplicate primitive")

// Primitive is a named stage.
type Primitive struct {
	Name string
	From ir.Kind
	To   ir.Kind
	Doc  string
	Run  arrows.Effect[ir.Value, ir.Value]
}

// KindError reports a value of the wrong kind reaching a primitive.
type KindError struct {
	Primitive string
	Want      ir.Kind
	Got       ir.Kind
}

func (e *KindError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Primitive, e.Want, e.Got)
}

// Registry maps names to primitives. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	prims map[string]Primitive
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{prims: make(map[string]Primitive)}
}

// Register adds p. Run is wrapped so it checks the input kind and the
// context before doing any work.
func (r *Registry) Register(p Primitive) error {
	if p.Name == "" {
		return fmt.Errorf("register primitive: empty name")
	}
	if p.Run == nil {
		return fmt.Errorf("register primitive %q: nil Run", p.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.prims[p.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicatePrimitive, p.Name)
	}
	p.Run = guard(p.Name, p.From, p.Run)
	r.prims[p.Name] = p
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(p Primitive) {
	if err := r.Register(p); err != nil {
		panic(err)
	}
}

// Lookup returns the primitive called name.
func (r *Registry) Lookup(name string) (Primitive, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.prims[name]
	if !ok {
		return Primitive{}, fmt.Errorf("%w: %s", ErrUnknownPrimitive, name)
	}
	return p, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, err := r.Lookup(name)
	return err == nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.prims))
	for name := range r.prims {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// All returns every primitive sorted by name.
func (r *Registry) All() []Primitive {
	names := r.Names()
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Primitive, len(names))
	for i, name := range names {
		out[i] = r.prims[name]
	}
	return out
}

func guard(name string, from ir.Kind, run arrows.Effect[ir.Value, ir.Value]) arrows.Effect[ir.Value, ir.Value] {
	return func(ctx context.Context, v ir.Value) (ir.Value, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if v == nil {
			return nil, &KindError{Primitive: name, Want: from, Got: "none"}
		}
		if !from.Accepts(v.Kind()) {
			return nil, &KindError{Primitive: name, Want: from, Got: v.Kind()}
		}
		return run(ctx, v)
	}
}
