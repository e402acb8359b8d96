package pipeline

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/morph/internal/catalog"
	"github.com/roach88/morph/internal/category"
	"github.com/roach88/morph/internal/ir"
)

var (
	// ErrUnknownPipeline is returned for references to pipelines that were
	// not linked.
	ErrUnknownPipeline = errors.New("unknown pipeline")

	// ErrCycle is returned when pipelines reference each other in a loop.
	ErrCycle = errors.New("pipeline reference cycle")

	// ErrKindMismatch is returned when adjacent stages do not line up.
	ErrKindMismatch = errors.New("kind mismatch")
)

// LinkError reports why a pipeline could not be linked.
type LinkError struct {
	Pipeline string
	Step     string // empty when the whole pipeline is at fault
	Message  string
	Err      error
}

func (e *LinkError) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("pipeline %s, step %s: %s", e.Pipeline, e.Step, e.Message)
	}
	return fmt.Sprintf("pipeline %s: %s", e.Pipeline, e.Message)
}

func (e *LinkError) Unwrap() error {
	return e.Err
}

// Set holds linked pipelines by name.
type Set struct {
	morphisms map[string]Morphism
	specs     map[string]ir.PipelineSpec
	order     []string
}

// Get returns the linked pipeline called name.
func (s *Set) Get(name string) (Morphism, error) {
	m, ok := s.morphisms[name]
	if !ok {
		return Morphism{}, fmt.Errorf("%w: %s", ErrUnknownPipeline, name)
	}
	return m, nil
}

// Spec returns the spec the pipeline called name was linked from.
func (s *Set) Spec(name string) (ir.PipelineSpec, bool) {
	spec, ok := s.specs[name]
	return spec, ok
}

// Names returns pipeline names in link order: a pipeline comes after every
// pipeline it references.
func (s *Set) Names() []string {
	return slices.Clone(s.order)
}

// Len returns the number of linked pipelines.
func (s *Set) Len() int {
	return len(s.order)
}

// Link resolves references between specs and builds one morphism per spec.
//
// Forward pipelines fold category.AndThen over their steps, backward
// pipelines fold category.ComposeWith; both start from Dynamic's identity.
// Kinds are checked before every composition, so Link returns a *LinkError
// where Dynamic.Compose would panic.
func Link(specs []ir.PipelineSpec, registry *catalog.Registry) (*Set, error) {
	byName := make(map[string]ir.PipelineSpec, len(specs))
	for _, spec := range specs {
		if _, dup := byName[spec.Name]; dup {
			return nil, &LinkError{Pipeline: spec.Name, Message: "defined more than once"}
		}
		byName[spec.Name] = spec
	}

	order, err := linkOrder(specs, byName)
	if err != nil {
		return nil, err
	}

	set := &Set{
		morphisms: make(map[string]Morphism, len(specs)),
		specs:     byName,
		order:     order,
	}
	for _, name := range order {
		m, err := build(byName[name], registry, set)
		if err != nil {
			return nil, err
		}
		set.morphisms[name] = m
	}
	return set, nil
}

// linkOrder sorts specs so that references come first. Declaration order is
// kept where references allow it.
func linkOrder(specs []ir.PipelineSpec, byName map[string]ir.PipelineSpec) ([]string, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(specs))
	order := make([]string, 0, len(specs))

	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			cycle := append(path[slices.Index(path, name):], name)
			return &LinkError{Pipeline: name, Message: fmt.Sprintf("reference cycle %v", cycle), Err: ErrCycle}
		}
		state[name] = visiting
		for _, ref := range byName[name].References() {
			if _, ok := byName[ref]; !ok {
				return &LinkError{Pipeline: name, Step: "@" + ref, Message: "references an unknown pipeline", Err: ErrUnknownPipeline}
			}
			if err := visit(ref, append(path, name)); err != nil {
				return err
			}
		}
		state[name] = done
		order = append(order, name)
		return nil
	}

	for _, spec := range specs {
		if err := visit(spec.Name, nil); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func build(spec ir.PipelineSpec, registry *catalog.Registry, set *Set) (Morphism, error) {
	k := Category()
	acc := category.Identity(k)

	for _, step := range spec.Steps {
		stage, err := resolve(spec.Name, step, registry, set)
		if err != nil {
			return Morphism{}, err
		}

		if spec.Order == ir.Backward {
			// acc <<< stage: stage runs before everything linked so far.
			if !acc.From.Accepts(stage.To) {
				return Morphism{}, mismatch(spec.Name, step, acc.From, stage)
			}
			acc = category.ComposeWith(k, acc, stage)
			continue
		}
		// acc >>> stage: stage runs after everything linked so far.
		if !stage.From.Accepts(acc.To) {
			return Morphism{}, mismatch(spec.Name, step, acc.To, stage)
		}
		acc = category.AndThen(k, acc, stage)
	}

	if !acc.From.Accepts(spec.Input) {
		return Morphism{}, &LinkError{
			Pipeline: spec.Name,
			Message:  fmt.Sprintf("declared input %s but first stage expects %s", spec.Input, acc.From),
			Err:      ErrKindMismatch,
		}
	}
	from := narrow(spec.Input, acc.From)
	to := acc.To
	if to == ir.KindAny {
		to = from
	}
	if spec.Output != "" && !spec.Output.Accepts(to) {
		return Morphism{}, &LinkError{
			Pipeline: spec.Name,
			Message:  fmt.Sprintf("declared output %s but pipeline produces %s", spec.Output, to),
			Err:      ErrKindMismatch,
		}
	}

	acc.Name = spec.Name
	acc.From = from
	acc.To = to
	return acc, nil
}

func resolve(pipeline string, step ir.StepRef, registry *catalog.Registry, set *Set) (Morphism, error) {
	if step.Kind == ir.StepPipeline {
		m, err := set.Get(step.Name)
		if err != nil {
			return Morphism{}, &LinkError{Pipeline: pipeline, Step: "@" + step.Name, Message: "references an unknown pipeline", Err: err}
		}
		return m, nil
	}

	p, err := registry.Lookup(step.Name)
	if err != nil {
		return Morphism{}, &LinkError{Pipeline: pipeline, Step: step.Name, Message: "unknown primitive", Err: err}
	}
	return FromPrimitive(p.Name, p.From, p.To, p.Run), nil
}

func mismatch(pipeline string, step ir.StepRef, have ir.Kind, stage Morphism) *LinkError {
	return &LinkError{
		Pipeline: pipeline,
		Step:     step.Name,
		Message:  fmt.Sprintf("%s does not line up with %s", stage.Signature(), have),
		Err:      ErrKindMismatch,
	}
}
