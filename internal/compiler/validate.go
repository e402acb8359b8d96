package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/morph/internal/catalog"
	"github.com/roach88/morph/internal/ir"
)

// Validation error codes (E200-E299)
const (
	ErrDescriptionEmpty = "E201" // description is required
	ErrEmptyPipeline    = "E202" // at least one step required
	ErrUnknownStep      = "E203" // step names no primitive
	ErrUnknownReference = "E204" // @step names no pipeline
	ErrStageMismatch    = "E205" // adjacent stages do not line up
	ErrSignature        = "E206" // declared input/output disagrees with stages
	ErrDuplicateName    = "E207" // pipeline defined twice
	ErrReferenceCycle   = "E208" // pipelines reference each other in a loop
	ErrInvalidKind      = "E209" // unknown kind name
	ErrInvalidOrder     = "E210" // order is neither forward nor backward
)

// ValidationError represents a pipeline validation error.
type ValidationError struct {
	Pipeline string `json:"pipeline,omitempty"`
	Field    string `json:"field"`
	Message  string `json:"message"`
	Code     string `json:"code"`
	Line     int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	field := e.Field
	if e.Pipeline != "" {
		field = e.Pipeline + "." + e.Field
	}
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, field, e.Message)
}

// signature is the inferred shape of a pipeline.
type signature struct {
	from, to ir.Kind
	ok       bool
}

// Validate checks specs against the registry and against each other.
// Returns all errors found (does not fail-fast).
//
// Kind checking follows references: a step "@p" has the signature inferred
// for p. Pipelines on a reference cycle are reported once by the cycle check
// and skipped by kind checking.
func Validate(specs []ir.PipelineSpec, registry *catalog.Registry) []ValidationError {
	var errs []ValidationError

	known := make(map[string]bool, len(specs))
	for _, spec := range specs {
		known[spec.Name] = true
	}

	byName := make(map[string]ir.PipelineSpec, len(specs))
	for i, spec := range specs {
		if _, dup := byName[spec.Name]; dup {
			errs = append(errs, ValidationError{
				Pipeline: spec.Name,
				Field:    fmt.Sprintf("pipelines[%d].name", i),
				Message:  fmt.Sprintf("duplicate pipeline name: %q", spec.Name),
				Code:     ErrDuplicateName,
			})
			continue
		}
		byName[spec.Name] = spec
		errs = append(errs, validateShape(spec, known, registry)...)
	}

	cycles := DetectCycles(specs)
	onCycle := make(map[string]bool)
	for _, c := range cycles {
		for _, name := range c.Path {
			onCycle[name] = true
		}
		errs = append(errs, ValidationError{
			Pipeline: c.Path[0],
			Field:    "steps",
			Message:  c.Message,
			Code:     ErrReferenceCycle,
		})
	}

	sigs := make(map[string]signature, len(byName))
	var infer func(name string) signature
	infer = func(name string) signature {
		if sig, done := sigs[name]; done {
			return sig
		}
		spec, found := byName[name]
		if !found || onCycle[name] {
			sigs[name] = signature{}
			return signature{}
		}
		// Mark before recursing; cycles are excluded above.
		sigs[name] = signature{}
		sig, kindErrs := checkKinds(spec, registry, infer)
		sigs[name] = sig
		errs = append(errs, kindErrs...)
		return sig
	}
	for _, spec := range specs {
		infer(spec.Name)
	}

	return errs
}

// validateShape checks everything that does not need kind inference.
func validateShape(spec ir.PipelineSpec, known map[string]bool, registry *catalog.Registry) []ValidationError {
	var errs []ValidationError
	add := func(field, code, format string, args ...any) {
		errs = append(errs, ValidationError{
			Pipeline: spec.Name,
			Field:    field,
			Message:  fmt.Sprintf(format, args...),
			Code:     code,
		})
	}

	if strings.TrimSpace(spec.Description) == "" {
		add("description", ErrDescriptionEmpty, "description is required and must be non-empty")
	}
	if len(spec.Steps) == 0 {
		add("steps", ErrEmptyPipeline, "at least one step is required (use [\"id\"] for the identity)")
	}
	if _, err := ir.ParseKind(string(spec.Input)); err != nil {
		add("input", ErrInvalidKind, "%v", err)
	}
	if spec.Output != "" {
		if _, err := ir.ParseKind(string(spec.Output)); err != nil {
			add("output", ErrInvalidKind, "%v", err)
		}
	}
	if spec.Order != ir.Forward && spec.Order != ir.Backward {
		add("order", ErrInvalidOrder, "invalid order %q, must be %q or %q", spec.Order, ir.Forward, ir.Backward)
	}

	for i, step := range spec.Steps {
		field := fmt.Sprintf("steps[%d]", i)
		switch step.Kind {
		case ir.StepPipeline:
			if !known[step.Name] {
				add(field, ErrUnknownReference, "unknown pipeline %q", step.Name)
			}
		default:
			if !registry.Has(step.Name) {
				add(field, ErrUnknownStep, "unknown primitive %q", step.Name)
			}
		}
	}
	return errs
}

// checkKinds infers the signature of spec stage by stage in application
// order. The returned signature is not ok if any stage could not be typed.
func checkKinds(spec ir.PipelineSpec, registry *catalog.Registry, infer func(string) signature) (signature, []ValidationError) {
	var errs []ValidationError
	if _, err := ir.ParseKind(string(spec.Input)); err != nil {
		return signature{}, nil
	}

	cur := spec.Input
	first := true
	from := spec.Input
	applied := spec.Applied()
	for i, step := range applied {
		var stepFrom, stepTo ir.Kind
		if step.Kind == ir.StepPipeline {
			sig := infer(step.Name)
			if !sig.ok {
				return signature{}, errs
			}
			stepFrom, stepTo = sig.from, sig.to
		} else {
			p, err := registry.Lookup(step.Name)
			if err != nil {
				return signature{}, errs
			}
			stepFrom, stepTo = p.From, p.To
		}

		if !stepFrom.Accepts(cur) {
			code, field := ErrStageMismatch, stepField(spec, i)
			msg := fmt.Sprintf("%s expects %s but receives %s", step.Name, stepFrom, cur)
			if first {
				code = ErrSignature
				msg = fmt.Sprintf("declared input %s but first stage %s expects %s", spec.Input, step.Name, stepFrom)
			}
			errs = append(errs, ValidationError{Pipeline: spec.Name, Field: field, Message: msg, Code: code})
			return signature{}, errs
		}
		if first && from == ir.KindAny {
			from = stepFrom
		}
		if stepTo != ir.KindAny {
			cur = stepTo
		}
		first = false
	}

	if spec.Output != "" && !spec.Output.Accepts(cur) {
		errs = append(errs, ValidationError{
			Pipeline: spec.Name,
			Field:    "output",
			Message:  fmt.Sprintf("declared output %s but pipeline produces %s", spec.Output, cur),
			Code:     ErrSignature,
		})
		return signature{}, errs
	}

	return signature{from: from, to: cur, ok: true}, errs
}

// stepField maps an application-order index back to the written position.
func stepField(spec ir.PipelineSpec, applied int) string {
	if spec.Order == ir.Backward {
		return fmt.Sprintf("compose[%d]", len(spec.Steps)-1-applied)
	}
	return fmt.Sprintf("steps[%d]", applied)
}
