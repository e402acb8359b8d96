// Package compiler turns CUE pipeline definitions into ir.PipelineSpec values
// and checks them before they are linked.
//
// A pipeline is a struct under the top-level "pipeline" field:
//
//	pipeline: show_next_double: {
//		description: "increment, double, render"
//		input:  "int"
//		output: "string"
//		steps: ["inc", "double", "to_string"]
//	}
//
// "steps" lists stages in application order (>>>). "compose" lists them in
// mathematical order (<<<). A step written "@name" refers to another
// pipeline.
package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/morph/internal/ir"
)

// CompilePipeline parses a CUE value into a PipelineSpec.
// Uses the CUE SDK's Go API directly (not a CLI subprocess).
//
// The CUE value should be the pipeline struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`pipeline: p: { ... }`)
//	spec, err := CompilePipeline(v.LookupPath(cue.ParsePath("pipeline.p")))
func CompilePipeline(v cue.Value) (*ir.PipelineSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if v.IncompleteKind() != cue.StructKind {
		return nil, &CompileError{Field: "pipeline", Message: "must be a struct", Pos: v.Pos()}
	}

	spec := &ir.PipelineSpec{}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Name = labels[len(labels)-1].String()
	}

	desc, err := requiredString(v, "description")
	if err != nil {
		return nil, err
	}
	spec.Description = desc

	input, err := requiredString(v, "input")
	if err != nil {
		return nil, err
	}
	if spec.Input, err = parseKind(v, "input", input); err != nil {
		return nil, err
	}

	if out := v.LookupPath(cue.ParsePath("output")); out.Exists() {
		s, err := out.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if spec.Output, err = parseKind(out, "output", s); err != nil {
			return nil, err
		}
	}

	stepsVal := v.LookupPath(cue.ParsePath("steps"))
	composeVal := v.LookupPath(cue.ParsePath("compose"))
	switch {
	case stepsVal.Exists() && composeVal.Exists():
		return nil, &CompileError{
			Field:   "steps",
			Message: "use either steps (>>>) or compose (<<<), not both",
			Pos:     composeVal.Pos(),
		}
	case stepsVal.Exists():
		spec.Order = ir.Forward
		spec.Steps, err = parseSteps(stepsVal, "steps")
	case composeVal.Exists():
		spec.Order = ir.Backward
		spec.Steps, err = parseSteps(composeVal, "compose")
	default:
		return nil, &CompileError{
			Field:   "steps",
			Message: "one of steps or compose is required",
			Pos:     v.Pos(),
		}
	}
	if err != nil {
		return nil, err
	}

	id, err := ir.PipelineID(*spec)
	if err != nil {
		return nil, err
	}
	spec.ID = id

	return spec, nil
}

func requiredString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{
			Field:   field,
			Message: field + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// parseKind converts a kind name. Floats get their own message since they
// are the likeliest mistake.
func parseKind(v cue.Value, field, s string) (ir.Kind, error) {
	switch s {
	case "float", "float32", "float64", "number":
		return "", &CompileError{
			Field:   field,
			Message: "float kinds are not supported, use int instead",
			Pos:     v.Pos(),
		}
	}
	k, err := ir.ParseKind(s)
	if err != nil {
		return "", &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
	}
	return k, nil
}

func parseSteps(v cue.Value, field string) ([]ir.StepRef, error) {
	iter, err := v.List()
	if err != nil {
		return nil, &CompileError{Field: field, Message: "must be a list of step names", Pos: v.Pos()}
	}

	steps := []ir.StepRef{}
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{
				Field:   field,
				Message: fmt.Sprintf("step %d must be a string", len(steps)),
				Pos:     iter.Value().Pos(),
			}
		}
		ref, err := ir.ParseStep(s)
		if err != nil {
			return nil, &CompileError{
				Field:   field,
				Message: fmt.Sprintf("step %d: %v", len(steps), err),
				Pos:     iter.Value().Pos(),
			}
		}
		steps = append(steps, ref)
	}
	return steps, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
