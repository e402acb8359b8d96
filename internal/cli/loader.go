package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/morph/internal/catalog"
	"github.com/roach88/morph/internal/compiler"
	"github.com/roach88/morph/internal/ir"
	"github.com/roach88/morph/internal/pipeline"
)

// Command error codes, numbered after the compiler's E0xx-E2xx.
const (
	ErrCodeLinkFailed    = "E301" // Validated pipelines failed to link
	ErrCodeBadInput      = "E401" // Input is not a valid value
	ErrCodeEvalAborted   = "E402" // Evaluation stopped before finishing
	ErrCodeDiverged      = "E403" // Replay output differs from the log
	ErrCodeStoreFailed   = "E501" // Run log could not be opened or read
	ErrCodeRecordMissing = "E502" // Run not found in the run log
	ErrCodeTestFailed    = "E_TEST_FAILED"
)

// loadedPipelines is a compiled, validated and linked pipelines directory.
type loadedPipelines struct {
	Specs     []ir.PipelineSpec
	Set       *pipeline.Set
	FileCount int
}

// pipelineErrors is everything wrong with a pipelines directory.
type pipelineErrors struct {
	// Fatal is set when the directory could not be loaded at all.
	Fatal bool
	Items []CLIError
}

func (e *pipelineErrors) add(code, message string, details any) {
	e.Items = append(e.Items, CLIError{Code: code, Message: message, Details: details})
}

// loadPipelines compiles, validates and links dir. Specs come back with
// their content IDs set. With link false the set is left nil.
func loadPipelines(dir string, mode compiler.LoadMode, registry *catalog.Registry, link bool) (*loadedPipelines, *pipelineErrors) {
	perrs := &pipelineErrors{}

	result, errs := compiler.LoadDir(dir, mode)
	if result == nil {
		perrs.Fatal = true
		for _, err := range errs {
			code, msg := loadErrorCode(err)
			perrs.add(code, msg, nil)
		}
		return nil, perrs
	}
	for _, err := range errs {
		code, msg := loadErrorCode(err)
		perrs.add(code, msg, nil)
	}

	out := &loadedPipelines{FileCount: result.FileCount, Specs: result.Pipelines}
	for i := range out.Specs {
		id, err := ir.PipelineID(out.Specs[i])
		if err != nil {
			perrs.add(compiler.ErrCodeGeneric, fmt.Sprintf("pipeline %s: %v", out.Specs[i].Name, err), nil)
			continue
		}
		out.Specs[i].ID = id
	}

	for _, v := range compiler.Validate(out.Specs, registry) {
		perrs.add(v.Code, strings.TrimPrefix(v.Error(), "["+v.Code+"] "), v)
	}
	if len(perrs.Items) > 0 || !link {
		return out, nilIfEmpty(perrs)
	}

	set, err := pipeline.Link(out.Specs, registry)
	if err != nil {
		perrs.add(ErrCodeLinkFailed, err.Error(), nil)
		return out, perrs
	}
	out.Set = set
	return out, nil
}

func nilIfEmpty(e *pipelineErrors) *pipelineErrors {
	if len(e.Items) == 0 {
		return nil
	}
	return e
}

func loadErrorCode(err error) (string, string) {
	var loadErr *compiler.LoadError
	if errors.As(err, &loadErr) {
		msg := loadErr.Message
		if loadErr.Pos.IsValid() {
			msg = fmt.Sprintf("%s:%d:%d: %s", loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column(), msg)
		}
		return loadErr.Code, msg
	}
	return compiler.ErrCodeGeneric, err.Error()
}

// report writes perrs and returns the matching exit error: load failures
// are command errors, validation and link failures are failures.
func (e *pipelineErrors) report(f *OutputFormatter, title, verb string) error {
	code := ExitFailure
	if e.Fatal {
		code = ExitCommandError
	}
	msg := fmt.Sprintf("%s failed with %d error(s)", verb, len(e.Items))

	if f.JSON() {
		if err := f.Failure(e.Items, e.Items[0]); err != nil {
			return err
		}
		return NewExitError(code, msg)
	}

	fmt.Fprintf(f.Writer, "✗ %s failed\n\n", title)
	for _, item := range e.Items {
		fmt.Fprintf(f.Writer, "  %s\n", item)
	}
	return NewExitError(code, msg)
}
