package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/morph/internal/catalog"
)

// EvalErrorCode categorizes evaluation errors.
type EvalErrorCode string

const (
	// ErrCodeUnknownPipeline indicates the set has no pipeline by that name.
	ErrCodeUnknownPipeline EvalErrorCode = "UNKNOWN_PIPELINE"

	// ErrCodeKindMismatch indicates a value reached a stage that does not
	// accept its kind.
	ErrCodeKindMismatch EvalErrorCode = "KIND_MISMATCH"

	// ErrCodeStageFailed indicates a stage returned an error of its own.
	ErrCodeStageFailed EvalErrorCode = "STAGE_FAILED"

	// ErrCodeCancelled indicates the context ended before the pipeline did.
	ErrCodeCancelled EvalErrorCode = "CANCELLED"
)

// EvalError is an error detected while evaluating a pipeline.
type EvalError struct {
	Code     EvalErrorCode
	Pipeline string
	Message  string
	Err      error
}

// Error implements the error interface.
func (e *EvalError) Error() string {
	if e.Pipeline != "" {
		return fmt.Sprintf("%s: %s (pipeline=%s)", e.Code, e.Message, e.Pipeline)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *EvalError) Unwrap() error {
	return e.Err
}

// IsCancelled reports whether err is an evaluation cut short by its context.
// Uses errors.As to handle wrapped errors.
func IsCancelled(err error) bool {
	var ee *EvalError
	if errors.As(err, &ee) {
		return ee.Code == ErrCodeCancelled
	}
	return false
}

// classify wraps an error returned by a morphism.
func classify(name string, err error) *EvalError {
	var kerr *catalog.KindError
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &EvalError{Code: ErrCodeCancelled, Pipeline: name, Message: err.Error(), Err: err}
	case errors.As(err, &kerr):
		return &EvalError{Code: ErrCodeKindMismatch, Pipeline: name, Message: err.Error(), Err: err}
	default:
		return &EvalError{Code: ErrCodeStageFailed, Pipeline: name, Message: err.Error(), Err: err}
	}
}

func unknownPipeline(name string, err error) *EvalError {
	return &EvalError{Code: ErrCodeUnknownPipeline, Pipeline: name, Message: "no such pipeline", Err: err}
}

func missingInput(name string) *EvalError {
	return &EvalError{Code: ErrCodeKindMismatch, Pipeline: name, Message: "input is required"}
}
