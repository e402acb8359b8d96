package compiler

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/morph/internal/ir"
)

// LoadMode controls how errors are handled during loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Load error codes, shared by every command that loads pipelines.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error

	ErrCodeMissingField = "E101" // Required field missing (description, input, steps)
	ErrCodeInvalidKind  = "E102" // Unknown or float kind
	ErrCodeInvalidStep  = "E103" // Malformed step list
)

// LoadResult contains the pipelines loaded from CUE sources.
type LoadResult struct {
	Pipelines []ir.PipelineSpec
	CUEValue  cue.Value // The raw CUE value for additional processing
	FileCount int       // Number of CUE files found
}

// LoadError represents an error that occurred during loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadDir loads every pipeline from the CUE package in dir. In
// LoadModeFailFast extraction stops at the first bad pipeline; in
// LoadModeCollectAll every bad pipeline is reported.
func LoadDir(dir string, mode LoadMode) (*LoadResult, []error) {
	switch info, err := os.Stat(dir); {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fail(ErrCodeNotFound, "pipelines directory not found: %s", dir)
	case err != nil:
		return nil, fail(ErrCodeNotFound, "error accessing pipelines directory: %v", err)
	case !info.IsDir():
		return nil, fail(ErrCodeNotFound, "not a directory: %s", dir)
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, fail(ErrCodeScanError, "error scanning directory: %v", err)
	}
	if len(files) == 0 {
		return nil, fail(ErrCodeNoFiles, "no CUE files found in %s", dir)
	}

	insts := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(insts) == 0 {
		return nil, fail(ErrCodeLoadFailed, "no CUE instances loaded")
	}
	if insts[0].Err != nil {
		return nil, fail(ErrCodeLoadFailed, "loading CUE files: %v", insts[0].Err)
	}
	value := cuecontext.New().BuildInstance(insts[0])
	if err := value.Err(); err != nil {
		return nil, fail(ErrCodeBuildFailed, "building CUE value: %v", err)
	}
	return extract(value, len(files), mode)
}

// LoadFiles compiles each file on its own and unifies the results, so the
// files may live in different directories and packages.
func LoadFiles(paths []string, mode LoadMode) (*LoadResult, []error) {
	if len(paths) == 0 {
		return nil, fail(ErrCodeNoFiles, "no CUE files given")
	}

	ctx := cuecontext.New()
	value := ctx.CompileString("{}")
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fail(ErrCodeNotFound, "reading %s: %v", path, err)
		}
		v := ctx.CompileBytes(data, cue.Filename(path))
		if err := v.Err(); err != nil {
			return nil, fail(ErrCodeBuildFailed, "building %s: %v", path, err)
		}
		value = value.Unify(v)
	}
	if err := value.Err(); err != nil {
		return nil, fail(ErrCodeBuildFailed, "unifying CUE files: %v", err)
	}
	return extract(value, len(paths), mode)
}

func fail(code, format string, args ...any) []error {
	return []error{&LoadError{Code: code, Message: fmt.Sprintf(format, args...)}}
}

// extract compiles every field under the top-level "pipeline" struct.
func extract(value cue.Value, fileCount int, mode LoadMode) (*LoadResult, []error) {
	result := &LoadResult{CUEValue: value, FileCount: fileCount}

	root := value.LookupPath(cue.ParsePath("pipeline"))
	if !root.Exists() {
		return result, fail(ErrCodeGeneric, "no pipelines found")
	}
	iter, err := root.Fields()
	if err != nil {
		return result, fail(ErrCodeGeneric, "iterating pipelines: %v", err)
	}

	var errs []error
	for iter.Next() {
		spec, err := CompilePipeline(iter.Value())
		if err == nil {
			result.Pipelines = append(result.Pipelines, *spec)
			continue
		}
		errs = append(errs, asLoadError(err, "pipeline."+iter.Selector().String()))
		if mode == LoadModeFailFast {
			break
		}
	}
	if len(result.Pipelines) == 0 && len(errs) == 0 {
		errs = fail(ErrCodeGeneric, "no pipelines found")
	}
	return result, errs
}

// FindCUEFiles returns every .cue file under dir.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".cue") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// asLoadError keeps the CUE position of a CompileError and prefixes the
// pipeline path to its message.
func asLoadError(err error, where string) *LoadError {
	var cerr *CompileError
	if !errors.As(err, &cerr) {
		return &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("%s: %v", where, err)}
	}
	return &LoadError{
		Code:    MapFieldToErrorCode(cerr.Field),
		Message: where + ": " + cerr.Message,
		Pos:     cerr.Pos,
	}
}

// MapFieldToErrorCode picks the load error code for the spec field a
// CompileError names.
func MapFieldToErrorCode(field string) string {
	switch field {
	case "description", "pipeline":
		return ErrCodeMissingField
	case "input", "output":
		return ErrCodeInvalidKind
	case "steps", "compose":
		return ErrCodeInvalidStep
	}
	return ErrCodeGeneric
}
