package harness

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// GoldenMismatchError is reported when a scenario's trace differs from its
// golden file.
type GoldenMismatchError struct {
	Scenario   string
	GoldenPath string
}

func (e *GoldenMismatchError) Error() string {
	return fmt.Sprintf("trace of %q does not match golden file %s (run with --update to regenerate)", e.Scenario, e.GoldenPath)
}

// SuiteOptions configure RunSuite.
type SuiteOptions struct {
	Options

	// PipelineDir resolves relative pipeline paths. Empty means relative to
	// each scenario file.
	PipelineDir string

	// Filter is a glob matched against scenario file names without extension.
	Filter string

	// Update rewrites golden files instead of comparing against them.
	Update bool
}

// SuiteResult summarizes a directory of scenarios.
type SuiteResult struct {
	Total     int               `json:"total"`
	Passed    int               `json:"passed"`
	Failed    int               `json:"failed"`
	Scenarios []ScenarioOutcome `json:"scenarios"`
}

// ScenarioOutcome is the result of one scenario file.
type ScenarioOutcome struct {
	Name          string   `json:"name"`
	Path          string   `json:"path"`
	Pass          bool     `json:"pass"`
	Checks        int      `json:"checks"`
	GoldenUpdated bool     `json:"golden_updated,omitempty"`
	Errors        []string `json:"errors,omitempty"`
}

// FindScenarios returns the .yaml and .yml files under dir, sorted, whose
// base name without extension matches filter. An empty filter matches all.
// The golden directory is skipped.
func FindScenarios(dir, filter string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "golden" && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// GoldenPath returns <dir>/golden/<name>.golden for a scenario file.
func GoldenPath(scenarioFile string) string {
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(scenarioFile), "golden", name+".golden")
}

// RunSuite runs every scenario under dir. Each scenario passes when all of
// its laws hold and, if a golden file exists, its trace matches it.
//
// The returned error is set only when dir cannot be scanned; scenario load
// and run failures are reported per scenario.
func RunSuite(ctx context.Context, dir string, opts SuiteOptions) (*SuiteResult, error) {
	files, err := FindScenarios(dir, opts.Filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find scenarios: %w", err)
	}

	suite := &SuiteResult{Scenarios: make([]ScenarioOutcome, 0, len(files))}
	for _, file := range files {
		out := runScenarioFile(ctx, file, opts)
		suite.Total++
		if out.Pass {
			suite.Passed++
		} else {
			suite.Failed++
		}
		suite.Scenarios = append(suite.Scenarios, out)
	}
	return suite, nil
}

func runScenarioFile(ctx context.Context, file string, opts SuiteOptions) ScenarioOutcome {
	out := ScenarioOutcome{Name: filepath.Base(file), Path: file}
	fail := func(format string, args ...any) ScenarioOutcome {
		out.Pass = false
		out.Errors = append(out.Errors, fmt.Sprintf(format, args...))
		return out
	}

	var scenario *Scenario
	var err error
	if opts.PipelineDir != "" {
		scenario, err = LoadScenarioWithBasePath(file, opts.PipelineDir)
	} else {
		scenario, err = LoadScenario(file)
	}
	if err != nil {
		return fail("failed to load scenario: %v", err)
	}
	out.Name = scenario.Name

	result, err := Run(ctx, scenario, opts.Options)
	if err != nil {
		return fail("execution failed: %v", err)
	}
	out.Checks = len(result.Trace)
	out.Pass = result.Pass
	out.Errors = append(out.Errors, result.Errors...)

	data, err := Snapshot(scenario.Name, result).MarshalCanonical()
	if err != nil {
		return fail("failed to marshal trace: %v", err)
	}
	goldenPath := GoldenPath(file)

	if opts.Update {
		if err := os.MkdirAll(filepath.Dir(goldenPath), 0o755); err != nil {
			return fail("failed to create golden directory: %v", err)
		}
		if err := os.WriteFile(goldenPath, data, 0o644); err != nil {
			return fail("failed to write golden file: %v", err)
		}
		out.GoldenUpdated = true
		return out
	}

	golden, err := os.ReadFile(goldenPath)
	if os.IsNotExist(err) {
		return out
	}
	if err != nil {
		return fail("failed to read golden file: %v", err)
	}
	if !bytes.Equal(golden, data) {
		return fail("%v", &GoldenMismatchError{Scenario: scenario.Name, GoldenPath: goldenPath})
	}
	return out
}
