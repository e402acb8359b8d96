package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/morph/internal/harness"
	"github.com/roach88/morph/internal/ir"
)

const lawsScenario = `name: arith-laws
description: identity and associativity on the arithmetic pipelines
pipelines:
  - arith.cue
samples: [0, 3]
laws:
  - law: identity
    subject: show_next_double
  - law: associativity
    f: inc
    g: double
    h: to_string
  - law: expect
    subject: round_trip
    input: 12
    output: 12
`

const wrongScenario = `name: wrong-expectation
description: an expectation that does not hold
pipelines:
  - arith.cue
laws:
  - law: expect
    subject: show_next_double
    input: 1
    output: "5"
`

func writeScenarios(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
	}
	return dir
}

func TestCheck_Pass(t *testing.T) {
	scenarios := writeScenarios(t, map[string]string{"laws.yaml": lawsScenario})

	out, _, err := executeCommand(t, "check", arithDir(t), scenarios)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ arith-laws (5 checks)")
	assert.Contains(t, out, "1 scenario(s): 1 passed, 0 failed")
}

func TestCheck_Failure(t *testing.T) {
	scenarios := writeScenarios(t, map[string]string{
		"laws.yaml":  lawsScenario,
		"wrong.yaml": wrongScenario,
	})

	out, _, err := executeCommand(t, "check", arithDir(t), scenarios, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var suite harness.SuiteResult
	resp := decodeResponse(t, out, &suite)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
	assert.Equal(t, 2, suite.Total)
	assert.Equal(t, 1, suite.Failed)
	require.Len(t, suite.Scenarios, 2)
	assert.True(t, suite.Scenarios[0].Pass)
	assert.False(t, suite.Scenarios[1].Pass)
	assert.Contains(t, suite.Scenarios[1].Errors[0], "Law failed: expect on show_next_double")
}

func TestCheck_Filter(t *testing.T) {
	scenarios := writeScenarios(t, map[string]string{
		"laws.yaml":  lawsScenario,
		"wrong.yaml": wrongScenario,
	})

	out, _, err := executeCommand(t, "check", arithDir(t), scenarios, "--filter", "law*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 scenario(s): 1 passed")
	assert.NotContains(t, out, "wrong-expectation")
}

func TestCheck_UpdateThenCompare(t *testing.T) {
	dir := arithDir(t)
	scenarios := writeScenarios(t, map[string]string{"laws.yaml": lawsScenario})

	out, _, err := executeCommand(t, "check", dir, scenarios, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "[golden updated]")
	assert.FileExists(t, filepath.Join(scenarios, "golden", "laws.golden"))

	_, _, err = executeCommand(t, "check", dir, scenarios)
	require.NoError(t, err)

	// The trace is the same when appended to a run log that already has
	// history.
	db := filepath.Join(t.TempDir(), "morph.db")
	recordEval(t, dir, db, "parse", `"1"`)
	_, _, err = executeCommand(t, "check", dir, scenarios, "--db", db)
	require.NoError(t, err)
}

func TestCheck_RecordsToRunLog(t *testing.T) {
	dir := arithDir(t)
	db := filepath.Join(t.TempDir(), "morph.db")
	scenarios := writeScenarios(t, map[string]string{"laws.yaml": lawsScenario})

	_, _, err := executeCommand(t, "check", dir, scenarios, "--db", db)
	require.NoError(t, err)
	_, _, err = executeCommand(t, "check", dir, scenarios, "--db", db)
	require.NoError(t, err)

	out, _, err := executeCommand(t, "history", "--db", db, "--format", "json")
	require.NoError(t, err)

	var runs []ir.Run
	decodeResponse(t, out, &runs)
	require.Len(t, runs, 2)
	assert.Equal(t, ir.RunCheck, runs[0].Kind)
	assert.Equal(t, "arith-laws", runs[0].Subject)
	assert.NotEqual(t, runs[0].ID, runs[1].ID)
	assert.Greater(t, runs[1].StartedSeq, runs[0].StartedSeq)

	out, _, err = executeCommand(t, "history", "--db", db, "--run", runs[1].ID)
	require.NoError(t, err)
	assert.Contains(t, out, "checks:")
	assert.Contains(t, out, "✓ identity show_next_double(3)")
}

func TestCheck_MissingScenarios(t *testing.T) {
	out, _, err := executeCommand(t, "check", arithDir(t), filepath.Join(t.TempDir(), "none"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "[E005]")
}
