package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/morph/internal/ir"
)

// recordEval runs eval against db and returns the run ID.
func recordEval(t *testing.T, dir, db, pipeline string, inputs ...string) string {
	t.Helper()
	args := []string{"eval", dir, pipeline, "--db", db, "--format", "json"}
	for _, in := range inputs {
		args = append(args, "--input", in)
	}
	out, _, _ := executeCommand(t, args...)

	var p evalPayload
	decodeResponse(t, out, &p)
	require.NotEmpty(t, p.RunID)
	return p.RunID
}

func TestHistory_Runs(t *testing.T) {
	dir := arithDir(t)
	db := filepath.Join(t.TempDir(), "morph.db")

	first := recordEval(t, dir, db, "show_next_double", "1", "2")
	second := recordEval(t, dir, db, "parse", `"7"`)

	out, _, err := executeCommand(t, "history", "--db", db, "--format", "json")
	require.NoError(t, err)

	var runs []ir.Run
	decodeResponse(t, out, &runs)
	require.Len(t, runs, 2)
	assert.Equal(t, first, runs[0].ID)
	assert.Equal(t, second, runs[1].ID)
	assert.Equal(t, ir.RunEval, runs[0].Kind)
	assert.Equal(t, "parse", runs[1].Subject)
	// The clock resumes after the first run's two evaluations.
	assert.Equal(t, int64(1), runs[0].StartedSeq)
	assert.Equal(t, int64(4), runs[1].StartedSeq)

	out, _, err = executeCommand(t, "history", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, first)
	assert.Contains(t, out, "show_next_double")
}

func TestHistory_Run(t *testing.T) {
	dir := arithDir(t)
	db := filepath.Join(t.TempDir(), "morph.db")
	runID := recordEval(t, dir, db, "parse", `"5"`, `"x"`)

	out, _, err := executeCommand(t, "history", "--db", db, "--run", runID)
	require.NoError(t, err)
	assert.Contains(t, out, "run "+runID+" (eval parse, seq 1")
	assert.Contains(t, out, `parse("5") = 5`)
	assert.Contains(t, out, `✗ parse("x"): parse_int`)
	assert.NotContains(t, out, "checks:")
}

func TestHistory_Pipeline(t *testing.T) {
	dir := arithDir(t)
	db := filepath.Join(t.TempDir(), "morph.db")
	recordEval(t, dir, db, "show_next_double", "1")
	recordEval(t, dir, db, "parse", `"1"`)
	recordEval(t, dir, db, "show_next_double", "2")

	out, _, err := executeCommand(t, "history", "--db", db, "--pipeline", "show_next_double")
	require.NoError(t, err)
	assert.Contains(t, out, "show_next_double: 2 evaluation(s)")
	assert.Contains(t, out, `show_next_double(1) = "4"`)
	assert.Contains(t, out, `show_next_double(2) = "6"`)
	assert.NotContains(t, out, "parse(")
}

func TestHistory_Errors(t *testing.T) {
	dir := arithDir(t)
	db := filepath.Join(t.TempDir(), "morph.db")
	recordEval(t, dir, db, "parse", `"1"`)

	t.Run("unknown run", func(t *testing.T) {
		out, _, err := executeCommand(t, "history", "--db", db, "--run", "nope")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, out, "[E502]")
	})

	t.Run("missing run log", func(t *testing.T) {
		out, _, err := executeCommand(t, "history", "--db", filepath.Join(t.TempDir(), "none.db"))
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, out, "[E501]")
	})

	t.Run("no db", func(t *testing.T) {
		out, _, err := executeCommand(t, "history")
		require.Error(t, err)
		assert.Contains(t, out, "pass --db")
	})

	t.Run("run and pipeline together", func(t *testing.T) {
		_, _, err := executeCommand(t, "history", "--db", db, "--run", "a", "--pipeline", "b")
		require.Error(t, err)
	})
}

func TestHistory_Failed(t *testing.T) {
	dir := arithDir(t)
	db := filepath.Join(t.TempDir(), "morph.db")
	runID := recordEval(t, dir, db, "parse", `"5"`, `"x"`)
	recordEval(t, dir, db, "parse", `"y"`)

	out, _, err := executeCommand(t, "history", "--db", db, "--failed")
	require.NoError(t, err)
	assert.Contains(t, out, `✗ parse("x")`)
	assert.Contains(t, out, `✗ parse("y")`)
	assert.NotContains(t, out, `parse("5")`)

	out, _, err = executeCommand(t, "history", "--db", db, "--run", runID, "--failed")
	require.NoError(t, err)
	assert.Contains(t, out, `✗ parse("x")`)
	assert.NotContains(t, out, `parse("5")`)
	assert.NotContains(t, out, `parse("y")`)
}

func TestHistory_FailedEmpty(t *testing.T) {
	dir := arithDir(t)
	db := filepath.Join(t.TempDir(), "morph.db")
	recordEval(t, dir, db, "parse", `"5"`)

	out, _, err := executeCommand(t, "history", "--db", db, "--failed")
	require.NoError(t, err)
	assert.Equal(t, "no failures recorded\n", out)
}

func TestHistory_Since(t *testing.T) {
	dir := arithDir(t)
	db := filepath.Join(t.TempDir(), "morph.db")
	recordEval(t, dir, db, "show_next_double", "1") // run seq 1, evaluation seq 2
	second := recordEval(t, dir, db, "show_next_double", "2")

	out, _, err := executeCommand(t, "history", "--db", db, "--since", "2", "--format", "json")
	require.NoError(t, err)
	var runs []ir.Run
	decodeResponse(t, out, &runs)
	require.Len(t, runs, 1)
	assert.Equal(t, second, runs[0].ID)

	out, _, err = executeCommand(t, "history", "--db", db, "--pipeline", "show_next_double", "--since", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "show_next_double: 1 evaluation(s)")
	assert.Contains(t, out, `show_next_double(2) = "6"`)
}
