package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/morph/internal/ir"
)

func TestCompile_Text(t *testing.T) {
	out, _, err := executeCommand(t, "compile", arithDir(t))
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Compiled 3 pipeline(s)")
	assert.Contains(t, out, "show_next_double = inc >>> double >>> to_string")
	assert.Contains(t, out, "round_trip = to_string >>> @parse")
}

func TestCompile_OutputFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "pipelines.json")

	out, _, err := executeCommand(t, "compile", arithDir(t), "-o", target)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote IR to "+target)

	data, err := os.ReadFile(target)
	require.NoError(t, err)

	var result CompilationResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, ir.IRVersion, result.IRVersion)
	require.Len(t, result.Pipelines, 3)

	pos := make(map[string]int)
	for i, spec := range result.Pipelines {
		pos[spec.Name] = i
		assert.Equal(t, ir.MustPipelineID(spec), spec.ID, spec.Name)
	}
	assert.Less(t, pos["parse"], pos["round_trip"], "referenced pipelines come first")
}

func TestCompile_IDsAreStable(t *testing.T) {
	dir := arithDir(t)

	first, _, err := executeCommand(t, "compile", dir, "--format", "json")
	require.NoError(t, err)
	second, _, err := executeCommand(t, "compile", dir, "--format", "json")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCompile_InvalidWritesNothing(t *testing.T) {
	dir := writePipelines(t, map[string]string{"broken.cue": brokenCUE})
	target := filepath.Join(t.TempDir(), "pipelines.json")

	out, _, err := executeCommand(t, "compile", dir, "-o", target)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Compilation failed")
	assert.NoFileExists(t, target)
}

func TestCompile_UnwritableOutput(t *testing.T) {
	target := filepath.Join(t.TempDir(), "missing", "pipelines.json")

	out, _, err := executeCommand(t, "compile", arithDir(t), "-o", target)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "[E007]")
}
