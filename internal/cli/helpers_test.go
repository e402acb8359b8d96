package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const arithCUE = `package pipelines

pipeline: show_next_double: {
	description: "increment, double, render"
	input:       "int"
	output:      "string"
	steps: ["inc", "double", "to_string"]
}

pipeline: parse: {
	description: "read a base 10 int"
	input:       "string"
	output:      "int"
	steps: ["trim", "parse_int"]
}

pipeline: round_trip: {
	description: "render then read back"
	input:       "int"
	steps: ["to_string", "@parse"]
}
`

// executeCommand runs the full command tree with args, isolated from any
// user config file.
func executeCommand(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cmd := NewRootCommand()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

// writePipelines writes files (name to CUE source) to a fresh directory.
func writePipelines(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
	}
	return dir
}

func arithDir(t *testing.T) string {
	t.Helper()
	return writePipelines(t, map[string]string{"arith.cue": arithCUE})
}

// decodeResponse parses a JSON envelope, decoding Data into data when
// data is non-nil.
func decodeResponse(t *testing.T, out string, data any) CLIResponse {
	t.Helper()
	var raw struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
		Error  *CLIError       `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &raw), "output: %s", out)
	if data != nil {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return CLIResponse{Status: raw.Status, Error: raw.Error}
}
