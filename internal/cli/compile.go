package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/morph/internal/compiler"
	"github.com/roach88/morph/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string
}

// CompilationResult is the compiled IR.
type CompilationResult struct {
	IRVersion string            `json:"ir_version"`
	Pipelines []ir.PipelineSpec `json:"pipelines"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile [pipelines-dir]",
		Short: "Compile CUE pipelines to IR",
		Long: `Compile CUE pipeline definitions to IR with content-addressed IDs.

Pipelines are validated first; nothing is written unless every pipeline
is valid. Pipelines are listed in link order, so a pipeline comes after
every pipeline it references.

Examples:
  morph compile ./pipelines
  morph compile ./pipelines -o pipelines.json
  morph compile ./pipelines --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := rootOpts.pipelinesDir(args)
			if err != nil {
				return err
			}
			return runCompile(opts, dir, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	return cmd
}

func runCompile(opts *CompileOptions, dir string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	loaded, perrs := loadPipelines(dir, compiler.LoadModeCollectAll, opts.Registry, true)
	if perrs != nil {
		return perrs.report(f, "Compilation", "compilation")
	}
	f.VerboseLog("Found %d CUE file(s) in %s", loaded.FileCount, dir)

	result := CompilationResult{IRVersion: ir.IRVersion}
	for _, name := range loaded.Set.Names() {
		spec, _ := loaded.Set.Spec(name)
		f.VerboseLog("Compiled %s (%s)", name, spec.ID)
		result.Pipelines = append(result.Pipelines, spec)
	}

	if opts.Output != "" {
		if err := writeIR(result, opts.Output); err != nil {
			_ = f.Error(compiler.ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "writing output file", err)
		}
	}

	var text strings.Builder
	fmt.Fprintf(&text, "✓ Compiled %d pipeline(s)\n\n", len(result.Pipelines))
	for _, spec := range result.Pipelines {
		fmt.Fprintf(&text, "  %s\n    %s\n", spec, spec.ID)
	}
	if opts.Output != "" {
		fmt.Fprintf(&text, "\nWrote IR to %s\n", opts.Output)
	}
	return f.Success(result, text.String())
}

// writeIR writes indented JSON. Canonical JSON is only used for hashing.
func writeIR(result CompilationResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling IR: %w", err)
	}
	if err := os.WriteFile(filename, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
