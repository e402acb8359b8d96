package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/morph/internal/compiler"
)

// ValidationResult is the validate command's JSON payload.
type ValidationResult struct {
	Valid     bool     `json:"valid"`
	Pipelines []string `json:"pipelines"`
	Files     int      `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [pipelines-dir]",
		Short: "Check pipeline definitions without evaluating anything",
		Long: `Compile and validate every pipeline in a directory, then link them.

Reports every problem found: missing fields, unknown steps or references,
stages whose kinds do not line up, declared signatures that disagree with
the stages, duplicate names and reference cycles.

Exit codes:
  0 - All pipelines are valid
  1 - One or more pipelines are invalid
  2 - The directory could not be loaded`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := rootOpts.pipelinesDir(args)
			if err != nil {
				return err
			}
			return runValidate(rootOpts, dir, cmd)
		},
	}
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	loaded, perrs := loadPipelines(dir, compiler.LoadModeCollectAll, opts.Registry, true)
	if perrs != nil {
		return perrs.report(f, "Validation", "validation")
	}
	f.VerboseLog("Found %d CUE file(s) in %s", loaded.FileCount, dir)

	names := loaded.Set.Names()
	result := ValidationResult{Valid: true, Pipelines: names, Files: loaded.FileCount}
	return f.Success(result, fmt.Sprintf("✓ %d pipeline(s) valid\n", len(names)))
}
