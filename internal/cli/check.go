package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/morph/internal/compiler"
	"github.com/roach88/morph/internal/engine"
	"github.com/roach88/morph/internal/harness"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Filter string
	Update bool
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <pipelines-dir> <scenarios-dir>",
		Short: "Check category laws against scenario files",
		Long: `Run every scenario under scenarios-dir against the pipelines in
pipelines-dir.

A scenario passes when every law holds on every sample and, if it has a
golden file (golden/<name>.golden next to the scenario), its trace matches.
Use --update to rewrite golden files from the current traces.

With --db, every run and check is appended to the run log.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (bad directory, invalid filter)

Examples:
  morph check ./pipelines ./scenarios
  morph check ./pipelines ./scenarios --filter 'arith*'
  morph check ./pipelines ./scenarios --update`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run scenarios whose file name matches this glob")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "rewrite golden files")
	return cmd
}

func runCheck(opts *CheckOptions, pipelinesDir, scenariosDir string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	if _, err := os.Stat(scenariosDir); err != nil {
		_ = f.Error(compiler.ErrCodeNotFound, fmt.Sprintf("scenarios directory: %v", err), nil)
		return WrapExitError(ExitCommandError, "scenarios directory not found", err)
	}

	st, closeStore, err := openOptionalStore(opts.Database)
	if err != nil {
		_ = f.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer closeStore()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	suiteOpts := harness.SuiteOptions{
		Options: harness.Options{
			Store:    st,
			Registry: opts.Registry,
			Logger:   opts.Logger(),
		},
		PipelineDir: pipelinesDir,
		Filter:      opts.Filter,
		Update:      opts.Update,
	}
	if st != nil {
		maxSeq, err := st.MaxSeq(ctx)
		if err != nil {
			_ = f.Error(ErrCodeStoreFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to read run log", err)
		}
		suiteOpts.Clock = engine.NewClockAt(maxSeq)
		suiteOpts.RunIDs = engine.UUIDv7Generator{}
	}

	suite, err := harness.RunSuite(ctx, scenariosDir, suiteOpts)
	if err != nil {
		_ = f.Error(compiler.ErrCodeScanError, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to run scenarios", err)
	}

	if suite.Failed > 0 {
		msg := fmt.Sprintf("%d of %d scenario(s) failed", suite.Failed, suite.Total)
		if f.JSON() {
			if err := f.Failure(suite, CLIError{Code: ErrCodeTestFailed, Message: msg}); err != nil {
				return err
			}
		} else {
			fmt.Fprint(f.Writer, formatSuite(suite))
		}
		return NewExitError(ExitFailure, msg)
	}
	return f.Success(suite, formatSuite(suite))
}

func formatSuite(suite *harness.SuiteResult) string {
	var b strings.Builder
	for _, s := range suite.Scenarios {
		mark := "✓"
		if !s.Pass {
			mark = "✗"
		}
		fmt.Fprintf(&b, "%s %s (%d checks)", mark, s.Name, s.Checks)
		if s.GoldenUpdated {
			b.WriteString(" [golden updated]")
		}
		b.WriteString("\n")
		for _, e := range s.Errors {
			for _, line := range strings.Split(strings.TrimRight(e, "\n"), "\n") {
				fmt.Fprintf(&b, "    %s\n", line)
			}
		}
	}
	fmt.Fprintf(&b, "\n%d scenario(s): %d passed, %d failed\n", suite.Total, suite.Passed, suite.Failed)
	return b.String()
}
