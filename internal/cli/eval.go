package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/morph/internal/compiler"
	"github.com/roach88/morph/internal/engine"
	"github.com/roach88/morph/internal/ir"
	"github.com/roach88/morph/internal/store"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Inputs []string

	// RunIDs overrides the run ID generator (for tests).
	RunIDs engine.RunIDGenerator
}

// EvalResult is the eval command's JSON payload.
type EvalResult struct {
	RunID       string          `json:"run_id"`
	Pipeline    string          `json:"pipeline"`
	Evaluations []ir.Evaluation `json:"evaluations"`
	Failed      int             `json:"failed"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval [pipelines-dir] <pipeline>",
		Short: "Evaluate a pipeline on one or more inputs",
		Long: `Evaluate a pipeline on JSON inputs.

Several --input flags are evaluated concurrently and reported in the order
given. With --db, the run and every evaluation are recorded in the run log,
and the logical clock resumes where the log left off.

Exit codes:
  0 - Every evaluation succeeded
  1 - At least one evaluation failed
  2 - Command error (bad input, unknown pipeline, invalid pipelines)

Examples:
  morph eval ./pipelines show_next_double --input 3
  morph eval ./pipelines parse --input '"42"' --input '"x"'
  morph eval show_next_double --input 3 --db ./morph.db`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dirArgs, name := args[:len(args)-1], args[len(args)-1]
			dir, err := rootOpts.pipelinesDir(dirArgs)
			if err != nil {
				return err
			}
			return runEval(opts, dir, name, cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Inputs, "input", nil, "input value as JSON (repeatable)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func runEval(opts *EvalOptions, dir, name string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	inputs := make([]ir.Value, len(opts.Inputs))
	for i, raw := range opts.Inputs {
		v, err := ir.ParseValue([]byte(raw))
		if err != nil {
			_ = f.Error(ErrCodeBadInput, fmt.Sprintf("--input %q: %v", raw, err), nil)
			return WrapExitError(ExitCommandError, "invalid input", err)
		}
		inputs[i] = v
	}

	loaded, perrs := loadPipelines(dir, compiler.LoadModeFailFast, opts.Registry, true)
	if perrs != nil {
		perrs.Fatal = true
		return perrs.report(f, "Loading pipelines", "loading pipelines")
	}

	st, closeStore, err := openOptionalStore(opts.Database)
	if err != nil {
		_ = f.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer closeStore()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng, err := newEngine(ctx, st, loaded, opts.RootOptions, opts.RunIDs)
	if err != nil {
		_ = f.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read run log", err)
	}
	run, err := eng.StartRun(ctx, ir.RunEval, name)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to record run", err)
	}

	evals, err := evaluate(ctx, eng, run.ID, name, inputs)
	if err != nil {
		var ee *engine.EvalError
		if errors.As(err, &ee) && ee.Code == engine.ErrCodeUnknownPipeline {
			_ = f.Error(string(ee.Code), ee.Error(), nil)
			return WrapExitError(ExitCommandError, "unknown pipeline", err)
		}
		_ = f.Error(ErrCodeEvalAborted, err.Error(), nil)
		return WrapExitError(ExitCommandError, "evaluation aborted", err)
	}

	result := EvalResult{RunID: run.ID, Pipeline: name, Evaluations: evals}
	var text strings.Builder
	for _, ev := range evals {
		if ev.Error != "" {
			result.Failed++
			fmt.Fprintf(&text, "✗ %s(%s): %s\n", name, ir.Format(ev.Input), ev.Error)
			continue
		}
		fmt.Fprintf(&text, "%s(%s) = %s\n", name, ir.Format(ev.Input), ir.Format(ev.Output))
	}

	if result.Failed > 0 {
		msg := fmt.Sprintf("%d of %d evaluation(s) failed", result.Failed, len(evals))
		if f.JSON() {
			if err := f.Failure(result, CLIError{Code: string(engine.ErrCodeStageFailed), Message: msg}); err != nil {
				return err
			}
		} else {
			fmt.Fprint(f.Writer, text.String())
		}
		return NewExitError(ExitFailure, msg)
	}
	return f.Success(result, text.String())
}

// evaluate runs a single input through Evaluate, so a stage failure still
// yields its recorded evaluation, and several through EvaluateBatch.
func evaluate(ctx context.Context, eng *engine.Engine, runID, name string, inputs []ir.Value) ([]ir.Evaluation, error) {
	if len(inputs) == 1 {
		ev, err := eng.Evaluate(ctx, runID, name, inputs[0])
		if err != nil && ev.ID == "" {
			return nil, err
		}
		return []ir.Evaluation{ev}, nil
	}
	return eng.EvaluateBatch(ctx, runID, name, inputs)
}

// openOptionalStore opens path, or returns a nil store when path is empty.
func openOptionalStore(path string) (*store.Store, func(), error) {
	if path == "" {
		return nil, func() {}, nil
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return st, func() { _ = st.Close() }, nil
}

// newEngine builds an engine whose clock resumes after the store's last seq.
func newEngine(ctx context.Context, st *store.Store, loaded *loadedPipelines, opts *RootOptions, runIDs engine.RunIDGenerator) (*engine.Engine, error) {
	engineOpts := []engine.Option{
		engine.WithLogger(opts.Logger()),
		engine.WithWorkers(opts.Workers),
	}
	if runIDs != nil {
		engineOpts = append(engineOpts, engine.WithRunIDs(runIDs))
	}
	if st != nil {
		maxSeq, err := st.MaxSeq(ctx)
		if err != nil {
			return nil, err
		}
		engineOpts = append(engineOpts, engine.WithClock(engine.NewClockAt(maxSeq)))
	}
	return engine.New(st, loaded.Set, engineOpts...), nil
}
