package cli

import (
	"bytes"
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
	"github.com/roach88/morph/internal/pipeline"
	"github.com/roach88/morph/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	RunID string
}

// ReplayResult is the replay command's JSON payload.
type ReplayResult struct {
	RunID     string        `json:"run_id"`
	Replayed  int           `json:"replayed"`
	Diverged  int           `json:"diverged"`
	Redefined int           `json:"redefined"`
	Items     []ReplayEntry `json:"items"`
}

// ReplayEntry compares one recorded evaluation with its replay.
type ReplayEntry struct {
	Seq      int64    `json:"seq"`
	Pipeline string   `json:"pipeline"`
	Input    ir.Value `json:"input"`
	Recorded string   `json:"recorded"`
	Replayed string   `json:"replayed"`
	Match    bool     `json:"match"`

	// Redefined is set when the pipeline's definition has changed since
	// the evaluation was recorded.
	Redefined bool `json:"redefined,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay [pipelines-dir]",
		Short: "Re-evaluate a recorded run and compare",
		Long: `Re-evaluate every evaluation recorded under --run with the current
pipelines and compare each result with the recorded one.

Nothing is written to the run log. Evaluations whose pipeline definition has
changed since they were recorded are marked as redefined.

Exit codes:
  0 - Every replayed result matches the log
  1 - At least one result differs
  2 - Command error (missing run log, unknown run, invalid pipelines)

Examples:
  morph replay ./pipelines --db ./morph.db --run 0192...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := rootOpts.pipelinesDir(args)
			if err != nil {
				return err
			}
			return runReplay(opts, dir, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.RunID, "run", "", "run to replay")
	_ = cmd.MarkFlagRequired("run")
	return cmd
}

func runReplay(opts *ReplayOptions, dir string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openExistingStore(opts.Database)
	if err != nil {
		_ = f.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open run log", err)
	}
	defer st.Close()

	run, err := st.ReadRun(ctx, opts.RunID)
	if err != nil {
		code := ErrCodeStoreFailed
		if errors.Is(err, store.ErrNotFound) {
			code = ErrCodeRecordMissing
		}
		_ = f.Error(code, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}
	evals, err := st.ReadEvaluations(ctx, run.ID)
	if err != nil {
		_ = f.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to read evaluations", err)
	}

	loaded, perrs := loadPipelines(dir, compiler.LoadModeFailFast, opts.Registry, true)
	if perrs != nil {
		perrs.Fatal = true
		return perrs.report(f, "Loading pipelines", "loading pipelines")
	}

	result := ReplayResult{RunID: run.ID, Items: make([]ReplayEntry, 0, len(evals))}
	for _, ev := range evals {
		entry, err := replayOne(ctx, loaded.Set, ev)
		if err != nil {
			_ = f.Error(ErrCodeEvalAborted, err.Error(), nil)
			return WrapExitError(ExitCommandError, "replay aborted", err)
		}
		result.Replayed++
		if !entry.Match {
			result.Diverged++
		}
		if entry.Redefined {
			result.Redefined++
		}
		result.Items = append(result.Items, entry)
	}
	opts.Logger().Info("replayed run", "run_id", run.ID, "replayed", result.Replayed, "diverged", result.Diverged)

	text := formatReplay(result)
	if result.Diverged > 0 {
		msg := fmt.Sprintf("%d of %d evaluation(s) diverged", result.Diverged, result.Replayed)
		if f.JSON() {
			if err := f.Failure(result, CLIError{Code: ErrCodeDiverged, Message: msg}); err != nil {
				return err
			}
		} else {
			fmt.Fprint(f.Writer, text)
		}
		return NewExitError(ExitFailure, msg)
	}
	return f.Success(result, text)
}

// replayOne re-applies ev's pipeline to ev's input. Only a cancelled context
// is returned as an error; a pipeline that no longer exists is a divergence.
func replayOne(ctx context.Context, set *pipeline.Set, ev ir.Evaluation) (ReplayEntry, error) {
	entry := ReplayEntry{
		Seq:      ev.Seq,
		Pipeline: ev.Pipeline,
		Input:    ev.Input,
		Recorded: recordedResult(ev),
	}

	m, err := set.Get(ev.Pipeline)
	if err != nil {
		entry.Replayed = "error: no such pipeline"
		return entry, nil
	}
	if spec, ok := set.Spec(ev.Pipeline); ok {
		if id, err := ir.EvaluationID(ev.RunID, spec.ID, ev.Input, ev.Seq); err == nil {
			entry.Redefined = id != ev.ID
		}
	}

	out, applyErr := engine.Apply(ctx, ev.Pipeline, m, ev.Input)
	if err := ctx.Err(); err != nil {
		return ReplayEntry{}, fmt.Errorf("replay of seq %d: %w", ev.Seq, err)
	}
	if applyErr != nil {
		entry.Replayed = "error: " + applyErr.Error()
		entry.Match = ev.Error == applyErr.Error()
		return entry, nil
	}

	entry.Replayed = ir.Format(out)
	if ev.Error == "" && ev.Output != nil {
		want, werr := ir.MarshalCanonical(ev.Output)
		got, gerr := ir.MarshalCanonical(out)
		entry.Match = werr == nil && gerr == nil && bytes.Equal(want, got)
	}
	return entry, nil
}

func recordedResult(ev ir.Evaluation) string {
	if ev.Error != "" {
		return "error: " + ev.Error
	}
	return ir.Format(ev.Output)
}

func formatReplay(r ReplayResult) string {
	var b strings.Builder
	for _, e := range r.Items {
		mark := "✓"
		if !e.Match {
			mark = "✗"
		}
		fmt.Fprintf(&b, "%6d %s %s(%s)", e.Seq, mark, e.Pipeline, ir.Format(e.Input))
		if e.Match {
			fmt.Fprintf(&b, " = %s", e.Replayed)
		} else {
			fmt.Fprintf(&b, ": recorded %s, replayed %s", e.Recorded, e.Replayed)
		}
		if e.Redefined {
			b.WriteString(" [redefined]")
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\n%d replayed, %d diverged, %d redefined\n", r.Replayed, r.Diverged, r.Redefined)
	return b.String()
}
