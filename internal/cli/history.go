package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/morph/internal/ir"
	"github.com/roach88/morph/internal/queryir"
	"github.com/roach88/morph/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	RunID    string
	Pipeline string
	Failed   bool
	Since    int64
}

// RunDetail is one run with everything recorded under it.
type RunDetail struct {
	Run         ir.Run          `json:"run"`
	Evaluations []ir.Evaluation `json:"evaluations"`
	Checks      []ir.Check      `json:"checks"`
}

// Failures is every failed evaluation and check in the run log.
type Failures struct {
	Evaluations []ir.Evaluation `json:"evaluations"`
	Checks      []ir.Check      `json:"checks"`
}

// PipelineHistory is every recorded evaluation of one pipeline.
type PipelineHistory struct {
	Pipeline    string          `json:"pipeline"`
	Evaluations []ir.Evaluation `json:"evaluations"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the run log",
		Long: `Show what the run log in --db holds.

Without flags, lists every run in the order it started. --run shows one run
with its evaluations and checks; --pipeline shows every evaluation of one
pipeline across runs. --failed keeps only failed evaluations and checks, and
on its own lists every failure in the log. --since keeps what was recorded
after the given seq.

Examples:
  morph history --db ./morph.db
  morph history --db ./morph.db --run 0192...
  morph history --db ./morph.db --pipeline show_next_double
  morph history --db ./morph.db --failed --since 120`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.RunID, "run", "", "show one run")
	cmd.Flags().StringVar(&opts.Pipeline, "pipeline", "", "show one pipeline's evaluations")
	cmd.Flags().BoolVar(&opts.Failed, "failed", false, "only failed evaluations and checks")
	cmd.Flags().Int64Var(&opts.Since, "since", 0, "only entries recorded after this seq")
	cmd.MarkFlagsMutuallyExclusive("run", "pipeline")
	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := cmd.Context()

	st, err := openExistingStore(opts.Database)
	if err != nil {
		_ = f.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open run log", err)
	}
	defer st.Close()

	switch {
	case opts.RunID != "":
		detail, err := readRunDetail(ctx, st, opts.RunID, opts.evaluationFilter(), opts.checkFilter())
		if errors.Is(err, store.ErrNotFound) {
			_ = f.Error(ErrCodeRecordMissing, err.Error(), nil)
			return WrapExitError(ExitCommandError, "run not found", err)
		}
		if err != nil {
			_ = f.Error(ErrCodeStoreFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to read run", err)
		}
		return f.Success(detail, formatRunDetail(detail))

	case opts.Pipeline != "":
		filter := queryir.All(
			queryir.Equals{Column: "pipeline", Value: ir.String(opts.Pipeline)},
			opts.evaluationFilter(),
		)
		evals, err := st.QueryEvaluations(ctx, filter)
		if err != nil {
			_ = f.Error(ErrCodeStoreFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to read pipeline history", err)
		}
		h := PipelineHistory{Pipeline: opts.Pipeline, Evaluations: evals}
		var b strings.Builder
		fmt.Fprintf(&b, "%s: %d evaluation(s)\n", h.Pipeline, len(evals))
		for _, ev := range evals {
			fmt.Fprintf(&b, "  %s\n", formatEvaluation(ev))
		}
		return f.Success(h, b.String())

	case opts.Failed:
		var failures Failures
		if failures.Evaluations, err = st.QueryEvaluations(ctx, opts.evaluationFilter()); err == nil {
			failures.Checks, err = st.QueryChecks(ctx, opts.checkFilter())
		}
		if err != nil {
			_ = f.Error(ErrCodeStoreFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to read failures", err)
		}
		return f.Success(failures, formatFailures(failures))

	default:
		var filter queryir.Predicate
		if opts.Since > 0 {
			filter = queryir.After{Column: "started_seq", Seq: opts.Since}
		}
		runs, err := st.QueryRuns(ctx, filter)
		if err != nil {
			_ = f.Error(ErrCodeStoreFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to read runs", err)
		}
		var b strings.Builder
		if len(runs) == 0 {
			b.WriteString("no runs recorded\n")
		}
		for _, r := range runs {
			fmt.Fprintf(&b, "%6d  %-5s  %s  %s\n", r.StartedSeq, r.Kind, r.ID, r.Subject)
		}
		return f.Success(runs, b.String())
	}
}

// evaluationFilter applies --failed and --since to evaluations.
func (o *HistoryOptions) evaluationFilter() queryir.Predicate {
	var failed queryir.Predicate
	if o.Failed {
		failed = queryir.NotEquals{Column: "error", Value: ir.String("")}
	}
	return queryir.All(failed, o.sinceFilter())
}

// checkFilter applies --failed and --since to checks.
func (o *HistoryOptions) checkFilter() queryir.Predicate {
	var failed queryir.Predicate
	if o.Failed {
		failed = queryir.Equals{Column: "pass", Value: ir.Bool(false)}
	}
	return queryir.All(failed, o.sinceFilter())
}

func (o *HistoryOptions) sinceFilter() queryir.Predicate {
	if o.Since <= 0 {
		return nil
	}
	return queryir.After{Column: "seq", Seq: o.Since}
}

// openExistingStore opens the run log at path, which must already exist.
func openExistingStore(path string) (*store.Store, error) {
	if path == "" {
		return nil, errors.New("no run log: pass --db or set db in morph.yaml")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("run log %s: %w", path, err)
	}
	return store.Open(path)
}

func readRunDetail(ctx context.Context, st *store.Store, id string, evalFilter, checkFilter queryir.Predicate) (RunDetail, error) {
	run, err := st.ReadRun(ctx, id)
	if err != nil {
		return RunDetail{}, err
	}
	byRun := queryir.Equals{Column: "run_id", Value: ir.String(id)}
	evals, err := st.QueryEvaluations(ctx, queryir.All(byRun, evalFilter))
	if err != nil {
		return RunDetail{}, err
	}
	checks, err := st.QueryChecks(ctx, queryir.All(byRun, checkFilter))
	if err != nil {
		return RunDetail{}, err
	}
	return RunDetail{Run: run, Evaluations: evals, Checks: checks}, nil
}

func formatRunDetail(d RunDetail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s (%s %s, seq %d, engine %s)\n", d.Run.ID, d.Run.Kind, d.Run.Subject, d.Run.StartedSeq, d.Run.EngineVersion)
	if len(d.Evaluations) > 0 {
		b.WriteString("\nevaluations:\n")
		for _, ev := range d.Evaluations {
			fmt.Fprintf(&b, "  %s\n", formatEvaluation(ev))
		}
	}
	if len(d.Checks) > 0 {
		b.WriteString("\nchecks:\n")
		for _, c := range d.Checks {
			fmt.Fprintf(&b, "  %s\n", formatCheck(c))
		}
	}
	return b.String()
}

func formatEvaluation(ev ir.Evaluation) string {
	if ev.Error != "" {
		return fmt.Sprintf("%6d ✗ %s(%s): %s", ev.Seq, ev.Pipeline, ir.Format(ev.Input), ev.Error)
	}
	return fmt.Sprintf("%6d   %s(%s) = %s", ev.Seq, ev.Pipeline, ir.Format(ev.Input), ir.Format(ev.Output))
}

func formatCheck(c ir.Check) string {
	mark := "✓"
	if !c.Pass {
		mark = "✗"
	}
	return fmt.Sprintf("%6d %s %s %s(%s): %s | %s", c.Seq, mark, c.Law, c.Subject, ir.Format(c.Sample), c.Left, c.Right)
}

func formatFailures(f Failures) string {
	if len(f.Evaluations) == 0 && len(f.Checks) == 0 {
		return "no failures recorded\n"
	}
	var b strings.Builder
	for _, ev := range f.Evaluations {
		fmt.Fprintf(&b, "%s  run %s\n", formatEvaluation(ev), ev.RunID)
	}
	for _, c := range f.Checks {
		fmt.Fprintf(&b, "%s  run %s\n", formatCheck(c), c.RunID)
	}
	return b.String()
}
