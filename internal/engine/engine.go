package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/morph/internal/catalog"
	"github.com/roach88/morph/internal/ir"
	"github.com/roach88/morph/internal/pipeline"
	"github.com/roach88/morph/internal/store"
)

// DefaultWorkers bounds EvaluateBatch concurrency.
const DefaultWorkers = 8

// Engine evaluates linked pipelines and records what happened.
//
// Thread-safety model:
//   - Evaluate, EvaluateBatch, StartRun, RecordCheck: safe from any goroutine
//   - store writes are serialized by writeMu, so the store sees one writer
//
// Pipelines are pure apart from their context, so evaluation itself runs
// without locks. Only seq assignment and the write that follows it are
// serialized: seq order and store order always agree.
type Engine struct {
	store   *store.Store // nil: nothing is recorded
	set     *pipeline.Set
	clock   Sequencer
	runIDs  RunIDGenerator
	logger  *slog.Logger
	workers int

	writeMu sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the seq source. Use NewClockAt(store.MaxSeq) to resume
// an existing log.
func WithClock(c Sequencer) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithRunIDs sets the run ID generator.
//
// Default: UUIDv7Generator.
func WithRunIDs(g RunIDGenerator) Option {
	return func(e *Engine) {
		e.runIDs = g
	}
}

// WithLogger sets the logger. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithWorkers bounds EvaluateBatch concurrency. Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// New creates an Engine over set. st may be nil, in which case evaluations
// are returned but not recorded.
func New(st *store.Store, set *pipeline.Set, opts ...Option) *Engine {
	e := &Engine{
		store:   st,
		set:     set,
		clock:   NewClock(),
		runIDs:  UUIDv7Generator{},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		workers: DefaultWorkers,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Clock returns the engine's seq source.
func (e *Engine) Clock() Sequencer {
	return e.clock
}

// StartRun stamps and records a new run.
func (e *Engine) StartRun(ctx context.Context, kind, subject string) (ir.Run, error) {
	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	run := ir.Run{
		ID:            e.runIDs.Generate(),
		Kind:          kind,
		Subject:       subject,
		StartedSeq:    e.clock.Next(),
		EngineVersion: ir.EngineVersion,
		IRVersion:     ir.IRVersion,
	}
	if e.store != nil {
		if err := e.store.WriteRun(ctx, run); err != nil {
			return ir.Run{}, err
		}
	}
	e.logger.Debug("run started", "run_id", run.ID, "kind", kind, "subject", subject, "seq", run.StartedSeq)
	return run, nil
}

// Evaluate applies the named pipeline to input and records the result
// under runID.
//
// A failed stage, or an input the pipeline's declared source kind does not
// accept, still produces an Evaluation (with Error set and no Output), which
// is recorded and returned together with an *EvalError.
// Unknown pipelines and cancelled evaluations are not recorded.
func (e *Engine) Evaluate(ctx context.Context, runID, name string, input ir.Value) (ir.Evaluation, error) {
	if input == nil {
		return ir.Evaluation{}, missingInput(name)
	}
	m, pipelineID, err := e.lookup(name)
	if err != nil {
		return ir.Evaluation{}, err
	}

	output, applyErr := Apply(ctx, name, m, input)
	return e.record(ctx, runID, name, pipelineID, input, output, applyErr)
}

// EvaluateBatch applies the named pipeline to every input concurrently,
// bounded by the worker count. Results come back in input order and are
// stamped and recorded in input order after all evaluations finish.
//
// Stage failures are reported per item through Evaluation.Error. The returned
// error is set only when the pipeline is unknown, the context ends, or the
// store rejects a write.
func (e *Engine) EvaluateBatch(ctx context.Context, runID, name string, inputs []ir.Value) ([]ir.Evaluation, error) {
	for _, in := range inputs {
		if in == nil {
			return nil, missingInput(name)
		}
	}
	m, pipelineID, err := e.lookup(name)
	if err != nil {
		return nil, err
	}

	type result struct {
		output ir.Value
		err    error
	}
	results := make([]result, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			out, err := Apply(gctx, name, m, in)
			results[i] = result{output: out, err: err}
			if err != nil && gctx.Err() != nil {
				return classify(name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, classify(name, err)
	}

	evals := make([]ir.Evaluation, len(inputs))
	for i, in := range inputs {
		ev, err := e.record(ctx, runID, name, pipelineID, in, results[i].output, results[i].err)
		if err != nil && !isStageError(err) {
			return nil, err
		}
		evals[i] = ev
	}
	e.logger.Info("batch evaluated", "run_id", runID, "pipeline", name, "count", len(inputs))
	return evals, nil
}

// RecordCheck stamps one law observation with the next seq and its content
// ID, then records it. Any ID or Seq set by the caller is overwritten.
func (e *Engine) RecordCheck(ctx context.Context, c ir.Check) (ir.Check, error) {
	if c.Sample == nil {
		return ir.Check{}, fmt.Errorf("check %s(%s): sample is required", c.Law, c.Subject)
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	seq := e.clock.Next()
	id, err := ir.CheckID(c.RunID, c.Law, c.Subject, c.Sample, seq)
	if err != nil {
		return ir.Check{}, err
	}
	c.ID = id
	c.Seq = seq
	if e.store != nil {
		if err := e.store.WriteCheck(ctx, c); err != nil {
			return ir.Check{}, err
		}
	}
	if c.Pass {
		e.logger.Debug("law held", "run_id", c.RunID, "law", c.Law, "subject", c.Subject, "seq", c.Seq)
	} else {
		e.logger.Warn("law violated",
			"run_id", c.RunID, "law", c.Law, "subject", c.Subject, "seq", c.Seq,
			"sample", ir.Format(c.Sample), "left", c.Left, "right", c.Right)
	}
	return c, nil
}

// Apply runs the pipeline m, linked as name, on input once input's kind
// matches m's declared source. Stages typed "any" do not check kinds
// themselves. Replays use it so they reject the same inputs.
func Apply(ctx context.Context, name string, m pipeline.Morphism, input ir.Value) (ir.Value, error) {
	if !m.From.Accepts(input.Kind()) {
		return nil, &catalog.KindError{Primitive: name, Want: m.From, Got: input.Kind()}
	}
	return m.Apply(ctx, input)
}

func (e *Engine) lookup(name string) (pipeline.Morphism, string, error) {
	m, err := e.set.Get(name)
	if err != nil {
		return pipeline.Morphism{}, "", unknownPipeline(name, err)
	}
	spec, _ := e.set.Spec(name)
	id := spec.ID
	if id == "" {
		if id, err = ir.PipelineID(spec); err != nil {
			return pipeline.Morphism{}, "", fmt.Errorf("pipeline %s: %w", name, err)
		}
	}
	return m, id, nil
}

// record stamps one evaluation, writes it, and logs it. The returned error
// is the classified applyErr, or a store error.
func (e *Engine) record(ctx context.Context, runID, name, pipelineID string, input, output ir.Value, applyErr error) (ir.Evaluation, error) {
	var evalErr *EvalError
	if applyErr != nil {
		evalErr = classify(name, applyErr)
		if evalErr.Code == ErrCodeCancelled {
			return ir.Evaluation{}, evalErr
		}
		output = nil
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	seq := e.clock.Next()
	id, err := ir.EvaluationID(runID, pipelineID, input, seq)
	if err != nil {
		return ir.Evaluation{}, err
	}
	ev := ir.Evaluation{
		ID:       id,
		RunID:    runID,
		Pipeline: name,
		Input:    input,
		Output:   output,
		Seq:      seq,
	}
	if evalErr != nil {
		ev.Error = evalErr.Message
	}

	if e.store != nil {
		if err := e.store.WriteEvaluation(ctx, ev); err != nil {
			return ir.Evaluation{}, err
		}
	}

	if evalErr != nil {
		e.logger.Warn("evaluation failed",
			"run_id", runID, "pipeline", name, "seq", seq,
			"input", ir.Format(input), "code", evalErr.Code, "error", evalErr.Message)
		return ev, evalErr
	}
	e.logger.Debug("evaluated",
		"run_id", runID, "pipeline", name, "seq", seq,
		"input", ir.Format(input), "output", ir.Format(output))
	return ev, nil
}

func isStageError(err error) bool {
	var ee *EvalError
	if !errors.As(err, &ee) {
		return false
	}
	return ee.Code == ErrCodeStageFailed || ee.Code == ErrCodeKindMismatch
}
