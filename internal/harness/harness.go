package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/morph/internal/catalog"
	"github.com/roach88/morph/internal/category"
	"github.com/roach88/morph/internal/compiler"
	"github.com/roach88/morph/internal/engine"
	"github.com/roach88/morph/internal/ir"
	"github.com/roach88/morph/internal/laws"
	"github.com/roach88/morph/internal/pipeline"
	"github.com/roach88/morph/internal/store"
	"github.com/roach88/morph/internal/testutil"
)

// Options configure Run. The zero value runs against a fresh in-memory
// store with the default catalog, a clock starting at zero and run IDs named
// after the scenario, and discards logs.
type Options struct {
	Store    *store.Store
	Registry *catalog.Registry
	Logger   *slog.Logger

	// Clock and RunIDs replace the deterministic defaults, e.g. to append
	// to a run log that already holds earlier runs.
	Clock  engine.Sequencer
	RunIDs engine.RunIDGenerator
}

// outcome is how the harness observes a morphism on one sample.
type outcome = laws.Outcome[ir.Value]

// harness holds the state of one scenario run.
type harness struct {
	registry *catalog.Registry
	set      *pipeline.Set
	engine   *engine.Engine
	runID    string
	logger   *slog.Logger
	result   *Result
}

// Run checks every law in scenario and returns the trace.
//
// The returned error covers problems that stop the run: pipelines that fail
// to load, validate or link, and store failures. Laws that do not hold, and
// laws that name unknown subjects or compose mismatched kinds, are reported
// through Result.Errors.
func Run(ctx context.Context, scenario *Scenario, opts Options) (*Result, error) {
	registry := opts.Registry
	if registry == nil {
		registry = catalog.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	set, err := linkScenario(scenario, registry)
	if err != nil {
		return nil, err
	}

	st := opts.Store
	if st == nil {
		st, err = store.Open(":memory:")
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		defer st.Close()
	}

	var clock engine.Sequencer = testutil.NewDeterministicClock()
	if opts.Clock != nil {
		clock = opts.Clock
	}
	var runIDs engine.RunIDGenerator = testutil.NewSequentialRunIDs(scenario.Name)
	if opts.RunIDs != nil {
		runIDs = opts.RunIDs
	}
	eng := engine.New(st, set,
		engine.WithClock(clock),
		engine.WithRunIDs(runIDs),
		engine.WithLogger(logger),
	)
	run, err := eng.StartRun(ctx, ir.RunCheck, scenario.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to start run: %w", err)
	}

	h := &harness{
		registry: registry,
		set:      set,
		engine:   eng,
		runID:    run.ID,
		logger:   logger.With("scenario", scenario.Name, "run_id", run.ID),
		result:   NewResult(),
	}
	h.result.RunID = run.ID
	h.result.StartedSeq = run.StartedSeq

	defaults, err := toValues(scenario.Samples)
	if err != nil {
		return nil, fmt.Errorf("samples: %w", err)
	}
	for i, l := range scenario.Laws {
		if err := h.check(ctx, i, l, defaults); err != nil {
			return nil, err
		}
	}

	h.logger.Info("scenario finished", "checks", len(h.result.Trace), "pass", h.result.Pass)
	return h.result, nil
}

// linkScenario compiles, validates and links the scenario's pipelines.
func linkScenario(scenario *Scenario, registry *catalog.Registry) (*pipeline.Set, error) {
	var specs []ir.PipelineSpec
	if len(scenario.Pipelines) > 0 {
		loaded, errs := compiler.LoadFiles(scenario.Pipelines, compiler.LoadModeCollectAll)
		if len(errs) > 0 {
			return nil, fmt.Errorf("failed to load pipelines: %w", errors.Join(errs...))
		}
		specs = loaded.Pipelines
	}

	if verrs := compiler.Validate(specs, registry); len(verrs) > 0 {
		msgs := make([]string, len(verrs))
		for i, v := range verrs {
			msgs[i] = v.Error()
		}
		return nil, fmt.Errorf("invalid pipelines:\n  %s", strings.Join(msgs, "\n  "))
	}

	set, err := pipeline.Link(specs, registry)
	if err != nil {
		return nil, fmt.Errorf("failed to link pipelines: %w", err)
	}
	return set, nil
}

// check runs one law. Configuration problems are added to the result;
// only store failures are returned.
func (h *harness) check(ctx context.Context, index int, l LawSpec, defaults []ir.Value) error {
	samples := defaults
	if len(l.Samples) > 0 {
		var err error
		if samples, err = toValues(l.Samples); err != nil {
			h.result.AddError(fmt.Sprintf("laws[%d].samples: %v", index, err))
			return nil
		}
	}

	if l.Law == LawExpect {
		return h.expect(ctx, index, l)
	}

	names := []string{l.Subject}
	switch l.Law {
	case LawAssociativity:
		names = []string{l.F, l.G, l.H}
	case LawAliases:
		names = []string{l.F, l.G}
	}
	ms := make([]pipeline.Morphism, len(names))
	for i, name := range names {
		m, err := h.resolve(name)
		if err != nil {
			h.result.AddError(fmt.Sprintf("laws[%d]: %v", index, err))
			return nil
		}
		ms[i] = m
	}
	subject := strings.Join(names, " >>> ")

	k := pipeline.Category()
	run := func(m pipeline.Morphism, in ir.Value) outcome {
		return laws.Observe(m.Apply(ctx, in))
	}
	eq := laws.Equal[outcome]

	var law func(sample []ir.Value) error
	var whole func() pipeline.Morphism
	switch l.Law {
	case LawIdentity:
		// Dynamic.Compose short-circuits its own identity, so the law is also
		// observed through the registry's id stage, which composes for real.
		stage, hasStage := h.identityStage()
		law = func(s []ir.Value) error {
			if err := laws.EndoIdentity(k, ms[0], run, eq, s); err != nil || !hasStage {
				return err
			}
			return laws.IdentityLaw(k.Compose, k.Compose, stage, stage, ms[0], run, eq, s)
		}
		whole = func() pipeline.Morphism { return ms[0] }
	case LawAssociativity:
		law = func(s []ir.Value) error { return laws.EndoAssociativity(k, ms[0], ms[1], ms[2], run, eq, s) }
		whole = func() pipeline.Morphism {
			return category.AndThen(k, category.AndThen(k, ms[0], ms[1]), ms[2])
		}
	case LawAliases:
		law = func(s []ir.Value) error { return laws.Aliases(k, ms[0], ms[1], run, eq, s) }
		whole = func() pipeline.Morphism { return category.Compose(k, ms[1], ms[0]) }
	default:
		h.result.AddError(fmt.Sprintf("laws[%d]: unknown law %q", index, l.Law))
		return nil
	}

	var composed pipeline.Morphism
	if err := guard(func() error { composed = whole(); return nil }); err != nil {
		h.result.AddError(fmt.Sprintf("laws[%d]: %v", index, err))
		return nil
	}

	for _, s := range samples {
		ev := TraceEvent{Law: l.Law, Subject: subject, Sample: s, Pass: true}
		err := guard(func() error { return law([]ir.Value{s}) })

		var v *laws.Violation
		switch {
		case err == nil:
			obs := format(run(composed, s))
			ev.Left, ev.Right = obs, obs
		case errors.As(err, &v):
			ev.Pass = false
			ev.Clause = v.Law
			ev.Left, ev.Right = formatAny(v.Left), formatAny(v.Right)
		default:
			h.result.AddError(fmt.Sprintf("laws[%d]: %v", index, err))
			return nil
		}
		if err := h.record(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

// expect evaluates subject on one input and compares with the expected
// output or error. Linked pipelines go through the engine so the evaluation
// is recorded alongside the check.
func (h *harness) expect(ctx context.Context, index int, l LawSpec) error {
	input, err := ir.FromNative(l.Input)
	if err != nil {
		h.result.AddError(fmt.Sprintf("laws[%d].input: %v", index, err))
		return nil
	}

	var got outcome
	if _, linked := h.set.Spec(l.Subject); linked {
		ev, err := h.engine.Evaluate(ctx, h.runID, l.Subject, input)
		var ee *engine.EvalError
		switch {
		case err == nil:
			got = outcome{Value: ev.Output, OK: true}
		case errors.As(err, &ee) && (ee.Code == engine.ErrCodeStageFailed || ee.Code == engine.ErrCodeKindMismatch):
			got = outcome{Err: ee.Message}
		default:
			return err
		}
	} else {
		m, err := h.resolve(l.Subject)
		if err != nil {
			h.result.AddError(fmt.Sprintf("laws[%d]: %v", index, err))
			return nil
		}
		got = laws.Observe(m.Apply(ctx, input))
	}

	ev := TraceEvent{Law: LawExpect, Subject: l.Subject, Sample: input, Left: format(got)}
	if l.Error != "" {
		ev.Right = "error: " + l.Error
		ev.Pass = !got.OK && strings.Contains(got.Err, l.Error)
	} else {
		want, err := ir.FromNative(l.Output)
		if err != nil {
			h.result.AddError(fmt.Sprintf("laws[%d].output: %v", index, err))
			return nil
		}
		ev.Right = ir.Format(want)
		ev.Pass = got.OK && laws.Equal(got.Value, want)
	}
	return h.record(ctx, ev)
}

// record stamps ev through the engine and appends it to the trace.
func (h *harness) record(ctx context.Context, ev TraceEvent) error {
	c, err := h.engine.RecordCheck(ctx, ir.Check{
		RunID:   h.runID,
		Law:     ev.Law,
		Subject: ev.Subject,
		Sample:  ev.Sample,
		Left:    ev.Left,
		Right:   ev.Right,
		Pass:    ev.Pass,
	})
	if err != nil {
		return fmt.Errorf("failed to record check: %w", err)
	}
	ev.Seq = c.Seq

	if !ev.Pass {
		prior := make([]TraceEvent, len(h.result.Trace))
		copy(prior, h.result.Trace)
		h.result.AddError((&LawFailure{Event: ev, Trace: prior}).Error())
	}
	h.result.Trace = append(h.result.Trace, ev)
	return nil
}

// resolve finds name among the linked pipelines, then the catalog.
func (h *harness) resolve(name string) (pipeline.Morphism, error) {
	if m, err := h.set.Get(name); err == nil {
		return m, nil
	}
	p, err := h.registry.Lookup(name)
	if err != nil {
		return pipeline.Morphism{}, fmt.Errorf("unknown subject %q: neither a pipeline nor a primitive", name)
	}
	return pipeline.FromPrimitive(p.Name, p.From, p.To, p.Run), nil
}

// identityStage returns the registry's id primitive as a one-stage
// morphism, if the registry has one.
func (h *harness) identityStage() (pipeline.Morphism, bool) {
	p, err := h.registry.Lookup(pipeline.IdentityName)
	if err != nil {
		return pipeline.Morphism{}, false
	}
	return pipeline.FromPrimitive(p.Name, p.From, p.To, p.Run), true
}

// guard turns a Dynamic.Compose kind panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			km, ok := r.(*pipeline.KindMismatch)
			if !ok {
				panic(r)
			}
			err = km
		}
	}()
	return fn()
}

func format(o outcome) string {
	if !o.OK {
		return "error: " + o.Err
	}
	return ir.Format(o.Value)
}

func formatAny(v any) string {
	if o, ok := v.(outcome); ok {
		return format(o)
	}
	return fmt.Sprint(v)
}
