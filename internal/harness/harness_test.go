package harness

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/morph/internal/catalog"
	"github.com/roach88/morph/internal/ir"
	"github.com/roach88/morph/internal/store"
	"github.com/roach88/morph/internal/testutil"
)

func loadTestScenario(t *testing.T, path string) *Scenario {
	t.Helper()
	s, err := LoadScenario(path)
	require.NoError(t, err)
	return s
}

func TestRun_ExampleScenariosPass(t *testing.T) {
	tests := []struct {
		path       string
		wantChecks int
	}{
		// 2 identity + 2 associativity + 2 aliases laws on 4 samples, 3 expects
		{"testdata/scenarios/arithmetic_laws.yaml", 6*4 + 3},
		// 3 laws on 3 samples, 1 law on its own 3 samples, 2 expects
		{"testdata/scenarios/string_laws.yaml", 3*3 + 3 + 2},
		{"testdata/scenarios/golden_small.yaml", 5},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			result, err := Run(context.Background(), loadTestScenario(t, tt.path), Options{Logger: testutil.Logger(t)})
			require.NoError(t, err)

			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
			assert.Len(t, result.Trace, tt.wantChecks)
		})
	}
}

func TestRun_IsDeterministic(t *testing.T) {
	s := loadTestScenario(t, "testdata/scenarios/arithmetic_laws.yaml")

	first, err := Run(context.Background(), s, Options{})
	require.NoError(t, err)
	second, err := Run(context.Background(), s, Options{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "arithmetic-laws-1", first.RunID)
}

func TestRun_RecordsChecksAndEvaluations(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	ctx := context.Background()

	result, err := Run(ctx, loadTestScenario(t, "testdata/scenarios/golden_small.yaml"), Options{Store: st})
	require.NoError(t, err)

	run, err := st.ReadRun(ctx, result.RunID)
	require.NoError(t, err)
	assert.Equal(t, ir.RunCheck, run.Kind)
	assert.Equal(t, "golden-small", run.Subject)

	checks, err := st.ReadChecks(ctx, result.RunID)
	require.NoError(t, err)
	require.Len(t, checks, len(result.Trace))
	for i, c := range checks {
		assert.Equal(t, result.Trace[i].Seq, c.Seq)
		assert.Equal(t, result.Trace[i].Law, c.Law)
		assert.Equal(t, result.Trace[i].Left, c.Left)
		assert.True(t, c.Pass)
	}

	evals, err := st.ReadEvaluations(ctx, result.RunID)
	require.NoError(t, err)
	require.Len(t, evals, 2, "expect laws on linked pipelines go through the engine")
	assert.Equal(t, ir.String("8"), evals[0].Output)
	assert.Nil(t, evals[1].Output)
	assert.Contains(t, evals[1].Error, "parse_int")
}

func TestRun_ExpectMismatchFails(t *testing.T) {
	s := &Scenario{
		Name:        "wrong",
		Description: "expects the wrong answer",
		Laws: []LawSpec{
			{Law: LawExpect, Subject: "double", Input: 2, Output: 5},
			{Law: LawExpect, Subject: "parse_int", Input: "7", Error: "invalid"},
		},
	}

	result, err := Run(context.Background(), s, Options{})
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Trace, 2)
	assert.Equal(t, "4", result.Trace[0].Left)
	assert.Equal(t, "5", result.Trace[0].Right)
	assert.Equal(t, "7", result.Trace[1].Left)
	assert.Equal(t, "error: invalid", result.Trace[1].Right)

	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "Law failed: expect on double")
	assert.Contains(t, result.Errors[0], "Left: 4")
	assert.Contains(t, result.Errors[1], "Earlier checks:")
	assert.Len(t, result.Failed(), 2)
}

// tickRegistry has a primitive that answers differently every call, which
// breaks the identity law.
func tickRegistry(t *testing.T) *catalog.Registry {
	t.Helper()
	reg := catalog.Default()
	var n atomic.Int64
	require.NoError(t, reg.Register(catalog.Primitive{
		Name: "tick", From: ir.KindInt, To: ir.KindInt, Doc: "counts calls",
		Run: func(_ context.Context, v ir.Value) (ir.Value, error) {
			return v.(ir.Int) + ir.Int(n.Add(1)), nil
		},
	}))
	return reg
}

func TestRun_ViolationIsReported(t *testing.T) {
	s := &Scenario{
		Name:        "impure",
		Description: "a stateful primitive is not a morphism",
		Samples:     []any{0},
		Laws:        []LawSpec{{Law: LawIdentity, Subject: "tick"}},
	}

	result, err := Run(context.Background(), s, Options{Registry: tickRegistry(t)})
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Trace, 1)
	ev := result.Trace[0]
	assert.False(t, ev.Pass)
	assert.Equal(t, "right_identity", ev.Clause)
	assert.NotEqual(t, ev.Left, ev.Right)
	assert.Contains(t, result.Errors[0], "Law failed: identity (right_identity) on tick")
}

func TestRun_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name    string
		law     LawSpec
		wantErr string
	}{
		{"unknown subject", LawSpec{Law: LawIdentity, Subject: "nope"}, `unknown subject "nope"`},
		{"unknown in triple", LawSpec{Law: LawAssociativity, F: "inc", G: "nope", H: "inc"}, `unknown subject "nope"`},
		{"kind mismatch", LawSpec{Law: LawAssociativity, F: "inc", G: "upper", H: "length"}, "cannot compose upper after inc"},
		{"unknown expect subject", LawSpec{Law: LawExpect, Subject: "nope", Input: 1, Output: 1}, `unknown subject "nope"`},
		{"bad law samples", LawSpec{Law: LawIdentity, Subject: "inc", Samples: []any{1.5}}, "laws[0].samples"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Scenario{Name: "cfg", Description: "d", Samples: []any{1}, Laws: []LawSpec{tt.law}}
			result, err := Run(context.Background(), s, Options{})
			require.NoError(t, err)

			assert.False(t, result.Pass)
			assert.Empty(t, result.Trace)
			require.Len(t, result.Errors, 1)
			assert.Contains(t, result.Errors[0], tt.wantErr)
		})
	}
}

func TestRun_PipelineErrorsStopTheRun(t *testing.T) {
	dir := t.TempDir()
	bad := writeScenario(t, dir, "bad.cue", `pipeline: broken: {
	description: "unknown step"
	input: "int"
	steps: ["inc", "frobnicate"]
}
`)
	s := &Scenario{Name: "s", Description: "d", Pipelines: []string{bad}, Samples: []any{1}, Laws: []LawSpec{{Law: LawIdentity, Subject: "inc"}}}

	_, err := Run(context.Background(), s, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid pipelines")
	assert.Contains(t, err.Error(), "E203")
}

func TestRun_LogsThroughGivenLogger(t *testing.T) {
	logger, buf := testutil.CaptureLogger()
	s := &Scenario{Name: "log", Description: "d", Samples: []any{1}, Laws: []LawSpec{{Law: LawIdentity, Subject: "inc"}}}

	_, err := Run(context.Background(), s, Options{Logger: logger})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "run started")
	assert.Contains(t, out, "law held")
	assert.Contains(t, out, "scenario finished")
	assert.Contains(t, out, "scenario=log")
}

func TestRun_RecordsEveryRepeatedCheck(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	ctx := context.Background()

	s := &Scenario{
		Name:        "repeats",
		Description: "the same law, subject and sample more than once",
		Samples:     []any{1, 1},
		Laws: []LawSpec{
			{Law: LawIdentity, Subject: "inc"},
			{Law: LawExpect, Subject: "double", Input: 2, Output: 4},
			{Law: LawExpect, Subject: "double", Input: 2, Output: 5},
		},
	}

	result, err := Run(ctx, s, Options{Store: st})
	require.NoError(t, err)
	require.Len(t, result.Trace, 4)

	checks, err := st.ReadChecks(ctx, result.RunID)
	require.NoError(t, err)
	require.Len(t, checks, len(result.Trace))
	for i, c := range checks {
		assert.Equal(t, result.Trace[i].Seq, c.Seq)
		assert.Equal(t, result.Trace[i].Pass, c.Pass)
	}
	assert.False(t, checks[3].Pass, "the failing repeat is kept")
}

func TestRun_IdentityLawComposesWithIdStage(t *testing.T) {
	reg := catalog.NewRegistry()
	reg.MustRegister(catalog.Primitive{
		Name: "inc", From: ir.KindInt, To: ir.KindInt, Doc: "adds one",
		Run: func(_ context.Context, v ir.Value) (ir.Value, error) {
			return v.(ir.Int) + 1, nil
		},
	})
	reg.MustRegister(catalog.Primitive{
		Name: "id", From: ir.KindAny, To: ir.KindAny, Doc: "forgets its input",
		Run: func(context.Context, ir.Value) (ir.Value, error) {
			return ir.Int(0), nil
		},
	})
	s := &Scenario{
		Name:        "id-stage",
		Description: "an id stage that is not an identity",
		Samples:     []any{5},
		Laws:        []LawSpec{{Law: LawIdentity, Subject: "inc"}},
	}

	result, err := Run(context.Background(), s, Options{Registry: reg})
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Trace, 1)
	assert.Equal(t, "right_identity", result.Trace[0].Clause)
	assert.Equal(t, "1", result.Trace[0].Left)
	assert.Equal(t, "6", result.Trace[0].Right)
}
