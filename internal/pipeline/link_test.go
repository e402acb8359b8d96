package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/morph/internal/catalog"
	"github.com/roach88/morph/internal/ir"
)

func steps(names ...string) []ir.StepRef {
	out := make([]ir.StepRef, len(names))
	for i, n := range names {
		ref, err := ir.ParseStep(n)
		if err != nil {
			panic(err)
		}
		out[i] = ref
	}
	return out
}

func spec(name string, order ir.Order, in ir.Kind, names ...string) ir.PipelineSpec {
	return ir.PipelineSpec{Name: name, Description: name, Input: in, Order: order, Steps: steps(names...)}
}

func apply(t *testing.T, set *Set, name string, in ir.Value) ir.Value {
	t.Helper()
	m, err := set.Get(name)
	require.NoError(t, err)
	out, err := m.Apply(context.Background(), in)
	require.NoError(t, err)
	return out
}

func TestLinkForwardAndBackwardAgree(t *testing.T) {
	set, err := Link([]ir.PipelineSpec{
		spec("forward", ir.Forward, ir.KindInt, "inc", "double", "to_string"),
		spec("backward", ir.Backward, ir.KindInt, "to_string", "double", "inc"),
	}, catalog.Default())
	require.NoError(t, err)

	assert.Equal(t, ir.String("8"), apply(t, set, "forward", ir.Int(3)))
	assert.Equal(t, ir.String("8"), apply(t, set, "backward", ir.Int(3)))

	fwd, _ := set.Get("forward")
	bwd, _ := set.Get("backward")
	assert.Equal(t, fwd.Stages, bwd.Stages)
	assert.Equal(t, ir.KindInt, fwd.From)
	assert.Equal(t, ir.KindString, fwd.To)
}

func TestLinkResolvesReferencesInAnyOrder(t *testing.T) {
	set, err := Link([]ir.PipelineSpec{
		spec("reuse", ir.Forward, ir.KindInt, "@show_next_double", "length"),
		spec("show_next_double", ir.Forward, ir.KindInt, "inc", "double", "to_string"),
	}, catalog.Default())
	require.NoError(t, err)

	assert.Equal(t, []string{"show_next_double", "reuse"}, set.Names())
	assert.Equal(t, 2, set.Len())
	assert.Equal(t, ir.Int(2), apply(t, set, "reuse", ir.Int(7)))

	reuse, _ := set.Get("reuse")
	assert.Equal(t, []string{"inc", "double", "to_string", "length"}, reuse.Stages)

	s, ok := set.Spec("reuse")
	require.True(t, ok)
	assert.Equal(t, "reuse", s.Name)
}

func TestLinkEmptyPipelineIsIdentity(t *testing.T) {
	set, err := Link([]ir.PipelineSpec{spec("nothing", ir.Forward, ir.KindString)}, catalog.Default())
	require.NoError(t, err)

	m, err := set.Get("nothing")
	require.NoError(t, err)
	assert.Equal(t, ir.KindString, m.From)
	assert.Equal(t, ir.KindString, m.To)
	assert.Equal(t, ir.String("same"), apply(t, set, "nothing", ir.String("same")))
}

func TestLinkErrors(t *testing.T) {
	tests := []struct {
		name    string
		specs   []ir.PipelineSpec
		wantErr error
		wantMsg string
	}{
		{
			name:    "unknown primitive",
			specs:   []ir.PipelineSpec{spec("p", ir.Forward, ir.KindInt, "inc", "frobnicate")},
			wantErr: catalog.ErrUnknownPrimitive,
			wantMsg: "pipeline p, step frobnicate: unknown primitive",
		},
		{
			name:    "unknown pipeline",
			specs:   []ir.PipelineSpec{spec("p", ir.Forward, ir.KindInt, "@missing")},
			wantErr: ErrUnknownPipeline,
		},
		{
			name:    "forward kind mismatch",
			specs:   []ir.PipelineSpec{spec("p", ir.Forward, ir.KindInt, "to_string", "inc")},
			wantErr: ErrKindMismatch,
			wantMsg: "pipeline p, step inc: inc: int -> int does not line up with string",
		},
		{
			name:    "backward kind mismatch",
			specs:   []ir.PipelineSpec{spec("p", ir.Backward, ir.KindInt, "inc", "to_string")},
			wantErr: ErrKindMismatch,
		},
		{
			name:    "input mismatch",
			specs:   []ir.PipelineSpec{spec("p", ir.Forward, ir.KindString, "inc")},
			wantErr: ErrKindMismatch,
			wantMsg: "declared input string",
		},
		{
			name: "output mismatch",
			specs: []ir.PipelineSpec{{
				Name: "p", Input: ir.KindInt, Output: ir.KindBool, Order: ir.Forward, Steps: steps("inc"),
			}},
			wantErr: ErrKindMismatch,
			wantMsg: "declared output bool",
		},
		{
			name: "cycle",
			specs: []ir.PipelineSpec{
				spec("a", ir.Forward, ir.KindInt, "@b"),
				spec("b", ir.Forward, ir.KindInt, "@a"),
			},
			wantErr: ErrCycle,
			wantMsg: "[a b a]",
		},
		{
			name:    "self reference",
			specs:   []ir.PipelineSpec{spec("a", ir.Forward, ir.KindInt, "inc", "@a")},
			wantErr: ErrCycle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Link(tt.specs, catalog.Default())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			var lerr *LinkError
			assert.ErrorAs(t, err, &lerr)
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestLinkDuplicateNames(t *testing.T) {
	_, err := Link([]ir.PipelineSpec{
		spec("p", ir.Forward, ir.KindInt, "inc"),
		spec("p", ir.Forward, ir.KindInt, "dec"),
	}, catalog.Default())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "defined more than once")
}

func TestSetGetUnknown(t *testing.T) {
	set, err := Link(nil, catalog.Default())
	require.NoError(t, err)

	_, err = set.Get("missing")
	assert.ErrorIs(t, err, ErrUnknownPipeline)
}
