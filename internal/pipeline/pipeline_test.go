package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/morph/internal/catalog"
	"github.com/roach88/morph/internal/category"
	"github.com/roach88/morph/internal/ir"
	"github.com/roach88/morph/internal/laws"
)

func prim(t *testing.T, name string) Morphism {
	t.Helper()
	p, err := catalog.Default().Lookup(name)
	require.NoError(t, err)
	return FromPrimitive(p.Name, p.From, p.To, p.Run)
}

func observe(m Morphism, v ir.Value) laws.Outcome[ir.Value] {
	return laws.Observe(m.Apply(context.Background(), v))
}

var intSamples = []ir.Value{ir.Int(-7), ir.Int(0), ir.Int(1), ir.Int(3), ir.Int(5)}

func TestComposeAppliesInnerFirst(t *testing.T) {
	k := Dynamic{}

	gf := k.Compose(prim(t, "double"), prim(t, "inc"))
	got, err := gf.Apply(context.Background(), ir.Int(3))

	require.NoError(t, err)
	assert.Equal(t, ir.Int(8), got)
	assert.Equal(t, []string{"inc", "double"}, gf.Stages)
	assert.Equal(t, ir.KindInt, gf.From)
	assert.Equal(t, ir.KindInt, gf.To)
}

func TestComposeRenderBothBracketings(t *testing.T) {
	k := Dynamic{}
	f, g, h := prim(t, "inc"), prim(t, "double"), prim(t, "to_string")

	left := k.Compose(h, k.Compose(g, f))
	right := k.Compose(k.Compose(h, g), f)

	l, err := left.Apply(context.Background(), ir.Int(3))
	require.NoError(t, err)
	r, err := right.Apply(context.Background(), ir.Int(3))
	require.NoError(t, err)

	assert.Equal(t, ir.String("8"), l)
	assert.Equal(t, l, r)
	assert.Equal(t, left.Name, right.Name)
	assert.Equal(t, left.Stages, right.Stages)
	assert.Equal(t, ir.KindString, left.To)
}

func TestIdentityIsNeutral(t *testing.T) {
	k := Dynamic{}
	f := prim(t, "inc")

	assert.Equal(t, f.Signature(), k.Compose(k.Identity(), f).Signature())
	assert.Equal(t, f.Signature(), k.Compose(f, k.Identity()).Signature())

	got, err := k.Compose(k.Identity(), f).Apply(context.Background(), ir.Int(5))
	require.NoError(t, err)
	assert.Equal(t, ir.Int(6), got)
	assert.True(t, k.Identity().IsIdentity())
	assert.False(t, prim(t, "id").IsIdentity())
}

func TestDynamicLaws(t *testing.T) {
	k := Category()
	eq := laws.Equal[laws.Outcome[ir.Value]]

	for _, name := range []string{"inc", "double", "negate", "to_string", "is_zero"} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, laws.EndoIdentity(k, prim(t, name), observe, eq, intSamples))
		})
	}

	require.NoError(t, laws.EndoAssociativity(k, prim(t, "inc"), prim(t, "double"), prim(t, "to_string"), observe, eq, intSamples))
	require.NoError(t, laws.EndoAssociativity(k, prim(t, "to_string"), prim(t, "length"), prim(t, "is_zero"), observe, eq, intSamples))
	require.NoError(t, laws.Aliases(k, prim(t, "inc"), prim(t, "square"), observe, eq, intSamples))
}

func TestComposePanicsOnKindMismatch(t *testing.T) {
	k := Dynamic{}

	defer func() {
		r := recover()
		require.NotNil(t, r)
		km, ok := r.(*KindMismatch)
		require.True(t, ok, "panic value %T", r)
		assert.Equal(t, "cannot compose inc after to_string: int does not accept string", km.Error())
	}()

	k.Compose(prim(t, "inc"), prim(t, "to_string"))
}

func TestPolymorphicStageTakesNeighborKind(t *testing.T) {
	k := Dynamic{}

	m := category.AndThen[Morphism, Morphism, Morphism, Morphism](k, prim(t, "id"), prim(t, "to_string"))
	assert.Equal(t, ir.KindInt, m.From)
	assert.Equal(t, ir.KindString, m.To)

	m = category.AndThen[Morphism, Morphism, Morphism, Morphism](k, prim(t, "length"), prim(t, "id"))
	assert.Equal(t, ir.KindString, m.From)
	assert.Equal(t, ir.KindInt, m.To)
}

func TestStageErrorStopsPipeline(t *testing.T) {
	k := Dynamic{}
	m := k.Compose(prim(t, "inc"), prim(t, "parse_int"))

	_, err := m.Apply(context.Background(), ir.String("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse_int")

	got, err := m.Apply(context.Background(), ir.String("41"))
	require.NoError(t, err)
	assert.Equal(t, ir.Int(42), got)
}

func TestMorphismString(t *testing.T) {
	k := Dynamic{}
	assert.Equal(t, "id", k.Identity().String())
	assert.Equal(t, "inc >>> to_string", k.Compose(prim(t, "to_string"), prim(t, "inc")).String())
	assert.Equal(t, "renamed", prim(t, "inc").Rename("renamed").Name)
}
