package arrows

import (
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/morph/internal/category"
	"github.com/roach88/morph/internal/laws"
)

var (
	inc    = Func[int, int](func(x int) int { return x + 1 })
	double = Func[int, int](func(x int) int { return x * 2 })
	show   = Func[int, string](strconv.Itoa)
	length = Func[string, int](func(s string) int { return len(s) })
)

var intSamples = []int{-7, -1, 0, 1, 3, 5, 42, 1 << 20}

func runInt(f Func[int, int], x int) int          { return f(x) }
func runIntString(f Func[int, string], x int) string { return f(x) }

func TestComposeIncThenDouble(t *testing.T) {
	k := Functions[int, int, int]{}

	gf := k.Compose(double, inc)

	assert.Equal(t, 8, gf(3))
}

func TestComposeRenderBothBracketings(t *testing.T) {
	ints := Functions[int, int, int]{}
	render := Functions[int, int, string]{}

	left := render.Compose(show, ints.Compose(double, inc))
	right := render.Compose(render.Compose(show, double), inc)

	assert.Equal(t, "8", left(3))
	assert.Equal(t, left(3), right(3))
}

func TestIdentityScenario(t *testing.T) {
	k := Functions[int, int, int]{}

	composed := k.Compose(k.Identity(), inc)

	assert.Equal(t, 6, composed(5))
	assert.Equal(t, inc(5), composed(5))
}

func TestFunctionIdentityLawAcrossObjects(t *testing.T) {
	right := Functions[int, int, string]{}.Compose
	left := Functions[int, string, string]{}.Compose
	idInt := Functions[int, int, string]{}.Identity()
	idString := Functions[string, string, string]{}.Identity()

	err := laws.IdentityLaw(right, left, idInt, idString, show, runIntString, laws.Equal[string], intSamples)
	require.NoError(t, err)
}

func TestFunctionAssociativityAcrossObjects(t *testing.T) {
	gf := Functions[int, int, string]{}.Compose
	hgf := Functions[int, string, int]{}.Compose
	hg := Functions[int, string, int]{}.Compose
	hgR := Functions[int, int, int]{}.Compose

	err := laws.Associativity(gf, hgf, hg, hgR, inc, show, length, runInt, laws.Equal[int], intSamples)
	require.NoError(t, err)
}

func TestFunctionAliases(t *testing.T) {
	k := FunctionCategory[int, int, string]()

	err := laws.Aliases(k, double, show, runIntString, laws.Equal[string], intSamples)
	require.NoError(t, err)

	then := category.AndThen(k, double, show)
	assert.Equal(t, "6", then(3))
}

func TestEndoLaws(t *testing.T) {
	k := Endo[int]()

	require.NoError(t, laws.EndoIdentity(k, inc, runInt, laws.Equal[int], intSamples))
	require.NoError(t, laws.EndoAssociativity(k, inc, double, inc, runInt, laws.Equal[int], intSamples))
}

func TestChain(t *testing.T) {
	tests := []struct {
		name  string
		steps []Func[int, int]
		input int
		want  int
	}{
		{name: "empty chain is identity", steps: nil, input: 9, want: 9},
		{name: "single step", steps: []Func[int, int]{inc}, input: 1, want: 2},
		{name: "runs first to last", steps: []Func[int, int]{inc, double}, input: 3, want: 8},
		{name: "order matters", steps: []Func[int, int]{double, inc}, input: 3, want: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Chain(tt.steps...).Apply(tt.input))
		})
	}
}

func TestComposedFunctionIsSafeForConcurrentUse(t *testing.T) {
	k := Functions[int, int, string]{}
	composed := k.Compose(show, Chain(inc, double))

	var wg sync.WaitGroup
	results := make([]string, 64)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = composed(i)
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		assert.Equal(t, strconv.Itoa((i+1)*2), got)
	}
}
