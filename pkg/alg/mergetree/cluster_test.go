package mergetree_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/tsfold/pkg/alg/mdl"
	"github.com/Sumatoshi-tech/tsfold/pkg/alg/mergetree"
)

const costDelta = 1e-9

var sampleSeries = []float64{17, 37, 23, 20, 54, 14, 31, 27, 71, 3}

// pairIntervals splits values into overlapping two-point intervals.
func pairIntervals(values []float64) []mergetree.Interval {
	out := make([]mergetree.Interval, 0, len(values)-1)
	for i := range len(values) - 1 {
		out = append(out, mergetree.Interval{Values: []float64{values[i], values[i+1]}})
	}

	return out
}

// constCost scores every candidate the same.
type constCost float64

func (c constCost) Cost([]float64, int) (float64, error) { return float64(c), nil }

// failingCost fails on any interval holding more than limit values.
type failingCost struct{ limit int }

var errScore = errors.New("score failed")

func (f failingCost) Cost(values []float64, _ int) (float64, error) {
	if len(values) > f.limit {
		return 0, errScore
	}

	return 1, nil
}

func TestBuild_SampleSeries(t *testing.T) {
	t.Parallel()

	tree, err := mergetree.Build(pairIntervals(sampleSeries), mdl.Default())
	require.NoError(t, err)

	expected := []struct {
		left, right int
		cost        float64
	}{
		{6, 7, 0.5849625007211561},
		{2, 3, 0.5849625007211905},
		{0, 1, 0.5874351238777907},
		{4, 5, 1.5849625006185373},
		{6, 8, 2.9999999999993086},
		{0, 2, 3.6438561897747244},
		{4, 6, 6.46240625180289},
		{0, 4, 14.948675595465103},
	}

	require.Len(t, tree.Records, len(expected))
	assert.Equal(t, 8, tree.Merges())
	assert.Equal(t, 17, tree.Nodes())

	for i, want := range expected {
		rec := tree.Records[i]
		assert.Equal(t, want.left, rec.Left, "merge %d", i)
		assert.Equal(t, want.right, rec.Right, "merge %d", i)
		assert.InDelta(t, want.cost, rec.Cost, costDelta, "merge %d", i)
	}

	root := tree.Root
	assert.Equal(t, 16, root.ID)
	assert.Equal(t, mergetree.Span{Start: 0, End: 8}, root.Span)
	assert.Equal(t, sampleSeries, root.Interval.Values)
	assert.Equal(t, mergetree.Span{Start: 0, End: 3}, root.Left.Span)
	assert.Equal(t, mergetree.Span{Start: 4, End: 8}, root.Right.Span)
	assert.Equal(t, 14, root.Left.ID)
	assert.Equal(t, 15, root.Right.ID)
	assert.Equal(t, 4, root.Height())
	require.NoError(t, root.Validate())
}

func TestBuild_SingleInterval(t *testing.T) {
	t.Parallel()

	tree, err := mergetree.Build(pairIntervals([]float64{1, 2}), mdl.Default())
	require.NoError(t, err)

	assert.True(t, tree.Root.IsLeaf())
	assert.Same(t, tree.Leaves[0], tree.Root)
	assert.Zero(t, tree.Merges())
	assert.Equal(t, []float64{1, 2}, tree.Root.Interval.Values)
}

func TestBuild_Errors(t *testing.T) {
	t.Parallel()

	_, err := mergetree.Build(nil, mdl.Default())
	require.ErrorIs(t, err, mergetree.ErrNoIntervals)

	_, err = mergetree.Build([]mergetree.Interval{{Values: []float64{1, 2}}, {}}, mdl.Default())
	require.ErrorIs(t, err, mergetree.ErrShortInterval)

	_, err = mergetree.Build(pairIntervals([]float64{1, 2, 3, 4}), failingCost{limit: 3})
	require.ErrorIs(t, err, errScore)
}

func TestBuild_LeafCoverage(t *testing.T) {
	t.Parallel()

	tree, err := mergetree.Build(pairIntervals(sampleSeries), mdl.Default())
	require.NoError(t, err)

	leaves := tree.Root.LeafNodes()
	require.Len(t, leaves, 9)

	for i, leaf := range leaves {
		assert.Equal(t, i, leaf.Index)
		assert.Same(t, tree.Leaves[i], leaf)
		assert.Equal(t, []float64{sampleSeries[i], sampleSeries[i+1]}, leaf.Interval.Values)
	}

	internal := 0

	tree.Root.Walk(func(n *mergetree.Node) bool {
		if !n.IsLeaf() {
			internal++

			assert.Equal(t, n.Leaves()+1, n.Interval.Len())
		}

		return true
	})

	assert.Equal(t, tree.Merges(), internal)
}

func TestBuild_TiesMergeLeftmost(t *testing.T) {
	t.Parallel()

	tree, err := mergetree.Build(pairIntervals([]float64{1, 2, 3, 4, 5}), constCost(1))
	require.NoError(t, err)

	// Each merge absorbs the right neighbour into slot 0.
	for i, rec := range tree.Records {
		assert.Equal(t, 0, rec.Left)
		assert.Equal(t, i+1, rec.Right)
	}

	assert.Equal(t, 3, tree.Root.Height())
}

func TestBuild_Deterministic(t *testing.T) {
	t.Parallel()

	model, err := mdl.ParseMethod(mdl.MethodEntropy, mdl.Falling)
	require.NoError(t, err)

	first, err := mergetree.Build(pairIntervals(sampleSeries), model)
	require.NoError(t, err)

	for range 5 {
		again, buildErr := mergetree.Build(pairIntervals(sampleSeries), model)
		require.NoError(t, buildErr)
		assert.Equal(t, first.Records, again.Records)
	}
}

func TestBuild_KeepsLabels(t *testing.T) {
	t.Parallel()

	intervals := []mergetree.Interval{
		{Values: []float64{1, 2}, Labels: []string{"a", "b"}},
		{Values: []float64{2, 3}, Labels: []string{"b", "c"}},
		{Values: []float64{3, 1}, Labels: []string{"c", "d"}},
	}

	tree, err := mergetree.Build(intervals, mdl.Default())
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c", "d"}, tree.Root.Interval.Labels)
	assert.Equal(t, "a", tree.Root.Interval.Start())
	assert.Equal(t, "d", tree.Root.Interval.End())
}

func BenchmarkBuild(b *testing.B) {
	values := make([]float64, 4096)
	for i := range values {
		values[i] = float64((i * 7919) % 257)
	}

	intervals := pairIntervals(values)
	model := mdl.Default()

	b.ResetTimer()

	for range b.N {
		_, err := mergetree.Build(intervals, model)
		if err != nil {
			b.Fatal(err)
		}
	}
}
