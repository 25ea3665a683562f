package mergetree_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/tsfold/pkg/alg/mergetree"
)

func leafPair(t *testing.T) (*mergetree.Node, *mergetree.Node) {
	t.Helper()

	return mergetree.NewLeaf(0, mergetree.Interval{Values: []float64{1, 2}}),
		mergetree.NewLeaf(1, mergetree.Interval{Values: []float64{2, 5}})
}

func TestNewLeaf(t *testing.T) {
	t.Parallel()

	leaf := mergetree.NewLeaf(3, mergetree.Interval{Values: []float64{4, 6}})

	assert.Equal(t, 3, leaf.ID)
	assert.Equal(t, 3, leaf.Index)
	assert.True(t, leaf.IsLeaf())
	assert.Equal(t, 1, leaf.Leaves())
	assert.Equal(t, "[3..3]", leaf.Span.String())
	assert.Nil(t, leaf.Parent())
	assert.Zero(t, leaf.Depth())
	assert.Zero(t, leaf.Height())
}

func TestSetChildren_PartialUpdate(t *testing.T) {
	t.Parallel()

	left, right := leafPair(t)
	parent := &mergetree.Node{ID: 2, Index: -1}

	parent.SetChildren(left, nil)
	assert.Same(t, left, parent.Left)
	assert.Nil(t, parent.Right)
	assert.Same(t, parent, left.Parent())

	_, _, ok, err := parent.Children()
	require.ErrorIs(t, err, mergetree.ErrOneChild)
	require.ErrorIs(t, err, mergetree.ErrInvariant)
	assert.False(t, ok)

	parent.SetChildren(nil, right)
	assert.Same(t, left, parent.Left)
	assert.Same(t, right, parent.Right)
	assert.Same(t, parent, right.Parent())
	assert.Equal(t, 1, right.Depth())

	l, r, ok, err := parent.Children()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Same(t, left, l)
	assert.Same(t, right, r)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()

		left, right := leafPair(t)
		parent := &mergetree.Node{
			ID:       2,
			Index:    -1,
			Interval: mergetree.Merge(left.Interval, right.Interval),
			Span:     mergetree.Span{Start: 0, End: 1},
		}
		parent.SetChildren(left, right)

		require.NoError(t, parent.Validate())
	})

	t.Run("one child", func(t *testing.T) {
		t.Parallel()

		left, _ := leafPair(t)
		parent := &mergetree.Node{ID: 2, Index: -1, Span: mergetree.Span{Start: 0, End: 1}}
		parent.SetChildren(left, nil)

		require.ErrorIs(t, parent.Validate(), mergetree.ErrOneChild)
	})

	t.Run("span gap", func(t *testing.T) {
		t.Parallel()

		left := mergetree.NewLeaf(0, mergetree.Interval{Values: []float64{1, 2}})
		right := mergetree.NewLeaf(2, mergetree.Interval{Values: []float64{2, 5}})
		parent := &mergetree.Node{
			ID:       3,
			Index:    -1,
			Interval: mergetree.Merge(left.Interval, right.Interval),
			Span:     mergetree.Span{Start: 0, End: 2},
		}
		parent.SetChildren(left, right)

		require.ErrorIs(t, parent.Validate(), mergetree.ErrSpanMismatch)
	})

	t.Run("payload length", func(t *testing.T) {
		t.Parallel()

		left, right := leafPair(t)
		parent := &mergetree.Node{
			ID:       2,
			Index:    -1,
			Interval: mergetree.Interval{Values: []float64{1, 2, 2, 5}},
			Span:     mergetree.Span{Start: 0, End: 1},
		}
		parent.SetChildren(left, right)

		require.ErrorIs(t, parent.Validate(), mergetree.ErrSpanMismatch)
	})
}

func TestWalk_SkipsSubtree(t *testing.T) {
	t.Parallel()

	left, right := leafPair(t)
	parent := &mergetree.Node{ID: 2, Index: -1, Span: mergetree.Span{Start: 0, End: 1}}
	parent.SetChildren(left, right)

	var visited []int

	parent.Walk(func(n *mergetree.Node) bool {
		visited = append(visited, n.ID)

		return false
	})

	assert.Equal(t, []int{2}, visited)
}

func TestNewInterval(t *testing.T) {
	t.Parallel()

	iv, err := mergetree.NewInterval([]float64{1, 2}, []string{"a", "b"})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, iv.First(), costDelta)
	assert.InDelta(t, 2.0, iv.Last(), costDelta)

	_, err = mergetree.NewInterval(nil, nil)
	require.ErrorIs(t, err, mergetree.ErrShortInterval)

	_, err = mergetree.NewInterval([]float64{1, 2}, []string{"a"})
	require.ErrorIs(t, err, mergetree.ErrLabelMismatch)
}

func TestMerge_DropsSharedBoundary(t *testing.T) {
	t.Parallel()

	merged := mergetree.Merge(
		mergetree.Interval{Values: []float64{1, 2, 3}, Labels: []string{"a", "b", "c"}},
		mergetree.Interval{Values: []float64{3, 4}, Labels: []string{"c", "d"}},
	)

	assert.Equal(t, []float64{1, 2, 3, 4}, merged.Values)
	assert.Equal(t, []string{"a", "b", "c", "d"}, merged.Labels)

	unlabeled := mergetree.Merge(
		mergetree.Interval{Values: []float64{1, 2}},
		mergetree.Interval{Values: []float64{2, 4}, Labels: []string{"b", "c"}},
	)

	assert.Equal(t, []float64{1, 2, 4}, unlabeled.Values)
	assert.Empty(t, unlabeled.Labels)
	assert.Empty(t, unlabeled.Start())
}
