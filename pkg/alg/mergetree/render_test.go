package mergetree_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/tsfold/pkg/alg/mdl"
	"github.com/Sumatoshi-tech/tsfold/pkg/alg/mergetree"
)

func TestRender(t *testing.T) {
	t.Parallel()

	tree, err := mergetree.Build(pairIntervals(sampleSeries), mdl.Default())
	require.NoError(t, err)

	full := mergetree.Render(tree.Root, mergetree.RenderOptions{MaxDepth: -1})
	assert.Contains(t, full, "node 16 [0..8]")
	assert.Contains(t, full, "leaf 8")
	assert.Equal(t, len(tree.Leaves), strings.Count(full, "leaf "))

	shallow := mergetree.Render(tree.Root, mergetree.RenderOptions{MaxDepth: 1})
	assert.Contains(t, shallow, "node 14 [0..3]")
	assert.NotContains(t, shallow, "leaf")

	assert.Empty(t, mergetree.Render(nil, mergetree.RenderOptions{}))
}

func TestRender_ShowValues(t *testing.T) {
	t.Parallel()

	tree, err := mergetree.Build(pairIntervals(sampleSeries), mdl.Default())
	require.NoError(t, err)

	out := mergetree.Render(tree.Root, mergetree.RenderOptions{MaxDepth: 0, ShowValues: true})
	assert.Contains(t, out, "[17 37 23 20 54 14 …+4]")
}
