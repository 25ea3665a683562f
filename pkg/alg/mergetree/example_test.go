package mergetree_test

import (
	"fmt"

	"github.com/Sumatoshi-tech/tsfold/pkg/alg/mdl"
	"github.com/Sumatoshi-tech/tsfold/pkg/alg/mergetree"
)

func ExampleBuild() {
	intervals := []mergetree.Interval{
		{Values: []float64{1, 2}},
		{Values: []float64{2, 3}},
		{Values: []float64{3, 1}},
	}

	tree, err := mergetree.Build(intervals, mdl.Default())
	if err != nil {
		fmt.Println(err)

		return
	}

	fmt.Println(tree.Root.Span, tree.Merges())
	// Output: [0..2] 2
}
