// Package mergetree builds a binary merge tree over an ordered sequence of
// contiguous intervals using sequential (adjacent-only) agglomerative
// clustering.
//
// The clusterer repeatedly merges the adjacent pair with the lowest merge cost
// (leftmost pair on ties) until a single interval remains. Only the costs of
// the two pairs touching a merge are recomputed, so a run of n intervals costs
// O(n) cost evaluations and O(n log n) heap operations.
//
//	tree, err := mergetree.Build(intervals, mdl.Default())
//	if err != nil {
//		return err
//	}
//	fmt.Println(tree.Root.Leaves())
//
// Trees are immutable after Build returns; tree-cut selection only reads them.
package mergetree
