// Package treecut selects the cut of a merge tree with the minimum total
// descriptive length.
//
// A cut is an ordered list of tree nodes whose leaf spans partition the
// series. Select decides bottom-up, per internal node, whether keeping the
// node whole is strictly cheaper than the best cuts of its two children.
// The answer is optimal for the fixed tree shape. SelectDepth bounds how
// far below the root a cut may reach, and Exhaustive enumerates cut
// configurations explicitly as a cross-check on small trees.
package treecut

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/tsfold/pkg/alg/mergetree"
)

// Unlimited disables the depth bound of SelectDepth.
const Unlimited = -1

// Sentinel errors.
var (
	// ErrNilRoot indicates a selector was called without a tree.
	ErrNilRoot = errors.New("treecut: root is nil")
	// ErrGap indicates a cut leaves part of the series uncovered.
	ErrGap = errors.New("treecut: cut leaves a gap")
	// ErrOverlap indicates two cut nodes cover the same leaf.
	ErrOverlap = errors.New("treecut: cut nodes overlap")
)

// Length returns the descriptive length of keeping n as one output interval.
func Length(n *mergetree.Node, model mergetree.CostModel) (float64, error) {
	cost, err := model.Cost(n.Interval.Values, n.Leaves())
	if err != nil {
		return 0, fmt.Errorf("node %d: %w", n.ID, err)
	}

	return cost, nil
}

// Total returns the summed descriptive length of a cut.
func Total(cut []*mergetree.Node, model mergetree.CostModel) (float64, error) {
	var total float64

	for _, n := range cut {
		cost, err := Length(n, model)
		if err != nil {
			return 0, err
		}

		total += cost
	}

	return total, nil
}

// Select returns the cut of root with minimum total descriptive length.
func Select(root *mergetree.Node, model mergetree.CostModel) ([]*mergetree.Node, error) {
	return SelectDepth(root, model, Unlimited)
}

// SelectDepth is Select with nodes at maxDepth treated as leaves, so no
// returned node lies more than maxDepth levels below root. A negative
// maxDepth means no bound.
func SelectDepth(root *mergetree.Node, model mergetree.CostModel, maxDepth int) ([]*mergetree.Node, error) {
	if root == nil {
		return nil, ErrNilRoot
	}

	cut, _, err := selectNode(root, model, maxDepth)
	if err != nil {
		return nil, err
	}

	return cut, nil
}

// selectNode returns the best cut under n together with its total length.
func selectNode(n *mergetree.Node, model mergetree.CostModel, depth int) ([]*mergetree.Node, float64, error) {
	left, right, internal, err := n.Children()
	if err != nil {
		return nil, 0, err
	}

	if !internal || depth == 0 {
		cost, lenErr := Length(n, model)
		if lenErr != nil {
			return nil, 0, lenErr
		}

		return []*mergetree.Node{n}, cost, nil
	}

	next := depth - 1
	if depth < 0 {
		next = Unlimited
	}

	leftCut, leftLen, err := selectNode(left, model, next)
	if err != nil {
		return nil, 0, err
	}

	rightCut, rightLen, err := selectNode(right, model, next)
	if err != nil {
		return nil, 0, err
	}

	rootLen, err := Length(n, model)
	if err != nil {
		return nil, 0, err
	}

	childrenLen := leftLen + rightLen

	// Ties keep the children.
	if rootLen < childrenLen {
		return []*mergetree.Node{n}, rootLen, nil
	}

	return append(leftCut, rightCut...), childrenLen, nil
}

// CheckCover verifies that cut partitions leaves [0, leaves) into contiguous,
// non-overlapping spans in order.
func CheckCover(cut []*mergetree.Node, leaves int) error {
	next := 0

	for _, n := range cut {
		switch {
		case n.Span.Start > next:
			return fmt.Errorf("%w: leaves %d..%d", ErrGap, next, n.Span.Start-1)
		case n.Span.Start < next:
			return fmt.Errorf("%w: node %d starts at %d, expected %d", ErrOverlap, n.ID, n.Span.Start, next)
		}

		next = n.Span.End + 1
	}

	if next != leaves {
		return fmt.Errorf("%w: leaves %d..%d", ErrGap, next, leaves-1)
	}

	return nil
}
