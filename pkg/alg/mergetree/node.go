package mergetree

import "fmt"

// Span is the closed range [Start, End] of leaf indices under a node.
type Span struct {
	Start int
	End   int
}

// Len returns the number of leaves in the span.
func (s Span) Len() int {
	return s.End - s.Start + 1
}

// String formats the span as [start..end].
func (s Span) String() string {
	return fmt.Sprintf("[%d..%d]", s.Start, s.End)
}

// Node is a merge tree node. A leaf carries an elementary interval and its
// original index; an internal node owns exactly two children and records the
// merge cost at creation time.
type Node struct {
	// ID is unique within a tree: leaves use their original index, internal
	// nodes are numbered after the leaves in merge order.
	ID int
	// Index is the original position of a leaf, or -1 for internal nodes.
	Index int
	// Left and Right are the owned children, nil for leaves.
	Left  *Node
	Right *Node
	// Distance is the merge cost recorded when the node was created.
	Distance float64
	// Interval is the concatenated payload the node represents.
	Interval Interval
	// Span is the leaf range covered by the node.
	Span Span

	// parent is a lookup-only back-reference set by SetChildren.
	parent *Node
}

// NewLeaf returns a leaf node for the elementary interval at index.
func NewLeaf(index int, iv Interval) *Node {
	return &Node{
		ID:       index,
		Index:    index,
		Interval: iv,
		Span:     Span{Start: index, End: index},
	}
}

// newInternal joins two adjacent subtrees under a new node carrying their
// merged payload.
func newInternal(id int, left, right *Node, distance float64, merged Interval) *Node {
	n := &Node{
		ID:       id,
		Index:    -1,
		Distance: distance,
		Interval: merged,
		Span:     Span{Start: left.Span.Start, End: right.Span.End},
	}
	n.SetChildren(left, right)

	return n
}

// SetChildren assigns the children and points their parent back at n. A nil
// argument leaves that side unchanged.
func (n *Node) SetChildren(left, right *Node) {
	if left != nil {
		n.Left = left
		left.parent = n
	}

	if right != nil {
		n.Right = right
		right.parent = n
	}
}

// Parent returns the node that adopted n, or nil for a root.
func (n *Node) Parent() *Node {
	return n.parent
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool {
	return n.Left == nil && n.Right == nil
}

// Leaves returns the number of elementary intervals under n.
func (n *Node) Leaves() int {
	return n.Span.Len()
}

// Depth returns the distance from n to its root.
func (n *Node) Depth() int {
	depth := 0

	for p := n.parent; p != nil; p = p.parent {
		depth++
	}

	return depth
}

// Children returns the two children of an internal node. It returns
// ErrOneChild when exactly one child is set and ok=false for leaves.
func (n *Node) Children() (left, right *Node, ok bool, err error) {
	switch {
	case n.Left != nil && n.Right != nil:
		return n.Left, n.Right, true, nil
	case n.Left == nil && n.Right == nil:
		return nil, nil, false, nil
	default:
		return nil, nil, false, fmt.Errorf("%w: node %d", ErrOneChild, n.ID)
	}
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the subtree below the current node.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}

	n.Left.Walk(fn)
	n.Right.Walk(fn)
}

// LeafNodes returns the leaves under n in order.
func (n *Node) LeafNodes() []*Node {
	leaves := make([]*Node, 0, n.Leaves())

	n.Walk(func(cur *Node) bool {
		if cur.IsLeaf() {
			leaves = append(leaves, cur)
		}

		return true
	})

	return leaves
}

// Height returns the number of edges on the longest root-to-leaf path.
func (n *Node) Height() int {
	if n == nil || n.IsLeaf() {
		return 0
	}

	return 1 + max(n.Left.Height(), n.Right.Height())
}

// Validate checks that every node under n has zero or two children, that
// internal spans equal the union of their adjacent children, and that the
// payload length matches the merge rule.
func (n *Node) Validate() error {
	var err error

	n.Walk(func(cur *Node) bool {
		if err != nil {
			return false
		}

		left, right, ok, childErr := cur.Children()
		if childErr != nil {
			err = childErr

			return false
		}

		if !ok {
			return true
		}

		if left.Span.End+1 != right.Span.Start ||
			cur.Span.Start != left.Span.Start || cur.Span.End != right.Span.End {
			err = fmt.Errorf("%w: node %d span %s, children %s %s",
				ErrSpanMismatch, cur.ID, cur.Span, left.Span, right.Span)

			return false
		}

		if cur.Interval.Len() != left.Interval.Len()+right.Interval.Len()-1 {
			err = fmt.Errorf("%w: node %d holds %d values, children %d+%d",
				ErrSpanMismatch, cur.ID, cur.Interval.Len(), left.Interval.Len(), right.Interval.Len())

			return false
		}

		return true
	})

	return err
}
