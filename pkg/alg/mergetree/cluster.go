package mergetree

import (
	"container/heap"
	"fmt"
)

// CostModel scores a candidate interval made of n elementary intervals.
// mdl.Model satisfies it.
type CostModel interface {
	Cost(values []float64, n int) (float64, error)
}

// MergeRecord describes one merge performed by Build. Slots are addressed by
// their stable handle, which is the original index of the slot's first leaf.
type MergeRecord struct {
	Left   int
	Right  int
	Cost   float64
	Merged Interval
}

// Tree is the result of Build.
type Tree struct {
	// Root covers every leaf.
	Root *Node
	// Leaves holds the leaf nodes in original order.
	Leaves []*Node
	// Records lists the merges in the order they were performed.
	Records []MergeRecord
}

// Merges returns the number of merges performed.
func (t *Tree) Merges() int {
	return len(t.Records)
}

// Nodes returns the number of nodes in the tree.
func (t *Tree) Nodes() int {
	return len(t.Leaves) + len(t.Records)
}

const noSlot = -1

// slotList is an index-stable doubly linked list of interval slots.
type slotList struct {
	payload []Interval
	leaves  []int
	prev    []int
	next    []int
	alive   []bool
	gen     []int
}

func newSlotList(intervals []Interval) *slotList {
	n := len(intervals)
	sl := &slotList{
		payload: make([]Interval, n),
		leaves:  make([]int, n),
		prev:    make([]int, n),
		next:    make([]int, n),
		alive:   make([]bool, n),
		gen:     make([]int, n),
	}

	copy(sl.payload, intervals)

	for i := range n {
		sl.leaves[i] = 1
		sl.prev[i] = i - 1
		sl.next[i] = i + 1
		sl.alive[i] = true
	}

	sl.next[n-1] = noSlot

	return sl
}

// pairItem is a candidate merge of slot left with its right neighbour.
type pairItem struct {
	cost   float64
	left   int
	gen    int
	merged Interval
}

// pairQueue is a min-heap ordered by cost, then by left handle so that the
// leftmost pair wins ties.
type pairQueue []*pairItem

func (pq pairQueue) Len() int { return len(pq) }

func (pq pairQueue) Less(i, j int) bool {
	if pq[i].cost != pq[j].cost {
		return pq[i].cost < pq[j].cost
	}

	return pq[i].left < pq[j].left
}

func (pq pairQueue) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

func (pq *pairQueue) Push(x any) { *pq = append(*pq, x.(*pairItem)) }

func (pq *pairQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*pq = old[:n-1]

	return item
}

type clusterer struct {
	slots *slotList
	model CostModel
	queue pairQueue
}

// push scores the pair (h, next[h]) and invalidates any older entry for h.
func (c *clusterer) push(h int) error {
	r := c.slots.next[h]
	merged := Merge(c.slots.payload[h], c.slots.payload[r])

	cost, err := c.model.Cost(merged.Values, c.slots.leaves[h]+c.slots.leaves[r])
	if err != nil {
		return fmt.Errorf("score pair %d+%d: %w", h, r, err)
	}

	c.slots.gen[h]++
	heap.Push(&c.queue, &pairItem{cost: cost, left: h, gen: c.slots.gen[h], merged: merged})

	return nil
}

// pop returns the cheapest live pair.
func (c *clusterer) pop() *pairItem {
	for c.queue.Len() > 0 {
		item := heap.Pop(&c.queue).(*pairItem)
		if c.slots.alive[item.left] && c.slots.gen[item.left] == item.gen {
			return item
		}
	}

	return nil
}

// merge collapses the pair into its left slot and rescores the two
// neighbouring pairs.
func (c *clusterer) merge(item *pairItem) (MergeRecord, error) {
	sl := c.slots
	l := item.left
	r := sl.next[l]

	sl.payload[l] = item.merged
	sl.leaves[l] += sl.leaves[r]
	sl.alive[r] = false
	sl.payload[r] = Interval{}
	sl.next[l] = sl.next[r]

	if sl.next[r] != noSlot {
		sl.prev[sl.next[r]] = l
	}

	// Drop the consumed pair; it is re-added below if l still has a neighbour.
	sl.gen[l]++

	rec := MergeRecord{Left: l, Right: r, Cost: item.cost, Merged: item.merged}

	if p := sl.prev[l]; p != noSlot {
		err := c.push(p)
		if err != nil {
			return rec, err
		}
	}

	if sl.next[l] != noSlot {
		err := c.push(l)
		if err != nil {
			return rec, err
		}
	}

	return rec, nil
}

// Build clusters the ordered elementary intervals into a merge tree. It
// performs exactly len(intervals)−1 merges, always merging the cheapest
// adjacent pair and resolving ties to the leftmost pair.
func Build(intervals []Interval, model CostModel) (*Tree, error) {
	if len(intervals) == 0 {
		return nil, ErrNoIntervals
	}

	for i, iv := range intervals {
		if iv.Len() == 0 {
			return nil, fmt.Errorf("interval %d: %w", i, ErrShortInterval)
		}
	}

	n := len(intervals)
	c := &clusterer{
		slots: newSlotList(intervals),
		model: model,
		queue: make(pairQueue, 0, n),
	}

	for h := range n - 1 {
		err := c.push(h)
		if err != nil {
			return nil, err
		}
	}

	records := make([]MergeRecord, 0, n-1)

	for len(records) < n-1 {
		item := c.pop()
		if item == nil {
			return nil, fmt.Errorf("%w: queue drained after %d of %d merges", ErrInvariant, len(records), n-1)
		}

		rec, err := c.merge(item)
		if err != nil {
			return nil, err
		}

		records = append(records, rec)
	}

	return assemble(intervals, records), nil
}

// assemble replays merge records bottom-up. nodes[h] holds the current
// subtree of slot h; each record joins two slots into the left one.
func assemble(intervals []Interval, records []MergeRecord) *Tree {
	n := len(intervals)
	leaves := make([]*Node, n)
	nodes := make([]*Node, n)

	for i, iv := range intervals {
		leaves[i] = NewLeaf(i, iv)
		nodes[i] = leaves[i]
	}

	for i, rec := range records {
		nodes[rec.Left] = newInternal(n+i, nodes[rec.Left], nodes[rec.Right], rec.Cost, rec.Merged)
		nodes[rec.Right] = nil
	}

	return &Tree{Root: nodes[0], Leaves: leaves, Records: records}
}
