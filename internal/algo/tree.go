package algo

import (
	"math"

	"github.com/elektrokombinacija/taskalloc-research/internal/core"
)

// Trace is the optional diagnostic payload of an edge. It only exists for
// replay and printing; selection never reads it.
type Trace[T core.State[T]] struct {
	Before T       // agent state before the task
	From   T       // task pickup
	To     T       // task drop-off
	Cost   float64 // deadhead + loaded distance
}

// Edge assigns a task to an agent.
type Edge[T core.State[T]] struct {
	Agent int
	Task  core.TaskID
	Cost  float64
	Trace *Trace[T]
}

// Node is a decision in the search tree. It owns its children.
type Node[T core.State[T]] struct {
	Edge     Edge[T]
	Children []*Node[T]

	// MinPathTime is the makespan at a leaf, the minimum over children for
	// internal nodes, and +Inf for dead ends with no complete leaf below.
	MinPathTime float64

	// Best indexes the first child achieving MinPathTime, -1 when childless.
	Best int
}

// IsDeadEnd reports whether the node could not be completed.
func (n *Node[T]) IsDeadEnd() bool {
	return math.IsInf(n.MinPathTime, 1)
}

// Size returns the number of nodes in the subtree rooted at n, n included.
func (n *Node[T]) Size() uint64 {
	count := uint64(1)
	for _, c := range n.Children {
		count += c.Size()
	}
	return count
}

// Forest is the root of a search: one top-level node per initial
// (agent, task) pairing that survived the restriction.
type Forest[T core.State[T]] struct {
	Children    []*Node[T]
	MinPathTime float64
	Best        int

	// Tasks is the depth of a complete assignment.
	Tasks int
}

// Size returns the number of reachable nodes (the root excluded), which
// equals the number of edges.
func (f *Forest[T]) Size() uint64 {
	var count uint64
	for _, c := range f.Children {
		count += c.Size()
	}
	return count
}

// LeafCount returns the number of complete assignments in the tree.
func (f *Forest[T]) LeafCount() uint64 {
	var count uint64
	f.Walk(func(path []Edge[T], n *Node[T]) bool {
		if len(path) == f.Tasks {
			count++
		}
		return true
	})
	return count
}

// Walk visits every node depth-first in declared order. path holds the edges
// from the root to n inclusive and is reused between calls; copy it to keep
// it. Returning false skips the node's subtree.
func (f *Forest[T]) Walk(fn func(path []Edge[T], n *Node[T]) bool) {
	path := make([]Edge[T], 0, f.Tasks)
	var visit func(n *Node[T])
	visit = func(n *Node[T]) {
		path = append(path, n.Edge)
		if fn(path, n) {
			for _, c := range n.Children {
				visit(c)
			}
		}
		path = path[:len(path)-1]
	}
	for _, c := range f.Children {
		visit(c)
	}
}
