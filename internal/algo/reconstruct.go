package algo

import (
	"fmt"

	"github.com/elektrokombinacija/taskalloc-research/internal/core"
)

// BestPath walks the recorded best children from the root to a leaf.
//
// Every chosen child must carry its parent's folded value and the path must
// cover every task; anything else is a fold defect reported as
// core.ErrReconstruction.
func (f *Forest[T]) BestPath() ([]Edge[T], error) {
	path := make([]Edge[T], 0, f.Tasks)
	children, best, val := f.Children, f.Best, f.MinPathTime

	for len(children) > 0 {
		if best < 0 || best >= len(children) {
			return nil, fmt.Errorf("%w: best index %d out of %d children at depth %d",
				core.ErrReconstruction, best, len(children), len(path))
		}
		n := children[best]
		if n.MinPathTime != val {
			return nil, fmt.Errorf("%w: child value %v differs from folded %v at depth %d",
				core.ErrReconstruction, n.MinPathTime, val, len(path))
		}
		path = append(path, n.Edge)
		children, best = n.Children, n.Best
	}

	if len(path) != f.Tasks {
		return nil, fmt.Errorf("%w: path covers %d of %d tasks",
			core.ErrReconstruction, len(path), f.Tasks)
	}
	return path, nil
}

// PathByValue relocates the best path by value: at each level it takes the
// first child whose MinPathTime equals the parent's. It is an independent
// check of BestPath and follows the same tie-break rule.
func (f *Forest[T]) PathByValue() ([]Edge[T], error) {
	path := make([]Edge[T], 0, f.Tasks)
	children, val := f.Children, f.MinPathTime

	for len(children) > 0 {
		var next *Node[T]
		for _, c := range children {
			if c.MinPathTime == val {
				next = c
				break
			}
		}
		if next == nil {
			return nil, fmt.Errorf("%w: no child with value %v at depth %d",
				core.ErrReconstruction, val, len(path))
		}
		path = append(path, next.Edge)
		children = next.Children
	}

	if len(path) != f.Tasks {
		return nil, fmt.Errorf("%w: path covers %d of %d tasks",
			core.ErrReconstruction, len(path), f.Tasks)
	}
	return path, nil
}
