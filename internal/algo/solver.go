// Package algo implements task allocation algorithms: an exhaustive
// enumeration of every assignment order and a greedy round-based heuristic.
package algo

import (
	"context"
	"fmt"

	"github.com/elektrokombinacija/taskalloc-research/internal/core"
)

// Solver is the interface for task allocation algorithms.
type Solver[T core.State[T]] interface {
	// Solve attempts to find a solution for the instance.
	Solve(ctx context.Context, inst *core.Instance[T]) (*core.Solution, error)

	// Name returns the algorithm name.
	Name() string
}

// Exhaustive solves instances with Construct.
type Exhaustive[T core.State[T]] struct {
	Options Options

	last *Result[T]
}

// NewExhaustive creates an exhaustive solver.
func NewExhaustive[T core.State[T]](opts Options) *Exhaustive[T] {
	return &Exhaustive[T]{Options: opts}
}

func (e *Exhaustive[T]) Name() string { return exhaustiveName }

// Solve runs Construct on the instance.
func (e *Exhaustive[T]) Solve(ctx context.Context, inst *core.Instance[T]) (*core.Solution, error) {
	if err := inst.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", e.Name(), err)
	}
	res, err := Construct(ctx, inst.Agents, inst.Tasks, e.Options)
	if err != nil {
		return nil, err
	}
	e.last = res
	return res.Solution(e.Name(), len(inst.Agents)), nil
}

// Last returns the full result of the most recent successful Solve, nil
// before the first one. Not safe for concurrent Solve calls.
func (e *Exhaustive[T]) Last() *Result[T] { return e.last }

// Greedy solves instances with ApproximateConstruct.
type Greedy[T core.State[T]] struct {
	Options GreedyOptions

	last *GreedyResult
}

// NewGreedy creates a greedy solver.
func NewGreedy[T core.State[T]](opts GreedyOptions) *Greedy[T] {
	return &Greedy[T]{Options: opts}
}

func (g *Greedy[T]) Name() string { return greedyName }

// Solve runs ApproximateConstruct on the instance.
func (g *Greedy[T]) Solve(ctx context.Context, inst *core.Instance[T]) (*core.Solution, error) {
	if err := inst.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", g.Name(), err)
	}
	res, err := ApproximateConstruct(ctx, inst.Agents, inst.Tasks, g.Options)
	if err != nil {
		return nil, err
	}
	g.last = res
	return res.Solution(g.Name()), nil
}

// Last returns the full result of the most recent successful Solve.
func (g *Greedy[T]) Last() *GreedyResult { return g.last }
