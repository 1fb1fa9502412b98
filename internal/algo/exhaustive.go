package algo

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/elektrokombinacija/taskalloc-research/internal/core"
)

// Restriction reports whether a candidate (agent, task) branch must be
// skipped. It only sees the deadhead distance from the agent's current state
// to the task's pickup. Restrictions must be pure.
type Restriction func(deadhead float64) bool

// MaxDeadhead vetoes branches whose deadhead exceeds limit.
func MaxDeadhead(limit float64) Restriction {
	return func(deadhead float64) bool { return deadhead > limit }
}

// Options configures Construct.
type Options struct {
	// Restriction vetoes branches before they are explored. nil explores all.
	Restriction Restriction

	// Trace attaches the diagnostic payload to every edge.
	Trace bool

	// KeepTree returns the full Forest in the result. Otherwise the tree is
	// dropped once the best path is extracted and only Stats remain.
	KeepTree bool

	// Workers > 1 builds top-level subtrees concurrently.
	Workers int

	// BranchAndBound cuts branches whose partial makespan already exceeds the
	// best complete assignment found so far.
	BranchAndBound bool

	Observer Observer
	Logger   *zap.Logger
}

// DefaultOptions returns a sequential, unrestricted search without traces.
func DefaultOptions() Options {
	return Options{Workers: 1}
}

// Stats counts the work of one search. Counters are per builder and summed,
// never shared.
type Stats struct {
	Nodes    uint64 // nodes built, equals edges
	Leaves   uint64 // complete assignments
	DeadEnds uint64 // internal nodes with no complete assignment below
	Vetoed   uint64 // branches rejected by the restriction
	Cut      uint64 // branches cut by branch-and-bound
	Rounds   int    // greedy rounds
	Pairs    uint64 // greedy (agent, task) pairs evaluated
}

func (s *Stats) add(o Stats) {
	s.Nodes += o.Nodes
	s.Leaves += o.Leaves
	s.DeadEnds += o.DeadEnds
	s.Vetoed += o.Vetoed
	s.Cut += o.Cut
	s.Rounds += o.Rounds
	s.Pairs += o.Pairs
}

// Result is the outcome of Construct.
type Result[T core.State[T]] struct {
	// Path is the winning edge sequence in root-to-leaf order.
	Path     []Edge[T]
	Makespan float64
	// Forest is nil unless Options.KeepTree is set.
	Forest *Forest[T]
	Stats  Stats
}

// Solution converts the result into a core.Solution.
func (r *Result[T]) Solution(solver string, agents int) *core.Solution {
	sol := core.NewSolution(solver, agents)
	sol.Sequence = make([]core.Assignment, len(r.Path))
	for i, e := range r.Path {
		sol.Sequence[i] = core.Assignment{Agent: e.Agent, Task: e.Task, Cost: e.Cost}
	}
	sol.ComputeMakespan()
	sol.Feasible = true
	return sol
}

const exhaustiveName = "Exhaustive"

// Construct enumerates every order in which agents can serve tasks, folds the
// minimal makespan bottom-up and returns the best edge sequence.
//
// Ties between children with equal MinPathTime go to the first child in
// declared order (agent-major, then task order). Zero agents fail with
// core.ErrInvalidConfiguration; zero tasks yield an empty zero-cost result.
func Construct[T core.State[T]](ctx context.Context, agents []core.Agent[T], tasks []core.Task[T], opts Options) (*Result[T], error) {
	if len(agents) == 0 {
		return nil, fmt.Errorf("construct: %w: no agents", core.ErrInvalidConfiguration)
	}
	if err := core.ValidateTasks(tasks); err != nil {
		return nil, fmt.Errorf("construct: %w", err)
	}

	obs := observerOrNop(opts.Observer)
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	obs.OnSearchStarted(exhaustiveName, len(agents), len(tasks))
	start := time.Now()
	res, stats, err := construct(ctx, agents, tasks, opts, obs)
	elapsed := time.Since(start)

	makespan := math.Inf(1)
	if res != nil {
		makespan = res.Makespan
	}
	obs.OnSearchFinished(exhaustiveName, stats, makespan, elapsed, err)
	logger.Debug("exhaustive search finished",
		zap.Int("agents", len(agents)),
		zap.Int("tasks", len(tasks)),
		zap.Uint64("nodes", stats.Nodes),
		zap.Uint64("leaves", stats.Leaves),
		zap.Uint64("vetoed", stats.Vetoed),
		zap.Uint64("cut", stats.Cut),
		zap.Float64("makespan", makespan),
		zap.Duration("elapsed", elapsed),
		zap.Error(err),
	)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func construct[T core.State[T]](ctx context.Context, agents []core.Agent[T], tasks []core.Task[T], opts Options, obs Observer) (*Result[T], Stats, error) {
	forest := &Forest[T]{Tasks: len(tasks), Best: -1}
	if len(tasks) == 0 {
		res := &Result[T]{Path: []Edge[T]{}}
		if opts.KeepTree {
			res.Forest = forest
		}
		return res, Stats{}, nil
	}

	lengths := make([]float64, len(tasks))
	for i, t := range tasks {
		l, err := t.Length()
		if err != nil {
			return nil, Stats{}, fmt.Errorf("construct: task %d: %w", t.ID, err)
		}
		lengths[i] = l
	}

	s := &search[T]{
		tasks:       tasks,
		lengths:     lengths,
		restriction: opts.Restriction,
		trace:       opts.Trace,
		bnb:         opts.BranchAndBound,
		incumbent:   newIncumbent(),
		obs:         obs,
	}

	states := core.States(agents)
	times := make([]float64, len(agents))
	pool := make([]int, len(tasks))
	for i := range pool {
		pool[i] = i
	}

	var (
		stats Stats
		err   error
	)
	if opts.Workers > 1 {
		forest.Children, forest.Best, forest.MinPathTime, stats, err = s.expandParallel(ctx, opts.Workers, states, times, pool)
	} else {
		b := &builder[T]{search: s, ctx: ctx}
		forest.Children, forest.Best, forest.MinPathTime, err = b.expand(states, times, pool)
		stats = b.stats
	}
	if err != nil {
		return nil, stats, err
	}

	if forest.Best < 0 || math.IsInf(forest.MinPathTime, 1) {
		return nil, stats, fmt.Errorf("construct: %w: %d branches vetoed", core.ErrInfeasible, stats.Vetoed)
	}

	path, err := forest.BestPath()
	if err != nil {
		return nil, stats, err
	}

	res := &Result[T]{Path: path, Makespan: forest.MinPathTime, Stats: stats}
	if opts.KeepTree {
		res.Forest = forest
	}
	return res, stats, nil
}

// search holds read-only data shared by every builder of one Construct call.
type search[T core.State[T]] struct {
	tasks       []core.Task[T]
	lengths     []float64 // loaded distance per task index
	restriction Restriction
	trace       bool
	bnb         bool
	incumbent   *incumbent
	obs         Observer
}

// builder owns the counters of one goroutine.
type builder[T core.State[T]] struct {
	*search[T]
	ctx   context.Context
	stats Stats
	steps uint64
}

// tick performs a rare cancellation check (every 4096 node events).
func (b *builder[T]) tick() error {
	b.steps++
	if b.steps&4095 != 0 {
		return nil
	}
	return b.ctx.Err()
}

// expand builds the children of a node whose agents are at states with
// accumulated times, pool holding the indices of the remaining tasks.
// It returns the children, the index of the first best child and its value.
func (b *builder[T]) expand(states []T, times []float64, pool []int) ([]*Node[T], int, float64, error) {
	children := make([]*Node[T], 0, len(states)*len(pool))
	best, bestTime := -1, math.Inf(1)

	for ai := range states {
		for pi := range pool {
			child, err := b.branch(states, times, pool, ai, pi)
			if err != nil {
				return nil, -1, 0, err
			}
			if child == nil {
				continue
			}
			if child.MinPathTime < bestTime {
				bestTime = child.MinPathTime
				best = len(children)
			}
			children = append(children, child)
		}
	}

	return children, best, bestTime, nil
}

// branch builds the subtree for agent ai taking pool[pi]. It returns nil when
// the branch is vetoed or cut.
func (b *builder[T]) branch(states []T, times []float64, pool []int, ai, pi int) (*Node[T], error) {
	if err := b.tick(); err != nil {
		return nil, err
	}

	ti := pool[pi]
	task := b.tasks[ti]
	deadhead, err := core.Cost(states[ai], task.From)
	if err != nil {
		return nil, fmt.Errorf("construct: agent %d to task %d: %w", ai, task.ID, err)
	}
	if b.restriction != nil && b.restriction(deadhead) {
		b.stats.Vetoed++
		return nil, nil
	}

	cost, err := core.AddCost(deadhead, b.lengths[ti])
	if err != nil {
		return nil, fmt.Errorf("construct: agent %d to task %d: %w", ai, task.ID, err)
	}
	nextTimes := make([]float64, len(times))
	copy(nextTimes, times)
	if nextTimes[ai], err = core.AddCost(times[ai], cost); err != nil {
		return nil, fmt.Errorf("construct: agent %d total: %w", ai, err)
	}

	if b.bnb && core.Makespan(nextTimes) > b.incumbent.load() {
		b.stats.Cut++
		return nil, nil
	}

	node := &Node[T]{
		Edge: Edge[T]{Agent: ai, Task: task.ID, Cost: cost},
		Best: -1,
	}
	if b.trace {
		node.Edge.Trace = &Trace[T]{Before: states[ai], From: task.From, To: task.To, Cost: cost}
	}
	b.stats.Nodes++

	if len(pool) == 1 {
		node.MinPathTime = core.Makespan(nextTimes)
		b.stats.Leaves++
		if b.bnb && b.incumbent.offer(node.MinPathTime) {
			b.obs.OnIncumbent(exhaustiveName, node.MinPathTime)
		}
		return node, nil
	}

	nextStates := make([]T, len(states))
	copy(nextStates, states)
	nextStates[ai] = task.To

	rest := make([]int, 0, len(pool)-1)
	rest = append(rest, pool[:pi]...)
	rest = append(rest, pool[pi+1:]...)

	node.Children, node.Best, node.MinPathTime, err = b.expand(nextStates, nextTimes, rest)
	if err != nil {
		return nil, err
	}
	if node.IsDeadEnd() {
		b.stats.DeadEnds++
	}
	return node, nil
}

// expandParallel builds each top-level branch on its own goroutine. Slots are
// combined in declared order with a strict minimum, so the lowest index wins
// ties regardless of completion order.
func (s *search[T]) expandParallel(ctx context.Context, workers int, states []T, times []float64, pool []int) ([]*Node[T], int, float64, Stats, error) {
	n := len(states) * len(pool)
	slots := make([]*Node[T], n)
	slotStats := make([]Stats, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for ai := range states {
		for pi := range pool {
			k := ai*len(pool) + pi
			ai, pi := ai, pi
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				b := &builder[T]{search: s, ctx: gctx}
				child, err := b.branch(states, times, pool, ai, pi)
				slots[k] = child
				slotStats[k] = b.stats
				return err
			})
		}
	}

	var stats Stats
	err := g.Wait()
	for _, st := range slotStats {
		stats.add(st)
	}
	if err != nil {
		return nil, -1, 0, stats, err
	}

	children := make([]*Node[T], 0, n)
	best, bestTime := -1, math.Inf(1)
	for _, child := range slots {
		if child == nil {
			continue
		}
		if child.MinPathTime < bestTime {
			bestTime = child.MinPathTime
			best = len(children)
		}
		children = append(children, child)
	}
	return children, best, bestTime, stats, nil
}

// incumbent is the best complete makespan seen so far, shared by builders.
type incumbent struct {
	bits atomic.Uint64
}

func newIncumbent() *incumbent {
	i := &incumbent{}
	i.bits.Store(math.Float64bits(math.Inf(1)))
	return i
}

func (i *incumbent) load() float64 {
	return math.Float64frombits(i.bits.Load())
}

// offer records v if it improves the incumbent and reports whether it did.
func (i *incumbent) offer(v float64) bool {
	for {
		old := i.bits.Load()
		if v >= math.Float64frombits(old) {
			return false
		}
		if i.bits.CompareAndSwap(old, math.Float64bits(v)) {
			return true
		}
	}
}
