package algo

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/elektrokombinacija/taskalloc-research/internal/core"
)

// GreedyOptions configures ApproximateConstruct.
type GreedyOptions struct {
	Observer Observer
	Logger   *zap.Logger
}

// GreedyResult is the outcome of ApproximateConstruct.
type GreedyResult struct {
	// Assignments in acceptance order; Round starts at 1.
	Assignments []core.Assignment
	AgentTimes  []float64
	Makespan    float64
	Stats       Stats
}

// Solution converts the result into a core.Solution.
func (r *GreedyResult) Solution(solver string) *core.Solution {
	sol := core.NewSolution(solver, len(r.AgentTimes))
	sol.Sequence = append([]core.Assignment(nil), r.Assignments...)
	sol.ComputeMakespan()
	sol.Feasible = true
	return sol
}

// pair is a scored (agent, task) candidate of one round.
type pair struct {
	agent    int
	task     int // index into the remaining pool
	deadhead float64
}

const greedyName = "Greedy"

// ApproximateConstruct assigns tasks in rounds of conflict-free,
// cheapest-deadhead-first matching.
//
// Each round scores every (agent, remaining task) pair, sorts ascending by
// deadhead (ties by agent index, then declared task order) and accepts a pair
// when neither its agent nor its task was claimed earlier in the round. This
// is a local matching per round, not a global assignment optimum.
func ApproximateConstruct[T core.State[T]](ctx context.Context, agents []core.Agent[T], tasks []core.Task[T], opts GreedyOptions) (*GreedyResult, error) {
	if len(agents) == 0 {
		return nil, fmt.Errorf("approximate: %w: no agents", core.ErrInvalidConfiguration)
	}
	if err := core.ValidateTasks(tasks); err != nil {
		return nil, fmt.Errorf("approximate: %w", err)
	}

	obs := observerOrNop(opts.Observer)
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	obs.OnSearchStarted(greedyName, len(agents), len(tasks))
	start := time.Now()
	res, err := approximate(ctx, agents, tasks, obs)
	elapsed := time.Since(start)

	var (
		stats    Stats
		makespan float64
	)
	if res != nil {
		stats, makespan = res.Stats, res.Makespan
	}
	obs.OnSearchFinished(greedyName, stats, makespan, elapsed, err)
	logger.Debug("greedy search finished",
		zap.Int("agents", len(agents)),
		zap.Int("tasks", len(tasks)),
		zap.Int("rounds", stats.Rounds),
		zap.Uint64("pairs", stats.Pairs),
		zap.Float64("makespan", makespan),
		zap.Duration("elapsed", elapsed),
		zap.Error(err),
	)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func approximate[T core.State[T]](ctx context.Context, agents []core.Agent[T], tasks []core.Task[T], obs Observer) (*GreedyResult, error) {
	states := core.States(agents)
	res := &GreedyResult{
		Assignments: make([]core.Assignment, 0, len(tasks)),
		AgentTimes:  make([]float64, len(agents)),
	}

	pool := make([]core.Task[T], len(tasks))
	copy(pool, tasks)

	pairs := make([]pair, 0, len(agents)*len(tasks))
	for len(pool) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res.Stats.Rounds++

		pairs = pairs[:0]
		for ai, s := range states {
			for ti, t := range pool {
				d, err := core.Cost(s, t.From)
				if err != nil {
					return nil, fmt.Errorf("approximate: agent %d to task %d: %w", ai, t.ID, err)
				}
				pairs = append(pairs, pair{agent: ai, task: ti, deadhead: d})
			}
		}
		res.Stats.Pairs += uint64(len(pairs))

		// Pairs are generated agent-major, so a stable sort keeps the
		// documented tie order.
		sort.SliceStable(pairs, func(i, j int) bool {
			return pairs[i].deadhead < pairs[j].deadhead
		})

		agentClaimed := make([]bool, len(states))
		taskClaimed := make([]bool, len(pool))
		accepted := 0
		for _, p := range pairs {
			if agentClaimed[p.agent] || taskClaimed[p.task] {
				continue
			}
			t := pool[p.task]
			length, err := t.Length()
			if err != nil {
				return nil, fmt.Errorf("approximate: task %d: %w", t.ID, err)
			}

			cost, err := core.AddCost(p.deadhead, length)
			if err != nil {
				return nil, fmt.Errorf("approximate: agent %d to task %d: %w", p.agent, t.ID, err)
			}
			if res.AgentTimes[p.agent], err = core.AddCost(res.AgentTimes[p.agent], cost); err != nil {
				return nil, fmt.Errorf("approximate: agent %d total: %w", p.agent, err)
			}
			states[p.agent] = t.To
			res.Assignments = append(res.Assignments, core.Assignment{
				Agent: p.agent,
				Task:  t.ID,
				Cost:  cost,
				Round: res.Stats.Rounds,
			})

			agentClaimed[p.agent] = true
			taskClaimed[p.task] = true
			accepted++
			if accepted == len(states) || accepted == len(pool) {
				break
			}
		}

		// Drop claimed tasks, keeping declared order for the next round.
		rest := pool[:0]
		for ti, t := range pool {
			if !taskClaimed[ti] {
				rest = append(rest, t)
			}
		}
		pool = rest

		obs.OnRound(greedyName, res.Stats.Rounds, accepted, len(pool))
	}

	res.Makespan = core.Makespan(res.AgentTimes)
	return res, nil
}
