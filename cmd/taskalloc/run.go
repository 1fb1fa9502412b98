package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/elektrokombinacija/taskalloc-research/internal/algo"
	"github.com/elektrokombinacija/taskalloc-research/internal/core"
	"github.com/elektrokombinacija/taskalloc-research/internal/gen"
	"github.com/elektrokombinacija/taskalloc-research/internal/report"
	"github.com/elektrokombinacija/taskalloc-research/internal/sim"
)

// replayTolerance absorbs float summation differences between a solver's
// bookkeeping and the replay.
const replayTolerance = 1e-6

// instance loads the configured input file or generates a grid instance.
func (a *app) instance() (*core.Instance[core.Coord], int, error) {
	if a.cfg.Instance.Input != "" {
		f, err := gen.Load(a.cfg.Instance.Input)
		if err != nil {
			return nil, 0, err
		}
		return f.Instance, f.Params.GridSize, nil
	}

	inst, err := gen.Generate(gen.Params{
		Seed:      a.cfg.Instance.Seed,
		NumAgents: a.cfg.Instance.Agents,
		TaskCount: a.cfg.Instance.Tasks,
		GridSize:  a.cfg.Instance.Grid,
	})
	if err != nil {
		return nil, 0, err
	}
	return inst, a.cfg.Instance.Grid, nil
}

// searchOptions maps the configuration onto algo.Options.
func (a *app) searchOptions(grid, agents int) algo.Options {
	opts := algo.DefaultOptions()
	opts.Workers = a.cfg.Search.Workers
	opts.BranchAndBound = a.cfg.Search.BranchAndBound
	opts.Trace = a.cfg.Search.Trace
	opts.KeepTree = a.cfg.Search.KeepTree
	opts.Observer = a.observer()
	opts.Logger = a.logger
	if limit := a.cfg.Search.RestrictLimit(grid, agents); limit > 0 {
		opts.Restriction = algo.MaxDeadhead(limit)
		a.logger.Info("deadhead restriction enabled", zap.Float64("limit", limit))
	}
	return opts
}

func (a *app) runSearch(cmd *cobra.Command, args []string) error {
	inst, grid, err := a.instance()
	if err != nil {
		return err
	}
	printInstance(a.out, a.runID, inst)

	ctx, cancel := a.searchContext(cmd.Context())
	defer cancel()

	solver := algo.NewExhaustive[core.Coord](a.searchOptions(grid, len(inst.Agents)))
	start := time.Now()
	sol, err := solver.Solve(ctx, inst)
	elapsed := time.Since(start)
	if err != nil {
		return err
	}
	res := solver.Last()

	bound := algo.Bound(len(inst.Agents), len(inst.Tasks))
	fmt.Fprintf(a.out, "elapsed:  %s\n", report.FormatElapsed(elapsed))
	fmt.Fprintf(a.out, "nodes:    %s of %s (%.1f%%)\n",
		report.Count(res.Stats.Nodes), report.BigCount(bound), report.BoundShare(res.Stats.Nodes, bound))
	fmt.Fprintf(a.out, "leaves:   %s\n", report.Count(res.Stats.Leaves))
	if res.Stats.Vetoed > 0 || res.Stats.Cut > 0 {
		fmt.Fprintf(a.out, "vetoed:   %s  cut: %s\n", report.Count(res.Stats.Vetoed), report.Count(res.Stats.Cut))
	}
	fmt.Fprintf(a.out, "makespan: %.2f\n", res.Makespan)

	if a.cfg.Search.Trace {
		for _, e := range res.Path {
			if e.Trace != nil {
				fmt.Fprintf(a.out, "  agent %d task %d: %v -> %v -> %v (%.2f)\n",
					e.Agent, e.Task, e.Trace.Before, e.Trace.From, e.Trace.To, e.Trace.Cost)
			}
		}
	}
	return a.printSchedule(inst, sol)
}

func (a *app) runApprox(cmd *cobra.Command, args []string) error {
	inst, _, err := a.instance()
	if err != nil {
		return err
	}
	printInstance(a.out, a.runID, inst)

	ctx, cancel := a.searchContext(cmd.Context())
	defer cancel()

	solver := algo.NewGreedy[core.Coord](algo.GreedyOptions{Observer: a.observer(), Logger: a.logger})
	start := time.Now()
	sol, err := solver.Solve(ctx, inst)
	elapsed := time.Since(start)
	if err != nil {
		return err
	}
	res := solver.Last()

	fmt.Fprintf(a.out, "elapsed:  %s\n", report.FormatElapsed(elapsed))
	fmt.Fprintf(a.out, "rounds:   %d\n", res.Stats.Rounds)
	fmt.Fprintf(a.out, "pairs:    %s of %s\n",
		report.Count(res.Stats.Pairs), report.Count(algo.ApproxBound(len(inst.Agents), len(inst.Tasks))))
	fmt.Fprintf(a.out, "makespan: %.2f\n", res.Makespan)
	return a.printSchedule(inst, sol)
}

func (a *app) runCompare(cmd *cobra.Command, args []string) error {
	inst, grid, err := a.instance()
	if err != nil {
		return err
	}
	printInstance(a.out, a.runID, inst)

	ctx, cancel := a.searchContext(cmd.Context())
	defer cancel()

	solvers := []algo.Solver[core.Coord]{
		algo.NewExhaustive[core.Coord](a.searchOptions(grid, len(inst.Agents))),
		algo.NewGreedy[core.Coord](algo.GreedyOptions{Observer: a.observer(), Logger: a.logger}),
	}

	makespans := make([]float64, len(solvers))
	for i, solver := range solvers {
		start := time.Now()
		sol, err := solver.Solve(ctx, inst)
		if err != nil {
			return fmt.Errorf("%s: %w", solver.Name(), err)
		}
		if _, err := sim.Verify(inst, sol, replayTolerance); err != nil {
			return err
		}
		makespans[i] = sol.Makespan
		fmt.Fprintf(a.out, "%-10s makespan %8.2f  elapsed %s\n",
			solver.Name(), sol.Makespan, report.FormatElapsed(time.Since(start)))
	}
	fmt.Fprintf(a.out, "gap: %.1f%%\n", report.Gap(makespans[0], makespans[1]))
	return nil
}

// printSchedule replays sol and prints every agent's timeline.
func (a *app) printSchedule(inst *core.Instance[core.Coord], sol *core.Solution) error {
	sched, err := sim.Verify(inst, sol, replayTolerance)
	if err != nil {
		return err
	}
	for agent, line := range sched.Timelines {
		fmt.Fprintf(a.out, "agent %d (%.2f):", agent, sched.AgentTimes[agent])
		for _, v := range line {
			fmt.Fprintf(a.out, " t%d[%.0f-%.0f]", v.Task, v.Arrive, v.Complete)
		}
		fmt.Fprintln(a.out)
	}
	return nil
}

func printInstance(w io.Writer, runID string, inst *core.Instance[core.Coord]) {
	fmt.Fprintf(w, "run %s: %d agents, %d tasks\n", runID, len(inst.Agents), len(inst.Tasks))
}

func printBounds(w io.Writer, m, n int) {
	fmt.Fprintf(w, "agents %d, tasks %d\n", m, n)
	fmt.Fprintf(w, "nodes:  %s\n", report.BigCount(algo.Bound(m, n)))
	fmt.Fprintf(w, "leaves: %s\n", report.BigCount(algo.LeafBound(m, n)))
	fmt.Fprintf(w, "greedy: %s\n", report.Count(algo.ApproxBound(m, n)))
}
