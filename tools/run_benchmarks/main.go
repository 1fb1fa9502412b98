// Command run_benchmarks runs both solvers on every instance of a directory
// and writes a CSV plus a summary table.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/elektrokombinacija/taskalloc-research/internal/algo"
	"github.com/elektrokombinacija/taskalloc-research/internal/core"
	"github.com/elektrokombinacija/taskalloc-research/internal/gen"
	"github.com/elektrokombinacija/taskalloc-research/internal/report"
	"github.com/elektrokombinacija/taskalloc-research/internal/sim"
)

type options struct {
	inputDir    string
	outputFile  string
	timeout     time.Duration
	solvers     string
	agentFilter int
	workers     int
	verbose     bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "run_benchmarks",
		Short: "Benchmark the exhaustive search against the greedy heuristic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.inputDir, "input", "testdata", "directory containing instance JSON files")
	flags.StringVar(&opts.outputFile, "output", "evidence/benchmark_results.csv", "output CSV file")
	flags.DurationVar(&opts.timeout, "timeout", 5*time.Minute, "timeout per solver run")
	flags.StringVar(&opts.solvers, "solver", "", "run only these solvers (comma-separated)")
	flags.IntVar(&opts.agentFilter, "agents", 0, "run only instances with this many agents (0 = all)")
	flags.IntVar(&opts.workers, "workers", 1, "parallel workers for exhaustive search")
	flags.BoolVar(&opts.verbose, "verbose", false, "verbose output")
	return cmd
}

func newSolvers(workers int) []algo.Solver[core.Coord] {
	exhaustive := algo.DefaultOptions()
	exhaustive.Workers = workers
	exhaustive.BranchAndBound = true
	return []algo.Solver[core.Coord]{
		algo.NewExhaustive[core.Coord](exhaustive),
		algo.NewGreedy[core.Coord](algo.GreedyOptions{}),
	}
}

func run(ctx context.Context, out io.Writer, opts options) error {
	files, err := filepath.Glob(filepath.Join(opts.inputDir, "*.json"))
	if err != nil {
		return fmt.Errorf("find instance files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no instance files found in %s; run gen_instances first", opts.inputDir)
	}

	solvers := newSolvers(opts.workers)
	if opts.solvers != "" {
		want := make(map[string]bool)
		for _, name := range strings.Split(opts.solvers, ",") {
			want[strings.TrimSpace(name)] = true
		}
		active := solvers[:0]
		for _, s := range solvers {
			if want[s.Name()] {
				active = append(active, s)
			}
		}
		solvers = active
	}

	runID := uuid.NewString()
	fmt.Fprintf(out, "Running benchmarks %s: %d instances x %d solvers\n", runID, len(files), len(solvers))

	var results []report.Result
	for _, file := range files {
		f, err := gen.Load(file)
		if err != nil {
			fmt.Fprintf(out, "Error loading %s: %v\n", file, err)
			continue
		}
		if opts.agentFilter > 0 && len(f.Instance.Agents) != opts.agentFilter {
			continue
		}

		for _, solver := range solvers {
			r := runSolver(ctx, solver, f, opts.timeout)
			r.RunID = runID
			results = append(results, r)

			if opts.verbose {
				if r.Success {
					fmt.Fprintf(out, "%s / %s: OK (%s, makespan=%.2f)\n", f.Name, r.Solver, report.FormatElapsed(r.Elapsed), r.Makespan)
				} else {
					fmt.Fprintf(out, "%s / %s: FAILED (%s)\n", f.Name, r.Solver, r.Error)
				}
			}
		}
	}

	if err := report.WriteCSVFile(opts.outputFile, results); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	fmt.Fprintf(out, "Results written to: %s\n\n", opts.outputFile)
	report.WriteSummary(out, results)
	return nil
}

// runSolver solves one instance and verifies the solution by replay.
func runSolver(ctx context.Context, solver algo.Solver[core.Coord], f *gen.File, timeout time.Duration) report.Result {
	m, n := len(f.Instance.Agents), len(f.Instance.Tasks)
	r := report.Result{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Instance:  f.Name,
		Agents:    m,
		Tasks:     n,
		Solver:    solver.Name(),
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	sol, err := solver.Solve(ctx, f.Instance)
	r.Elapsed = time.Since(start)
	if err == nil {
		_, err = sim.Verify(f.Instance, sol, 1e-6)
	}
	if err != nil {
		r.Error = err.Error()
		return r
	}

	r.Success = true
	r.Makespan = sol.Makespan
	switch s := solver.(type) {
	case *algo.Exhaustive[core.Coord]:
		r.Nodes = s.Last().Stats.Nodes
		r.Bound = algo.Bound(m, n)
	case *algo.Greedy[core.Coord]:
		r.Nodes = s.Last().Stats.Pairs
	}
	return r
}
