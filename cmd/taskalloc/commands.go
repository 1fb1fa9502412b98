package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/elektrokombinacija/taskalloc-research/internal/algo"
	"github.com/elektrokombinacija/taskalloc-research/internal/config"
	"github.com/elektrokombinacija/taskalloc-research/internal/logging"
	"github.com/elektrokombinacija/taskalloc-research/internal/metrics"
)

// app is the state shared by every subcommand of one invocation.
type app struct {
	out io.Writer

	configPath string
	overrides  overrides

	cfg       *config.Config
	logger    *zap.Logger
	collector *metrics.Collector
	runID     string
}

// overrides are flag values applied on top of the loaded configuration when
// the flag was set explicitly.
type overrides struct {
	input          string
	agents         int
	tasks          int
	grid           int
	seed           int64
	workers        int
	branchAndBound bool
	trace          bool
	restrictFactor float64
	logLevel       string
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	rootCmd := &cobra.Command{
		Use:   "taskalloc",
		Short: "Assign tasks to agents with minimal makespan",
		Long: `taskalloc enumerates every order in which agents can serve tasks and
picks the assignment with the smallest makespan, or approximates it with a
greedy round-based heuristic.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "YAML configuration file")
	flags.StringVar(&a.overrides.input, "input", "", "load the instance from a JSON file")
	flags.IntVarP(&a.overrides.agents, "agents", "m", 0, "number of agents")
	flags.IntVarP(&a.overrides.tasks, "tasks", "n", 0, "number of tasks")
	flags.IntVar(&a.overrides.grid, "grid", 0, "grid side length")
	flags.Int64Var(&a.overrides.seed, "seed", 0, "random seed")
	flags.IntVarP(&a.overrides.workers, "workers", "w", 0, "parallel workers for exhaustive search")
	flags.BoolVar(&a.overrides.branchAndBound, "bnb", false, "cut branches worse than the best complete assignment")
	flags.BoolVar(&a.overrides.trace, "trace", false, "print the route of every assignment")
	flags.Float64Var(&a.overrides.restrictFactor, "restrict-factor", 0, "veto deadheads above factor*grid/agents")
	flags.StringVar(&a.overrides.logLevel, "log-level", "", "debug, info, warn or error")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "search",
			Short: "Run the exhaustive search",
			Args:  cobra.NoArgs,
			RunE:  a.withTeardown(a.runSearch),
		},
		&cobra.Command{
			Use:   "approx",
			Short: "Run the greedy heuristic",
			Args:  cobra.NoArgs,
			RunE:  a.withTeardown(a.runApprox),
		},
		&cobra.Command{
			Use:   "compare",
			Short: "Run both and report the optimality gap",
			Args:  cobra.NoArgs,
			RunE:  a.withTeardown(a.runCompare),
		},
		&cobra.Command{
			Use:   "bound [agents] [tasks]",
			Short: "Print the search space size without searching",
			Args:  cobra.RangeArgs(0, 2),
			RunE:  a.withTeardown(a.runBound),
		},
	)
	return rootCmd
}

// setup loads the configuration, applies flag overrides and builds the
// logger and metrics collector.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.NewLoader().WithConfigPath(a.configPath).Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.Instance.Input = a.overrides.input
	}
	if flags.Changed("agents") {
		cfg.Instance.Agents = a.overrides.agents
	}
	if flags.Changed("tasks") {
		cfg.Instance.Tasks = a.overrides.tasks
	}
	if flags.Changed("grid") {
		cfg.Instance.Grid = a.overrides.grid
	}
	if flags.Changed("seed") {
		cfg.Instance.Seed = a.overrides.seed
	}
	if flags.Changed("workers") {
		cfg.Search.Workers = a.overrides.workers
	}
	if flags.Changed("bnb") {
		cfg.Search.BranchAndBound = a.overrides.branchAndBound
	}
	if flags.Changed("trace") {
		cfg.Search.Trace = a.overrides.trace
	}
	if flags.Changed("restrict-factor") {
		cfg.Search.RestrictFactor = a.overrides.restrictFactor
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = a.overrides.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logging.New(cfg.Log)
	a.runID = uuid.NewString()
	a.logger = a.logger.With(zap.String("run_id", a.runID))
	a.collector = metrics.NewCollector("taskalloc", nil, a.logger)
	return nil
}

// withTeardown runs teardown after run returns, including on error.
func (a *app) withTeardown(run func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if terr := a.teardown(); err == nil {
				err = terr
			}
		}()
		return run(cmd, args)
	}
}

func (a *app) teardown() error {
	defer func() { _ = a.logger.Sync() }()
	if a.cfg.Metrics.File == "" {
		return nil
	}
	return a.collector.WriteToTextfile(a.cfg.Metrics.File)
}

// observer fans search events out to the log and the metrics collector.
func (a *app) observer() algo.Observer {
	return algo.Observers{logging.NewObserver(a.logger), a.collector}
}

// searchContext bounds the search by the configured timeout.
func (a *app) searchContext(parent context.Context) (context.Context, context.CancelFunc) {
	if a.cfg.Search.Timeout > 0 {
		return context.WithTimeout(parent, a.cfg.Search.Timeout)
	}
	return context.WithCancel(parent)
}

func (a *app) runBound(cmd *cobra.Command, args []string) error {
	m, n := a.cfg.Instance.Agents, a.cfg.Instance.Tasks
	if len(args) > 0 {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("agents: %w", err)
		}
		m = v
	}
	if len(args) > 1 {
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("tasks: %w", err)
		}
		n = v
	}
	printBounds(a.out, m, n)
	return nil
}
