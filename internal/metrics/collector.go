// Package metrics records search activity as Prometheus metrics.
package metrics

import (
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/elektrokombinacija/taskalloc-research/internal/algo"
)

// Collector implements algo.Observer on top of a Prometheus registry.
type Collector struct {
	searchesTotal   *prometheus.CounterVec
	searchDuration  *prometheus.HistogramVec
	nodesTotal      *prometheus.CounterVec
	leavesTotal     *prometheus.CounterVec
	vetoedTotal     *prometheus.CounterVec
	cutTotal        *prometheus.CounterVec
	roundsTotal     *prometheus.CounterVec
	pairsTotal      *prometheus.CounterVec
	incumbentsTotal *prometheus.CounterVec
	lastMakespan    *prometheus.GaugeVec
	instanceSize    *prometheus.GaugeVec

	registry *prometheus.Registry
	logger   *zap.Logger
}

var _ algo.Observer = (*Collector)(nil)

// NewCollector registers the search metrics on reg under namespace. A nil reg
// gets a fresh registry.
func NewCollector(namespace string, reg *prometheus.Registry, logger *zap.Logger) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)

	c := &Collector{
		registry: reg,
		logger:   logger.With(zap.String("component", "metrics")),
	}

	c.searchesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Total number of finished searches",
		},
		[]string{"solver", "outcome"},
	)

	c.searchDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Search duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 10, 8),
		},
		[]string{"solver"},
	)

	c.nodesTotal = counter(factory, namespace, "nodes_total", "Search tree nodes built")
	c.leavesTotal = counter(factory, namespace, "leaves_total", "Complete assignments evaluated")
	c.vetoedTotal = counter(factory, namespace, "vetoed_branches_total", "Branches rejected by the restriction")
	c.cutTotal = counter(factory, namespace, "cut_branches_total", "Branches cut by branch-and-bound")
	c.roundsTotal = counter(factory, namespace, "greedy_rounds_total", "Greedy rounds run")
	c.pairsTotal = counter(factory, namespace, "greedy_pairs_total", "Greedy agent-task pairs scored")
	c.incumbentsTotal = counter(factory, namespace, "incumbent_updates_total", "Branch-and-bound incumbent improvements")

	c.lastMakespan = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_makespan",
			Help:      "Makespan of the last successful search",
		},
		[]string{"solver"},
	)

	c.instanceSize = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "instance_size",
			Help:      "Agents and tasks of the last started search",
		},
		[]string{"solver", "dimension"},
	)

	return c
}

func counter(factory promauto.Factory, namespace, name, help string) *prometheus.CounterVec {
	return factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		},
		[]string{"solver"},
	)
}

// Registry returns the registry the collector writes to.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

func (c *Collector) OnSearchStarted(solver string, agents, tasks int) {
	c.instanceSize.WithLabelValues(solver, "agents").Set(float64(agents))
	c.instanceSize.WithLabelValues(solver, "tasks").Set(float64(tasks))
}

func (c *Collector) OnIncumbent(solver string, _ float64) {
	c.incumbentsTotal.WithLabelValues(solver).Inc()
}

func (c *Collector) OnRound(string, int, int, int) {}

func (c *Collector) OnSearchFinished(solver string, stats algo.Stats, makespan float64, elapsed time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	c.searchesTotal.WithLabelValues(solver, outcome).Inc()
	c.searchDuration.WithLabelValues(solver).Observe(elapsed.Seconds())

	c.nodesTotal.WithLabelValues(solver).Add(float64(stats.Nodes))
	c.leavesTotal.WithLabelValues(solver).Add(float64(stats.Leaves))
	c.vetoedTotal.WithLabelValues(solver).Add(float64(stats.Vetoed))
	c.cutTotal.WithLabelValues(solver).Add(float64(stats.Cut))
	c.roundsTotal.WithLabelValues(solver).Add(float64(stats.Rounds))
	c.pairsTotal.WithLabelValues(solver).Add(float64(stats.Pairs))

	if err == nil && !math.IsInf(makespan, 0) {
		c.lastMakespan.WithLabelValues(solver).Set(makespan)
	}
}

// WriteToTextfile writes the registry in text exposition format, for the node
// exporter textfile collector or later inspection.
func (c *Collector) WriteToTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	c.logger.Debug("metrics written", zap.String("path", path))
	return nil
}
