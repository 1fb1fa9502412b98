package algo

import "time"

// Observer is the interface for observing solver execution.
// Implementations must be safe for concurrent use: parallel searches report
// incumbents from several goroutines.
type Observer interface {
	// OnSearchStarted is called once before any branch is built.
	OnSearchStarted(solver string, agents, tasks int)

	// OnIncumbent is called when branch-and-bound finds a better complete
	// assignment.
	OnIncumbent(solver string, makespan float64)

	// OnRound is called after each greedy round.
	OnRound(solver string, round, accepted, remaining int)

	// OnSearchFinished is called once with the final statistics. err is nil on
	// success.
	OnSearchFinished(solver string, stats Stats, makespan float64, elapsed time.Duration, err error)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) OnSearchStarted(string, int, int) {}
func (NopObserver) OnIncumbent(string, float64) {}
func (NopObserver) OnRound(string, int, int, int) {}
func (NopObserver) OnSearchFinished(string, Stats, float64, time.Duration, error) {}

// Observers fans every event out to each member in order.
type Observers []Observer

func (obs Observers) OnSearchStarted(solver string, agents, tasks int) {
	for _, o := range obs {
		o.OnSearchStarted(solver, agents, tasks)
	}
}

func (obs Observers) OnIncumbent(solver string, makespan float64) {
	for _, o := range obs {
		o.OnIncumbent(solver, makespan)
	}
}

func (obs Observers) OnRound(solver string, round, accepted, remaining int) {
	for _, o := range obs {
		o.OnRound(solver, round, accepted, remaining)
	}
}

func (obs Observers) OnSearchFinished(solver string, stats Stats, makespan float64, elapsed time.Duration, err error) {
	for _, o := range obs {
		o.OnSearchFinished(solver, stats, makespan, elapsed, err)
	}
}

// observerOrNop returns o, or a NopObserver when o is nil.
func observerOrNop(o Observer) Observer {
	if o == nil {
		return NopObserver{}
	}
	return o
}
