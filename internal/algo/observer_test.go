package algo

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/taskalloc-research/internal/core"
)

// recorder stores every event it sees.
type recorder struct {
	mu         sync.Mutex
	started    []string
	incumbents []float64
	rounds     [][3]int
	finished   []Stats
	errs       []error
}

func (r *recorder) OnSearchStarted(solver string, agents, tasks int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, solver)
}

func (r *recorder) OnIncumbent(_ string, makespan float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.incumbents = append(r.incumbents, makespan)
}

func (r *recorder) OnRound(_ string, round, accepted, remaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rounds = append(r.rounds, [3]int{round, accepted, remaining})
}

func (r *recorder) OnSearchFinished(_ string, stats Stats, _ float64, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, stats)
	r.errs = append(r.errs, err)
}

func TestObserver_Exhaustive(t *testing.T) {
	inst := gridInstance(5, 2, 4, 8)
	rec := &recorder{}

	res, err := Construct(context.Background(), inst.Agents, inst.Tasks, Options{BranchAndBound: true, Observer: rec})
	require.NoError(t, err)

	assert.Equal(t, []string{"Exhaustive"}, rec.started)
	require.Len(t, rec.finished, 1)
	assert.Equal(t, res.Stats, rec.finished[0])
	assert.NoError(t, rec.errs[0])

	// Incumbents strictly improve and end at the optimum.
	require.NotEmpty(t, rec.incumbents)
	for i := 1; i < len(rec.incumbents); i++ {
		assert.Less(t, rec.incumbents[i], rec.incumbents[i-1])
	}
	assert.Equal(t, res.Makespan, rec.incumbents[len(rec.incumbents)-1])
}

func TestObserver_ReportsFailure(t *testing.T) {
	inst := scenarioInstance()
	rec := &recorder{}

	_, err := Construct(context.Background(), inst.Agents, inst.Tasks, Options{
		Restriction: func(float64) bool { return true },
		Observer:    rec,
	})
	require.Error(t, err)
	require.Len(t, rec.errs, 1)
	assert.ErrorIs(t, rec.errs[0], err)
	assert.Equal(t, uint64(2), rec.finished[0].Vetoed)
}

func TestObserver_CountsNestedDeadEnds(t *testing.T) {
	// Only id0 starts where the agent stands. Both of its children end away
	// from the remaining pickup, so id0 is a dead end with two dead-end
	// children.
	agents := core.NewAgents(core.Coord{X: 0, Y: 0})
	tasks := core.NewTasks(
		core.Coord{X: 0, Y: 0}, core.Coord{X: 1, Y: 0},
		core.Coord{X: 1, Y: 0}, core.Coord{X: 5, Y: 0},
		core.Coord{X: 1, Y: 0}, core.Coord{X: 2, Y: 0},
	)
	rec := &recorder{}

	_, err := Construct(context.Background(), agents, tasks, Options{
		Restriction: MaxDeadhead(0.5),
		Observer:    rec,
	})
	require.ErrorIs(t, err, core.ErrInfeasible)
	require.Len(t, rec.finished, 1)

	stats := rec.finished[0]
	assert.Equal(t, uint64(3), stats.Nodes)
	assert.Equal(t, uint64(3), stats.DeadEnds)
	assert.Equal(t, uint64(4), stats.Vetoed)
	assert.Zero(t, stats.Leaves)
}

func TestObservers_FanOut(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	inst := scenarioInstance()

	_, err := ApproximateConstruct(context.Background(), inst.Agents, inst.Tasks, GreedyOptions{Observer: Observers{a, b}})
	require.NoError(t, err)

	for _, rec := range []*recorder{a, b} {
		assert.Equal(t, []string{"Greedy"}, rec.started)
		assert.Equal(t, [][3]int{{1, 1, 1}, {2, 1, 0}}, rec.rounds)
		assert.Len(t, rec.finished, 1)
	}
}
