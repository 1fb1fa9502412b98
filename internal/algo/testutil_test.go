package algo

import (
	"math"
	"math/rand"

	"github.com/elektrokombinacija/taskalloc-research/internal/core"
)

// scenarioInstance is one agent at (0,0) and two tasks whose best order is
// id0 then id1 (makespan 3); the reverse order costs 7.
func scenarioInstance() *core.Instance[core.Coord] {
	return core.NewInstance(
		core.NewAgents(core.Coord{X: 0, Y: 0}),
		core.NewTasks(
			core.Coord{X: 0, Y: 0}, core.Coord{X: 1, Y: 0},
			core.Coord{X: 2, Y: 0}, core.Coord{X: 2, Y: 1},
		),
	)
}

// gridInstance creates a seeded random instance on a size x size grid.
func gridInstance(seed int64, agents, tasks, size int) *core.Instance[core.Coord] {
	rng := rand.New(rand.NewSource(seed))
	coord := func() core.Coord {
		return core.Coord{X: rng.Intn(size), Y: rng.Intn(size)}
	}

	inst := core.NewInstance[core.Coord](nil, nil)
	for i := 0; i < agents; i++ {
		inst.Agents = append(inst.Agents, core.Agent[core.Coord]{State: coord()})
	}
	for i := 0; i < tasks; i++ {
		inst.Tasks = append(inst.Tasks, core.Task[core.Coord]{ID: core.TaskID(i), From: coord(), To: coord()})
	}
	return inst
}

// poisoned is a state whose distance is NaN when either side is marked bad.
type poisoned struct {
	x   float64
	bad bool
}

func (p poisoned) Distance(o poisoned) float64 {
	if p.bad || o.bad {
		return math.NaN()
	}
	return math.Abs(p.x - o.x)
}

// replayTimes recomputes per-agent totals of a path from the instance alone.
func replayTimes(inst *core.Instance[core.Coord], path []Edge[core.Coord]) []float64 {
	states := core.States(inst.Agents)
	times := make([]float64, len(states))
	for _, e := range path {
		task, _ := inst.TaskByID(e.Task)
		times[e.Agent] += states[e.Agent].Distance(task.From) + task.From.Distance(task.To)
		states[e.Agent] = task.To
	}
	return times
}

func taskIDs(path []Edge[core.Coord]) []core.TaskID {
	ids := make([]core.TaskID, len(path))
	for i, e := range path {
		ids[i] = e.Task
	}
	return ids
}

// far is a state whose every distance is finite but large enough that two of
// them overflow when summed.
type far struct{}

func (far) Distance(far) float64 { return 1e308 }
