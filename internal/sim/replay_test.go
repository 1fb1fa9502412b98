package sim

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/taskalloc-research/internal/algo"
	"github.com/elektrokombinacija/taskalloc-research/internal/core"
)

func testInstance() *core.Instance[core.Coord] {
	return core.NewInstance(
		core.NewAgents(core.Coord{X: 0, Y: 0}, core.Coord{X: 10, Y: 0}),
		core.NewTasks(
			core.Coord{X: 0, Y: 0}, core.Coord{X: 1, Y: 0},
			core.Coord{X: 2, Y: 0}, core.Coord{X: 2, Y: 1},
			core.Coord{X: 9, Y: 0}, core.Coord{X: 8, Y: 0},
		),
	)
}

func TestReplay_Timelines(t *testing.T) {
	inst := testInstance()
	sol := core.NewSolution("manual", 2)
	sol.Sequence = []core.Assignment{
		{Agent: 0, Task: 0, Cost: 1},
		{Agent: 1, Task: 2, Cost: 2},
		{Agent: 0, Task: 1, Cost: 2},
	}
	sol.ComputeMakespan()

	sched, err := Replay(inst, sol)
	require.NoError(t, err)

	assert.Equal(t, []Visit{
		{Task: 0, Depart: 0, Arrive: 0, Complete: 1},
		{Task: 1, Depart: 1, Arrive: 2, Complete: 3},
	}, sched.Timelines[0])
	assert.Equal(t, []Visit{
		{Task: 2, Depart: 0, Arrive: 1, Complete: 2},
	}, sched.Timelines[1])
	assert.Equal(t, []float64{3, 2}, sched.AgentTimes)
	assert.Equal(t, 3.0, sched.Makespan)
	assert.Equal(t, "manual", sched.Solver)
}

func TestReplay_Rejects(t *testing.T) {
	inst := testInstance()
	tests := []struct {
		name string
		seq  []core.Assignment
	}{
		{"unknown agent", []core.Assignment{{Agent: 2, Task: 0}, {Agent: 0, Task: 1}, {Agent: 0, Task: 2}}},
		{"unknown task", []core.Assignment{{Agent: 0, Task: 0}, {Agent: 0, Task: 1}, {Agent: 0, Task: 7}}},
		{"duplicate task", []core.Assignment{{Agent: 0, Task: 0}, {Agent: 1, Task: 0}, {Agent: 0, Task: 1}}},
		{"missing task", []core.Assignment{{Agent: 0, Task: 0}, {Agent: 1, Task: 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sol := core.NewSolution("manual", 2)
			sol.Sequence = tt.seq
			_, err := Replay(inst, sol)
			assert.ErrorIs(t, err, core.ErrInvalidConfiguration)
		})
	}

	_, err := Replay(inst, nil)
	assert.ErrorIs(t, err, core.ErrInvalidConfiguration)
}

func TestVerify_SolverOutput(t *testing.T) {
	inst := testInstance()

	exhaustive := algo.NewExhaustive[core.Coord](algo.DefaultOptions())
	greedy := algo.NewGreedy[core.Coord](algo.GreedyOptions{})
	for _, solver := range []algo.Solver[core.Coord]{exhaustive, greedy} {
		sol, err := solver.Solve(context.Background(), inst)
		require.NoError(t, err)

		sched, err := Verify(inst, sol, 1e-9)
		require.NoError(t, err, solver.Name())
		assert.Equal(t, sol.AgentTimes, sched.AgentTimes, solver.Name())
	}
}

func TestVerify_DetectsWrongMakespan(t *testing.T) {
	inst := testInstance()
	sol, err := algo.NewGreedy[core.Coord](algo.GreedyOptions{}).Solve(context.Background(), inst)
	require.NoError(t, err)

	sol.Makespan += 1
	_, err = Verify(inst, sol, 1e-9)
	assert.Error(t, err)
}

func TestSchedule_ActiveAt(t *testing.T) {
	sched := &Schedule{Timelines: [][]Visit{{
		{Task: 0, Depart: 0, Arrive: 0, Complete: 1},
		{Task: 1, Depart: 1, Arrive: 2, Complete: 3},
	}}}

	v, ok := sched.ActiveAt(0, 0.5)
	assert.True(t, ok)
	assert.Equal(t, core.TaskID(0), v.Task)

	v, ok = sched.ActiveAt(0, 2.5)
	assert.True(t, ok)
	assert.Equal(t, core.TaskID(1), v.Task)

	_, ok = sched.ActiveAt(0, 4)
	assert.False(t, ok)
	_, ok = sched.ActiveAt(1, 0)
	assert.False(t, ok)
}

func TestSchedule_Export(t *testing.T) {
	sched := &Schedule{Solver: "Greedy", AgentTimes: []float64{2}, Makespan: 2, Timelines: [][]Visit{{{Task: 0, Complete: 2}}}}
	path := filepath.Join(t.TempDir(), "schedule.json")

	require.NoError(t, sched.Export(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got Schedule
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, *sched, got)
}
