// Package sim replays task allocation solutions against their instance.
//
// A replay recomputes every agent's timeline from the instance alone:
//   - deadhead from the agent's current state to the task pickup
//   - the loaded move from pickup to drop-off
//   - the agent's state after each task
//
// It is the independent check of solver output and the source of the
// schedules printed by the CLI.
package sim

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/elektrokombinacija/taskalloc-research/internal/core"
)

// Visit is one task served by an agent. Times are cumulative distance units
// since the agent's start.
type Visit struct {
	Task     core.TaskID `json:"task"`
	Depart   float64     `json:"depart"`   // leaves the previous drop-off
	Arrive   float64     `json:"arrive"`   // reaches the pickup
	Complete float64     `json:"complete"` // reaches the drop-off
}

// Schedule is the replayed outcome of a solution.
type Schedule struct {
	Solver     string    `json:"solver"`
	Timelines  [][]Visit `json:"timelines"`
	AgentTimes []float64 `json:"agent_times"`
	Makespan   float64   `json:"makespan"`
}

// Replay recomputes the schedule of sol on inst. Every task of the instance
// must be assigned exactly once to an existing agent; anything else fails
// with core.ErrInvalidConfiguration.
func Replay[T core.State[T]](inst *core.Instance[T], sol *core.Solution) (*Schedule, error) {
	if err := inst.Validate(); err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	if sol == nil {
		return nil, fmt.Errorf("replay: %w: nil solution", core.ErrInvalidConfiguration)
	}

	states := core.States(inst.Agents)
	sched := &Schedule{
		Solver:     sol.Solver,
		Timelines:  make([][]Visit, len(states)),
		AgentTimes: make([]float64, len(states)),
	}

	seen := make(map[core.TaskID]bool, len(inst.Tasks))
	for i, a := range sol.Sequence {
		if a.Agent < 0 || a.Agent >= len(states) {
			return nil, fmt.Errorf("replay: %w: step %d uses unknown agent %d", core.ErrInvalidConfiguration, i, a.Agent)
		}
		task, ok := inst.TaskByID(a.Task)
		if !ok {
			return nil, fmt.Errorf("replay: %w: step %d uses unknown task %d", core.ErrInvalidConfiguration, i, a.Task)
		}
		if seen[a.Task] {
			return nil, fmt.Errorf("replay: %w: task %d assigned twice", core.ErrInvalidConfiguration, a.Task)
		}
		seen[a.Task] = true

		deadhead, err := core.Cost(states[a.Agent], task.From)
		if err != nil {
			return nil, fmt.Errorf("replay: step %d: %w", i, err)
		}
		length, err := task.Length()
		if err != nil {
			return nil, fmt.Errorf("replay: step %d: %w", i, err)
		}

		depart := sched.AgentTimes[a.Agent]
		v := Visit{
			Task:     a.Task,
			Depart:   depart,
			Arrive:   depart + deadhead,
			Complete: depart + (deadhead + length),
		}
		sched.Timelines[a.Agent] = append(sched.Timelines[a.Agent], v)
		sched.AgentTimes[a.Agent] = v.Complete
		states[a.Agent] = task.To
	}

	if len(seen) != len(inst.Tasks) {
		return nil, fmt.Errorf("replay: %w: %d of %d tasks assigned", core.ErrInvalidConfiguration, len(seen), len(inst.Tasks))
	}

	sched.Makespan = core.Makespan(sched.AgentTimes)
	return sched, nil
}

// Verify replays sol and checks that its reported makespan matches the replay
// within tol.
func Verify[T core.State[T]](inst *core.Instance[T], sol *core.Solution, tol float64) (*Schedule, error) {
	sched, err := Replay(inst, sol)
	if err != nil {
		return nil, err
	}
	if math.Abs(sched.Makespan-sol.Makespan) > tol {
		return sched, fmt.Errorf("replay: %s reports makespan %v, replay gives %v", sol.Solver, sol.Makespan, sched.Makespan)
	}
	return sched, nil
}

// ActiveAt returns the visit agent is working on at time t: the last visit
// that departed at or before t. ok is false before the first departure or
// after the last completion.
func (s *Schedule) ActiveAt(agent int, t float64) (Visit, bool) {
	if agent < 0 || agent >= len(s.Timelines) {
		return Visit{}, false
	}
	line := s.Timelines[agent]
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].Depart <= t {
			if t > line[i].Complete {
				return Visit{}, false
			}
			return line[i], true
		}
	}
	return Visit{}, false
}

// Export writes the schedule to a JSON file.
func (s *Schedule) Export(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
