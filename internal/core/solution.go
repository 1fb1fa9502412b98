package core

// Assignment binds a task to an agent, in service order.
type Assignment struct {
	Agent int     `json:"agent"`           // index into Instance.Agents
	Task  TaskID  `json:"task"`
	Cost  float64 `json:"cost"`            // deadhead plus loaded distance
	Round int     `json:"round,omitempty"` // greedy round, 0 for exhaustive search
}

// Solution represents a complete allocation.
type Solution struct {
	Solver     string       `json:"solver"`
	Sequence   []Assignment `json:"sequence"`
	AgentTimes []float64    `json:"agent_times"`
	Makespan   float64      `json:"makespan"`
	Feasible   bool         `json:"feasible"`
}

// NewSolution creates an empty solution for the given number of agents.
func NewSolution(solver string, agents int) *Solution {
	return &Solution{
		Solver:     solver,
		AgentTimes: make([]float64, agents),
	}
}

// ComputeMakespan recomputes per-agent totals from the sequence and returns
// the maximum.
func (s *Solution) ComputeMakespan() float64 {
	for i := range s.AgentTimes {
		s.AgentTimes[i] = 0
	}
	for _, a := range s.Sequence {
		if a.Agent >= 0 && a.Agent < len(s.AgentTimes) {
			s.AgentTimes[a.Agent] += a.Cost
		}
	}
	s.Makespan = Makespan(s.AgentTimes)
	return s.Makespan
}

// TasksOf returns the tasks served by agent in service order.
func (s *Solution) TasksOf(agent int) []TaskID {
	var ids []TaskID
	for _, a := range s.Sequence {
		if a.Agent == agent {
			ids = append(ids, a.Task)
		}
	}
	return ids
}

// Makespan returns the largest value in times, 0 for none.
func Makespan(times []float64) float64 {
	maxC := 0.0
	for _, t := range times {
		if t > maxC {
			maxC = t
		}
	}
	return maxC
}
