package core

// Agent is a mobile worker. Solvers copy agents per branch; the caller's
// values are never mutated.
type Agent[T State[T]] struct {
	State T `json:"state"`
}

// NewAgents wraps each state in an Agent.
func NewAgents[T State[T]](states ...T) []Agent[T] {
	agents := make([]Agent[T], len(states))
	for i, s := range states {
		agents[i] = Agent[T]{State: s}
	}
	return agents
}

// States returns a fresh slice with the current state of every agent.
func States[T State[T]](agents []Agent[T]) []T {
	states := make([]T, len(agents))
	for i, a := range agents {
		states[i] = a.State
	}
	return states
}
