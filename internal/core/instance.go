package core

import "fmt"

// Instance represents a task allocation problem instance.
// I = (A, T): agents with start states and tasks in declared order.
type Instance[T State[T]] struct {
	Name   string     `json:"name"`
	Agents []Agent[T] `json:"agents"`
	Tasks  []Task[T]  `json:"tasks"`
}

// NewInstance creates an instance from agents and tasks.
func NewInstance[T State[T]](agents []Agent[T], tasks []Task[T]) *Instance[T] {
	return &Instance[T]{
		Agents: agents,
		Tasks:  tasks,
	}
}

// Validate checks instance consistency: at least one agent and unique task ids.
// An instance without tasks is valid.
func (inst *Instance[T]) Validate() error {
	if len(inst.Agents) == 0 {
		return fmt.Errorf("%w: no agents", ErrInvalidConfiguration)
	}
	return ValidateTasks(inst.Tasks)
}

// ValidateTasks rejects duplicate task ids.
func ValidateTasks[T State[T]](tasks []Task[T]) error {
	seen := make(map[TaskID]struct{}, len(tasks))
	for _, t := range tasks {
		if _, ok := seen[t.ID]; ok {
			return fmt.Errorf("%w: duplicate task id %d", ErrInvalidConfiguration, t.ID)
		}
		seen[t.ID] = struct{}{}
	}
	return nil
}

// TaskByID finds task by ID.
func (inst *Instance[T]) TaskByID(id TaskID) (Task[T], bool) {
	for _, t := range inst.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task[T]{}, false
}

// TaskIDs returns task ids in declared order.
func (inst *Instance[T]) TaskIDs() []TaskID {
	ids := make([]TaskID, len(inst.Tasks))
	for i, t := range inst.Tasks {
		ids[i] = t.ID
	}
	return ids
}
