package core

// TaskID is a unique task identifier. Ids are stable across recursion;
// positions in a task slice are not.
type TaskID int

// Task moves an agent from From to To.
type Task[T State[T]] struct {
	ID   TaskID `json:"id"`
	From T      `json:"from"`
	To   T      `json:"to"`
}

// Length returns the checked loaded distance From -> To.
func (t Task[T]) Length() (float64, error) {
	return Cost(t.From, t.To)
}

// NewTasks numbers pickup/drop-off pairs 0..n-1 in the given order.
// pairs must have even length: from0, to0, from1, to1, ...
func NewTasks[T State[T]](pairs ...T) []Task[T] {
	tasks := make([]Task[T], 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		tasks = append(tasks, Task[T]{ID: TaskID(i / 2), From: pairs[i], To: pairs[i+1]})
	}
	return tasks
}
