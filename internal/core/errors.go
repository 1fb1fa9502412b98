package core

import "errors"

var (
	// ErrInvalidConfiguration is returned for inputs an assignment cannot be
	// defined on: no agents, duplicate task ids, unknown tasks in a schedule.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidCost is returned when a distance is NaN, infinite or negative.
	ErrInvalidCost = errors.New("invalid cost")

	// ErrInfeasible is returned when a restriction vetoes every complete
	// assignment. It is distinct from an instance with no tasks.
	ErrInfeasible = errors.New("infeasible under restriction")

	// ErrReconstruction signals an internal inconsistency between the folded
	// tree values and the recorded best children. It is never caused by input.
	ErrReconstruction = errors.New("best-path reconstruction failure")
)
