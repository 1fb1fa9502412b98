// Package core defines domain models for task allocation.
package core

import (
	"fmt"
	"math"
)

// State is a position in the problem domain. Distance must be non-negative
// and finite; it is not required to be a strict metric.
type State[T any] interface {
	Distance(other T) float64
}

// Cost returns a.Distance(b), failing fast when the value cannot be ordered
// or summed safely.
func Cost[T State[T]](a, b T) (float64, error) {
	d := a.Distance(b)
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return 0, fmt.Errorf("%w: distance %v is not finite", ErrInvalidCost, d)
	}
	if d < 0 {
		return 0, fmt.Errorf("%w: distance %v is negative", ErrInvalidCost, d)
	}
	return d, nil
}

// AddCost returns total + cost, failing when the sum overflows to infinity.
func AddCost(total, cost float64) (float64, error) {
	sum := total + cost
	if math.IsInf(sum, 0) {
		return 0, fmt.Errorf("%w: %v + %v overflows", ErrInvalidCost, total, cost)
	}
	return sum, nil
}
