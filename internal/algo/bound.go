package algo

import "math/big"

// Bound returns the number of nodes (equivalently edges) of an unrestricted
// search tree over m agents and n tasks:
//
//	Σ_{i=0}^{n-1} Π_{j=0}^{i} m·(n−j)
//
// Level i+1 holds one node per sequence of i+1 (agent, task) choices.
// Values grow as m^n·n!, so big integers are used. Non-positive inputs give 0.
func Bound(m, n int) *big.Int {
	total := new(big.Int)
	if m <= 0 || n <= 0 {
		return total
	}

	level := big.NewInt(1)
	factor := new(big.Int)
	for i := 0; i < n; i++ {
		factor.SetInt64(int64(m) * int64(n-i))
		level.Mul(level, factor)
		total.Add(total, level)
	}
	return total
}

// LeafBound returns m^n·n!, the number of complete assignments (leaves) of an
// unrestricted tree. It is the last summand of Bound.
func LeafBound(m, n int) *big.Int {
	if m <= 0 || n <= 0 {
		return new(big.Int)
	}
	leaves := new(big.Int).Exp(big.NewInt(int64(m)), big.NewInt(int64(n)), nil)
	return leaves.Mul(leaves, new(big.Int).MulRange(1, int64(n)))
}

// ApproxBound returns the number of (agent, task) pairs the greedy heuristic
// evaluates. Each round scores m·r pairs for r remaining tasks and accepts
// min(m, r) of them, so with q = n/m full rounds and rem = n mod m:
//
//	m·(q·n − m·q(q−1)/2) + m·rem
func ApproxBound(m, n int) uint64 {
	if m <= 0 || n <= 0 {
		return 0
	}
	mm, nn := uint64(m), uint64(n)
	q, rem := nn/mm, nn%mm
	return mm*(q*nn-mm*q*(q-1)/2) + mm*rem
}
