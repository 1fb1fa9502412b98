package core

import "math"

// Coord is a cell on an integer grid. Distance is Manhattan.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Distance returns |dx| + |dy|.
func (c Coord) Distance(other Coord) float64 {
	return math.Abs(float64(c.X-other.X)) + math.Abs(float64(c.Y-other.Y))
}

// Pos represents a 3D position (Z=0 for ground agents). Distance is Euclidean.
type Pos struct {
	X, Y, Z float64
}

// Distance returns the straight-line distance between two positions.
func (p Pos) Distance(other Pos) float64 {
	dx, dy, dz := p.X-other.X, p.Y-other.Y, p.Z-other.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
