package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// RotationMatrix is a 3x3 matrix in row major order.
type RotationMatrix struct {
	mat [9]float64
}

// NewRotationMatrixFromYaw returns the rotation of yaw radians about the Z axis. Row i is the
// i-th local axis expressed in world coordinates.
func NewRotationMatrixFromYaw(yaw float64) *RotationMatrix {
	s, c := math.Sincos(yaw)
	return &RotationMatrix{mat: [9]float64{
		c, s, 0,
		-s, c, 0,
		0, 0, 1,
	}}
}

// At returns the value at the given row and column.
func (rm *RotationMatrix) At(row, col int) float64 {
	return rm.mat[row*3+col]
}

// Row returns the given row as a vector.
func (rm *RotationMatrix) Row(row int) r3.Vector {
	return r3.Vector{X: rm.mat[row*3], Y: rm.mat[row*3+1], Z: rm.mat[row*3+2]}
}

// Mul maps a vector from the local frame into the world frame.
func (rm *RotationMatrix) Mul(v r3.Vector) r3.Vector {
	return rm.Row(0).Mul(v.X).Add(rm.Row(1).Mul(v.Y)).Add(rm.Row(2).Mul(v.Z))
}
