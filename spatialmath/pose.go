// Package spatialmath defines the rigid transforms used to place robot parts in the world.
//
// Poses are restricted to a translation plus a rotation about the world Z axis, which is all
// the supported motion models require. Planar robots leave Z at zero.
package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// Pose represents a 3D translation combined with a heading (yaw) about the Z axis.
type Pose interface {
	// Point returns the translation of the pose.
	Point() r3.Vector
	// Yaw returns the rotation about Z in radians.
	Yaw() float64
	// RotationMatrix returns the rotation as a matrix whose rows are the local axes expressed in
	// the world frame.
	RotationMatrix() *RotationMatrix
}

type yawPose struct {
	point r3.Vector
	yaw   float64
}

// NewPose returns a pose at the given point with the given heading.
func NewPose(pt r3.Vector, yaw float64) Pose {
	return &yawPose{point: pt, yaw: yaw}
}

// NewPoseFromPoint returns a pure translation.
func NewPoseFromPoint(pt r3.Vector) Pose {
	return &yawPose{point: pt}
}

// NewZeroPose returns the identity pose.
func NewZeroPose() Pose {
	return &yawPose{}
}

func (p *yawPose) Point() r3.Vector {
	return p.point
}

func (p *yawPose) Yaw() float64 {
	return p.yaw
}

func (p *yawPose) RotationMatrix() *RotationMatrix {
	return NewRotationMatrixFromYaw(p.yaw)
}

func (p *yawPose) String() string {
	return fmt.Sprintf("{X:%.3f Y:%.3f Z:%.3f Yaw:%.3f}", p.point.X, p.point.Y, p.point.Z, p.yaw)
}

// Compose returns the pose obtained by applying b in the frame of a.
func Compose(a, b Pose) Pose {
	rotated := a.RotationMatrix().Mul(b.Point())
	return &yawPose{point: a.Point().Add(rotated), yaw: a.Yaw() + b.Yaw()}
}

// Translate returns a copy of the pose moved by offset.
func Translate(p Pose, offset r3.Vector) Pose {
	return &yawPose{point: p.Point().Add(offset), yaw: p.Yaw()}
}

// PoseAlmostEqual returns whether two poses are equal within epsilon, comparing headings modulo
// a full turn.
func PoseAlmostEqual(a, b Pose, epsilon float64) bool {
	if a.Point().Sub(b.Point()).Norm() > epsilon {
		return false
	}
	diff := math.Remainder(a.Yaw()-b.Yaw(), 2*math.Pi)
	return math.Abs(diff) <= epsilon
}

// IsFinitePose reports whether neither the translation nor the heading contains NaN or Inf.
func IsFinitePose(p Pose) bool {
	pt := p.Point()
	for _, v := range []float64{pt.X, pt.Y, pt.Z, p.Yaw()} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
