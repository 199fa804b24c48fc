package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestCompose(t *testing.T) {
	car := NewPose(r3.Vector{X: 1, Y: 2}, math.Pi/2)
	hitch := NewPoseFromPoint(r3.Vector{X: -0.5})

	p := Compose(car, hitch)
	test.That(t, p.Point().X, test.ShouldAlmostEqual, 1)
	test.That(t, p.Point().Y, test.ShouldAlmostEqual, 1.5)
	test.That(t, p.Yaw(), test.ShouldAlmostEqual, math.Pi/2)

	p = Compose(NewZeroPose(), car)
	test.That(t, PoseAlmostEqual(p, car, 1e-9), test.ShouldBeTrue)
}

func TestRotationMatrixRows(t *testing.T) {
	rm := NewRotationMatrixFromYaw(math.Pi / 2)
	test.That(t, rm.Row(0).X, test.ShouldAlmostEqual, 0)
	test.That(t, rm.Row(0).Y, test.ShouldAlmostEqual, 1)
	test.That(t, rm.Row(1).X, test.ShouldAlmostEqual, -1)
	test.That(t, rm.At(2, 2), test.ShouldEqual, 1.)

	v := rm.Mul(r3.Vector{X: 2})
	test.That(t, v.X, test.ShouldAlmostEqual, 0)
	test.That(t, v.Y, test.ShouldAlmostEqual, 2)
}

func TestPoseHelpers(t *testing.T) {
	p := NewPose(r3.Vector{X: 1}, 0.1)
	moved := Translate(p, r3.Vector{Y: 3})
	test.That(t, moved.Point(), test.ShouldResemble, r3.Vector{X: 1, Y: 3})
	test.That(t, p.Point(), test.ShouldResemble, r3.Vector{X: 1})
	test.That(t, moved.Yaw(), test.ShouldEqual, 0.1)

	test.That(t, PoseAlmostEqual(NewPose(r3.Vector{}, math.Pi), NewPose(r3.Vector{}, -math.Pi), 1e-9), test.ShouldBeTrue)
	test.That(t, IsFinitePose(p), test.ShouldBeTrue)
	test.That(t, IsFinitePose(NewPose(r3.Vector{X: math.NaN()}, 0)), test.ShouldBeFalse)
}
