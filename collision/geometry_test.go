package collision

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/dbcbs/spatialmath"
)

func makeBox(t *testing.T, x, y, yaw, dx, dy float64) *Box {
	t.Helper()
	b, err := NewBox(spatialmath.NewPose(r3.Vector{X: x, Y: y}, yaw), r3.Vector{X: dx, Y: dy, Z: 1}, "")
	test.That(t, err, test.ShouldBeNil)
	return b
}

func makeSphere(t *testing.T, x, y, r float64) *Sphere {
	t.Helper()
	s, err := NewSphere(spatialmath.NewPoseFromPoint(r3.Vector{X: x, Y: y}), r, "")
	test.That(t, err, test.ShouldBeNil)
	return s
}

func TestBoxVsBox(t *testing.T) {
	cases := []struct {
		name   string
		a, b   *Box
		expect bool
	}{
		{"overlap", makeBox(t, 0, 0, 0, 2, 2), makeBox(t, 1.5, 0, 0, 2, 2), true},
		{"touching", makeBox(t, 0, 0, 0, 2, 2), makeBox(t, 2, 0, 0, 2, 2), true},
		{"separated", makeBox(t, 0, 0, 0, 2, 2), makeBox(t, 2.1, 0, 0, 2, 2), false},
		// axis aligned bounding boxes overlap but the rotated corner misses
		{"rotated miss", makeBox(t, 0, 0, 0, 2, 2), makeBox(t, 2.3, 2.3, math.Pi/4, 2, 2), false},
		{"rotated hit", makeBox(t, 0, 0, 0, 2, 2), makeBox(t, 2.3, 0, math.Pi/4, 2, 2), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hit, err := tc.a.CollidesWith(tc.b)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, hit, test.ShouldEqual, tc.expect)
			hit, err = tc.b.CollidesWith(tc.a)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, hit, test.ShouldEqual, tc.expect)
		})
	}
}

func TestSphereCollisions(t *testing.T) {
	box := makeBox(t, 0, 0, 0, 2, 2)
	hit, err := makeSphere(t, 1.4, 0, 0.5).CollidesWith(box)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, hit, test.ShouldBeTrue)

	// the corner of the box is sqrt(2)*0.5 away from the sphere center
	hit, err = box.CollidesWith(makeSphere(t, 1.5, 1.5, 0.6))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, hit, test.ShouldBeFalse)

	hit, err = makeSphere(t, 0, 0, 0.3).CollidesWith(makeSphere(t, 0.5, 0, 0.3))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, hit, test.ShouldBeTrue)
	hit, err = makeSphere(t, 0, 0, 0.3).CollidesWith(makeSphere(t, 1, 0, 0.3))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, hit, test.ShouldBeFalse)
}

func TestDegenerateGeometry(t *testing.T) {
	_, err := NewBox(spatialmath.NewZeroPose(), r3.Vector{X: 1, Y: 0, Z: 1}, "flat")
	test.That(t, errors.Is(err, ErrDegenerateGeometry), test.ShouldBeTrue)
	_, err = NewSphere(spatialmath.NewZeroPose(), math.NaN(), "nan")
	test.That(t, errors.Is(err, ErrDegenerateGeometry), test.ShouldBeTrue)

	bad := makeSphere(t, 0, 0, 1).Translate(r3.Vector{X: math.NaN()})
	_, err = bad.CollidesWith(makeBox(t, 0, 0, 0, 1, 1))
	test.That(t, errors.Is(err, ErrDegenerateGeometry), test.ShouldBeTrue)
}

func TestTranslateIsPure(t *testing.T) {
	box := makeBox(t, 1, 1, 0.3, 1, 1)
	moved := TranslateAll([]Geometry{box}, r3.Vector{X: 2, Y: -1})
	test.That(t, box.Pose().Point(), test.ShouldResemble, r3.Vector{X: 1, Y: 1})
	test.That(t, moved[0].Pose().Point(), test.ShouldResemble, r3.Vector{X: 3, Y: 0})
	test.That(t, moved[0].Pose().Yaw(), test.ShouldEqual, 0.3)

	aabb := makeBox(t, 0, 0, math.Pi/4, 2, 2).AABB()
	test.That(t, aabb.Max.X, test.ShouldAlmostEqual, math.Sqrt2)
	test.That(t, aabb.Min.Y, test.ShouldAlmostEqual, -math.Sqrt2)
}
