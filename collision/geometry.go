// Package collision implements the shapes robots and obstacles are built from, pairwise
// intersection tests between them and a sweep-and-prune broadphase.
package collision

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/dbcbs/spatialmath"
)

// ErrDegenerateGeometry is returned when a shape has a non-positive size or a non-finite pose.
var ErrDegenerateGeometry = errors.New("degenerate geometry")

// Geometry is a rigid collision shape placed in the world. Geometries are immutable: Transform
// and Translate return moved copies.
type Geometry interface {
	Pose() spatialmath.Pose
	Label() string
	// Transform premultiplies the geometry pose with the given pose.
	Transform(toPremultiply spatialmath.Pose) Geometry
	// Translate returns a copy shifted by offset.
	Translate(offset r3.Vector) Geometry
	AABB() AABB
	CollidesWith(other Geometry) (bool, error)
}

// Box is an oriented rectangular prism described by its center pose and half size.
type Box struct {
	center   spatialmath.Pose
	halfSize r3.Vector
	label    string
}

// NewBox instantiates a new box Geometry from its full dimensions.
func NewBox(pose spatialmath.Pose, dims r3.Vector, label string) (*Box, error) {
	if !(dims.X > 0 && dims.Y > 0 && dims.Z > 0) {
		return nil, errors.Wrapf(ErrDegenerateGeometry, "box %q has dimensions %v", label, dims)
	}
	return &Box{center: pose, halfSize: dims.Mul(0.5), label: label}, nil
}

// Pose returns the pose of the box center.
func (b *Box) Pose() spatialmath.Pose {
	return b.center
}

// Label returns the label of this box.
func (b *Box) Label() string {
	return b.label
}

// HalfSize returns half the box dimensions.
func (b *Box) HalfSize() r3.Vector {
	return b.halfSize
}

// Transform premultiplies the box pose with a transform, allowing the box to be moved in space.
func (b *Box) Transform(toPremultiply spatialmath.Pose) Geometry {
	return &Box{center: spatialmath.Compose(toPremultiply, b.center), halfSize: b.halfSize, label: b.label}
}

// Translate returns a copy of the box shifted by offset.
func (b *Box) Translate(offset r3.Vector) Geometry {
	return &Box{center: spatialmath.Translate(b.center, offset), halfSize: b.halfSize, label: b.label}
}

// AABB returns the world axis aligned box enclosing the oriented box.
func (b *Box) AABB() AABB {
	rm := b.center.RotationMatrix()
	half := [3]float64{b.halfSize.X, b.halfSize.Y, b.halfSize.Z}
	var extent r3.Vector
	for i := 0; i < 3; i++ {
		axis := rm.Row(i).Mul(half[i])
		extent = extent.Add(axis.Abs())
	}
	c := b.center.Point()
	return AABB{Min: c.Sub(extent), Max: c.Add(extent)}
}

func (b *Box) String() string {
	c := b.center.Point()
	return fmt.Sprintf("Type: Box | Position: X:%.2f, Y:%.2f, Z:%.2f | Dims: X:%.2f, Y:%.2f, Z:%.2f",
		c.X, c.Y, c.Z, 2*b.halfSize.X, 2*b.halfSize.Y, 2*b.halfSize.Z)
}

// CollidesWith reports whether the box intersects the other geometry. Touching counts as a
// collision.
func (b *Box) CollidesWith(other Geometry) (bool, error) {
	if err := checkFinite(b, other); err != nil {
		return false, err
	}
	switch o := other.(type) {
	case *Box:
		return boxVsBox(b, o), nil
	case *Sphere:
		return sphereVsBox(o, b), nil
	default:
		return false, newCollisionTypeUnsupportedError(b, other)
	}
}

// closestPoint returns the point on or inside the box nearest to pt.
func (b *Box) closestPoint(pt r3.Vector) r3.Vector {
	result := b.center.Point()
	direction := pt.Sub(result)
	rm := b.center.RotationMatrix()
	half := [3]float64{b.halfSize.X, b.halfSize.Y, b.halfSize.Z}
	for i := 0; i < 3; i++ {
		axis := rm.Row(i)
		distance := direction.Dot(axis)
		if distance > half[i] {
			distance = half[i]
		} else if distance < -half[i] {
			distance = -half[i]
		}
		result = result.Add(axis.Mul(distance))
	}
	return result
}

// Sphere is a ball described by its center and radius.
type Sphere struct {
	center spatialmath.Pose
	radius float64
	label  string
}

// NewSphere instantiates a new sphere Geometry.
func NewSphere(pose spatialmath.Pose, radius float64, label string) (*Sphere, error) {
	if !(radius > 0) {
		return nil, errors.Wrapf(ErrDegenerateGeometry, "sphere %q has radius %v", label, radius)
	}
	return &Sphere{center: pose, radius: radius, label: label}, nil
}

// Pose returns the pose of the sphere center.
func (s *Sphere) Pose() spatialmath.Pose {
	return s.center
}

// Label returns the label of this sphere.
func (s *Sphere) Label() string {
	return s.label
}

// Radius returns the sphere radius.
func (s *Sphere) Radius() float64 {
	return s.radius
}

// Transform premultiplies the sphere pose with a transform.
func (s *Sphere) Transform(toPremultiply spatialmath.Pose) Geometry {
	return &Sphere{center: spatialmath.Compose(toPremultiply, s.center), radius: s.radius, label: s.label}
}

// Translate returns a copy of the sphere shifted by offset.
func (s *Sphere) Translate(offset r3.Vector) Geometry {
	return &Sphere{center: spatialmath.Translate(s.center, offset), radius: s.radius, label: s.label}
}

// AABB returns the axis aligned box enclosing the sphere.
func (s *Sphere) AABB() AABB {
	r := r3.Vector{X: s.radius, Y: s.radius, Z: s.radius}
	c := s.center.Point()
	return AABB{Min: c.Sub(r), Max: c.Add(r)}
}

func (s *Sphere) String() string {
	c := s.center.Point()
	return fmt.Sprintf("Type: Sphere | Position: X:%.2f, Y:%.2f, Z:%.2f | Radius: %.2f", c.X, c.Y, c.Z, s.radius)
}

// CollidesWith reports whether the sphere intersects the other geometry.
func (s *Sphere) CollidesWith(other Geometry) (bool, error) {
	if err := checkFinite(s, other); err != nil {
		return false, err
	}
	switch o := other.(type) {
	case *Sphere:
		return s.center.Point().Sub(o.center.Point()).Norm() <= s.radius+o.radius, nil
	case *Box:
		return sphereVsBox(s, o), nil
	default:
		return false, newCollisionTypeUnsupportedError(s, other)
	}
}

// boxVsBox runs the separating axis test over the 15 candidate axes of two oriented boxes.
// reference: https://gamedev.stackexchange.com/questions/112883/simple-3d-obb-collision-directx9-c
func boxVsBox(a, b *Box) bool {
	positionDelta := a.center.Point().Sub(b.center.Point())
	rmA := a.center.RotationMatrix()
	rmB := b.center.RotationMatrix()
	axesA := [3]r3.Vector{rmA.Row(0), rmA.Row(1), rmA.Row(2)}
	axesB := [3]r3.Vector{rmB.Row(0), rmB.Row(1), rmB.Row(2)}

	for i := 0; i < 3; i++ {
		if separatingPlaneTest(positionDelta, axesA[i], a, b, axesA, axesB) ||
			separatingPlaneTest(positionDelta, axesB[i], a, b, axesA, axesB) {
			return false
		}
		for j := 0; j < 3; j++ {
			// parallel edges give a zero axis, which never separates
			if separatingPlaneTest(positionDelta, axesA[i].Cross(axesB[j]), a, b, axesA, axesB) {
				return false
			}
		}
	}
	return true
}

// separatingPlaneTest checks if the given plane separates the projections of the two boxes.
func separatingPlaneTest(positionDelta, plane r3.Vector, a, b *Box, axesA, axesB [3]r3.Vector) bool {
	return math.Abs(positionDelta.Dot(plane)) > (math.Abs(axesA[0].Mul(a.halfSize.X).Dot(plane)) +
		math.Abs(axesA[1].Mul(a.halfSize.Y).Dot(plane)) +
		math.Abs(axesA[2].Mul(a.halfSize.Z).Dot(plane)) +
		math.Abs(axesB[0].Mul(b.halfSize.X).Dot(plane)) +
		math.Abs(axesB[1].Mul(b.halfSize.Y).Dot(plane)) +
		math.Abs(axesB[2].Mul(b.halfSize.Z).Dot(plane)))
}

func sphereVsBox(s *Sphere, b *Box) bool {
	pt := s.center.Point()
	return b.closestPoint(pt).Sub(pt).Norm() <= s.radius
}

func checkFinite(geometries ...Geometry) error {
	for _, g := range geometries {
		if !spatialmath.IsFinitePose(g.Pose()) {
			return errors.Wrapf(ErrDegenerateGeometry, "%q has non-finite pose %v", g.Label(), g.Pose())
		}
	}
	return nil
}

func newCollisionTypeUnsupportedError(g1, g2 Geometry) error {
	return errors.Errorf("collisions between %T and %T are not supported", g1, g2)
}
