package collision

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestSweepAndPrune(t *testing.T) {
	objects := []Object{
		{Geometry: makeSphere(t, 5, 0, 0.5), Owner: 0},
		{Geometry: makeSphere(t, 0, 0, 0.5), Owner: 1},
		{Geometry: makeSphere(t, 0.6, 0, 0.5), Owner: 2},
		{Geometry: makeSphere(t, 5.2, 0, 0.5), Owner: 3},
		// same owner as object 2, overlapping it
		{Geometry: makeSphere(t, 0.7, 0, 0.5), Owner: 2},
	}
	pairs, err := SweepAndPrune(objects)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pairs, test.ShouldResemble, []Pair{{A: 1, B: 2}, {A: 1, B: 4}, {A: 0, B: 3}})

	pairs, err = SweepAndPrune(objects[:2])
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pairs, test.ShouldBeEmpty)

	objects = append(objects, Object{Geometry: makeSphere(t, 0, 0, 1).Translate(r3.Vector{Y: math.Inf(1)}), Owner: 9})
	_, err = SweepAndPrune(objects)
	test.That(t, errors.Is(err, ErrDegenerateGeometry), test.ShouldBeTrue)
}

func TestWorldCollides(t *testing.T) {
	_, err := NewWorld(r3.Vector{X: 1}, r3.Vector{}, nil)
	test.That(t, errors.Is(err, ErrDegenerateGeometry), test.ShouldBeTrue)

	world, err := NewWorld(r3.Vector{X: -5, Y: -5}, r3.Vector{X: 5, Y: 5}, []Geometry{makeBox(t, 2, 0, 0, 1, 1)})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, world.Obstacles(), test.ShouldHaveLength, 1)

	hit, err := world.Collides([]Geometry{makeSphere(t, -2, 0, 0.5), makeSphere(t, 1.2, 0, 0.5)})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, hit, test.ShouldBeTrue)

	hit, err = world.Collides([]Geometry{makeSphere(t, -2, 0, 0.5)})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, hit, test.ShouldBeFalse)

	test.That(t, world.Bounds.Contains(r3.Vector{X: 5, Y: -5}), test.ShouldBeTrue)
	test.That(t, world.Bounds.Contains(r3.Vector{X: 5.1}), test.ShouldBeFalse)
}
