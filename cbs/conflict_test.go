package cbs

import (
	"testing"

	"go.viam.com/test"

	"go.viam.com/dbcbs/robots"
)

func pointRobot(t *testing.T, dt float64) robots.Model {
	t.Helper()
	m, err := robots.New(robots.Config{
		Kind:     robots.SingleIntegrator2D,
		Dt:       dt,
		MaxSpeed: 1,
		Radius:   0.3,
		Min:      []float64{-1, -3},
		Max:      []float64{6, 3},
	})
	test.That(t, err, test.ShouldBeNil)
	return m
}

func TestEarliestConflict(t *testing.T) {
	model := pointRobot(t, 0.5)
	models := []robots.Model{model, model}

	t.Run("conflict free", func(t *testing.T) {
		trajs := [][][]float64{
			{{0, 0}, {1, 0}, {2, 0}},
			{{0, 2}, {1, 2}, {2, 2}},
		}
		c, err := EarliestConflict(trajs, models)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, c, test.ShouldBeNil)
	})

	t.Run("finished robots hold their last state", func(t *testing.T) {
		trajs := [][][]float64{
			{{0, 0}},
			{{3, 0}, {2, 0}, {1, 0}, {0.5, 0}},
		}
		c, err := EarliestConflict(trajs, models)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, c, test.ShouldNotBeNil)
		test.That(t, c.Step, test.ShouldEqual, 3)
		test.That(t, c.Time, test.ShouldAlmostEqual, 1.5)
		test.That(t, c.RobotI, test.ShouldEqual, 0)
		test.That(t, c.StateI, test.ShouldResemble, []float64{0, 0})
		test.That(t, c.RobotJ, test.ShouldEqual, 1)
		test.That(t, c.StateJ, test.ShouldResemble, []float64{0.5, 0})
	})

	t.Run("single step overlap", func(t *testing.T) {
		trajs := [][][]float64{
			{{0, 0}, {1, 0}, {2, 0}},
			{{1, -1}, {1, 0}, {1, 1}},
		}
		c, err := EarliestConflict(trajs, models)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, c.Step, test.ShouldEqual, 1)
		test.That(t, c.Time, test.ShouldAlmostEqual, 0.5)

		// the robots touch at step 1 and at no other step
		m, err := ConflictMatrix(trajs, models)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, m, test.ShouldResemble, [][]int{{0, 0}, {1, 0}})
	})

	t.Run("malformed input", func(t *testing.T) {
		_, err := EarliestConflict([][][]float64{{{0, 0}}, {}}, models)
		test.That(t, err, test.ShouldNotBeNil)
		_, err = EarliestConflict([][][]float64{{{0, 0}}}, models)
		test.That(t, err, test.ShouldNotBeNil)
	})
}

func TestConflictMatrix(t *testing.T) {
	model := pointRobot(t, 1)
	models := []robots.Model{model, model, model}
	trajs := [][][]float64{
		{{0, 0}},
		{{3, 0}, {2, 0}, {1, 0}, {0.5, 0}},
		{{0, 0.5}},
	}
	m, err := ConflictMatrix(trajs, models)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m, test.ShouldResemble, [][]int{
		{0, 0, 0},
		{1, 0, 0},
		{4, 0, 0},
	})
	test.That(t, countConflicts(m), test.ShouldEqual, 5)
}

func TestConstraintSet(t *testing.T) {
	model := pointRobot(t, 1)
	empty := NewConstraintSet(model, nil, 0.3, 0.5)
	_, active := empty.TimeTolerance()
	test.That(t, active, test.ShouldBeFalse)
	test.That(t, empty.IsValid([]float64{2, 0}, 2), test.ShouldBeTrue)

	cs := NewConstraintSet(model, []Constraint{{Time: 2, State: []float64{2, 0}}}, 0.3, 0.5)
	tolerance, active := cs.TimeTolerance()
	test.That(t, active, test.ShouldBeTrue)
	test.That(t, tolerance, test.ShouldEqual, 0.5)
	test.That(t, cs.SatisfiesBounds([]float64{100, 100}), test.ShouldBeTrue)

	test.That(t, cs.IsValid([]float64{2, 0}, 2), test.ShouldBeFalse)
	test.That(t, cs.IsValid([]float64{2.2, 0}, 2.4), test.ShouldBeFalse)
	test.That(t, cs.IsValid([]float64{2, 0}, 1), test.ShouldBeTrue)
	test.That(t, cs.IsValid([]float64{2, 0}, 3), test.ShouldBeTrue)
	test.That(t, cs.IsValid([]float64{2.5, 0}, 2), test.ShouldBeTrue)

	// resting at the goal must stay clear of later constraints
	test.That(t, cs.GoalValid([]float64{2, 0}, 1), test.ShouldBeFalse)
	test.That(t, cs.GoalValid([]float64{2, 0}, 2.5), test.ShouldBeFalse)
	test.That(t, cs.GoalValid([]float64{2, 0}, 3), test.ShouldBeTrue)
	test.That(t, cs.GoalValid([]float64{3, 0}, 1), test.ShouldBeTrue)
}
