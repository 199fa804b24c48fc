package cbs

import (
	"context"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/dbcbs/collision"
	"go.viam.com/dbcbs/logging"
	"go.viam.com/dbcbs/motionplan"
	"go.viam.com/dbcbs/primitives"
	"go.viam.com/dbcbs/robots"
	"go.viam.com/dbcbs/spatialmath"
	"go.viam.com/dbcbs/utils"
)

// gridLibrary returns unit steps along each axis plus staying in place, one cell per second.
func gridLibrary(t *testing.T, logger logging.Logger) *primitives.Library {
	t.Helper()
	return stepLibrary(t, logger, 1)
}

func stepLibrary(t *testing.T, logger logging.Logger, dt float64) *primitives.Library {
	t.Helper()
	model := pointRobot(t, dt)
	var prims []primitives.Primitive
	for _, a := range [][]float64{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {0, 0}} {
		start := []float64{0, 0}
		prims = append(prims, primitives.Primitive{
			States:  [][]float64{start, model.Step(start, a)},
			Actions: [][]float64{a},
		})
	}
	lib, err := primitives.Load(model, prims, logger)
	test.That(t, err, test.ShouldBeNil)
	return lib
}

func testOptions() Options {
	return Options{
		Planner:     motionplan.Options{Delta: 0.3, Epsilon: 1, Alpha: 0.5, MaxCost: 1e6},
		FocalWeight: 1,
	}
}

func emptyWorld(t *testing.T) *collision.World {
	t.Helper()
	world, err := collision.NewWorld(r3.Vector{X: -1, Y: -3}, r3.Vector{X: 6, Y: 3}, nil)
	test.That(t, err, test.ShouldBeNil)
	return world
}

// corridorWorld walls off the cells beside (2, 0) so the row y=0 and the column x=2 are the only
// ways through.
func corridorWorld(t *testing.T) *collision.World {
	t.Helper()
	var walls []collision.Geometry
	for _, c := range []r3.Vector{{X: 1, Y: 1}, {X: 1, Y: -1}, {X: 3, Y: 1}, {X: 3, Y: -1}} {
		wall, err := collision.NewBox(spatialmath.NewPoseFromPoint(c), r3.Vector{X: 0.8, Y: 0.8, Z: 1}, "wall")
		test.That(t, err, test.ShouldBeNil)
		walls = append(walls, wall)
	}
	world, err := collision.NewWorld(r3.Vector{X: -1, Y: -3}, r3.Vector{X: 6, Y: 3}, walls)
	test.That(t, err, test.ShouldBeNil)
	return world
}

func newTestSolver(t *testing.T, opts Options, logger logging.Logger) *Solver {
	t.Helper()
	s, err := NewSolver(opts, logger, nil)
	test.That(t, err, test.ShouldBeNil)
	return s
}

func TestRootWithoutConflicts(t *testing.T) {
	logger := logging.NewTestLogger(t)
	lib := gridLibrary(t, logger)
	queries := []Robot{
		{Start: []float64{0, 0}, Goal: []float64{4, 0}, Library: lib},
		{Start: []float64{0, 2}, Goal: []float64{4, 2}, Library: lib},
	}

	sol, err := newTestSolver(t, testOptions(), logger).Solve(context.Background(), emptyWorld(t), queries)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sol.Cost, test.ShouldEqual, 8.)
	test.That(t, sol.Stats.Expanded, test.ShouldEqual, 1)
	test.That(t, sol.Stats.Generated, test.ShouldEqual, 1)
	test.That(t, sol.Stats.LowLevelExpansions, test.ShouldBeGreaterThan, 0)
	test.That(t, sol.Constraints, test.ShouldResemble, [][]Constraint{nil, nil})
	test.That(t, len(sol.Results), test.ShouldEqual, 2)
}

func crossingQueries(lib *primitives.Library) []Robot {
	return []Robot{
		{Start: []float64{0, 0}, Goal: []float64{4, 0}, Library: lib},
		{Start: []float64{2, -2}, Goal: []float64{2, 2}, Library: lib},
	}
}

func TestCrossing(t *testing.T) {
	logger := logging.NewTestLogger(t)
	lib := gridLibrary(t, logger)

	focal := testOptions()
	focal.FocalWeight = 2
	parallel := testOptions()
	parallel.ParallelReplan = true

	for _, tc := range []struct {
		name string
		opts Options
	}{
		{"cbs", testOptions()},
		{"focal", focal},
		{"parallel replan", parallel},
	} {
		t.Run(tc.name, func(t *testing.T) {
			sol, err := newTestSolver(t, tc.opts, logger).Solve(context.Background(), emptyWorld(t), crossingQueries(lib))
			test.That(t, err, test.ShouldBeNil)

			// both robots pass (2, 0) at t=2; one of them waits once
			test.That(t, sol.Cost, test.ShouldEqual, 9.)
			test.That(t, sol.Stats.Expanded, test.ShouldEqual, 2)
			test.That(t, sol.Stats.Generated, test.ShouldEqual, 3)
			test.That(t, sol.Stats.ReplanFailures, test.ShouldEqual, 0)
			test.That(t, sol.Constraints[0], test.ShouldResemble, []Constraint{{Time: 2, State: []float64{2, 0}}})
			test.That(t, sol.Constraints[1], test.ShouldBeEmpty)
			test.That(t, sol.Results[0].Cost, test.ShouldEqual, 5.)
			test.That(t, sol.Results[1].Cost, test.ShouldEqual, 4.)

			trajs := [][][]float64{sol.Results[0].States, sol.Results[1].States}
			c, err := EarliestConflict(trajs, []robots.Model{lib.Model(), lib.Model()})
			test.That(t, err, test.ShouldBeNil)
			test.That(t, c, test.ShouldBeNil)
		})
	}
}

func TestSolveFailures(t *testing.T) {
	logger := logging.NewTestLogger(t)
	lib := gridLibrary(t, logger)

	// the second goal is outside the position bounds
	queries := []Robot{
		{Start: []float64{0, 0}, Goal: []float64{4, 0}, Library: lib},
		{Start: []float64{0, 2}, Goal: []float64{10, 2}, Library: lib},
	}
	_, err := newTestSolver(t, testOptions(), logger).Solve(context.Background(), emptyWorld(t), queries)
	test.That(t, errors.Is(err, motionplan.ErrNoSolution), test.ShouldBeTrue)

	opts := testOptions()
	opts.MaxHighLevelExpansions = 1
	_, err = newTestSolver(t, opts, logger).Solve(context.Background(), emptyWorld(t), crossingQueries(lib))
	test.That(t, errors.Is(err, motionplan.ErrBudgetExceeded), test.ShouldBeTrue)

	_, err = newTestSolver(t, testOptions(), logger).Solve(context.Background(), emptyWorld(t), nil)
	test.That(t, errors.Is(err, utils.ErrInput), test.ShouldBeTrue)

	opts = testOptions()
	opts.FocalWeight = 0.5
	_, err = NewSolver(opts, logger, nil)
	test.That(t, errors.Is(err, utils.ErrConfiguration), test.ShouldBeTrue)
}

func TestCrossingInCorridor(t *testing.T) {
	logger := logging.NewTestLogger(t)
	lib := gridLibrary(t, logger)
	world := corridorWorld(t)

	sol, err := newTestSolver(t, testOptions(), logger).Solve(context.Background(), world, crossingQueries(lib))
	test.That(t, err, test.ShouldBeNil)

	// the walls leave no way around (2, 0), so the first robot has to wait for the second
	test.That(t, sol.Cost, test.ShouldEqual, 9.)
	test.That(t, sol.Constraints[0], test.ShouldResemble, []Constraint{{Time: 2, State: []float64{2, 0}}})
	test.That(t, sol.Results[0].Cost, test.ShouldEqual, 5.)
	for _, res := range sol.Results {
		for _, state := range res.States {
			hit, err := world.Collides(robots.WorldShapes(lib.Model(), state))
			test.That(t, err, test.ShouldBeNil)
			test.That(t, hit, test.ShouldBeFalse)
		}
	}

	trajs := [][][]float64{sol.Results[0].States, sol.Results[1].States}
	c, err := EarliestConflict(trajs, []robots.Model{lib.Model(), lib.Model()})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c, test.ShouldBeNil)
}

func TestSolveBudgets(t *testing.T) {
	logger := logging.NewTestLogger(t)
	lib := gridLibrary(t, logger)

	t.Run("low level budget at the root", func(t *testing.T) {
		opts := testOptions()
		opts.Planner.MaxExpansions = 1
		_, err := newTestSolver(t, opts, logger).Solve(context.Background(), emptyWorld(t), crossingQueries(lib))
		test.That(t, errors.Is(err, motionplan.ErrBudgetExceeded), test.ShouldBeTrue)
		test.That(t, errors.Is(err, motionplan.ErrNoSolution), test.ShouldBeFalse)
	})

	t.Run("cancelled before the root", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := newTestSolver(t, testOptions(), logger).Solve(ctx, emptyWorld(t), crossingQueries(lib))
		test.That(t, errors.Is(err, motionplan.ErrBudgetExceeded), test.ShouldBeTrue)
		test.That(t, errors.Is(err, motionplan.ErrNoSolution), test.ShouldBeFalse)
	})

	t.Run("cancelled while branching", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		h := &highLevel{
			Solver: newTestSolver(t, testOptions(), logger),
			ctx:    ctx,
			world:  emptyWorld(t),
			robots: crossingQueries(lib),
			models: []robots.Model{lib.Model(), lib.Model()},
		}
		parent := &HighLevelNode{
			Solution:    make([]*motionplan.Result, 2),
			Constraints: make([][]Constraint, 2),
		}
		conflict := &Conflict{Time: 2, Step: 2, RobotI: 0, StateI: []float64{2, 0}, RobotJ: 1, StateJ: []float64{2, 0}}
		children, err := h.branch(parent, conflict)
		test.That(t, errors.Is(err, motionplan.ErrBudgetExceeded), test.ShouldBeTrue)
		test.That(t, children, test.ShouldBeNil)
		test.That(t, h.stats.ReplanFailures, test.ShouldEqual, 0)
	})
}

func TestMixedTimeSteps(t *testing.T) {
	logger := logging.NewTestLogger(t)
	queries := []Robot{
		{Start: []float64{0, 0}, Goal: []float64{4, 0}, Library: gridLibrary(t, logger)},
		{Start: []float64{0, 2}, Goal: []float64{2, 2}, Library: stepLibrary(t, logger, 0.5)},
	}
	_, err := newTestSolver(t, testOptions(), logger).Solve(context.Background(), emptyWorld(t), queries)
	test.That(t, errors.Is(err, utils.ErrConfiguration), test.ShouldBeTrue)
}
