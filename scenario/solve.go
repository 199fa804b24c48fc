package scenario

import (
	"context"
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"go.viam.com/dbcbs/cbs"
	"go.viam.com/dbcbs/collision"
	"go.viam.com/dbcbs/config"
	"go.viam.com/dbcbs/logging"
	"go.viam.com/dbcbs/primitives"
	"go.viam.com/dbcbs/robots"
	"go.viam.com/dbcbs/utils"
)

// Solve plans the scenario with the primitives given for each robot kind. Libraries are shuffled,
// calibrated and filtered as the configuration asks before the search starts.
func Solve(
	ctx context.Context,
	s *Scenario,
	prims map[robots.Kind][]primitives.Primitive,
	cfg *config.Config,
	logger logging.Logger,
) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	world, err := s.World()
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(int64(cfg.RandomSeed))) //nolint:gosec

	// loading precomputes the collision shapes of every motion state, one library per robot
	libs := make([]*primitives.Library, len(s.Robots))
	var group errgroup.Group
	for i := range s.Robots {
		i := i
		group.Go(func() error {
			model, err := robots.New(s.RobotConfig(i))
			if err != nil {
				return errors.Wrapf(err, "robot %d", i)
			}
			p, ok := prims[model.Kind()]
			if !ok {
				return utils.NewConfigurationError("no motion primitives for robot type %q", model.Kind())
			}
			lib, err := primitives.Load(model, p, logger.Sublogger(string(model.Kind())))
			if err != nil {
				return errors.Wrapf(err, "robot %d", i)
			}
			libs[i] = lib
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	queries := make([]cbs.Robot, len(s.Robots))
	for i, lib := range libs {
		if cfg.ShufflePrimitives {
			lib.Shuffle(rng)
		}
		queries[i] = cbs.Robot{Start: s.Robots[i].Start, Goal: s.Robots[i].Goal, Library: lib}
	}

	delta := cfg.Delta
	if k, ok := cfg.CalibrationNeighbors(); ok {
		delta = 0
		for _, q := range queries {
			d, err := q.Library.CalibrateDelta(cfg.Alpha, k, cfg.CalibrationSamples, rng, collisionFree(world, q.Library.Model()))
			if err != nil {
				return nil, err
			}
			delta = math.Max(delta, d)
		}
		if !(delta > 0) {
			return nil, utils.NewConfigurationError("calibration with %d neighbors gave delta %v", k, delta)
		}
		logger.Infow("calibrated delta", "delta", delta, "neighbors", k)
	}
	if cfg.FilterDuplicates {
		for _, q := range queries {
			if _, err := q.Library.FilterDuplicates(delta, cfg.Alpha); err != nil {
				return nil, err
			}
		}
	}

	solver, err := cbs.NewSolver(cbs.NewOptions(cfg, delta), logger, nil)
	if err != nil {
		return nil, err
	}
	sol, err := solver.Solve(ctx, world, queries)
	if err != nil {
		return nil, err
	}
	res := NewResult(s, sol)
	res.Delta = delta
	res.Epsilon = cfg.Epsilon
	return res, nil
}

// collisionFree accepts states where the robot clears every obstacle.
func collisionFree(world *collision.World, model robots.Model) func([]float64) bool {
	return func(state []float64) bool {
		hit, err := world.Collides(robots.WorldShapes(model, state))
		return err == nil && !hit
	}
}
