package robots

import (
	"math"
	"math/rand"

	"github.com/golang/geo/r3"

	"go.viam.com/dbcbs/collision"
	"go.viam.com/dbcbs/spatialmath"
	"go.viam.com/dbcbs/utils"
)

// carTrailer is a first order car towing one trailer. State (x, y, theta0, theta1) where
// theta0 is the car heading and theta1 the trailer heading; action (v, steering angle).
// Part 0 is the car body centered on (x, y), part 1 the trailer centered hitchLength behind it.
type carTrailer struct {
	base
	wheelbase     float64
	hitchLength   float64
	maxHitchAngle float64
}

func newCarTrailer(cfg *Config) (*carTrailer, error) {
	body, err := newBox(cfg.Size, "body")
	if err != nil {
		return nil, err
	}
	trailer, err := newBox(cfg.TrailerSize, "trailer")
	if err != nil {
		return nil, err
	}
	if cfg.MaxHitchAngle < 0 || cfg.HitchLength < 0 || cfg.Wheelbase < 0 {
		return nil, utils.NewConfigurationError("car geometry must be positive")
	}
	lo, hi := cfg.positionBounds(2)
	return &carTrailer{
		base: base{
			kind:     CarWithOneTrailer,
			dt:       cfg.Dt,
			maxSpeed: cfg.MaxSpeed,
			bounds:   collision.AABB{Min: lo, Max: hi},
			parts:    []collision.Geometry{body, trailer},
			posDim:   2,
		},
		wheelbase:     cfg.Wheelbase,
		hitchLength:   cfg.HitchLength,
		maxHitchAngle: cfg.MaxHitchAngle,
	}, nil
}

func (c *carTrailer) StateDim() int {
	return 4
}

func (c *carTrailer) ActionDim() int {
	return 2
}

func (c *carTrailer) Transform(state []float64, part int) spatialmath.Pose {
	pos := c.Position(state)
	if part == 0 {
		return spatialmath.NewPose(pos, state[2])
	}
	s, co := math.Sincos(state[3])
	return spatialmath.NewPose(pos.Sub(r3.Vector{X: co, Y: s}.Mul(c.hitchLength)), state[3])
}

func (c *carTrailer) Distance(a, b []float64) float64 {
	return planarDistance(a, b, 2, 3)
}

func (c *carTrailer) SatisfiesBounds(state []float64) bool {
	if len(state) != 4 || !c.positionInBounds(state) {
		return false
	}
	return math.Abs(utils.AngleDiff(state[3], state[2])) <= c.maxHitchAngle
}

func (c *carTrailer) SampleUniform(rng *rand.Rand) []float64 {
	pt := c.samplePosition(rng)
	theta0 := sampleAngle(rng)
	theta1 := utils.WrapToPi(theta0 + (2*rng.Float64()-1)*c.maxHitchAngle)
	return []float64{pt.X, pt.Y, theta0, theta1}
}

func (c *carTrailer) Step(state, action []float64) []float64 {
	v, phi := action[0], action[1]
	s0, c0 := math.Sincos(state[2])
	return []float64{
		state[0] + v*c0*c.dt,
		state[1] + v*s0*c.dt,
		utils.WrapToPi(state[2] + v/c.wheelbase*math.Tan(phi)*c.dt),
		utils.WrapToPi(state[3] + v/c.hitchLength*math.Sin(state[2]-state[3])*c.dt),
	}
}

func (c *carTrailer) Euclidean() bool {
	return false
}
