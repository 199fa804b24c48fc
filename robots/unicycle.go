package robots

import (
	"math"
	"math/rand"

	"go.viam.com/dbcbs/collision"
	"go.viam.com/dbcbs/spatialmath"
	"go.viam.com/dbcbs/utils"
)

// unicycle is a first order unicycle. State (x, y, theta), action (v, omega).
type unicycle struct {
	base
}

func newUnicycle(cfg *Config) (*unicycle, error) {
	body, err := newBox(cfg.Size, "body")
	if err != nil {
		return nil, err
	}
	lo, hi := cfg.positionBounds(2)
	return &unicycle{base{
		kind:     Unicycle,
		dt:       cfg.Dt,
		maxSpeed: cfg.MaxSpeed,
		bounds:   collision.AABB{Min: lo, Max: hi},
		parts:    []collision.Geometry{body},
		posDim:   2,
	}}, nil
}

func (u *unicycle) StateDim() int {
	return 3
}

func (u *unicycle) ActionDim() int {
	return 2
}

func (u *unicycle) Transform(state []float64, part int) spatialmath.Pose {
	return spatialmath.NewPose(u.Position(state), state[2])
}

func (u *unicycle) Distance(a, b []float64) float64 {
	return planarDistance(a, b, 2)
}

func (u *unicycle) SatisfiesBounds(state []float64) bool {
	return len(state) == 3 && u.positionInBounds(state)
}

func (u *unicycle) SampleUniform(rng *rand.Rand) []float64 {
	pt := u.samplePosition(rng)
	return []float64{pt.X, pt.Y, sampleAngle(rng)}
}

func (u *unicycle) Step(state, action []float64) []float64 {
	s, c := math.Sincos(state[2])
	return []float64{
		state[0] + action[0]*c*u.dt,
		state[1] + action[0]*s*u.dt,
		utils.WrapToPi(state[2] + action[1]*u.dt),
	}
}

func (u *unicycle) Euclidean() bool {
	return false
}
