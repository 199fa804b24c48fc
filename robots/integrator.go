package robots

import (
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"go.viam.com/dbcbs/collision"
	"go.viam.com/dbcbs/spatialmath"
)

// integrator is a single integrator point robot in 2 or 3 dimensions. State is the position and
// the action is the velocity.
type integrator struct {
	base
}

func newIntegrator(cfg *Config, dim int) (*integrator, error) {
	body, err := newSphere(cfg.Radius, "body")
	if err != nil {
		return nil, err
	}
	kind := SingleIntegrator2D
	if dim == 3 {
		kind = Integrator3D
	}
	lo, hi := cfg.positionBounds(dim)
	return &integrator{base{
		kind:     kind,
		dt:       cfg.Dt,
		maxSpeed: cfg.MaxSpeed,
		bounds:   collision.AABB{Min: lo, Max: hi},
		parts:    []collision.Geometry{body},
		posDim:   dim,
	}}, nil
}

func (i *integrator) StateDim() int {
	return i.posDim
}

func (i *integrator) ActionDim() int {
	return i.posDim
}

func (i *integrator) Transform(state []float64, part int) spatialmath.Pose {
	return spatialmath.NewPoseFromPoint(i.Position(state))
}

func (i *integrator) Distance(a, b []float64) float64 {
	return floats.Distance(a, b, 2)
}

func (i *integrator) SatisfiesBounds(state []float64) bool {
	return len(state) == i.posDim && i.positionInBounds(state)
}

func (i *integrator) SampleUniform(rng *rand.Rand) []float64 {
	pt := i.samplePosition(rng)
	if i.posDim == 3 {
		return []float64{pt.X, pt.Y, pt.Z}
	}
	return []float64{pt.X, pt.Y}
}

func (i *integrator) Step(state, action []float64) []float64 {
	next := make([]float64, len(state))
	floats.AddScaledTo(next, state, i.dt, action)
	return next
}

func (i *integrator) Euclidean() bool {
	return true
}
