// Package robots defines the kinematic models the planners can drive. The set of models is
// closed: a model is resolved once from its Config by New and used through the Model interface.
package robots

import (
	"math"
	"math/rand"

	"github.com/golang/geo/r3"
	"go.uber.org/multierr"

	"go.viam.com/dbcbs/collision"
	"go.viam.com/dbcbs/spatialmath"
	"go.viam.com/dbcbs/utils"
)

// Kind names a robot model.
type Kind string

// The supported robot models.
const (
	Unicycle           = Kind("unicycle1")
	SingleIntegrator2D = Kind("single_integrator_2d")
	Integrator3D       = Kind("integrator_3d")
	CarWithOneTrailer  = Kind("car_first_order_with_1_trailers")
)

// Kinds returns every supported model kind.
func Kinds() []Kind {
	return []Kind{Unicycle, SingleIntegrator2D, Integrator3D, CarWithOneTrailer}
}

// Model is a robot motion model: its state and action layout, forward dynamics, the collision
// shapes of its rigid parts and the distance metric the planners search with.
type Model interface {
	Kind() Kind
	StateDim() int
	ActionDim() int
	// Dt is the duration of one action step in seconds.
	Dt() float64
	// MaxSpeed bounds the translational speed; the planners divide distances by it to get
	// admissible time estimates.
	MaxSpeed() float64
	NumParts() int

	// Position returns the translational part of the state.
	Position(state []float64) r3.Vector
	// WithPosition returns a copy of state with its translation replaced by pos.
	WithPosition(state []float64, pos r3.Vector) []float64
	// Transform returns the world pose of the given part.
	Transform(state []float64, part int) spatialmath.Pose
	// PartShape returns the shape of a part expressed in its own frame.
	PartShape(part int) collision.Geometry

	Distance(a, b []float64) float64
	SatisfiesBounds(state []float64) bool
	SampleUniform(rng *rand.Rand) []float64
	// Step integrates one action over Dt.
	Step(state, action []float64) []float64
	// Euclidean reports whether Distance is the L2 norm over the raw state vector.
	Euclidean() bool
}

// WorldShapes places every part of the robot at the given state.
func WorldShapes(m Model, state []float64) []collision.Geometry {
	shapes := make([]collision.Geometry, m.NumParts())
	for part := range shapes {
		shapes[part] = m.PartShape(part).Transform(m.Transform(state, part))
	}
	return shapes
}

// base holds what every model shares.
type base struct {
	kind     Kind
	dt       float64
	maxSpeed float64
	bounds   collision.AABB
	parts    []collision.Geometry
	posDim   int
}

func (b *base) Kind() Kind {
	return b.kind
}

func (b *base) Dt() float64 {
	return b.dt
}

func (b *base) MaxSpeed() float64 {
	return b.maxSpeed
}

func (b *base) NumParts() int {
	return len(b.parts)
}

func (b *base) PartShape(part int) collision.Geometry {
	return b.parts[part]
}

func (b *base) Position(state []float64) r3.Vector {
	if b.posDim == 3 {
		return r3.Vector{X: state[0], Y: state[1], Z: state[2]}
	}
	return r3.Vector{X: state[0], Y: state[1]}
}

func (b *base) WithPosition(state []float64, pos r3.Vector) []float64 {
	out := make([]float64, len(state))
	copy(out, state)
	out[0] = pos.X
	out[1] = pos.Y
	if b.posDim == 3 {
		out[2] = pos.Z
	}
	return out
}

func (b *base) positionInBounds(state []float64) bool {
	return utils.IsFinite(state) && b.bounds.Contains(b.Position(state))
}

func (b *base) samplePosition(rng *rand.Rand) r3.Vector {
	span := b.bounds.Max.Sub(b.bounds.Min)
	pt := r3.Vector{
		X: b.bounds.Min.X + rng.Float64()*span.X,
		Y: b.bounds.Min.Y + rng.Float64()*span.Y,
	}
	if b.posDim == 3 {
		pt.Z = b.bounds.Min.Z + rng.Float64()*span.Z
	}
	return pt
}

func sampleAngle(rng *rand.Rand) float64 {
	return -math.Pi + rng.Float64()*2*math.Pi
}

// planarDistance is the position distance plus half the wrapped difference of each heading.
func planarDistance(a, b []float64, headings ...int) float64 {
	d := math.Hypot(a[0]-b[0], a[1]-b[1])
	for _, i := range headings {
		d += 0.5 * math.Abs(utils.AngleDiff(a[i], b[i]))
	}
	return d
}

func newBox(dims []float64, label string) (collision.Geometry, error) {
	if len(dims) != 2 {
		return nil, utils.NewConfigurationError("%s size needs a length and a width, got %v", label, dims)
	}
	if !utils.IsFinite(dims) || dims[0] <= 0 || dims[1] <= 0 {
		return nil, utils.NewConfigurationError("%s size must be positive, got %v", label, dims)
	}
	return collision.NewBox(spatialmath.NewZeroPose(), r3.Vector{X: dims[0], Y: dims[1], Z: shapeHeight}, label)
}

func newSphere(radius float64, label string) (collision.Geometry, error) {
	return collision.NewSphere(spatialmath.NewZeroPose(), radius, label)
}

func validateCommon(cfg *Config) error {
	var errs error
	if cfg.Dt <= 0 {
		errs = multierr.Append(errs, utils.NewConfigurationError("robot %q: dt must be positive, got %v", cfg.Kind, cfg.Dt))
	}
	if cfg.MaxSpeed <= 0 {
		errs = multierr.Append(errs, utils.NewConfigurationError("robot %q: max speed must be positive, got %v", cfg.Kind, cfg.MaxSpeed))
	}
	if len(cfg.Min) != len(cfg.Max) {
		errs = multierr.Append(errs, utils.NewConfigurationError("robot %q: bounds have %d and %d entries", cfg.Kind, len(cfg.Min), len(cfg.Max)))
	}
	return errs
}
