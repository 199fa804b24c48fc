package robots

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/dbcbs/utils"
)

const (
	// default duration of one primitive step in seconds.
	defaultDt = 0.1

	// default translational speed limit.
	defaultMaxSpeed = 0.5

	// default body of the unicycle and the car, length by width.
	defaultBodyLength = 0.5
	defaultBodyWidth  = 0.25

	// default radius of the integrator robots.
	defaultRadius = 0.1

	// default trailer body, length by width.
	defaultTrailerLength = 0.3
	defaultTrailerWidth  = 0.25

	// default distance from the car reference point to the trailer center.
	defaultHitchLength = 0.5

	// default distance between the car axles.
	defaultWheelbase = 0.25

	// default limit on the car heading minus the trailer heading.
	defaultMaxHitchAngle = math.Pi / 4

	// height given to planar shapes so they can be tested as boxes.
	shapeHeight = 1.0

	// positions are unbounded unless the environment says otherwise.
	unboundedCoordinate = 1e6
)

// Config describes a robot model. Zero values are replaced by the defaults of the given Kind.
type Config struct {
	Kind     Kind    `json:"type"`
	Dt       float64 `json:"dt,omitempty"`
	MaxSpeed float64 `json:"max_speed,omitempty"`

	// Radius of the integrator robots.
	Radius float64 `json:"radius,omitempty"`
	// Size is the length and width of the unicycle or car body.
	Size []float64 `json:"size,omitempty"`

	TrailerSize   []float64 `json:"trailer_size,omitempty"`
	HitchLength   float64   `json:"hitch_length,omitempty"`
	Wheelbase     float64   `json:"wheelbase,omitempty"`
	MaxHitchAngle float64   `json:"max_hitch_angle,omitempty"`

	// Min and Max bound the robot position. They are usually copied from the environment.
	Min []float64 `json:"min,omitempty"`
	Max []float64 `json:"max,omitempty"`
}

func (cfg *Config) applyDefaults() {
	if cfg.Dt == 0 {
		cfg.Dt = defaultDt
	}
	if cfg.MaxSpeed == 0 {
		cfg.MaxSpeed = defaultMaxSpeed
	}
	if cfg.Radius == 0 {
		cfg.Radius = defaultRadius
	}
	if len(cfg.Size) == 0 {
		cfg.Size = []float64{defaultBodyLength, defaultBodyWidth}
	}
	if len(cfg.TrailerSize) == 0 {
		cfg.TrailerSize = []float64{defaultTrailerLength, defaultTrailerWidth}
	}
	if cfg.HitchLength == 0 {
		cfg.HitchLength = defaultHitchLength
	}
	if cfg.Wheelbase == 0 {
		cfg.Wheelbase = defaultWheelbase
	}
	if cfg.MaxHitchAngle == 0 {
		cfg.MaxHitchAngle = defaultMaxHitchAngle
	}
}

func (cfg *Config) positionBounds(dim int) (r3.Vector, r3.Vector) {
	lo := []float64{-unboundedCoordinate, -unboundedCoordinate, -unboundedCoordinate}
	hi := []float64{unboundedCoordinate, unboundedCoordinate, unboundedCoordinate}
	for i := 0; i < dim && i < len(cfg.Min) && i < len(cfg.Max); i++ {
		lo[i] = cfg.Min[i]
		hi[i] = cfg.Max[i]
	}
	if dim == 2 {
		lo[2], hi[2] = 0, 0
	}
	return r3.Vector{X: lo[0], Y: lo[1], Z: lo[2]}, r3.Vector{X: hi[0], Y: hi[1], Z: hi[2]}
}

// New resolves a Config into its model.
func New(cfg Config) (Model, error) {
	cfg.applyDefaults()
	if err := validateCommon(&cfg); err != nil {
		return nil, err
	}
	var (
		m   Model
		err error
	)
	switch cfg.Kind {
	case Unicycle:
		m, err = newUnicycle(&cfg)
	case SingleIntegrator2D:
		m, err = newIntegrator(&cfg, 2)
	case Integrator3D:
		m, err = newIntegrator(&cfg, 3)
	case CarWithOneTrailer:
		m, err = newCarTrailer(&cfg)
	default:
		return nil, utils.NewConfigurationError("unknown robot type %q", cfg.Kind)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "robot %q", cfg.Kind)
	}
	return m, nil
}
