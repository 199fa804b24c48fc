// Package scenario reads multi robot planning problems and motion primitives from JSON files and
// writes planning results back out.
package scenario

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/dbcbs/collision"
	"go.viam.com/dbcbs/primitives"
	"go.viam.com/dbcbs/robots"
	"go.viam.com/dbcbs/spatialmath"
	"go.viam.com/dbcbs/utils"
)

// Obstacle types.
const (
	BoxObstacle    = "box"
	SphereObstacle = "sphere"
)

// Obstacle is a static obstacle of the environment.
type Obstacle struct {
	Type   string    `json:"type"`
	Center []float64 `json:"center"`
	// Size is the box extent along each axis; a missing height makes a planar obstacle.
	Size   []float64 `json:"size,omitempty"`
	Radius float64   `json:"radius,omitempty"`
	// Yaw rotates boxes about the vertical axis.
	Yaw float64 `json:"yaw,omitempty"`
}

// Environment bounds the workspace and lists its obstacles.
type Environment struct {
	Min       []float64  `json:"min"`
	Max       []float64  `json:"max"`
	Obstacles []Obstacle `json:"obstacles"`
}

// Robot is one robot of a scenario. The embedded config picks the model; its bounds default to
// the environment's.
type Robot struct {
	robots.Config
	Start []float64 `json:"start"`
	Goal  []float64 `json:"goal"`
}

// Scenario is a complete multi robot planning problem.
type Scenario struct {
	Environment Environment `json:"environment"`
	Robots      []Robot     `json:"robots"`
}

// planar obstacles are extruded to this height.
const obstacleHeight = 1.0

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading scenario %q", path)
	}
	return Parse(data)
}

// Parse decodes and validates a scenario.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, utils.NewInputError("malformed scenario: %v", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Scenario) validate() error {
	var errs error
	env := s.Environment
	if len(env.Min) < 2 || len(env.Min) != len(env.Max) {
		errs = multierr.Append(errs, utils.NewInputError("environment bounds need matching min and max of dimension 2 or 3"))
	}
	if len(s.Robots) == 0 {
		errs = multierr.Append(errs, utils.NewInputError("scenario has no robots"))
	}
	for i, r := range s.Robots {
		if len(r.Start) == 0 || len(r.Start) != len(r.Goal) {
			errs = multierr.Append(errs, utils.NewInputError("robot %d needs a start and a goal of the same dimension", i))
		}
		if len(r.Size) != 0 && len(r.Size) != 2 {
			errs = multierr.Append(errs, utils.NewInputError("robot %d size needs a length and a width, got %v", i, r.Size))
		}
		if len(r.TrailerSize) != 0 && len(r.TrailerSize) != 2 {
			errs = multierr.Append(errs, utils.NewInputError("robot %d trailer size needs a length and a width, got %v", i, r.TrailerSize))
		}
	}
	for i, o := range env.Obstacles {
		if o.Type != BoxObstacle && o.Type != SphereObstacle {
			errs = multierr.Append(errs, utils.NewInputError("obstacle %d has unknown type %q", i, o.Type))
		}
		if len(o.Center) < 2 {
			errs = multierr.Append(errs, utils.NewInputError("obstacle %d needs a center", i))
		}
		if o.Type == BoxObstacle && len(o.Size) < 2 {
			errs = multierr.Append(errs, utils.NewInputError("box obstacle %d needs a size", i))
		}
	}
	return errs
}

func vec(v []float64) r3.Vector {
	var out r3.Vector
	if len(v) > 0 {
		out.X = v[0]
	}
	if len(v) > 1 {
		out.Y = v[1]
	}
	if len(v) > 2 {
		out.Z = v[2]
	}
	return out
}

// World builds the collision world of the environment.
func (s *Scenario) World() (*collision.World, error) {
	obstacles := make([]collision.Geometry, 0, len(s.Environment.Obstacles))
	for i, o := range s.Environment.Obstacles {
		label := fmt.Sprintf("%s_%d", o.Type, i)
		pose := spatialmath.NewPose(vec(o.Center), o.Yaw)
		var (
			g   collision.Geometry
			err error
		)
		switch o.Type {
		case BoxObstacle:
			dims := vec(o.Size)
			if len(o.Size) < 3 {
				dims.Z = obstacleHeight
			}
			g, err = collision.NewBox(pose, dims, label)
		case SphereObstacle:
			g, err = collision.NewSphere(pose, o.Radius, label)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "obstacle %d", i)
		}
		obstacles = append(obstacles, g)
	}
	return collision.NewWorld(vec(s.Environment.Min), vec(s.Environment.Max), obstacles)
}

// RobotConfig returns the model configuration of robot i, bounded by the environment unless the
// robot sets its own bounds.
func (s *Scenario) RobotConfig(i int) robots.Config {
	cfg := s.Robots[i].Config
	if len(cfg.Min) == 0 && len(cfg.Max) == 0 {
		cfg.Min = s.Environment.Min
		cfg.Max = s.Environment.Max
	}
	return cfg
}

// Kinds returns the distinct robot kinds of the scenario in order of first appearance.
func (s *Scenario) Kinds() []robots.Kind {
	var kinds []robots.Kind
	seen := map[robots.Kind]bool{}
	for _, r := range s.Robots {
		if !seen[r.Kind] {
			seen[r.Kind] = true
			kinds = append(kinds, r.Kind)
		}
	}
	return kinds
}

// LoadPrimitives reads a JSON array of motion primitives.
func LoadPrimitives(path string) ([]primitives.Primitive, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading primitives %q", path)
	}
	var prims []primitives.Primitive
	if err := json.Unmarshal(data, &prims); err != nil {
		return nil, utils.NewInputError("malformed primitives %q: %v", path, err)
	}
	return prims, nil
}
