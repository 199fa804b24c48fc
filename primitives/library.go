// Package primitives holds the motion primitive library: short precomputed trajectories, moved
// to start at the origin, that the low level planner stitches together.
package primitives

import (
	"math/rand"

	"github.com/golang/geo/r3"
	"go.uber.org/multierr"

	"go.viam.com/dbcbs/collision"
	"go.viam.com/dbcbs/logging"
	"go.viam.com/dbcbs/nearest"
	"go.viam.com/dbcbs/robots"
	"go.viam.com/dbcbs/utils"
)

// Primitive is a motion as stored on disk.
type Primitive struct {
	States  [][]float64 `json:"states"`
	Actions [][]float64 `json:"actions"`
}

// Motion is a loaded primitive. States are position-normalized so the first state sits at the
// origin, and Shapes[k][p] is part p of the robot at States[k] in that frame. Only Disabled
// changes after loading.
type Motion struct {
	ID       int
	States   [][]float64
	Actions  [][]float64
	Cost     float64
	Shapes   [][]collision.Geometry
	Disabled bool
}

// Start returns the first state.
func (m *Motion) Start() []float64 {
	return m.States[0]
}

// End returns the last state.
func (m *Motion) End() []float64 {
	return m.States[len(m.States)-1]
}

// Library is an indexed set of motions for one robot model. Once filtered and calibrated it is
// read only and may be shared by concurrent planners.
type Library struct {
	model   robots.Model
	logger  logging.Logger
	motions []*Motion
	index   nearest.Index

	outOfBounds int
}

// Load validates and normalizes the primitives and indexes their start states.
func Load(model robots.Model, prims []Primitive, logger logging.Logger) (*Library, error) {
	lib := &Library{model: model, logger: logger}
	var errs error
	numStates := 0
	for i, p := range prims {
		m, err := lib.newMotion(i, p)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		for _, s := range m.States {
			if !model.SatisfiesBounds(s) {
				lib.outOfBounds++
			}
		}
		numStates += len(m.States)
		lib.motions = append(lib.motions, m)
	}
	if errs != nil {
		return nil, errs
	}
	if len(lib.motions) == 0 {
		return nil, utils.NewInputError("no motion primitives for robot %q", model.Kind())
	}
	lib.BuildIndex()
	logger.Infow("loaded motion primitives",
		"robot", model.Kind(), "motions", len(lib.motions), "states", numStates, "out_of_bounds_states", lib.outOfBounds)
	return lib, nil
}

func (lib *Library) newMotion(id int, p Primitive) (*Motion, error) {
	if len(p.States) == 0 {
		return nil, utils.NewInputError("motion %d has no states", id)
	}
	if len(p.Actions) != len(p.States)-1 {
		return nil, utils.NewInputError("motion %d has %d states but %d actions", id, len(p.States), len(p.Actions))
	}
	for k, s := range p.States {
		if len(s) != lib.model.StateDim() {
			return nil, utils.NewInputError("motion %d state %d has dimension %d, want %d", id, k, len(s), lib.model.StateDim())
		}
		if !utils.IsFinite(s) {
			return nil, utils.NewInputError("motion %d state %d is not finite", id, k)
		}
	}
	for k, a := range p.Actions {
		if len(a) != lib.model.ActionDim() {
			return nil, utils.NewInputError("motion %d action %d has dimension %d, want %d", id, k, len(a), lib.model.ActionDim())
		}
		if !utils.IsFinite(a) {
			return nil, utils.NewInputError("motion %d action %d is not finite", id, k)
		}
	}

	origin := lib.model.Position(p.States[0])
	m := &Motion{
		ID:      id,
		States:  make([][]float64, len(p.States)),
		Actions: make([][]float64, len(p.Actions)),
		Cost:    float64(len(p.Actions)) * lib.model.Dt(),
		Shapes:  make([][]collision.Geometry, len(p.States)),
	}
	for k, s := range p.States {
		m.States[k] = lib.model.WithPosition(s, lib.model.Position(s).Sub(origin))
		m.Shapes[k] = robots.WorldShapes(lib.model, m.States[k])
	}
	for k, a := range p.Actions {
		m.Actions[k] = append([]float64(nil), a...)
	}
	return m, nil
}

// Model returns the robot model the motions belong to.
func (lib *Library) Model() robots.Model {
	return lib.model
}

// Motions returns every motion, ordered by id.
func (lib *Library) Motions() []*Motion {
	return lib.motions
}

// Motion returns the motion with the given id.
func (lib *Library) Motion(id int) *Motion {
	return lib.motions[id]
}

// Len returns the number of motions, disabled ones included.
func (lib *Library) Len() int {
	return len(lib.motions)
}

// Enabled returns the number of motions that are not disabled.
func (lib *Library) Enabled() int {
	n := 0
	for _, m := range lib.motions {
		if !m.Disabled {
			n++
		}
	}
	return n
}

// OutOfBoundsStates returns how many loaded states violated the model bounds.
func (lib *Library) OutOfBoundsStates() int {
	return lib.outOfBounds
}

// Shuffle permutes the motions, reassigns their ids and rebuilds the index.
func (lib *Library) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(lib.motions), func(i, j int) {
		lib.motions[i], lib.motions[j] = lib.motions[j], lib.motions[i]
	})
	for i, m := range lib.motions {
		m.ID = i
	}
	lib.BuildIndex()
}

// BuildIndex indexes the start state of every motion under its id.
func (lib *Library) BuildIndex() {
	starts := make([][]float64, len(lib.motions))
	for i, m := range lib.motions {
		starts[i] = m.Start()
	}
	lib.index = nearest.Build(starts, lib.model.Distance, lib.model.Euclidean())
}

// normalize moves the state to the origin, the frame motions are stored in.
func (lib *Library) normalize(state []float64) []float64 {
	return lib.model.WithPosition(state, r3.Vector{})
}

// Applicable returns the enabled motions whose start is within radius of the state once the
// state is moved to the origin.
func (lib *Library) Applicable(state []float64, radius float64) []*Motion {
	neighbors := lib.index.NearestR(lib.normalize(state), radius)
	out := make([]*Motion, 0, len(neighbors))
	for _, n := range neighbors {
		if m := lib.motions[n.ID]; !m.Disabled {
			out = append(out, m)
		}
	}
	return out
}

// FilterDuplicates disables motions that another enabled motion makes redundant: both start
// within delta*alpha of each other and end within delta*(1-alpha). Motions are visited by id and
// the first one seen survives. It returns how many motions were disabled.
func (lib *Library) FilterDuplicates(delta, alpha float64) (int, error) {
	if err := checkAlpha(alpha); err != nil {
		return 0, err
	}
	if delta <= 0 {
		return 0, utils.NewConfigurationError("delta must be positive to filter duplicates, got %v", delta)
	}
	startRadius := delta * alpha
	endRadius := delta * (1 - alpha)
	disabled := 0
	for _, m := range lib.motions {
		if m.Disabled {
			continue
		}
		for _, n := range lib.index.NearestR(m.Start(), startRadius) {
			other := lib.motions[n.ID]
			if other == m || other.Disabled {
				continue
			}
			if lib.model.Distance(m.End(), other.End()) < endRadius {
				other.Disabled = true
				disabled++
			}
		}
	}
	lib.logger.Infow("filtered duplicate motions", "disabled", disabled, "remaining", len(lib.motions)-disabled)
	return disabled, nil
}

func checkAlpha(alpha float64) error {
	if !(alpha > 0 && alpha < 1) {
		return utils.NewConfigurationError("alpha must lie in (0, 1), got %v", alpha)
	}
	return nil
}
