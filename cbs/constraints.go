package cbs

import (
	"math"

	"go.viam.com/dbcbs/robots"
)

// Constraint forbids a robot from being near State around Time.
type Constraint struct {
	Time  float64   `json:"time"`
	State []float64 `json:"state"`
}

// ConstraintSet holds the constraints of one robot and checks states against them. It satisfies
// motionplan.StateChecker, motionplan.GoalChecker and motionplan.TimedChecker.
type ConstraintSet struct {
	model       robots.Model
	constraints []Constraint
	radius      float64
	tolerance   float64
}

// NewConstraintSet returns a checker for the constraints. A state at time t violates a constraint
// when t is within tolerance of its time and the state within radius of its state.
func NewConstraintSet(model robots.Model, constraints []Constraint, radius, tolerance float64) *ConstraintSet {
	return &ConstraintSet{model: model, constraints: constraints, radius: radius, tolerance: tolerance}
}

// Constraints returns the constraints checked.
func (cs *ConstraintSet) Constraints() []Constraint {
	return cs.constraints
}

// SatisfiesBounds always holds; bounds belong to the robot model.
func (cs *ConstraintSet) SatisfiesBounds(state []float64) bool {
	return true
}

// IsValid reports whether the state at time t violates no constraint.
func (cs *ConstraintSet) IsValid(state []float64, t float64) bool {
	for _, c := range cs.constraints {
		if math.Abs(t-c.Time) <= cs.tolerance && cs.model.Distance(state, c.State) <= cs.radius {
			return false
		}
	}
	return true
}

// GoalValid reports whether a robot that reaches state at time t and stays there violates no
// constraint from then on.
func (cs *ConstraintSet) GoalValid(state []float64, t float64) bool {
	for _, c := range cs.constraints {
		if c.Time >= t-cs.tolerance && cs.model.Distance(state, c.State) <= cs.radius {
			return false
		}
	}
	return true
}

// TimeTolerance returns the tolerance used to match times, and whether any constraint makes
// validity depend on time at all.
func (cs *ConstraintSet) TimeTolerance() (float64, bool) {
	return cs.tolerance, len(cs.constraints) > 0
}
