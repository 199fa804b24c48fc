package motionplan

// StateChecker decides whether the robot may occupy a state at a given time, on top of the
// static world. Implementations supply constraints the planner knows nothing about.
type StateChecker interface {
	SatisfiesBounds(state []float64) bool
	IsValid(state []float64, t float64) bool
}

// GoalChecker is implemented by checkers that can veto a goal state: a robot that stops at the
// goal at time t stays there forever, so later constraints matter too.
type GoalChecker interface {
	GoalValid(state []float64, t float64) bool
}

// TimedChecker is implemented by checkers whose verdict depends on time. While such a checker
// reports itself active, the planner only merges states whose costs are within the tolerance,
// which lets the robot wait in place.
type TimedChecker interface {
	TimeTolerance() (tolerance float64, active bool)
}
