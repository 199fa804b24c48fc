package motionplan

// Status tells how a search ended.
type Status int

const (
	// StatusExact means the trajectory ends within delta of the goal.
	StatusExact Status = iota
	// StatusApproximate means the search was exhausted and the trajectory ends at the explored
	// state closest to the goal.
	StatusApproximate
)

func (s Status) String() string {
	switch s {
	case StatusExact:
		return "exact"
	case StatusApproximate:
		return "approximate"
	default:
		return "unknown"
	}
}

// Result is a single robot trajectory. States has one more entry than Actions and States[k] is
// reached at time k*dt.
type Result struct {
	Status  Status
	States  [][]float64
	Actions [][]float64
	Cost    float64

	// Expansions is the number of nodes popped from the open set.
	Expansions int

	// MotionStats counts how often each motion id was used.
	MotionStats map[int]int
	// Splits holds the number of steps contributed by each motion, in order.
	Splits []int

	Delta        float64
	Epsilon      float64
	GoalDistance float64
}

// Exact reports whether the trajectory reaches the goal region.
func (r *Result) Exact() bool {
	return r != nil && r.Status == StatusExact
}

// StateAt returns the state at step k. A trajectory that has ended holds its last state.
func (r *Result) StateAt(k int) []float64 {
	if k >= len(r.States) {
		return r.States[len(r.States)-1]
	}
	return r.States[k]
}
