package cbs

import (
	"go.viam.com/dbcbs/collision"
	"go.viam.com/dbcbs/robots"
	"go.viam.com/dbcbs/utils"
)

// Conflict is a collision between two robots at one step of their joint trajectories.
type Conflict struct {
	// Time is Step scaled by the time step the robots share.
	Time   float64
	Step   int
	RobotI int
	StateI []float64
	RobotJ int
	StateJ []float64
}

// stateAt returns the state at step t, holding the last state once the trajectory is over.
func stateAt(traj [][]float64, t int) []float64 {
	if t >= len(traj) {
		return traj[len(traj)-1]
	}
	return traj[t]
}

// scanCollisions steps through the trajectories together and calls visit with every pair of
// robots whose parts collide at that step, in broadphase report order. Scanning stops when visit
// returns false.
func scanCollisions(
	trajectories [][][]float64,
	models []robots.Model,
	visit func(step int, states [][]float64, i, j int) bool,
) error {
	if len(trajectories) != len(models) {
		return utils.NewInputError("%d trajectories for %d robot models", len(trajectories), len(models))
	}
	maxLen := 0
	for i, traj := range trajectories {
		if len(traj) == 0 {
			return utils.NewInputError("trajectory of robot %d is empty", i)
		}
		maxLen = max(maxLen, len(traj))
	}

	states := make([][]float64, len(trajectories))
	for t := 0; t < maxLen; t++ {
		var objects []collision.Object
		for i, traj := range trajectories {
			states[i] = stateAt(traj, t)
			for _, shape := range robots.WorldShapes(models[i], states[i]) {
				objects = append(objects, collision.Object{Geometry: shape, Owner: i})
			}
		}
		pairs, err := collision.SweepAndPrune(objects)
		if err != nil {
			return err
		}
		for _, p := range pairs {
			if !visit(t, states, objects[p.A].Owner, objects[p.B].Owner) {
				return nil
			}
		}
	}
	return nil
}

// EarliestConflict returns the first collision between any two robots following the given
// trajectories, or nil when they never collide. Robots whose trajectory is over stay at their
// last state. When several robots touch at the same step the first pair reported by the
// broadphase wins.
func EarliestConflict(trajectories [][][]float64, models []robots.Model) (*Conflict, error) {
	var conflict *Conflict
	err := scanCollisions(trajectories, models, func(step int, states [][]float64, i, j int) bool {
		conflict = &Conflict{
			Time:   float64(step) * models[0].Dt(),
			Step:   step,
			RobotI: i,
			StateI: append([]float64(nil), states[i]...),
			RobotJ: j,
			StateJ: append([]float64(nil), states[j]...),
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	return conflict, nil
}

// ConflictMatrix counts the colliding part pairs of every two robots over all steps. Counts are
// kept in the lower triangle: m[i][j] with i > j.
func ConflictMatrix(trajectories [][][]float64, models []robots.Model) ([][]int, error) {
	m := make([][]int, len(trajectories))
	for i := range m {
		m[i] = make([]int, len(trajectories))
	}
	err := scanCollisions(trajectories, models, func(_ int, _ [][]float64, i, j int) bool {
		m[max(i, j)][min(i, j)]++
		return true
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// countConflicts sums a conflict matrix.
func countConflicts(m [][]int) int {
	total := 0
	for i, row := range m {
		for _, n := range row[:i] {
			total += n
		}
	}
	return total
}
