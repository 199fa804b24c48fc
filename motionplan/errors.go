package motionplan

import "github.com/pkg/errors"

var (
	// ErrNoSolution is returned when the search space is exhausted without reaching the goal
	// and no node made progress towards it.
	ErrNoSolution = errors.New("motion planner failed to find path")

	// ErrBudgetExceeded is returned when a search runs out of expansions or time, or its
	// context is done.
	ErrBudgetExceeded = errors.New("planning budget exceeded")
)

func newBudgetExceededError(format string, args ...interface{}) error {
	return errors.Wrapf(ErrBudgetExceeded, format, args...)
}
