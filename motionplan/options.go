package motionplan

import (
	"math"
	"time"

	"go.uber.org/multierr"

	"go.viam.com/dbcbs/config"
	"go.viam.com/dbcbs/utils"
)

// Options control a single db-A* search.
type Options struct {
	// Maximum discontinuity between consecutive motions and radius of the goal region.
	Delta float64

	// Heuristic inflation, at least 1.
	Epsilon float64

	// Split of delta between motion selection (Delta*Alpha) and state merging
	// (Delta*(1-Alpha)).
	Alpha float64

	// Candidates whose estimated total cost exceeds this are pruned.
	MaxCost float64

	// Pops allowed before giving up; zero means unlimited.
	MaxExpansions int

	// Wall clock allowed; zero means unlimited.
	Timeout time.Duration
}

// NewOptions takes the search options from a configuration. delta is passed separately since it
// may have been calibrated.
func NewOptions(cfg *config.Config, delta float64) Options {
	return Options{
		Delta:         delta,
		Epsilon:       cfg.Epsilon,
		Alpha:         cfg.Alpha,
		MaxCost:       cfg.MaxCost,
		MaxExpansions: cfg.MaxExpansions,
		Timeout:       cfg.TimeoutDuration(),
	}
}

func (o Options) validate() error {
	var errs error
	if !(o.Delta > 0) || math.IsInf(o.Delta, 0) {
		errs = multierr.Append(errs, utils.NewConfigurationError("delta must be positive, got %v", o.Delta))
	}
	if !(o.Epsilon >= 1) {
		errs = multierr.Append(errs, utils.NewConfigurationError("epsilon must be at least 1, got %v", o.Epsilon))
	}
	if !(o.Alpha > 0 && o.Alpha < 1) {
		errs = multierr.Append(errs, utils.NewConfigurationError("alpha must lie in (0, 1), got %v", o.Alpha))
	}
	if !(o.MaxCost > 0) {
		errs = multierr.Append(errs, utils.NewConfigurationError("max cost must be positive, got %v", o.MaxCost))
	}
	if o.MaxExpansions < 0 || o.Timeout < 0 {
		errs = multierr.Append(errs, utils.NewConfigurationError("budgets can't be negative"))
	}
	return errs
}
